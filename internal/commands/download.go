// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autobrr/animebrr/internal/render"
	"github.com/autobrr/animebrr/internal/types"
)

func DownloadCommand() *cobra.Command {
	command := groupCommand("download", "Inspect and control torrent tasks")
	command.Example = exampleFor(
		"run download progress",
		"run download task resume \"[Sub] Show - 01.mkv\"",
		"run download max 3",
	)

	command.AddCommand(DownloadProgressCommand())
	command.AddCommand(DownloadTaskCommand())
	command.AddCommand(DownloadMaxCommand())

	return command
}

func DownloadProgressCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "progress",
		Short:        "Print the torrent progress table once",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	var outputJson bool
	command.Flags().BoolVar(&outputJson, "json", false, "output in JSON format")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		env, err := newActionEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		rows, err := env.client.DownloadProgress(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch download progress: %w", err)
		}

		if outputJson {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(rows)
		}

		fmt.Fprint(cmd.OutOrStdout(), render.ProgressText(rows))
		return nil
	}

	return command
}

func DownloadTaskCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "task <resume|pause|delete|start> <torrent-name>",
		Short: "Control a torrent task",
		Long: `Control a torrent task by name.

"start" is only understood by backends on the consolidated task API.`,
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
	}

	command.RunE = runAction(func(ctx context.Context, cmd *cobra.Command, env *actionEnv, args []string) error {
		op := types.TaskOp(args[0])
		if _, ok := op.ExecuteType(); !ok {
			return fmt.Errorf("unknown task operation %q", args[0])
		}
		return env.dispatcher.TaskControl(ctx, args[1], op)
	})

	return command
}

func DownloadMaxCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "max [nums]",
		Short:        "Show or change the number of concurrent downloads",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
	}

	command.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			return runAction(func(ctx context.Context, cmd *cobra.Command, env *actionEnv, args []string) error {
				nums, err := parseIntArg("nums", args[0])
				if err != nil {
					return err
				}
				return env.dispatcher.ModifyMaxActiveDownloads(ctx, nums)
			})(cmd, args)
		}

		env, err := newActionEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		resp, err := env.client.MaxActiveDownloads(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch max active downloads: %w", err)
		}
		return printValue(cmd, "max active downloads", resp)
	}

	return command
}

func printValue(cmd *cobra.Command, label string, resp types.DataResponse) error {
	value, ok := resp.Value()
	if !ok {
		value = "-"
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", label, value)
	return err
}
