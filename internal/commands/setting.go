// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/autobrr/animebrr/internal/types"
)

func SettingCommand() *cobra.Command {
	command := groupCommand("setting", "Control the backend scheduler")
	command.Example = exampleFor(
		"run setting start",
		"run setting interval 30",
		"run setting pid",
	)

	simple := []struct {
		use   string
		short string
		run   func(ctx context.Context, env *actionEnv) error
	}{
		{"start", "Start the scheduler", func(ctx context.Context, env *actionEnv) error {
			return env.dispatcher.StartScheduler(ctx)
		}},
		{"stop", "Stop the scheduler", func(ctx context.Context, env *actionEnv) error {
			return env.dispatcher.StopScheduler(ctx)
		}},
		{"sync", "Sync finished torrent tasks", func(ctx context.Context, env *actionEnv) error {
			return env.dispatcher.SyncFinishedTasks(ctx)
		}},
	}
	for _, action := range simple {
		action := action
		sub := &cobra.Command{
			Use:          action.use,
			Short:        action.short,
			Args:         cobra.NoArgs,
			SilenceUsage: true,
		}
		sub.RunE = runAction(func(ctx context.Context, cmd *cobra.Command, env *actionEnv, args []string) error {
			return action.run(ctx, env)
		})
		command.AddCommand(sub)
	}

	command.AddCommand(SettingIntervalCommand())
	command.AddCommand(SettingPIDCommand())
	command.AddCommand(SettingStatusCommand())

	return command
}

func SettingIntervalCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "interval <minutes>",
		Short:        "Change the scheduler interval",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}

	command.RunE = runAction(func(ctx context.Context, cmd *cobra.Command, env *actionEnv, args []string) error {
		interval, err := parseIntArg("interval", args[0])
		if err != nil {
			return err
		}
		return env.dispatcher.ChangeInterval(ctx, interval)
	})

	return command
}

func SettingPIDCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "pid",
		Short:        "Show the scheduler pid",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	command.RunE = func(cmd *cobra.Command, args []string) error {
		env, err := newActionEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		resp, err := env.client.DaemonPID(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch scheduler pid: %w", err)
		}
		return printValue(cmd, "scheduler pid", resp)
	}

	return command
}

func SettingStatusCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "status",
		Short:        "Show the scheduler status (legacy task API only)",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	command.RunE = func(cmd *cobra.Command, args []string) error {
		env, err := newActionEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		raw, err := env.client.TaskStatus(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to fetch scheduler status: %w", err)
		}

		var resp types.DataResponse
		if err := json.Unmarshal(raw, &resp); err != nil || len(resp.Data) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "scheduler status: %s\n", raw)
			return nil
		}
		return printValue(cmd, "scheduler status", resp)
	}

	return command
}
