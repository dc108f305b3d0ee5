// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/autobrr/animebrr/internal/database"
)

func HistoryCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "history",
		Short: "Show the action history",
		Long:  `Show the most recent dispatched actions, newest first.`,
		Example: exampleFor(
			"history",
			"history --instance home --outcome failed",
			"history --prune 720h",
		),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	var (
		params     database.HistoryParams
		outputJson = false
		prune      time.Duration
	)

	command.Flags().StringVar(&params.InstanceID, "instance", "", "only actions of this backend instance")
	command.Flags().StringVar(&params.Action, "action", "", "only actions with this name")
	command.Flags().StringVar(&params.Outcome, "outcome", "", "only actions with this outcome (ok, failed, skipped)")
	command.Flags().Uint64Var(&params.Limit, "limit", database.DefaultHistoryLimit, "maximum number of actions")
	command.Flags().BoolVar(&outputJson, "json", false, "output in JSON format")
	command.Flags().DurationVar(&prune, "prune", 0, "delete actions older than this instead of listing")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromFlags(cmd)
		if err != nil {
			return err
		}

		db, err := initializeDatabase(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		out := cmd.OutOrStdout()

		if prune > 0 {
			removed, err := db.PruneActions(cmd.Context(), time.Now().Add(-prune))
			if err != nil {
				return fmt.Errorf("failed to prune history: %w", err)
			}
			fmt.Fprintf(out, "Removed %d actions\n", removed)
			return nil
		}

		records, err := db.ListActions(cmd.Context(), params)
		if err != nil {
			return fmt.Errorf("failed to list history: %w", err)
		}

		if outputJson {
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(records)
		}

		if len(records) == 0 {
			fmt.Fprintln(out, "No actions recorded.")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tINSTANCE\tACTION\tOUTCOME\tDURATION\tERROR")
		for _, r := range records {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\t%s\n",
				r.StartedAt.Local().Format(time.DateTime),
				r.InstanceID,
				r.Action,
				r.Outcome,
				r.DurationMs,
				r.Error,
			)
		}
		return w.Flush()
	}

	return command
}
