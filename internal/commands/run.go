// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"github.com/spf13/cobra"
)

// RunCommand groups the one-shot backend actions that the pages trigger
func RunCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "run",
		Short: "Run backend actions from the command line",
		Long: `Run the actions the anime, download and setting pages dispatch.

Every action is journaled in the action history like a page gesture.`,
		Example: exampleFor(
			"run anime subscribe 3310",
			"run --instance home download task pause \"[Sub] Show - 01.mkv\"",
		),
		SilenceUsage: true,
	}

	command.PersistentFlags().String(flagInstance, "", "backend instance id (default backend when empty)")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		return cmd.Usage()
	}

	command.AddCommand(AnimeCommand())
	command.AddCommand(DownloadCommand())
	command.AddCommand(SettingCommand())
	command.AddCommand(WatchCommand())

	return command
}
