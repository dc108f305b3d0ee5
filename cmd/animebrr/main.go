// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/autobrr/animebrr/internal/commands"
	"github.com/autobrr/animebrr/internal/logger"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func init() {
	logger.Init()
}

func main() {
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	rootCmd := &cobra.Command{
		Use:   "animebrr",
		Short: "Web front end and command line for an anime download backend",
		Long: `animebrr serves the anime, download and setting pages of an anime download
backend and runs the same actions from the command line.

Without a subcommand it starts the web server.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "config.toml", "path to config file")

	serve := commands.ServeCommand()
	rootCmd.RunE = serve.RunE
	rootCmd.Flags().AddFlagSet(serve.Flags())

	rootCmd.AddCommand(serve)
	rootCmd.AddCommand(commands.RunCommand())
	rootCmd.AddCommand(commands.HistoryCommand())
	rootCmd.AddCommand(commands.BackendCommand())
	rootCmd.AddCommand(commands.HealthCommand())
	rootCmd.AddCommand(commands.VersionCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
