// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, set from main
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

type VersionInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

func VersionCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "version",
		Short: "version",
		Long:  `version`,
		Example: `  animebrr version
  animebrr version --json`,
		SilenceUsage: true,
	}

	var outputJson = false

	command.Flags().BoolVar(&outputJson, "json", false, "output in JSON format")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		current := VersionInfo{
			Version: Version,
			Commit:  Commit,
			Date:    Date,
		}

		out := cmd.OutOrStdout()
		if outputJson {
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(current)
		}

		fmt.Fprintf(out, "animebrr version %s\n", current.Version)
		fmt.Fprintf(out, "Commit: %s\n", current.Commit)
		fmt.Fprintf(out, "Built: %s\n", current.Date)

		return nil
	}

	return command
}
