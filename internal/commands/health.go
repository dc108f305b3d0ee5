// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/autobrr/animebrr/internal/models"
)

type HealthStatus struct {
	System struct {
		Database struct {
			Connected bool   `json:"connected"`
			Type      string `json:"type"`
			Error     string `json:"error,omitempty"`
		} `json:"database"`
	} `json:"system"`
	Backends []models.BackendHealth `json:"backends"`
}

// Healthy reports whether the database and every backend are up
func (s HealthStatus) Healthy() bool {
	if !s.System.Database.Connected {
		return false
	}
	for _, b := range s.Backends {
		if b.Status != models.StatusOnline {
			return false
		}
	}
	return true
}

func HealthCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "health",
		Short: "Check the database and the backends",
		Long:  `Check the database connection and ping the scheduler of every backend.`,
		Example: exampleFor(
			"health",
			"health --json",
		),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	var outputJson = false
	command.Flags().BoolVar(&outputJson, "json", false, "output in JSON format")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromFlags(cmd)
		if err != nil {
			return err
		}

		var status HealthStatus
		status.System.Database.Type = cfg.Database.Type

		db, err := initializeDatabase(cfg.Database)
		if err != nil {
			status.System.Database.Error = err.Error()
		} else {
			defer db.Close()
			if err := db.PingContext(cmd.Context()); err != nil {
				status.System.Database.Error = err.Error()
			} else {
				status.System.Database.Connected = true
			}
		}

		// without a database only the configured default backend is known
		backends := newBackendManager(cfg, nil)
		if status.System.Database.Connected {
			backends = newBackendManager(cfg, db)
		}

		instances, err := backends.Instances(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list backends: %w", err)
		}
		for _, instance := range instances {
			health, _ := backends.CheckHealth(cmd.Context(), instance.InstanceID)
			status.Backends = append(status.Backends, health)
		}

		if outputJson {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(status); err != nil {
				return err
			}
		} else {
			healthOutputText(cmd.OutOrStdout(), status)
		}

		if !status.Healthy() {
			return fmt.Errorf("unhealthy")
		}
		return nil
	}

	return command
}

func healthOutputText(w io.Writer, status HealthStatus) {
	fmt.Fprintln(w, "System Health:")
	fmt.Fprintf(w, "  Database:\n")
	fmt.Fprintf(w, "    Connected: %v\n", status.System.Database.Connected)
	fmt.Fprintf(w, "    Type: %s\n", status.System.Database.Type)
	if status.System.Database.Error != "" {
		fmt.Fprintf(w, "    Error: %s\n", status.System.Database.Error)
	}

	fmt.Fprintln(w, "\nBackends:")
	for _, b := range status.Backends {
		fmt.Fprintf(w, "  %s: %s (%dms)", b.InstanceID, b.Status, b.ResponseTime)
		if b.SchedulerPID != "" {
			fmt.Fprintf(w, " scheduler pid %s", b.SchedulerPID)
		}
		if b.Message != "" {
			fmt.Fprintf(w, " %s", b.Message)
		}
		fmt.Fprintln(w)
	}
}
