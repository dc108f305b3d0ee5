// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/autobrr/animebrr/internal/database"
	"github.com/autobrr/animebrr/internal/models"
	"github.com/autobrr/animebrr/internal/services/discovery"
)

func BackendCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "backend",
		Short: "Manage anime backend instances",
		Long:  `Manage the anime backends the pages can be opened against.`,
		Example: exampleFor(
			"backend list",
			"backend add home http://anime.lan:5173",
			"backend export backends.yaml --mask-urls",
		),
		SilenceUsage: true,
	}

	command.RunE = func(cmd *cobra.Command, args []string) error {
		return cmd.Usage()
	}

	command.AddCommand(BackendListCommand())
	command.AddCommand(BackendAddCommand())
	command.AddCommand(BackendRemoveCommand())
	command.AddCommand(BackendImportCommand())
	command.AddCommand(BackendExportCommand())
	command.AddCommand(BackendDiscoverCommand())

	return command
}

// withDatabase opens the configured database for the duration of fn
func withDatabase(cmd *cobra.Command, fn func(ctx context.Context, db *database.DB) error) error {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return err
	}

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(cmd.Context(), db)
}

func BackendListCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "list",
		Short:        "List the configured backends",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

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

		backends, err := newBackendManager(cfg, db).Instances(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list backends: %w", err)
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tURL\tTASK API")
		for _, b := range backends {
			taskAPI := b.TaskAPI
			if taskAPI == "" {
				taskAPI = cfg.Backend.TaskAPI
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", b.InstanceID, b.DisplayName, b.URL, taskAPI)
		}
		return w.Flush()
	}

	return command
}

func BackendAddCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "add <instance-id> <url>",
		Short:        "Add or update a backend",
		Args:         cobra.ExactArgs(2),
		SilenceUsage: true,
	}

	var (
		name    string
		taskAPI string
	)
	command.Flags().StringVar(&name, "name", "", "display name (default the instance id)")
	command.Flags().StringVar(&taskAPI, "task-api", "", "task API of the backend (consolidated or legacy)")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		backend := models.BackendInstance{
			InstanceID:  args[0],
			DisplayName: name,
			URL:         strings.TrimSpace(args[1]),
			TaskAPI:     taskAPI,
		}
		if backend.DisplayName == "" {
			backend.DisplayName = backend.InstanceID
		}
		if err := discovery.ValidateBackend(backend); err != nil {
			return err
		}

		return withDatabase(cmd, func(ctx context.Context, db *database.DB) error {
			created, err := db.SaveBackend(ctx, &backend)
			if err != nil {
				return fmt.Errorf("failed to save backend: %w", err)
			}
			verb := "Updated"
			if created {
				verb = "Added"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s backend %s (%s)\n", verb, backend.InstanceID, backend.URL)
			return nil
		})
	}

	return command
}

func BackendRemoveCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "remove <instance-id>",
		Short:        "Remove a backend",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}

	command.RunE = func(cmd *cobra.Command, args []string) error {
		return withDatabase(cmd, func(ctx context.Context, db *database.DB) error {
			deleted, err := db.DeleteBackend(ctx, args[0])
			if err != nil {
				return fmt.Errorf("failed to remove backend: %w", err)
			}
			if !deleted {
				return fmt.Errorf("backend %s not found", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed backend %s\n", args[0])
			return nil
		})
	}

	return command
}

func BackendImportCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "import <file>",
		Short:        "Import backends from a YAML or JSON file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
	}

	var yes bool
	command.Flags().BoolVarP(&yes, "yes", "y", false, "save without asking")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		backends, err := discovery.ImportConfig(args[0])
		if err != nil {
			return fmt.Errorf("failed to import config: %w", err)
		}

		return withDatabase(cmd, func(ctx context.Context, db *database.DB) error {
			return handleDiscoveredBackends(ctx, cmd, db, backends, yes)
		})
	}

	return command
}

func BackendExportCommand() *cobra.Command {
	command := &cobra.Command{
		Use:          "export [file]",
		Short:        "Export the saved backends to a YAML or JSON file",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
	}

	var (
		format   = ""
		maskURLs = false
	)
	command.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml or json)")
	command.Flags().BoolVarP(&maskURLs, "mask-urls", "m", false, "Replace URLs by environment variable references")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		switch format {
		case "yaml", "yml", "json":
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}

		outputPath := "animebrr-backends." + format
		if len(args) == 1 {
			outputPath = args[0]
		}
		if filepath.Ext(outputPath) == "" {
			outputPath += "." + format
		}

		return withDatabase(cmd, func(ctx context.Context, db *database.DB) error {
			backends, err := db.ListBackends(ctx)
			if err != nil {
				return fmt.Errorf("failed to retrieve backends: %w", err)
			}

			if err := discovery.ExportConfig(backends, outputPath, maskURLs); err != nil {
				return fmt.Errorf("failed to export config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Exported %d backends to %s\n", len(backends), outputPath)
			if maskURLs {
				fmt.Fprintln(out, "URLs have been masked. Set the ANIMEBRR_<ID>_URL variables before importing.")
			}
			return nil
		})
	}

	return command
}

func BackendDiscoverCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "discover",
		Short: "Discover backends from Docker and Kubernetes labels",
		Long: `Discover backends from Docker container labels and Kubernetes service
labels and annotations (prefix com.animebrr.backend).`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	var yes bool
	command.Flags().BoolVarP(&yes, "yes", "y", false, "save without asking")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		manager, err := discovery.NewDefaultManager()
		if err != nil {
			return fmt.Errorf("failed to initialize backend discovery: %w", err)
		}
		defer manager.Close()

		backends, err := manager.DiscoverAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("backend discovery failed: %w", err)
		}

		return withDatabase(cmd, func(ctx context.Context, db *database.DB) error {
			return handleDiscoveredBackends(ctx, cmd, db, backends, yes)
		})
	}

	return command
}

// handleDiscoveredBackends lists the backends and saves them once confirmed
func handleDiscoveredBackends(ctx context.Context, cmd *cobra.Command, db *database.DB, backends []models.BackendInstance, yes bool) error {
	out := cmd.OutOrStdout()
	if len(backends) == 0 {
		fmt.Fprintln(out, "No backends found.")
		return nil
	}

	fmt.Fprintf(out, "Found %d backends:\n", len(backends))
	for _, backend := range backends {
		fmt.Fprintf(out, "  - %s (%s)\n", backend.DisplayName, backend.URL)
	}

	if !yes {
		fmt.Fprint(out, "Would you like to save these backends? [y/N] ")
		response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if strings.ToLower(strings.TrimSpace(response)) != "y" {
			fmt.Fprintln(out, "Nothing saved.")
			return nil
		}
	}

	for i := range backends {
		if _, err := db.SaveBackend(ctx, &backends[i]); err != nil {
			return fmt.Errorf("failed to save backend %s: %w", backends[i].InstanceID, err)
		}
	}

	fmt.Fprintf(out, "Saved %d backends.\n", len(backends))
	return nil
}
