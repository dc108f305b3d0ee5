// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/autobrr/animebrr/internal/config"
	"github.com/autobrr/animebrr/internal/database"
	"github.com/autobrr/animebrr/internal/dispatch"
	"github.com/autobrr/animebrr/internal/models"
	"github.com/autobrr/animebrr/internal/page"
	"github.com/autobrr/animebrr/internal/services/anime"
	"github.com/autobrr/animebrr/internal/services/manager"
	"github.com/autobrr/animebrr/internal/types"
)

const (
	flagConfig   = "config"
	flagInstance = "instance"
)

// loadConfig reads the config file when it exists. Without one the defaults
// apply, overridden by the environment.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return config.LoadConfig(path)
		}
		log.Debug().Str("path", path).Msg("Config file not found, using defaults")
	}

	cfg := config.Default()
	if err := config.LoadEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configFromFlags(cmd *cobra.Command) (*config.Config, error) {
	// the flag lives on the root command; subcommands built alone run without it
	path, _ := cmd.Flags().GetString(flagConfig)
	return loadConfig(path)
}

func initializeDatabase(cfg config.DatabaseConfig) (*database.DB, error) {
	db, err := database.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

func newBackendManager(cfg *config.Config, db *database.DB) *manager.BackendManager {
	return manager.NewBackendManager(db, nil, cfg.Backend, cfg.BackendTimeout())
}

// actionEnv is what a one-shot action needs: the selected backend and a
// dispatcher whose page records the commands instead of drawing them.
type actionEnv struct {
	db         *database.DB
	client     *anime.Client
	instance   models.BackendInstance
	dispatcher *dispatch.Dispatcher
}

func newActionEnv(cmd *cobra.Command) (*actionEnv, error) {
	cfg, err := configFromFlags(cmd)
	if err != nil {
		return nil, err
	}

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	instanceID, _ := cmd.Flags().GetString(flagInstance)
	client, instance, err := newBackendManager(cfg, db).Client(cmd.Context(), instanceID)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &actionEnv{
		db:       db,
		client:   client,
		instance: instance,
		dispatcher: dispatch.New(client, page.NewRecorder(),
			dispatch.WithJournal(db),
			dispatch.WithInstance(instance.InstanceID),
		),
	}, nil
}

func (e *actionEnv) Close() error {
	return e.db.Close()
}

// runAction wraps an action into a RunE that reports the outcome
func runAction(action func(ctx context.Context, cmd *cobra.Command, env *actionEnv, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		env, err := newActionEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		if err := action(cmd.Context(), cmd, env, args); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s done\n", env.instance.InstanceID, cmd.Name())
		return nil
	}
}

// parseIntArg reads a numeric argument the way the pages do, but refuses NaN
func parseIntArg(name, value string) (types.Int, error) {
	v := types.ParseInt(value)
	if !v.Valid {
		return v, fmt.Errorf("invalid %s %q: not a number", name, value)
	}
	return v, nil
}

func groupCommand(use, short string) *cobra.Command {
	command := &cobra.Command{
		Use:          use,
		Short:        short,
		Long:         short,
		SilenceUsage: true,
	}
	command.RunE = func(cmd *cobra.Command, args []string) error {
		return cmd.Usage()
	}
	return command
}

func exampleFor(lines ...string) string {
	return "  animebrr " + strings.Join(lines, "\n  animebrr ")
}
