// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/autobrr/animebrr/internal/api/routes"
	"github.com/autobrr/animebrr/internal/logger"
	"github.com/autobrr/animebrr/internal/metrics"
	"github.com/autobrr/animebrr/internal/services/cache"
	"github.com/autobrr/animebrr/internal/services/manager"
	"github.com/autobrr/animebrr/internal/session"
	"github.com/autobrr/animebrr/web"
)

func ServeCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		Long:  `Start the web server that drives the anime, download and setting pages.`,
		Example: exampleFor(
			"serve",
			"serve --config /config/config.toml --listen :8080",
		),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
	}

	var listenAddr string
	command.Flags().StringVar(&listenAddr, "listen", "", "address to listen on (overrides config)")

	command.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromFlags(cmd)
		if err != nil {
			return err
		}
		if listenAddr != "" {
			cfg.Server.ListenAddr = listenAddr
		}

		logger.Configure(cfg.Log)

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("build_date", Date).
			Msg("Starting animebrr")

		db, err := initializeDatabase(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		store, err := cache.InitCache(ctx, cfg.Cache)
		if err != nil {
			return err
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Debug().Err(err).Msg("Cache cleanup completed")
			}
		}()

		var (
			registry *prometheus.Registry
			m        *metrics.Metrics
		)
		if cfg.Metrics.Enabled {
			registry = prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m = metrics.New(registry)
		}

		snapshots := cache.NewSnapshots(store)
		backends := manager.NewBackendManager(db, snapshots, cfg.Backend, cfg.BackendTimeout())

		hub := session.NewHub(routes.NewResolver(backends),
			session.WithJournal(db),
			session.WithMetrics(m),
			session.WithSnapshots(snapshots),
			session.WithPollInterval(cfg.Poller.Interval.Duration),
		)
		hub.StartCleanup()
		defer hub.Shutdown()

		backends.Warm(ctx, "")

		if os.Getenv("GIN_MODE") == "debug" {
			gin.SetMode(gin.DebugMode)
		} else {
			gin.SetMode(gin.ReleaseMode)
		}

		r := gin.New()

		if gin.Mode() == gin.DebugMode {
			err = r.SetTrustedProxies(nil)
		} else {
			err = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})
		}
		if err != nil {
			log.Error().Err(err).Msg("Failed to set trusted proxies")
		}

		routes.SetupRoutes(r, routes.Deps{
			Config:   cfg,
			DB:       db,
			Store:    store,
			Backends: backends,
			Hub:      hub,
			Registry: registry,
		})
		web.ServeStatic(r)

		srv := &http.Server{
			Addr:        cfg.Server.ListenAddr,
			Handler:     r,
			ReadTimeout: 15 * time.Second,
			// event streams stay open for the lifetime of a page
			WriteTimeout: 0,
			IdleTimeout:  60 * time.Second,
		}

		serveErr := make(chan error, 1)
		go func() {
			log.Info().
				Str("address", cfg.Server.ListenAddr).
				Str("mode", gin.Mode()).
				Str("database", db.Driver()).
				Str("backend", cfg.Backend.URL).
				Msg("Starting server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serveErr <- err
			}
			close(serveErr)
		}()

		select {
		case err := <-serveErr:
			if err != nil {
				return err
			}
		case <-ctx.Done():
		}
		log.Info().Msg("Shutting down server...")

		// sessions end first so their event streams let go of the server
		hub.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}

		log.Info().Msg("Server exiting")
		return nil
	}

	return command
}
