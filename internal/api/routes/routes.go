// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package routes

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autobrr/animebrr/internal/api/handlers"
	"github.com/autobrr/animebrr/internal/api/middleware"
	"github.com/autobrr/animebrr/internal/config"
	"github.com/autobrr/animebrr/internal/database"
	"github.com/autobrr/animebrr/internal/models"
	"github.com/autobrr/animebrr/internal/services/cache"
	"github.com/autobrr/animebrr/internal/services/discovery"
	"github.com/autobrr/animebrr/internal/services/manager"
	"github.com/autobrr/animebrr/internal/session"
)

// Deps are the long-lived services the routes are wired to
type Deps struct {
	Config   *config.Config
	DB       *database.DB
	Store    cache.Store
	Backends *manager.BackendManager
	Hub      *session.Hub
	// Registry is the prometheus registry served at /metrics; nil disables it
	Registry *prometheus.Registry
}

// NewResolver adapts the backend manager to the session hub
func NewResolver(backends *manager.BackendManager) session.ResolveFunc {
	return func(ctx context.Context, instanceID string) (session.Backend, models.BackendInstance, error) {
		client, instance, err := backends.Client(ctx, instanceID)
		if err != nil {
			return nil, instance, err
		}
		return client, instance, nil
	}
}

func newDiscovery() (handlers.Discovery, error) {
	return discovery.NewDefaultManager()
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(r *gin.Engine, deps Deps) {
	r.Use(middleware.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.SetupCORS())
	r.Use(middleware.Secure(nil))
	r.Use(middleware.Config(deps.Config))

	cacheMiddleware := middleware.NewCacheMiddleware(deps.Store)

	eventsHandler := handlers.NewEventsHandler(deps.Hub)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.Backends, deps.Hub)
	backendsHandler := handlers.NewBackendsHandler(deps.DB, deps.Backends, newDiscovery, cacheMiddleware.Invalidate)
	historyHandler := handlers.NewHistoryHandler(deps.DB)
	progressHandler := handlers.NewProgressHandler(cache.NewSnapshots(deps.Store))

	r.GET("/health", healthHandler.Health)

	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		// Page sessions (no cache for SSE). The shared wildcard is the page
		// kind when opening a stream and the session id afterwards.
		sessions := api.Group("/session")
		{
			sessions.GET("/:ref/events", eventsHandler.StreamSession)
			sessions.POST("/:ref/gesture", eventsHandler.PostGesture)
			sessions.POST("/:ref/close", eventsHandler.CloseSession)
		}

		api.GET("/progress/:instance", progressHandler.GetProgress)
		api.GET("/health/:instance", healthHandler.CheckBackend)

		cached := api.Group("")
		cached.Use(cacheMiddleware.Cache())
		{
			cached.GET("/history", historyHandler.ListActions)
			cached.GET("/backends", backendsHandler.ListBackends)
		}

		backends := api.Group("/backends")
		{
			backends.POST("/discover", backendsHandler.Discover)
			backends.POST("/:instance", backendsHandler.SaveBackend)
			backends.DELETE("/:instance", backendsHandler.DeleteBackend)
		}
	}
}
