// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package routes

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/animebrr/internal/config"
	"github.com/autobrr/animebrr/internal/database"
	"github.com/autobrr/animebrr/internal/metrics"
	"github.com/autobrr/animebrr/internal/services/cache"
	"github.com/autobrr/animebrr/internal/services/manager"
	"github.com/autobrr/animebrr/internal/session"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	db, err := database.InitDB(config.DatabaseConfig{
		Type: database.DriverSQLite,
		Path: filepath.Join(t.TempDir(), "animebrr.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := cache.NewMemoryStore()
	t.Cleanup(func() { store.Close() })

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	backends := manager.NewBackendManager(db, cache.NewSnapshots(store), cfg.Backend, time.Second)
	hub := session.NewHub(NewResolver(backends), session.WithJournal(db), session.WithMetrics(m))
	t.Cleanup(hub.Shutdown)

	r := gin.New()
	SetupRoutes(r, Deps{
		Config:   cfg,
		DB:       db,
		Store:    store,
		Backends: backends,
		Hub:      hub,
		Registry: registry,
	})
	return r
}

func TestSetupRoutes(t *testing.T) {
	r := setupRouter(t)

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	w := get("/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = get("/api/backends")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"instanceId":"default"`)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, "HIT", get("/api/backends").Header().Get("X-Cache"))

	assert.Equal(t, http.StatusOK, get("/api/history").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/progress/default").Code)
	assert.Equal(t, http.StatusNotFound, get("/api/session/login/events").Code)

	w = get("/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "animebrr_session_active")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/session/unknown/gesture", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
