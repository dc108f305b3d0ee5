// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testing_mocks "github.com/autobrr/animebrr/internal/api/handlers/testing"
	"github.com/autobrr/animebrr/internal/database"
	"github.com/autobrr/animebrr/internal/models"
	"github.com/autobrr/animebrr/internal/services/cache"
	"github.com/autobrr/animebrr/internal/types"
)

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBackendsHandler_SaveBackend(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		body         string
		saveFunc     func(ctx context.Context, backend *models.BackendInstance) (bool, error)
		expectedCode int
	}{
		{
			name:         "Created",
			body:         `{"url":"http://anime.lan:5173/","displayName":"Home"}`,
			expectedCode: http.StatusCreated,
		},
		{
			name: "Updated",
			body: `{"url":"http://anime.lan:5173"}`,
			saveFunc: func(context.Context, *models.BackendInstance) (bool, error) {
				return false, nil
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Missing URL",
			body:         `{"displayName":"Home"}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Unknown Task API",
			body:         `{"url":"http://anime.lan:5173","taskApi":"v3"}`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Invalid JSON",
			body:         `{`,
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Database Error",
			body: `{"url":"http://anime.lan:5173"}`,
			saveFunc: func(context.Context, *models.BackendInstance) (bool, error) {
				return false, errors.New("database error")
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var saved *models.BackendInstance
			db := &testing_mocks.MockDB{SaveBackendFunc: func(ctx context.Context, backend *models.BackendInstance) (bool, error) {
				saved = backend
				if tt.saveFunc != nil {
					return tt.saveFunc(ctx, backend)
				}
				return true, nil
			}}
			registry := &testing_mocks.MockRegistry{}
			var invalidated []string

			h := NewBackendsHandler(db, registry, nil, func(_ context.Context, path string) {
				invalidated = append(invalidated, path)
			})
			r := gin.New()
			r.POST("/api/backends/:instance", h.SaveBackend)

			w := serve(r, http.MethodPost, "/api/backends/home", tt.body)
			assert.Equal(t, tt.expectedCode, w.Code)

			if w.Code >= 300 {
				assert.Empty(t, registry.Warmed)
				return
			}
			require.NotNil(t, saved)
			assert.Equal(t, "home", saved.InstanceID)
			assert.Equal(t, "http://anime.lan:5173", saved.URL)
			assert.NotEmpty(t, saved.DisplayName)
			assert.Equal(t, []string{"home"}, registry.Forgotten)
			assert.Equal(t, []string{"home"}, registry.Warmed)
			assert.Equal(t, []string{backendsPath}, invalidated)
		})
	}
}

func TestBackendsHandler_DeleteBackend(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db := &testing_mocks.MockDB{DeleteBackendFunc: func(_ context.Context, instanceID string) (bool, error) {
		return instanceID == "home", nil
	}}
	registry := &testing_mocks.MockRegistry{}
	h := NewBackendsHandler(db, registry, nil, nil)
	r := gin.New()
	r.DELETE("/api/backends/:instance", h.DeleteBackend)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodDelete, "/api/backends/home", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodDelete, "/api/backends/other", "").Code)
	assert.Equal(t, []string{"home"}, registry.Forgotten)
}

func TestBackendsHandler_ListAndDiscover(t *testing.T) {
	gin.SetMode(gin.TestMode)

	registry := &testing_mocks.MockRegistry{InstancesFunc: func(context.Context) ([]models.BackendInstance, error) {
		return []models.BackendInstance{{InstanceID: "home"}}, nil
	}}
	existing := map[string]bool{"anime-docker": true}
	db := &testing_mocks.MockDB{SaveBackendFunc: func(_ context.Context, backend *models.BackendInstance) (bool, error) {
		return !existing[backend.InstanceID], nil
	}}
	discovery := &testing_mocks.MockDiscovery{Backends: []models.BackendInstance{
		{InstanceID: "anime-docker", DisplayName: "anime-docker", URL: "http://anime:5173"},
		{InstanceID: "anime-k8s-media", DisplayName: "anime-k8s-media", URL: "http://anime.media.svc:5173"},
	}}

	h := NewBackendsHandler(db, registry, func() (Discovery, error) { return discovery, nil }, nil)
	r := gin.New()
	r.GET("/api/backends", h.ListBackends)
	r.POST("/api/backends/discover", h.Discover)

	w := serve(r, http.MethodGet, "/api/backends", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":0,"instanceId":"home","displayName":"","url":""}]`, w.Body.String())

	w = serve(r, http.MethodPost, "/api/backends/discover", "")
	require.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Created  int                      `json:"created"`
		Backends []models.BackendInstance `json:"backends"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Created)
	assert.Len(t, result.Backends, 2)
	assert.True(t, discovery.Closed)

	unavailable := NewBackendsHandler(db, registry, func() (Discovery, error) {
		return nil, errors.New("no docker socket")
	}, nil)
	r = gin.New()
	r.POST("/api/backends/discover", unavailable.Discover)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodPost, "/api/backends/discover", "").Code)
}

func TestHistoryHandler_ListActions(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var got database.HistoryParams
	db := &testing_mocks.MockDB{ListActionsFunc: func(_ context.Context, params database.HistoryParams) ([]models.ActionRecord, error) {
		got = params
		return []models.ActionRecord{{Action: "subscribe", Outcome: models.OutcomeOK}}, nil
	}}
	h := NewHistoryHandler(db)
	r := gin.New()
	r.GET("/api/history", h.ListActions)

	w := serve(r, http.MethodGet, "/api/history?instance=home&outcome=failed&limit=9999", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, database.HistoryParams{InstanceID: "home", Outcome: "failed", Limit: maxHistoryLimit}, got)
	assert.Contains(t, w.Body.String(), `"action":"subscribe"`)

	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/api/history?limit=abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/api/history?limit=0", "").Code)
}

type fixedCounter int

func (c fixedCounter) Len() int { return int(c) }

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	checker := &testing_mocks.MockHealthChecker{
		Health: models.BackendHealth{Status: models.StatusOnline, SchedulerPID: "4242"},
		Status: http.StatusOK,
	}

	t.Run("Healthy", func(t *testing.T) {
		h := NewHealthHandler(&testing_mocks.MockDB{}, checker, fixedCounter(3))
		r := gin.New()
		r.GET("/health", h.Health)

		w := serve(r, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok","database":"ok","sessions":3}`, w.Body.String())
	})

	t.Run("Database Down", func(t *testing.T) {
		db := &testing_mocks.MockDB{PingFunc: func(context.Context) error { return errors.New("closed") }}
		h := NewHealthHandler(db, checker, nil)
		r := gin.New()
		r.GET("/health", h.Health)

		w := serve(r, http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "degraded")
	})

	t.Run("Backend", func(t *testing.T) {
		h := NewHealthHandler(nil, checker, nil)
		r := gin.New()
		r.GET("/api/health/:instance", h.CheckBackend)

		w := serve(r, http.MethodGet, "/api/health/home", "")
		require.Equal(t, http.StatusOK, w.Code)

		var health models.BackendHealth
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
		assert.Equal(t, "home", health.InstanceID)
		assert.Equal(t, "4242", health.SchedulerPID)

		missing := NewHealthHandler(nil, &testing_mocks.MockHealthChecker{
			Health: models.BackendHealth{Message: "backend instance not found"},
			Status: http.StatusNotFound,
		}, nil)
		r = gin.New()
		r.GET("/api/health/:instance", missing.CheckBackend)
		assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/health/other", "").Code)
	})
}

func TestProgressHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store := cache.NewMemoryStore()
	defer store.Close()
	snapshots := cache.NewSnapshots(store)

	h := NewProgressHandler(snapshots)
	r := gin.New()
	r.GET("/api/progress/:instance", h.GetProgress)

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/progress/home", "").Code)

	rows := []types.TorrentStatus{{MikanID: 1, AnimeName: "Frieren", Episode: 3, TorrentName: "frieren-03"}}
	require.NoError(t, snapshots.For("home").StoreSnapshot(context.Background(), rows))

	w := serve(r, http.MethodGet, "/api/progress/home", "")
	require.Equal(t, http.StatusOK, w.Code)

	var snap cache.Snapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.Equal(t, "home", snap.InstanceID)
	assert.Equal(t, rows, snap.Rows)
	assert.WithinDuration(t, time.Now(), snap.UpdatedAt, time.Minute)
}
