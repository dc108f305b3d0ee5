// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/animebrr/internal/config"
	"github.com/autobrr/animebrr/internal/services/cache"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRedactQuery(t *testing.T) {
	assert.Equal(t, "", redactQuery(""))
	assert.Equal(t, "api_key=%5BREDACTED%5D&page=2", redactQuery("api_key=abc&page=2"))
	assert.Equal(t, "X-Token=%5BREDACTED%5D", redactQuery("X-Token=abc"))
	assert.Equal(t, "nums=3", redactQuery("nums=3"))
}

func TestSecure(t *testing.T) {
	r := gin.New()
	r.Use(Secure(nil))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "connect-src 'self'")
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestConfig(t *testing.T) {
	cfg := config.Default()

	r := gin.New()
	r.Use(Config(cfg))
	r.GET("/", func(c *gin.Context) {
		assert.Same(t, cfg, GetConfig(c))
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCacheMiddleware(t *testing.T) {
	store := cache.NewMemoryStore()
	defer store.Close()
	m := NewCacheMiddleware(store)

	calls := 0
	r := gin.New()
	r.Use(m.Cache())
	r.GET("/api/backends", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/api/broken", func(c *gin.Context) {
		calls++
		c.JSON(http.StatusInternalServerError, gin.H{"error": "down"})
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		return w
	}

	first := get("/api/backends")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := get("/api/backends")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, calls)

	m.Invalidate(context.Background(), "/api/backends")
	assert.Equal(t, "MISS", get("/api/backends").Header().Get("X-Cache"))
	assert.Equal(t, 2, calls)

	get("/api/broken")
	assert.Equal(t, "MISS", get("/api/broken").Header().Get("X-Cache"))
	assert.Equal(t, 4, calls)
}
