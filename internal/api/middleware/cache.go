// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/animebrr/internal/services/cache"
)

const (
	BackendsTTL = 30 * time.Second
	HistoryTTL  = 2 * time.Second
	DefaultTTL  = 10 * time.Second

	responsePrefix = "response:"
)

type CacheMiddleware struct {
	store cache.Store
}

type CachedResponse struct {
	Status      int    `json:"status"`
	Body        []byte `json:"body"`
	ContentType string `json:"content_type"`
}

func NewCacheMiddleware(store cache.Store) *CacheMiddleware {
	return &CacheMiddleware{
		store: store,
	}
}

// Cache serves GET JSON responses from the store while they are fresh
func (m *CacheMiddleware) Cache() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		cacheKey := responsePrefix + c.Request.URL.String()

		var cached CachedResponse
		if err := m.store.Get(c.Request.Context(), cacheKey, &cached); err == nil {
			c.Header("X-Cache", "HIT")
			c.Data(cached.Status, cached.ContentType, cached.Body)
			c.Abort()
			return
		}

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = w
		c.Header("X-Cache", "MISS")

		c.Next()

		contentType := w.Header().Get("Content-Type")
		if w.Status() < 200 || w.Status() >= 300 || !isJSONResponse(contentType) {
			return
		}

		err := m.store.Set(c.Request.Context(), cacheKey, CachedResponse{
			Status:      w.Status(),
			Body:        w.body.Bytes(),
			ContentType: contentType,
		}, m.getTTL(c.Request.URL.Path))
		if err != nil {
			log.Error().Err(err).Str("key", cacheKey).Msg("Failed to cache response")
		}
	}
}

// Invalidate drops the cached response of a GET path without query
func (m *CacheMiddleware) Invalidate(ctx context.Context, path string) {
	if err := m.store.Delete(ctx, responsePrefix+path); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("Failed to invalidate cached response")
	}
}

func (m *CacheMiddleware) getTTL(path string) time.Duration {
	switch {
	case strings.HasPrefix(path, "/api/backends"):
		return BackendsTTL
	case strings.HasPrefix(path, "/api/history"):
		return HistoryTTL
	default:
		return DefaultTTL
	}
}

func isJSONResponse(contentType string) bool {
	return strings.HasPrefix(contentType, "application/json")
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
