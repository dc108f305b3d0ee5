// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/animebrr/internal/models"
)

const pingTimeout = 2 * time.Second

// HealthChecker probes one backend instance
type HealthChecker interface {
	CheckHealth(ctx context.Context, instanceID string) (models.BackendHealth, int)
}

// Pinger is satisfied by the database
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SessionCounter reports the number of open page sessions
type SessionCounter interface {
	Len() int
}

type HealthHandler struct {
	db       Pinger
	checker  HealthChecker
	sessions SessionCounter
}

func NewHealthHandler(db Pinger, checker HealthChecker, sessions SessionCounter) *HealthHandler {
	return &HealthHandler{
		db:       db,
		checker:  checker,
		sessions: sessions,
	}
}

// Health reports on animebrr itself
func (h *HealthHandler) Health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{"status": "ok"}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			log.Error().Err(err).Msg("Database ping failed")
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
			body["database"] = "unreachable"
		} else {
			body["database"] = "ok"
		}
	}

	if h.sessions != nil {
		body["sessions"] = h.sessions.Len()
	}

	c.JSON(status, body)
}

// CheckBackend reports on one anime backend
func (h *HealthHandler) CheckBackend(c *gin.Context) {
	health, status := h.checker.CheckHealth(c.Request.Context(), c.Param("instance"))
	if status != http.StatusOK {
		c.JSON(status, gin.H{"error": health.Message})
		return
	}
	c.JSON(http.StatusOK, health)
}
