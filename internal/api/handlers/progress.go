// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/animebrr/internal/services/cache"
)

type ProgressHandler struct {
	snapshots *cache.Snapshots
}

func NewProgressHandler(snapshots *cache.Snapshots) *ProgressHandler {
	return &ProgressHandler{
		snapshots: snapshots,
	}
}

// GetProgress returns the last torrent table polled from a backend
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	instanceID := c.Param("instance")

	snap, err := h.snapshots.Latest(c.Request.Context(), instanceID)
	if err != nil {
		if errors.Is(err, cache.ErrKeyNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No recent progress for this backend"})
			return
		}
		log.Error().Err(err).Str("instance", instanceID).Msg("Failed to read progress snapshot")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read progress"})
		return
	}

	c.JSON(http.StatusOK, snap)
}
