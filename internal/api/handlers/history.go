// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/animebrr/internal/database"
	"github.com/autobrr/animebrr/internal/models"
)

const maxHistoryLimit = 500

// HistoryStore defines the database operations needed by HistoryHandler
type HistoryStore interface {
	ListActions(ctx context.Context, params database.HistoryParams) ([]models.ActionRecord, error)
}

type HistoryHandler struct {
	db HistoryStore
}

func NewHistoryHandler(db HistoryStore) *HistoryHandler {
	return &HistoryHandler{
		db: db,
	}
}

// ListActions returns recent dispatched actions, newest first
func (h *HistoryHandler) ListActions(c *gin.Context) {
	params := database.HistoryParams{
		InstanceID: c.Query("instance"),
		Action:     c.Query("action"),
		Outcome:    c.Query("outcome"),
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || limit == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		params.Limit = min(limit, maxHistoryLimit)
	}

	records, err := h.db.ListActions(c.Request.Context(), params)
	if err != nil {
		log.Error().Err(err).Msg("Error fetching action history")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, records)
}
