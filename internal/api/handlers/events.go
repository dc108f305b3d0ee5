// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/animebrr/internal/page"
	"github.com/autobrr/animebrr/internal/services/manager"
	"github.com/autobrr/animebrr/internal/session"
)

const keepAliveInterval = 15 * time.Second

// ParamRef is the session route wildcard: a page kind on the events route,
// a session id on the others
const ParamRef = "ref"

type EventsHandler struct {
	hub *session.Hub
}

func NewEventsHandler(hub *session.Hub) *EventsHandler {
	return &EventsHandler{
		hub: hub,
	}
}

// StreamSession opens a page session and streams its commands as
// Server-Sent Events until the browser goes away.
func (h *EventsHandler) StreamSession(c *gin.Context) {
	kind, ok := page.ParseKind(c.Param(ParamRef))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown page"})
		return
	}

	ctx := c.Request.Context()
	s, err := h.hub.Open(ctx, kind, c.Query("instance"))
	if err != nil {
		if errors.Is(err, manager.ErrBackendNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Backend instance not found"})
			return
		}
		log.Error().Err(err).Str("page", string(kind)).Msg("Failed to open page session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open page session"})
		return
	}
	defer h.hub.Close(s.ID)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	hello, _ := json.Marshal(gin.H{"id": s.ID, "page": s.Kind, "instance": s.InstanceID})
	c.SSEvent("session", string(hello))
	c.Writer.Flush()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.Done():
			return
		case cmd := <-s.Commands():
			data, err := json.Marshal(cmd)
			if err != nil {
				log.Error().Err(err).Str("type", cmd.Type).Msg("Failed to marshal page command")
				continue
			}
			c.SSEvent("command", string(data))
			c.Writer.Flush()
			s.Touch()
		case <-keepAliveTicker.C:
			c.SSEvent("keepalive", time.Now().Unix())
			c.Writer.Flush()
			s.Touch()
		}
	}
}

// PostGesture queues a browser gesture on its session
func (h *EventsHandler) PostGesture(c *gin.Context) {
	s, err := h.hub.Get(c.Param(ParamRef))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var g page.Gesture
	if err := c.ShouldBindJSON(&g); err != nil {
		log.Debug().Err(err).Str("session", s.ID).Msg("Invalid gesture")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gesture"})
		return
	}

	if !s.Gesture(c.Request.Context(), g) {
		c.JSON(http.StatusGone, gin.H{"error": "Session has ended"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// CloseSession ends a session ahead of the stream disconnect (page unload)
func (h *EventsHandler) CloseSession(c *gin.Context) {
	h.hub.Close(c.Param(ParamRef))
	c.Status(http.StatusNoContent)
}
