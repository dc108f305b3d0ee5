// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/animebrr/internal/models"
	"github.com/autobrr/animebrr/internal/services/discovery"
)

const backendsPath = "/api/backends"

// BackendStore defines the database operations needed by BackendsHandler
type BackendStore interface {
	SaveBackend(ctx context.Context, backend *models.BackendInstance) (bool, error)
	DeleteBackend(ctx context.Context, instanceID string) (bool, error)
}

// BackendRegistry is the live view of the configured backends
type BackendRegistry interface {
	Instances(ctx context.Context) ([]models.BackendInstance, error)
	Forget(instanceID string)
	Warm(ctx context.Context, instanceID string)
}

// Discovery finds backends in the environment
type Discovery interface {
	DiscoverAll(ctx context.Context) ([]models.BackendInstance, error)
	Close() error
}

type DiscoveryFactory func() (Discovery, error)

type BackendsHandler struct {
	store      BackendStore
	registry   BackendRegistry
	discover   DiscoveryFactory
	invalidate func(ctx context.Context, path string)
}

// NewBackendsHandler creates the handler; invalidate is called with the list
// path whenever the stored backends change and may be nil.
func NewBackendsHandler(store BackendStore, registry BackendRegistry, discover DiscoveryFactory, invalidate func(ctx context.Context, path string)) *BackendsHandler {
	if invalidate == nil {
		invalidate = func(context.Context, string) {}
	}
	return &BackendsHandler{
		store:      store,
		registry:   registry,
		discover:   discover,
		invalidate: invalidate,
	}
}

func (h *BackendsHandler) ListBackends(c *gin.Context) {
	instances, err := h.registry.Instances(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error fetching backends")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch backends"})
		return
	}
	c.JSON(http.StatusOK, instances)
}

func (h *BackendsHandler) SaveBackend(c *gin.Context) {
	instanceID := c.Param("instance")

	var backend models.BackendInstance
	if err := c.ShouldBindJSON(&backend); err != nil {
		log.Error().Err(err).Str("instance", instanceID).Msg("Error binding JSON")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	backend.InstanceID = instanceID
	backend.URL = strings.TrimRight(backend.URL, "/")
	if backend.DisplayName == "" {
		backend.DisplayName = instanceID
	}
	if err := discovery.ValidateBackend(backend); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	created, err := h.store.SaveBackend(ctx, &backend)
	if err != nil {
		log.Error().Err(err).Str("instance", instanceID).Msg("Error saving backend")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save backend"})
		return
	}

	h.registry.Forget(instanceID)
	h.registry.Warm(ctx, instanceID)
	h.invalidate(ctx, backendsPath)

	log.Info().Str("instance", instanceID).Bool("created", created).Msg("Successfully saved backend")

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, backend)
}

func (h *BackendsHandler) DeleteBackend(c *gin.Context) {
	instanceID := c.Param("instance")
	ctx := c.Request.Context()

	deleted, err := h.store.DeleteBackend(ctx, instanceID)
	if err != nil {
		log.Error().Err(err).Str("instance", instanceID).Msg("Error deleting backend")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete backend"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Backend not found"})
		return
	}

	h.registry.Forget(instanceID)
	h.invalidate(ctx, backendsPath)

	log.Info().Str("instance", instanceID).Msg("Successfully deleted backend")
	c.JSON(http.StatusOK, gin.H{"message": "Backend deleted successfully"})
}

// Discover stores every backend found by the available discovery methods
func (h *BackendsHandler) Discover(c *gin.Context) {
	d, err := h.discover()
	if err != nil {
		log.Warn().Err(err).Msg("Backend discovery unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "No discovery method available"})
		return
	}
	defer d.Close()

	ctx := c.Request.Context()
	found, err := d.DiscoverAll(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Backend discovery failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Backend discovery failed"})
		return
	}

	created := 0
	saved := make([]models.BackendInstance, 0, len(found))
	for i := range found {
		isNew, err := h.store.SaveBackend(ctx, &found[i])
		if err != nil {
			log.Error().Err(err).Str("instance", found[i].InstanceID).Msg("Error saving discovered backend")
			continue
		}
		if isNew {
			created++
		}
		h.registry.Forget(found[i].InstanceID)
		saved = append(saved, found[i])
	}
	h.invalidate(ctx, backendsPath)

	log.Info().Int("found", len(found)).Int("created", created).Msg("Backend discovery finished")
	c.JSON(http.StatusOK, gin.H{
		"created":  created,
		"backends": saved,
	})
}
