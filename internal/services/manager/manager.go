// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/animebrr/internal/config"
	"github.com/autobrr/animebrr/internal/database"
	"github.com/autobrr/animebrr/internal/models"
	"github.com/autobrr/animebrr/internal/services/anime"
	"github.com/autobrr/animebrr/internal/services/cache"
	"github.com/autobrr/animebrr/internal/services/resilience"
)

var ErrBackendNotFound = errors.New("backend instance not found")

// BackendManager resolves backend instances to clients. The configured
// default backend is always available; further instances come from the
// database.
type BackendManager struct {
	db        *database.DB
	snapshots *cache.Snapshots
	defaults  config.BackendConfig
	timeout   time.Duration

	mu       sync.Mutex
	clients  map[string]*anime.Client
	breakers map[string]*resilience.CircuitBreaker
}

// NewBackendManager creates a manager. db and snapshots may be nil.
func NewBackendManager(db *database.DB, snapshots *cache.Snapshots, defaults config.BackendConfig, timeout time.Duration) *BackendManager {
	return &BackendManager{
		db:        db,
		snapshots: snapshots,
		defaults:  defaults,
		timeout:   timeout,
		clients:   make(map[string]*anime.Client),
		breakers:  make(map[string]*resilience.CircuitBreaker),
	}
}

// Default returns the backend described by the configuration
func (m *BackendManager) Default() models.BackendInstance {
	name := m.defaults.Name
	if name == "" {
		name = "default"
	}
	return models.BackendInstance{
		InstanceID:  name,
		DisplayName: name,
		URL:         m.defaults.URL,
		TaskAPI:     m.defaults.TaskAPI,
	}
}

// Instance looks up a backend; an empty id means the default backend
func (m *BackendManager) Instance(ctx context.Context, instanceID string) (models.BackendInstance, error) {
	def := m.Default()
	if instanceID == "" || instanceID == def.InstanceID {
		return def, nil
	}

	if m.db == nil {
		return models.BackendInstance{}, fmt.Errorf("%w: %s", ErrBackendNotFound, instanceID)
	}

	backend, err := m.db.FindBackend(ctx, database.FindBackendParams{InstanceID: instanceID})
	if err != nil {
		return models.BackendInstance{}, err
	}
	if backend == nil {
		return models.BackendInstance{}, fmt.Errorf("%w: %s", ErrBackendNotFound, instanceID)
	}
	return *backend, nil
}

// Instances lists the default backend followed by the stored ones
func (m *BackendManager) Instances(ctx context.Context) ([]models.BackendInstance, error) {
	instances := []models.BackendInstance{m.Default()}
	if m.db == nil {
		return instances, nil
	}

	stored, err := m.db.ListBackends(ctx)
	if err != nil {
		return nil, err
	}
	for _, backend := range stored {
		if backend.InstanceID == instances[0].InstanceID {
			continue
		}
		instances = append(instances, backend)
	}
	return instances, nil
}

// Client returns the cached client for a backend, creating it on first use
func (m *BackendManager) Client(ctx context.Context, instanceID string) (*anime.Client, models.BackendInstance, error) {
	instance, err := m.Instance(ctx, instanceID)
	if err != nil {
		return nil, instance, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if client, ok := m.clients[instance.InstanceID]; ok && client.BaseURL() == instance.URL {
		return client, instance, nil
	}

	taskAPI := instance.TaskAPI
	if taskAPI == "" {
		taskAPI = m.defaults.TaskAPI
	}
	client, err := anime.NewClient(instance.URL, taskAPI, m.timeout)
	if err != nil {
		return nil, instance, fmt.Errorf("backend %s: %w", instance.InstanceID, err)
	}
	m.clients[instance.InstanceID] = client

	return client, instance, nil
}

// Forget drops the cached client of a changed or removed backend
func (m *BackendManager) Forget(instanceID string) {
	m.mu.Lock()
	delete(m.clients, instanceID)
	delete(m.breakers, instanceID)
	m.mu.Unlock()
}

// Warm fetches the download progress of a newly added backend in the
// background and caches it as the instance's first snapshot.
func (m *BackendManager) Warm(ctx context.Context, instanceID string) {
	if m.snapshots == nil {
		return
	}

	if _, err := m.snapshots.Latest(ctx, instanceID); err == nil {
		log.Debug().Str("instance", instanceID).Msg("Using cached download progress")
		return
	}

	client, _, err := m.Client(ctx, instanceID)
	if err != nil {
		log.Warn().Err(err).Str("instance", instanceID).Msg("Skipping warm-up")
		return
	}

	go func() {
		ctx := context.WithoutCancel(ctx)
		rows, err := client.DownloadProgress(ctx)
		if err != nil {
			log.Error().
				Err(err).
				Str("instance", instanceID).
				Msg("Failed to fetch initial download progress")
			return
		}

		if err := m.snapshots.For(instanceID).StoreSnapshot(ctx, rows); err != nil {
			log.Warn().
				Err(err).
				Str("instance", instanceID).
				Msg("Failed to cache download progress")
			return
		}

		log.Debug().
			Str("instance", instanceID).
			Int("rows", len(rows)).
			Msg("Cached initial download progress")
	}()
}
