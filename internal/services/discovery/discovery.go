// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package discovery

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/animebrr/internal/config"
	"github.com/autobrr/animebrr/internal/models"
)

// BackendDiscoverer finds anime backends in one environment
type BackendDiscoverer interface {
	Name() string
	DiscoverBackends(ctx context.Context) ([]models.BackendInstance, error)
	// Close cleans up any resources used by the discoverer
	Close() error
}

// Manager handles multiple discovery methods
type Manager struct {
	discoverers []BackendDiscoverer
}

// NewManager wraps the given discoverers
func NewManager(discoverers ...BackendDiscoverer) *Manager {
	return &Manager{discoverers: discoverers}
}

// NewDefaultManager sets up every discovery method available on this host
func NewDefaultManager() (*Manager, error) {
	var discoverers []BackendDiscoverer

	if docker, err := NewDockerDiscovery(); err == nil {
		discoverers = append(discoverers, docker)
	} else {
		log.Debug().Err(err).Msg("Docker discovery unavailable")
	}

	if k8s, err := NewKubernetesDiscovery(); err == nil {
		discoverers = append(discoverers, k8s)
	} else {
		log.Debug().Err(err).Msg("Kubernetes discovery unavailable")
	}

	if len(discoverers) == 0 {
		return nil, fmt.Errorf("no backend discovery methods available")
	}

	return NewManager(discoverers...), nil
}

// DiscoverAll queries every discoverer concurrently. A failing discoverer is
// logged and skipped; results keep the discoverer order.
func (m *Manager) DiscoverAll(ctx context.Context) ([]models.BackendInstance, error) {
	results := make([][]models.BackendInstance, len(m.discoverers))

	var (
		g  errgroup.Group
		mu sync.Mutex
		ok int
	)
	for i, discoverer := range m.discoverers {
		i, discoverer := i, discoverer
		g.Go(func() error {
			backends, err := discoverer.DiscoverBackends(ctx)
			if err != nil {
				log.Warn().Err(err).Str("method", discoverer.Name()).Msg("Backend discovery error")
				return nil
			}
			results[i] = backends
			mu.Lock()
			ok++
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if ok == 0 && len(m.discoverers) > 0 {
		return nil, fmt.Errorf("every discovery method failed")
	}

	var all []models.BackendInstance
	for _, backends := range results {
		all = append(all, backends...)
	}
	return all, nil
}

// Close cleans up all discoverers
func (m *Manager) Close() error {
	var lastErr error
	for _, discoverer := range m.discoverers {
		if err := discoverer.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// ValidateBackend checks that a discovered backend can be used
func ValidateBackend(backend models.BackendInstance) error {
	if backend.InstanceID == "" {
		return fmt.Errorf("instance ID is required")
	}
	if backend.DisplayName == "" {
		return fmt.Errorf("display name is required")
	}
	if backend.URL == "" {
		return fmt.Errorf("URL is required")
	}
	switch backend.TaskAPI {
	case "", config.TaskAPIConsolidated, config.TaskAPILegacy:
	default:
		return fmt.Errorf("unknown task api %q", backend.TaskAPI)
	}
	return nil
}

// expandEnv resolves a "${VAR}" value from the environment
func expandEnv(value string) (string, error) {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
		return value, nil
	}
	envVar := strings.TrimSuffix(strings.TrimPrefix(value, "${"), "}")
	resolved := os.Getenv(envVar)
	if resolved == "" {
		return "", fmt.Errorf("environment variable %s not set", envVar)
	}
	return resolved, nil
}

// parseLabels reads a backend from container or service labels. It returns
// nil for backends labelled as disabled.
func parseLabels(labels map[string]string, defaultID string) (*models.BackendInstance, error) {
	if enabled := labels[GetLabelKey(labelEnabledKey)]; enabled == "false" {
		return nil, nil
	}

	url, err := expandEnv(labels[GetLabelKey(labelURLKey)])
	if err != nil {
		return nil, fmt.Errorf("backend URL: %w", err)
	}
	if url == "" {
		return nil, fmt.Errorf("backend URL label not found")
	}

	instanceID := labels[GetLabelKey(labelIDKey)]
	if instanceID == "" {
		instanceID = defaultID
	}

	displayName := labels[GetLabelKey(labelNameKey)]
	if displayName == "" {
		displayName = instanceID
	}

	backend := &models.BackendInstance{
		InstanceID:  instanceID,
		DisplayName: displayName,
		URL:         url,
		TaskAPI:     labels[GetLabelKey(labelTaskAPIKey)],
	}
	if err := ValidateBackend(*backend); err != nil {
		return nil, err
	}

	return backend, nil
}
