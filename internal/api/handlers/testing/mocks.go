// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package testing

import (
	"context"
	"sync"

	"github.com/autobrr/animebrr/internal/database"
	"github.com/autobrr/animebrr/internal/models"
)

// MockDB implements the database operations the handlers use
type MockDB struct {
	SaveBackendFunc   func(ctx context.Context, backend *models.BackendInstance) (bool, error)
	DeleteBackendFunc func(ctx context.Context, instanceID string) (bool, error)
	ListActionsFunc   func(ctx context.Context, params database.HistoryParams) ([]models.ActionRecord, error)
	PingFunc          func(ctx context.Context) error
}

// SaveBackend implements the database method
func (m *MockDB) SaveBackend(ctx context.Context, backend *models.BackendInstance) (bool, error) {
	if m.SaveBackendFunc != nil {
		return m.SaveBackendFunc(ctx, backend)
	}
	return true, nil
}

// DeleteBackend implements the database method
func (m *MockDB) DeleteBackend(ctx context.Context, instanceID string) (bool, error) {
	if m.DeleteBackendFunc != nil {
		return m.DeleteBackendFunc(ctx, instanceID)
	}
	return true, nil
}

// ListActions implements the database method
func (m *MockDB) ListActions(ctx context.Context, params database.HistoryParams) ([]models.ActionRecord, error) {
	if m.ListActionsFunc != nil {
		return m.ListActionsFunc(ctx, params)
	}
	return []models.ActionRecord{}, nil
}

// PingContext implements the database method
func (m *MockDB) PingContext(ctx context.Context) error {
	if m.PingFunc != nil {
		return m.PingFunc(ctx)
	}
	return nil
}

// MockRegistry records which backends were forgotten and warmed
type MockRegistry struct {
	InstancesFunc func(ctx context.Context) ([]models.BackendInstance, error)

	mu        sync.Mutex
	Forgotten []string
	Warmed    []string
}

func (m *MockRegistry) Instances(ctx context.Context) ([]models.BackendInstance, error) {
	if m.InstancesFunc != nil {
		return m.InstancesFunc(ctx)
	}
	return []models.BackendInstance{}, nil
}

func (m *MockRegistry) Forget(instanceID string) {
	m.mu.Lock()
	m.Forgotten = append(m.Forgotten, instanceID)
	m.mu.Unlock()
}

func (m *MockRegistry) Warm(_ context.Context, instanceID string) {
	m.mu.Lock()
	m.Warmed = append(m.Warmed, instanceID)
	m.mu.Unlock()
}

// MockDiscovery returns a fixed discovery result
type MockDiscovery struct {
	Backends []models.BackendInstance
	Err      error
	Closed   bool
}

func (m *MockDiscovery) DiscoverAll(context.Context) ([]models.BackendInstance, error) {
	return m.Backends, m.Err
}

func (m *MockDiscovery) Close() error {
	m.Closed = true
	return nil
}

// MockHealthChecker returns a fixed health result
type MockHealthChecker struct {
	Health models.BackendHealth
	Status int
}

func (m *MockHealthChecker) CheckHealth(_ context.Context, instanceID string) (models.BackendHealth, int) {
	health := m.Health
	health.InstanceID = instanceID
	return health, m.Status
}
