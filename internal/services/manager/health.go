// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package manager

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/animebrr/internal/models"
	"github.com/autobrr/animebrr/internal/services/core"
	"github.com/autobrr/animebrr/internal/services/resilience"
	"github.com/autobrr/animebrr/internal/types"
)

const (
	healthCheckTimeout = 10 * time.Second

	breakerMaxFailures  = 3
	breakerResetTimeout = 30 * time.Second
)

func (m *BackendManager) breaker(instanceID string) *resilience.CircuitBreaker {
	m.mu.Lock()
	defer m.mu.Unlock()

	cb, ok := m.breakers[instanceID]
	if !ok {
		cb = resilience.NewCircuitBreaker(breakerMaxFailures, breakerResetTimeout)
		m.breakers[instanceID] = cb
	}
	return cb
}

// CheckHealth asks a backend for its scheduler pid and reports how that went.
// The status code is what an HTTP handler should answer with. Unreachable
// backends are retried; after repeated offline checks the backend is reported
// offline without asking until the breaker resets.
func (m *BackendManager) CheckHealth(ctx context.Context, instanceID string) (models.BackendHealth, int) {
	health := models.BackendHealth{
		InstanceID:  instanceID,
		LastChecked: time.Now(),
	}

	client, instance, err := m.Client(ctx, instanceID)
	if err != nil {
		health.Status = models.StatusError
		health.Message = err.Error()
		if errors.Is(err, ErrBackendNotFound) {
			return health, http.StatusNotFound
		}
		return health, http.StatusInternalServerError
	}
	health.InstanceID = instance.InstanceID

	breaker := m.breaker(instance.InstanceID)
	if breaker.IsOpen() {
		health.Status = models.StatusOffline
		health.Message = "backend keeps failing, checks paused"
		return health, http.StatusOK
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	var resp types.DataResponse
	start := time.Now()
	err = resilience.RetryWithBackoff(ctx, func(ctx context.Context) error {
		var err error
		resp, err = client.DaemonPID(ctx)
		return err
	}, func(err error) bool {
		return errors.Is(err, core.ErrNonJSONResponse)
	})
	health.ResponseTime = time.Since(start).Milliseconds()

	switch {
	case errors.Is(err, core.ErrNonJSONResponse):
		health.Status = models.StatusError
		health.Message = "backend answered with a non-JSON response"
	case err != nil:
		breaker.RecordFailure()
		health.Status = models.StatusOffline
		health.Message = err.Error()
	default:
		breaker.RecordSuccess()
		health.Status = models.StatusOnline
		if pid, ok := resp.Value(); ok {
			health.SchedulerPID = pid
		}
	}

	log.Debug().
		Str("instance", health.InstanceID).
		Str("status", health.Status).
		Int64("response_time", health.ResponseTime).
		Msg("Backend health checked")

	return health, http.StatusOK
}
