// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/animebrr/internal/config"
	"github.com/autobrr/animebrr/internal/dispatch"
	"github.com/autobrr/animebrr/internal/metrics"
	"github.com/autobrr/animebrr/internal/models"
	"github.com/autobrr/animebrr/internal/page"
	"github.com/autobrr/animebrr/internal/poller"
	"github.com/autobrr/animebrr/internal/services/cache"
)

const (
	cleanupInterval = 2 * time.Minute
	maxInactiveTime = 5 * time.Minute
)

var ErrSessionNotFound = errors.New("page session not found")

// ResolveFunc returns the backend a session of the given instance talks to
type ResolveFunc func(ctx context.Context, instanceID string) (Backend, models.BackendInstance, error)

// Hub tracks the open page sessions
type Hub struct {
	resolve   ResolveFunc
	journal   dispatch.Journal
	metrics   *metrics.Metrics
	snapshots *cache.Snapshots
	interval  time.Duration

	mu       sync.RWMutex
	sessions map[string]*hubEntry

	cleanupOnce sync.Once
	stop        chan struct{}
	stopOnce    sync.Once
}

type hubEntry struct {
	session *Session
	cancel  context.CancelFunc
}

type HubOption func(*Hub)

func WithJournal(j dispatch.Journal) HubOption {
	return func(h *Hub) {
		h.journal = j
	}
}

func WithMetrics(m *metrics.Metrics) HubOption {
	return func(h *Hub) {
		h.metrics = m
	}
}

// WithSnapshots caches every progress poll per backend instance
func WithSnapshots(s *cache.Snapshots) HubOption {
	return func(h *Hub) {
		h.snapshots = s
	}
}

func WithPollInterval(d time.Duration) HubOption {
	return func(h *Hub) {
		h.interval = d
	}
}

func NewHub(resolve ResolveFunc, opts ...HubOption) *Hub {
	h := &Hub{
		resolve:  resolve,
		interval: config.DefaultPollInterval,
		sessions: make(map[string]*hubEntry),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Open starts a session for a page of the given backend instance. The
// session lives until ctx is cancelled or the hub closes it.
func (h *Hub) Open(ctx context.Context, kind page.Kind, instanceID string) (*Session, error) {
	backend, instance, err := h.resolve(ctx, instanceID)
	if err != nil {
		return nil, err
	}

	stream := page.NewStream()

	dispatchOpts := []dispatch.Option{
		dispatch.WithInstance(instance.InstanceID),
		dispatch.WithMetrics(h.metrics),
	}
	if h.journal != nil {
		dispatchOpts = append(dispatchOpts, dispatch.WithJournal(h.journal))
	}
	d := dispatch.New(backend, stream, dispatchOpts...)

	var p *poller.Poller
	if kind == page.KindDownload {
		pollOpts := []poller.Option{poller.WithMetrics(h.metrics)}
		if h.snapshots != nil {
			pollOpts = append(pollOpts, poller.WithSink(h.snapshots.For(instance.InstanceID)))
		}
		p = poller.New(backend, stream, h.interval, pollOpts...)
	}

	s := newSession(uuid.NewString(), kind, instance.InstanceID, backend, d, stream, p)

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	h.mu.Lock()
	h.sessions[s.ID] = &hubEntry{session: s, cancel: cancel}
	h.mu.Unlock()
	h.metrics.SessionOpened()

	go s.run(ctx)

	return s, nil
}

// Get returns an open session
func (h *Hub) Get(id string) (*Session, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	entry, ok := h.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry.session, nil
}

// Close ends a session; this is the page unload
func (h *Hub) Close(id string) {
	h.mu.Lock()
	entry, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()

	if !ok {
		return
	}
	entry.cancel()
	h.metrics.SessionClosed()
}

// Len returns the number of open sessions
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// StartCleanup periodically closes sessions that went quiet
func (h *Hub) StartCleanup() {
	h.cleanupOnce.Do(func() {
		ticker := time.NewTicker(cleanupInterval)
		go func() {
			defer ticker.Stop()
			for {
				select {
				case now := <-ticker.C:
					h.cleanup(now)
				case <-h.stop:
					return
				}
			}
		}()
	})
}

func (h *Hub) cleanup(now time.Time) {
	var stale []string

	h.mu.RLock()
	before := len(h.sessions)
	for id, entry := range h.sessions {
		select {
		case <-entry.session.Done():
			stale = append(stale, id)
		default:
			if entry.session.idle(now) > maxInactiveTime {
				log.Info().
					Str("session", id).
					Time("connected_at", entry.session.connectedAt).
					Msg("Removing inactive page session")
				stale = append(stale, id)
			}
		}
	}
	h.mu.RUnlock()

	for _, id := range stale {
		h.Close(id)
	}

	if len(stale) > 0 {
		log.Info().
			Int("before", before).
			Int("cleaned", len(stale)).
			Msg("Cleaned up page sessions")
	}
}

// Shutdown closes every session and stops the cleanup loop
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})

	h.mu.RLock()
	ids := make([]string, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		h.Close(id)
	}
	log.Info().Int("sessions", len(ids)).Msg("Page sessions closed")
}
