// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package dispatch turns page gestures into backend actions. Every action is
// one request; a JSON response reloads the page, anything else is logged and
// dropped.
package dispatch

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/animebrr/internal/metrics"
	"github.com/autobrr/animebrr/internal/models"
	"github.com/autobrr/animebrr/internal/page"
	"github.com/autobrr/animebrr/internal/services/anime"
	"github.com/autobrr/animebrr/internal/types"
)

// Backend is the part of the anime client the dispatcher needs
type Backend interface {
	Do(ctx context.Context, call anime.Call) (json.RawMessage, error)
	Tasks() anime.TaskAPI
}

// Journal keeps the dispatched actions
type Journal interface {
	RecordAction(ctx context.Context, record *models.ActionRecord) error
}

type Dispatcher struct {
	backend    Backend
	page       page.Page
	journal    Journal
	metrics    *metrics.Metrics
	instanceID string
}

type Option func(*Dispatcher)

func WithJournal(j Journal) Option {
	return func(d *Dispatcher) {
		d.journal = j
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithInstance tags journal entries with the backend instance id
func WithInstance(instanceID string) Option {
	return func(d *Dispatcher) {
		d.instanceID = instanceID
	}
}

func New(backend Backend, p page.Page, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		backend: backend,
		page:    p,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Page returns the page the dispatcher reloads
func (d *Dispatcher) Page() page.Page {
	return d.page
}

// Execute issues the call and reloads the page once a JSON response arrives.
// The error is logged here; gesture handlers drop it.
func (d *Dispatcher) Execute(ctx context.Context, call anime.Call) error {
	if _, err := d.send(ctx, call); err != nil {
		return err
	}
	d.page.Reload()
	return nil
}

func (d *Dispatcher) send(ctx context.Context, call anime.Call) (json.RawMessage, error) {
	record := &models.ActionRecord{
		Action:     call.Action,
		InstanceID: d.instanceID,
		Method:     call.Method,
		Path:       call.Path,
		Payload:    call.Payload(),
		StartedAt:  time.Now(),
	}

	raw, err := d.backend.Do(ctx, call)
	elapsed := time.Since(record.StartedAt)
	record.DurationMs = elapsed.Milliseconds()

	if err != nil {
		record.Outcome = models.OutcomeFailed
		record.Error = err.Error()
		log.Error().
			Err(err).
			Str("action", call.Action).
			Str("path", call.Path).
			Str("payload", record.Payload).
			Msg("Backend action failed")
	} else {
		record.Outcome = models.OutcomeOK
		log.Info().
			Str("action", call.Action).
			Str("path", call.Path).
			RawJSON("response", raw).
			Msg("Backend action done")
	}

	d.metrics.ObserveAction(call.Action, record.Outcome, elapsed)
	d.record(ctx, record)

	return raw, err
}

// Skip journals an action that is only logged, never sent
func (d *Dispatcher) Skip(ctx context.Context, action string, fields map[string]string) {
	logEvent := log.Info().Str("action", action)
	for k, v := range fields {
		logEvent = logEvent.Str(k, v)
	}
	logEvent.Msg("Action has no backend call")

	payload, _ := json.Marshal(fields)
	d.metrics.ObserveAction(action, models.OutcomeSkipped, 0)
	d.record(ctx, &models.ActionRecord{
		Action:     action,
		InstanceID: d.instanceID,
		Payload:    string(payload),
		Outcome:    models.OutcomeSkipped,
		StartedAt:  time.Now(),
	})
}

func (d *Dispatcher) record(ctx context.Context, record *models.ActionRecord) {
	if d.journal == nil {
		return
	}
	// the journal outlives a cancelled gesture
	if err := d.journal.RecordAction(context.WithoutCancel(ctx), record); err != nil {
		log.Warn().Err(err).Str("action", record.Action).Msg("Failed to record action")
	}
}

func (d *Dispatcher) Subscribe(ctx context.Context, mikanID types.Int) error {
	return d.Execute(ctx, anime.Subscribe(mikanID))
}

func (d *Dispatcher) Unsubscribe(ctx context.Context, mikanID types.Int) error {
	return d.Execute(ctx, anime.Unsubscribe(mikanID))
}

func (d *Dispatcher) UpdateAnimeList(ctx context.Context, year, season types.Int) error {
	return d.Execute(ctx, anime.UpdateAnimeList(year, season))
}

func (d *Dispatcher) UpdateAnimeSeed(ctx context.Context, mikanID types.Int, animeType string) error {
	return d.Execute(ctx, anime.UpdateAnimeSeed(mikanID, animeType))
}

func (d *Dispatcher) DownloadSubscribed(ctx context.Context, mikanID types.Int) error {
	return d.Execute(ctx, anime.DownloadSubscribed(mikanID))
}

func (d *Dispatcher) DeleteAnimeData(ctx context.Context, mikanID types.Int) error {
	return d.Execute(ctx, anime.DeleteAnimeData(mikanID))
}

func (d *Dispatcher) DownloadEpisode(ctx context.Context, mikanID, episode types.Int) error {
	return d.Execute(ctx, anime.CreateTaskByEpisode(mikanID, episode))
}

func (d *Dispatcher) DownloadBySeedURL(ctx context.Context, seedURL string) error {
	return d.Execute(ctx, anime.CreateTaskBySeedURL(seedURL))
}

func (d *Dispatcher) RecoverEpisodeSeed(ctx context.Context, mikanID, episode types.Int) error {
	return d.Execute(ctx, anime.RecoverEpisodeSeed(mikanID, episode))
}

func (d *Dispatcher) RecoverSeedByURL(ctx context.Context, seedURL string) error {
	return d.Execute(ctx, anime.RecoverSeedByURL(seedURL))
}

// AddEpisodeOffsetFilter subscribes downloads from the given episode onwards
func (d *Dispatcher) AddEpisodeOffsetFilter(ctx context.Context, mikanID, episode types.Int) error {
	return d.Execute(ctx, anime.AddEpisodeOffsetFilter(mikanID, episode))
}

// SubscribeFromEpisode subscribes the anime and filters out the episodes
// before ep. The two requests are independent; each reloads on its own.
func (d *Dispatcher) SubscribeFromEpisode(ctx context.Context, mikanID, episode types.Int) error {
	var g errgroup.Group
	g.Go(func() error {
		return d.Subscribe(ctx, mikanID)
	})
	g.Go(func() error {
		return d.AddEpisodeOffsetFilter(ctx, mikanID, episode)
	})
	return g.Wait()
}

func (d *Dispatcher) TaskControl(ctx context.Context, torrentName string, op types.TaskOp) error {
	call, err := d.backend.Tasks().TaskControl(torrentName, op)
	if err != nil {
		log.Error().Err(err).Str("torrent", torrentName).Msg("Invalid task operation")
		return err
	}
	return d.Execute(ctx, call)
}

func (d *Dispatcher) ChangeInterval(ctx context.Context, interval types.Int) error {
	return d.Execute(ctx, anime.ChangeInterval(interval))
}

func (d *Dispatcher) ModifyMaxActiveDownloads(ctx context.Context, nums types.Int) error {
	return d.Execute(ctx, anime.ModifyMaxActiveDownloads(nums))
}

func (d *Dispatcher) StartScheduler(ctx context.Context) error {
	return d.Execute(ctx, anime.StartScheduler())
}

func (d *Dispatcher) StopScheduler(ctx context.Context) error {
	return d.Execute(ctx, anime.StopScheduler())
}

func (d *Dispatcher) SyncFinishedTasks(ctx context.Context) error {
	return d.Execute(ctx, d.backend.Tasks().SyncFinishedTasks())
}
