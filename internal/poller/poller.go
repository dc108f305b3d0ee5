// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/animebrr/internal/config"
	"github.com/autobrr/animebrr/internal/metrics"
	"github.com/autobrr/animebrr/internal/page"
	"github.com/autobrr/animebrr/internal/render"
	"github.com/autobrr/animebrr/internal/types"
)

// Source returns the current download progress
type Source interface {
	DownloadProgress(ctx context.Context) ([]types.TorrentStatus, error)
}

// Sink receives every successful snapshot
type Sink interface {
	StoreSnapshot(ctx context.Context, rows []types.TorrentStatus) error
}

// Poller refreshes the torrentInfo table of a download page
type Poller struct {
	source   Source
	page     page.Page
	interval time.Duration
	sink     Sink
	metrics  *metrics.Metrics
}

type Option func(*Poller)

func WithSink(s Sink) Option {
	return func(p *Poller) {
		p.sink = s
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Poller) {
		p.metrics = m
	}
}

func New(source Source, p page.Page, interval time.Duration, opts ...Option) *Poller {
	if interval <= 0 {
		interval = config.DefaultPollInterval
	}
	poller := &Poller{
		source:   source,
		page:     p,
		interval: interval,
	}
	for _, opt := range opts {
		opt(poller)
	}
	return poller
}

// Poll fetches the progress once and renders it into the page
func (p *Poller) Poll(ctx context.Context) ([]types.TorrentStatus, error) {
	rows, err := p.source.DownloadProgress(ctx)
	if err != nil {
		p.metrics.ObservePoll("failed", -1)
		return nil, err
	}

	html, err := render.ProgressTable(rows)
	if err != nil {
		p.metrics.ObservePoll("failed", -1)
		return nil, err
	}
	p.page.SetInnerHTML(page.TargetTorrentInfo, html)
	p.metrics.ObservePoll("ok", len(rows))

	if p.sink != nil {
		if err := p.sink.StoreSnapshot(ctx, rows); err != nil {
			log.Warn().Err(err).Msg("Failed to store progress snapshot")
		}
	}

	return rows, nil
}

// Run polls immediately and then once per interval after each successful
// poll. A failed poll is logged and ends the loop; the page keeps its last
// table until it is reloaded. Run returns nil when ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	log.Debug().Dur("interval", p.interval).Msg("Starting progress poller")

	for {
		if _, err := p.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Msg("Progress poll failed, polling stopped")
			return err
		}

		timer := time.NewTimer(p.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Debug().Msg("Progress poller stopped")
			return nil
		case <-timer.C:
		}
	}
}
