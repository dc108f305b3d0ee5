// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the front-end counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Actions        *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
	Polls          *prometheus.CounterVec
	PollRows       prometheus.Gauge
	Sessions       prometheus.Gauge
}

// New creates and registers the metrics with the given registry
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "animebrr",
			Subsystem: "dispatch",
			Name:      "actions_total",
			Help:      "Backend actions dispatched, by action and outcome.",
		}, []string{"action", "outcome"}),
		ActionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "animebrr",
			Subsystem: "dispatch",
			Name:      "action_duration_seconds",
			Help:      "Duration of backend action requests.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"action"}),
		Polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "animebrr",
			Subsystem: "poller",
			Name:      "polls_total",
			Help:      "Download progress polls, by outcome.",
		}, []string{"outcome"}),
		PollRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "animebrr",
			Subsystem: "poller",
			Name:      "rows",
			Help:      "Rows in the most recent progress snapshot.",
		}),
		Sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "animebrr",
			Subsystem: "session",
			Name:      "active",
			Help:      "Connected page sessions.",
		}),
	}

	reg.MustRegister(
		m.Actions,
		m.ActionDuration,
		m.Polls,
		m.PollRows,
		m.Sessions,
	)

	return m
}

func (m *Metrics) ObserveAction(action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Actions.WithLabelValues(action, outcome).Inc()
	m.ActionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

func (m *Metrics) ObservePoll(outcome string, rows int) {
	if m == nil {
		return
	}
	m.Polls.WithLabelValues(outcome).Inc()
	if rows >= 0 {
		m.PollRows.Set(float64(rows))
	}
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.Sessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.Sessions.Dec()
}
