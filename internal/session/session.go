// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package session runs the front-end logic of one connected browser page.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/animebrr/internal/config"
	"github.com/autobrr/animebrr/internal/dispatch"
	"github.com/autobrr/animebrr/internal/menu"
	"github.com/autobrr/animebrr/internal/page"
	"github.com/autobrr/animebrr/internal/poller"
	"github.com/autobrr/animebrr/internal/render"
	"github.com/autobrr/animebrr/internal/types"
)

const gestureBufferSize = 16

// Backend is everything a page session asks of an anime backend
type Backend interface {
	dispatch.Backend
	poller.Source
	DaemonPID(ctx context.Context) (types.DataResponse, error)
	MaxActiveDownloads(ctx context.Context) (types.DataResponse, error)
	TaskStatus(ctx context.Context) (json.RawMessage, error)
}

// Session is one browser page. Gestures are handled one at a time by the
// session goroutine; backend requests run beside it.
type Session struct {
	ID         string
	Kind       page.Kind
	InstanceID string

	stream     *page.Stream
	backend    Backend
	dispatcher *dispatch.Dispatcher
	menu       *menu.Machine
	poller     *poller.Poller

	gestures chan page.Gesture
	done     chan struct{}
	inflight sync.WaitGroup

	connectedAt time.Time
	lastActive  atomic.Int64

	log zerolog.Logger
}

func newSession(id string, kind page.Kind, instanceID string, backend Backend, d *dispatch.Dispatcher, stream *page.Stream, p *poller.Poller) *Session {
	s := &Session{
		ID:          id,
		Kind:        kind,
		InstanceID:  instanceID,
		stream:      stream,
		backend:     backend,
		dispatcher:  d,
		poller:      p,
		gestures:    make(chan page.Gesture, gestureBufferSize),
		done:        make(chan struct{}),
		connectedAt: time.Now(),
		log: log.With().
			Str("session", id).
			Str("page", string(kind)).
			Str("instance", instanceID).
			Logger(),
	}
	s.menu = menu.New(stream, backgroundActions{s})
	s.Touch()
	return s
}

// Commands streams the page commands for the browser
func (s *Session) Commands() <-chan page.Command {
	return s.stream.Commands()
}

// Done is closed when the session has ended
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Touch marks the session as active
func (s *Session) Touch() {
	s.lastActive.Store(time.Now().UnixNano())
}

func (s *Session) idle(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastActive.Load()))
}

// Gesture queues a gesture for the session goroutine. It reports false when
// the session has ended.
func (s *Session) Gesture(ctx context.Context, g page.Gesture) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.gestures <- g:
		s.Touch()
		return true
	case <-s.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// run is the session goroutine. It returns once ctx is cancelled and every
// request the session started has finished.
func (s *Session) run(ctx context.Context) {
	defer func() {
		s.inflight.Wait()
		s.stream.Close()
		close(s.done)
	}()

	s.log.Debug().Msg("Page session started")

	switch s.Kind {
	case page.KindDownload:
		s.spawn(ctx, func(ctx context.Context) {
			if err := s.poller.Run(ctx); err != nil {
				s.log.Warn().Err(err).Msg("Progress polling stopped")
			}
		})
	case page.KindSetting:
		s.spawn(ctx, s.loadSettings)
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Debug().Msg("Page session ended")
			return
		case g := <-s.gestures:
			s.handle(ctx, g)
		}
	}
}

func (s *Session) handle(ctx context.Context, g page.Gesture) {
	switch g.Type {
	case page.GestureContextMenu:
		s.menu.Open(g.Target, g.X, g.Y)
	case page.GestureClick:
		s.menu.Click(ctx, g.Target)
		if g.Target.Attr(menu.AttrMenu) != "" {
			return
		}
		s.spawn(ctx, func(ctx context.Context) {
			s.dispatcher.HandleClick(ctx, s.Kind, g)
		})
	case page.GestureSubmit:
		s.spawn(ctx, func(ctx context.Context) {
			s.dispatcher.HandleSubmit(ctx, s.Kind, g)
		})
	default:
		s.log.Debug().Str("type", g.Type).Msg("Ignoring unknown gesture")
	}
}

func (s *Session) spawn(ctx context.Context, fn func(ctx context.Context)) {
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		fn(ctx)
	}()
}

// loadSettings fills the read-only fields of the settings page. A failing
// loader leaves its field untouched.
func (s *Session) loadSettings(ctx context.Context) {
	var g errgroup.Group

	g.Go(func() error {
		resp, err := s.backend.DaemonPID(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("Failed to load daemon pid")
			return nil
		}
		s.stream.SetInnerHTML(page.TargetDaemonPID, render.DaemonPID(resp))
		return nil
	})

	g.Go(func() error {
		resp, err := s.backend.MaxActiveDownloads(ctx)
		if err != nil {
			s.log.Error().Err(err).Msg("Failed to load max active downloads")
			return nil
		}
		s.stream.SetInnerHTML(page.TargetMaxDownloadInput, render.MaxDownloadInput(resp))
		return nil
	})

	if s.backend.Tasks().Name() == config.TaskAPILegacy {
		g.Go(func() error {
			raw, err := s.backend.TaskStatus(ctx)
			if err != nil {
				s.log.Error().Err(err).Msg("Failed to load task status")
				return nil
			}
			s.stream.SetInnerHTML(page.TargetTaskStatus, render.TaskStatus(raw))
			return nil
		})
	}

	_ = g.Wait()
}

// backgroundActions lets the context menu fire its requests without holding
// up the session goroutine.
type backgroundActions struct {
	s *Session
}

func (b backgroundActions) run(ctx context.Context, fn func(ctx context.Context) error) error {
	b.s.spawn(ctx, func(ctx context.Context) {
		_ = fn(ctx)
	})
	return nil
}

func (b backgroundActions) DownloadEpisode(ctx context.Context, mikanID, episode types.Int) error {
	return b.run(ctx, func(ctx context.Context) error {
		return b.s.dispatcher.DownloadEpisode(ctx, mikanID, episode)
	})
}

func (b backgroundActions) RecoverEpisodeSeed(ctx context.Context, mikanID, episode types.Int) error {
	return b.run(ctx, func(ctx context.Context) error {
		return b.s.dispatcher.RecoverEpisodeSeed(ctx, mikanID, episode)
	})
}

func (b backgroundActions) AddEpisodeOffsetFilter(ctx context.Context, mikanID, episode types.Int) error {
	return b.run(ctx, func(ctx context.Context) error {
		return b.s.dispatcher.AddEpisodeOffsetFilter(ctx, mikanID, episode)
	})
}

func (b backgroundActions) SubscribeFromEpisode(ctx context.Context, mikanID, episode types.Int) error {
	return b.run(ctx, func(ctx context.Context) error {
		return b.s.dispatcher.SubscribeFromEpisode(ctx, mikanID, episode)
	})
}

func (b backgroundActions) DownloadBySeedURL(ctx context.Context, seedURL string) error {
	return b.run(ctx, func(ctx context.Context) error {
		return b.s.dispatcher.DownloadBySeedURL(ctx, seedURL)
	})
}

func (b backgroundActions) RecoverSeedByURL(ctx context.Context, seedURL string) error {
	return b.run(ctx, func(ctx context.Context) error {
		return b.s.dispatcher.RecoverSeedByURL(ctx, seedURL)
	})
}

func (b backgroundActions) Skip(ctx context.Context, action string, fields map[string]string) {
	b.s.dispatcher.Skip(ctx, action, fields)
}
