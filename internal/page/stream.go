// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package page

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	streamBufferSize = 32
	sendTimeout      = 2 * time.Second
)

// Stream is a Page whose commands are delivered over a channel to the
// connected browser.
type Stream struct {
	send   chan Command
	done   chan struct{}
	once   sync.Once
	closed bool
	mu     sync.RWMutex
}

func NewStream() *Stream {
	return &Stream{
		send: make(chan Command, streamBufferSize),
		done: make(chan struct{}),
	}
}

// Commands is read by the event stream writer
func (s *Stream) Commands() <-chan Command {
	return s.send
}

// Done is closed once the stream is closed
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Close stops delivery; later commands are dropped
func (s *Stream) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.done)
		s.mu.Unlock()
	})
}

func (s *Stream) push(cmd Command) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}

	select {
	case s.send <- cmd:
	case <-time.After(sendTimeout):
		log.Debug().
			Str("type", cmd.Type).
			Str("target", cmd.Target).
			Msg("Dropped page command for slow client")
	}
}

func (s *Stream) Reload() {
	s.push(Command{Type: CommandReload})
}

func (s *Stream) SetInnerHTML(target, html string) {
	s.push(Command{Type: CommandHTML, Target: target, HTML: html})
}

func (s *Stream) ShowMenu(menuID string, x, y int) {
	s.push(Command{Type: CommandShowMenu, Target: menuID, X: x, Y: y})
}

func (s *Stream) HideMenus() {
	s.push(Command{Type: CommandHideMenus})
}

func (s *Stream) Disable(target string) {
	s.push(Command{Type: CommandDisable, Target: target})
}

func (s *Stream) SelectSubgroup(subgroupID string) {
	s.push(Command{Type: CommandSelectSubgroup, Target: subgroupID})
}
