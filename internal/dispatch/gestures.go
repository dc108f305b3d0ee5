// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package dispatch

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/animebrr/internal/page"
	"github.com/autobrr/animebrr/internal/types"
)

// Button classes bound to actions
const (
	ClassAnime       = "anime-button"
	ClassSubscribe   = "subscribe-button"
	ClassUpdate      = "update-button"
	ClassDownload    = "download-button"
	ClassClean       = "clean-button"
	ClassTask        = "task-button"
	ClassStart       = "start-button"
	ClassStop        = "stop-button"
	ClassMaxDownload = "max-download-button"
	ClassSync        = "sync-button"
	ClassSubgroup    = "subgroup"
)

// Form and element names the shim forwards values for
const (
	ValueInterval    = "interval"
	ValueMaxDownload = "max-download"
)

type clickBinding struct {
	class string
	// disable greys the button out before the request
	disable bool
	handle  func(d *Dispatcher, ctx context.Context, g page.Gesture) error
}

var clickBindings = map[page.Kind][]clickBinding{
	page.KindAnime: {
		{class: ClassAnime, disable: true, handle: func(d *Dispatcher, ctx context.Context, g page.Gesture) error {
			parts := strings.Split(g.Path, "/")
			return d.UpdateAnimeList(ctx, types.ParseInt(segment(parts, 3)), types.ParseInt(segment(parts, 4)))
		}},
		{class: ClassSubscribe, disable: true, handle: func(d *Dispatcher, ctx context.Context, g page.Gesture) error {
			mikanID := types.ParseInt(g.Target.ID)
			if unsubscribed(g.Target.Attr("subscribe_status")) {
				return d.Subscribe(ctx, mikanID)
			}
			return d.Unsubscribe(ctx, mikanID)
		}},
		{class: ClassUpdate, disable: true, handle: func(d *Dispatcher, ctx context.Context, g page.Gesture) error {
			return d.UpdateAnimeSeed(ctx, types.ParseInt(g.Target.ID), g.Target.Attr("type"))
		}},
		{class: ClassDownload, disable: true, handle: func(d *Dispatcher, ctx context.Context, g page.Gesture) error {
			return d.DownloadSubscribed(ctx, types.ParseInt(g.Target.ID))
		}},
		{class: ClassClean, disable: true, handle: func(d *Dispatcher, ctx context.Context, g page.Gesture) error {
			return d.DeleteAnimeData(ctx, types.ParseInt(g.Target.ID))
		}},
	},
	page.KindDownload: {
		{class: ClassTask, handle: func(d *Dispatcher, ctx context.Context, g page.Gesture) error {
			return d.TaskControl(ctx, g.Target.Attr("data-torrent"), types.TaskOp(g.Target.ID))
		}},
	},
	page.KindSetting: {
		{class: ClassStart, disable: true, handle: func(d *Dispatcher, ctx context.Context, g page.Gesture) error {
			return d.StartScheduler(ctx)
		}},
		{class: ClassStop, disable: true, handle: func(d *Dispatcher, ctx context.Context, g page.Gesture) error {
			return d.StopScheduler(ctx)
		}},
		{class: ClassMaxDownload, handle: func(d *Dispatcher, ctx context.Context, g page.Gesture) error {
			return d.ModifyMaxActiveDownloads(ctx, types.ParseInt(g.Value(ValueMaxDownload)))
		}},
		{class: ClassSync, handle: func(d *Dispatcher, ctx context.Context, g page.Gesture) error {
			return d.SyncFinishedTasks(ctx)
		}},
	},
}

// unsubscribed compares the status attribute loosely against 0, so an empty
// or blank status also reads as not subscribed
func unsubscribed(status string) bool {
	status = strings.TrimSpace(status)
	if status == "" {
		return true
	}
	v, err := strconv.ParseFloat(status, 64)
	return err == nil && v == 0
}

// segment returns the i-th path segment, "" past the end
func segment(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}

// HandleClick runs the action bound to the clicked element. It reports
// whether a binding matched; action errors are already logged.
func (d *Dispatcher) HandleClick(ctx context.Context, kind page.Kind, g page.Gesture) bool {
	if kind == page.KindDetail && g.Target.HasClass(ClassSubgroup) {
		d.page.SelectSubgroup(g.Target.ID)
		return true
	}

	for _, binding := range clickBindings[kind] {
		if !g.Target.HasClass(binding.class) {
			continue
		}
		if binding.disable {
			d.page.Disable(g.Target.Selector(binding.class))
		}
		_ = binding.handle(d, ctx, g)
		return true
	}

	log.Trace().
		Str("page", string(kind)).
		Str("class", g.Target.Class).
		Str("id", g.Target.ID).
		Msg("Click on unbound element")
	return false
}

// HandleSubmit runs the action bound to a form submit
func (d *Dispatcher) HandleSubmit(ctx context.Context, kind page.Kind, g page.Gesture) bool {
	if kind != page.KindSetting {
		return false
	}
	if _, ok := g.Values[ValueInterval]; !ok {
		return false
	}
	_ = d.ChangeInterval(ctx, types.ParseDecimal(g.Value(ValueInterval)))
	return true
}
