// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package menu holds the episode context menu of the detail page
package menu

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/autobrr/animebrr/internal/page"
	"github.com/autobrr/animebrr/internal/types"
)

// Episode categories; the element id of an episode names its category and
// <category>-menu names its menu.
const (
	CategoryDownloadedEpisode   = "downloaded-ep"
	CategoryUndownloadedEpisode = "undownloaded-ep"
	CategoryDownloadedSeed      = "downloaded-sd"
	CategoryUndownloadedSeed    = "undownloaded-sd"
	CategoryFailedSeed          = "failed-sd"
)

// Menu item ids
const (
	ItemDelete    = "delete"
	ItemSubscribe = "subscribe"
	ItemDownload  = "download"
	ItemRecover   = "recover"
)

const (
	// ClassEpisode marks elements that open a context menu
	ClassEpisode = "episode"
	// AttrMenu is set by the shim on clicks inside a context menu to the
	// id of that menu
	AttrMenu = "data-menu"
	menuSuffix = "-menu"
)

var knownMenus = map[string]bool{
	CategoryDownloadedEpisode + menuSuffix:   true,
	CategoryUndownloadedEpisode + menuSuffix: true,
	CategoryDownloadedSeed + menuSuffix:      true,
	CategoryUndownloadedSeed + menuSuffix:    true,
	CategoryFailedSeed + menuSuffix:          true,
}

// Actions are the dispatcher operations the menu items trigger
type Actions interface {
	DownloadEpisode(ctx context.Context, mikanID, episode types.Int) error
	RecoverEpisodeSeed(ctx context.Context, mikanID, episode types.Int) error
	AddEpisodeOffsetFilter(ctx context.Context, mikanID, episode types.Int) error
	SubscribeFromEpisode(ctx context.Context, mikanID, episode types.Int) error
	DownloadBySeedURL(ctx context.Context, seedURL string) error
	RecoverSeedByURL(ctx context.Context, seedURL string) error
	Skip(ctx context.Context, action string, fields map[string]string)
}

// State of the machine
type State int

const (
	Hidden State = iota
	Visible
)

func (s State) String() string {
	if s == Visible {
		return "visible"
	}
	return "hidden"
}

// Machine is the context menu of one page. It is not safe for concurrent
// use; the owning session feeds it gestures one at a time.
type Machine struct {
	page    page.Page
	actions Actions

	state    State
	target   page.Element
	category string
}

func New(p page.Page, actions Actions) *Machine {
	return &Machine{
		page:    p,
		actions: actions,
	}
}

func (m *Machine) State() State {
	return m.state
}

// Target returns the element the visible menu was opened on
func (m *Machine) Target() (page.Element, string, bool) {
	if m.state != Visible {
		return page.Element{}, "", false
	}
	return m.target, m.category, true
}

// Open handles a right click. It reports false for elements without a menu,
// which keep the browser's own menu.
func (m *Machine) Open(target page.Element, x, y int) bool {
	if !target.HasClass(ClassEpisode) {
		return false
	}

	m.page.HideMenus()
	m.state = Hidden

	menuID := target.ID + menuSuffix
	if !knownMenus[menuID] {
		log.Warn().Str("menu", menuID).Msg("No context menu for episode category")
		return true
	}

	m.state = Visible
	m.target = target
	m.category = target.ID
	m.page.ShowMenu(menuID, x, y)

	return true
}

// Click handles any click on the page. A click on a menu item of the visible
// menu runs its action first; every click then hides the menus.
func (m *Machine) Click(ctx context.Context, clicked page.Element) {
	if clicked.Attr(AttrMenu) != "" {
		if m.state != Visible {
			log.Debug().Str("item", clicked.ID).Msg("Menu item clicked without a target")
			return
		}
		m.selectItem(ctx, clicked.ID)
	}

	m.Dismiss()
}

// Dismiss hides every menu
func (m *Machine) Dismiss() {
	if m.state == Hidden {
		return
	}
	m.state = Hidden
	m.target = page.Element{}
	m.category = ""
	m.page.HideMenus()
}

func (m *Machine) selectItem(ctx context.Context, item string) {
	episode := types.ParseInt(m.target.Text)
	mikanID := types.ParseInt(m.target.Attr("data-id"))
	seedURL := m.target.Attr("data-url")

	logger := log.With().
		Str("category", m.category).
		Str("item", item).
		Str("mikan_id", mikanID.String()).
		Str("episode", episode.String()).
		Logger()

	switch m.category {
	case CategoryDownloadedEpisode:
		switch item {
		case ItemDelete:
			m.actions.Skip(ctx, "delete_episode", map[string]string{
				"mikan_id": mikanID.String(),
				"episode":  episode.String(),
			})
		case ItemSubscribe:
			_ = m.actions.SubscribeFromEpisode(ctx, mikanID, episode)
		default:
			logger.Debug().Msg("Unbound menu item")
		}
	case CategoryUndownloadedEpisode:
		switch item {
		case ItemDownload:
			_ = m.actions.DownloadEpisode(ctx, mikanID, episode)
		case ItemRecover:
			_ = m.actions.RecoverEpisodeSeed(ctx, mikanID, episode)
		case ItemSubscribe:
			_ = m.actions.AddEpisodeOffsetFilter(ctx, mikanID, episode)
		default:
			logger.Debug().Msg("Unbound menu item")
		}
	case CategoryDownloadedSeed:
		switch item {
		case ItemDelete:
			m.actions.Skip(ctx, "delete_seed", map[string]string{"seed_url": seedURL})
		default:
			logger.Debug().Msg("Unbound menu item")
		}
	case CategoryUndownloadedSeed:
		switch item {
		case ItemDownload:
			_ = m.actions.DownloadBySeedURL(ctx, seedURL)
		default:
			logger.Debug().Msg("Unbound menu item")
		}
	case CategoryFailedSeed:
		switch item {
		case ItemRecover:
			_ = m.actions.RecoverSeedByURL(ctx, seedURL)
		default:
			logger.Debug().Msg("Unbound menu item")
		}
	}
}
