// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package page models the browser page the front end drives: the elements
// gestures arrive on and the commands sent back to re-render it.
package page

import (
	"strings"
	"sync"
)

// Kind is one of the pages served by the backend templates
type Kind string

const (
	KindAnime    Kind = "anime"
	KindDetail   Kind = "detail"
	KindDownload Kind = "download"
	KindSetting  Kind = "setting"
)

// ParseKind returns the page kind, false for unknown pages
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(strings.ToLower(s)); k {
	case KindAnime, KindDetail, KindDownload, KindSetting:
		return k, true
	}
	return "", false
}

// Element is the part of a DOM element a gesture carries
type Element struct {
	Tag   string            `json:"tag"`
	ID    string            `json:"id"`
	Class string            `json:"class"`
	Text  string            `json:"text"`
	Attrs map[string]string `json:"attrs"`
}

// Attr returns an attribute value; missing attributes read as ""
func (e Element) Attr(name string) string {
	if e.Attrs == nil {
		return ""
	}
	return e.Attrs[name]
}

// Selector returns a CSS selector for the element narrowed to class. Anime
// page buttons share their id (the mikan id) across classes.
func (e Element) Selector(class string) string {
	tag := e.Tag
	if tag == "" {
		tag = "button"
	}
	sel := strings.ToLower(tag) + "." + class
	if e.ID != "" {
		sel += `[id="` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(e.ID) + `"]`
	}
	return sel
}

// HasClass reports whether the element carries the class
func (e Element) HasClass(class string) bool {
	for _, c := range strings.Fields(e.Class) {
		if c == class {
			return true
		}
	}
	return false
}

// Element ids the page templates render into
const (
	TargetTorrentInfo      = "torrentInfo"
	TargetDaemonPID        = "daemon-pid"
	TargetMaxDownloadInput = "max-download-input"
	TargetTaskStatus       = "task-status"
)

// Command types
const (
	CommandReload         = "reload"
	CommandHTML           = "html"
	CommandShowMenu       = "menu"
	CommandHideMenus      = "hide-menus"
	CommandDisable        = "disable"
	CommandSelectSubgroup = "select-subgroup"
)

// Command is one instruction for the page shim
type Command struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
	HTML   string `json:"html,omitempty"`
	X      int    `json:"x,omitempty"`
	Y      int    `json:"y,omitempty"`
}

// Page is the surface the dispatcher, the context menu and the poller render to
type Page interface {
	// Reload re-renders the whole page from the backend templates
	Reload()
	SetInnerHTML(target, html string)
	ShowMenu(menuID string, x, y int)
	HideMenus()
	// Disable greys out and disables the buttons matching the selector
	// until the next reload
	Disable(selector string)
	SelectSubgroup(subgroupID string)
}

// Recorder is a Page that keeps every command, in order
type Recorder struct {
	mu       sync.Mutex
	commands []Command
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(cmd Command) {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	r.mu.Unlock()
}

func (r *Recorder) Reload() {
	r.add(Command{Type: CommandReload})
}

func (r *Recorder) SetInnerHTML(target, html string) {
	r.add(Command{Type: CommandHTML, Target: target, HTML: html})
}

func (r *Recorder) ShowMenu(menuID string, x, y int) {
	r.add(Command{Type: CommandShowMenu, Target: menuID, X: x, Y: y})
}

func (r *Recorder) HideMenus() {
	r.add(Command{Type: CommandHideMenus})
}

func (r *Recorder) Disable(target string) {
	r.add(Command{Type: CommandDisable, Target: target})
}

func (r *Recorder) SelectSubgroup(subgroupID string) {
	r.add(Command{Type: CommandSelectSubgroup, Target: subgroupID})
}

// Commands returns a copy of the recorded commands
func (r *Recorder) Commands() []Command {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Command(nil), r.commands...)
}

// Count returns how many commands of the given type were recorded
func (r *Recorder) Count(commandType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, cmd := range r.commands {
		if cmd.Type == commandType {
			n++
		}
	}
	return n
}

// Last returns the most recent command of the given type
func (r *Recorder) Last(commandType string) (Command, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.commands) - 1; i >= 0; i-- {
		if r.commands[i].Type == commandType {
			return r.commands[i], true
		}
	}
	return Command{}, false
}

// Gesture types
const (
	GestureClick       = "click"
	GestureContextMenu = "contextmenu"
	GestureSubmit      = "submit"
)

// Gesture is a user action forwarded by the page shim
type Gesture struct {
	Type   string  `json:"type" binding:"required,oneof=click contextmenu submit"`
	Target Element `json:"target"`
	X      int     `json:"x"`
	Y      int     `json:"y"`
	// Path is the page location, used by buttons that read it
	Path string `json:"path"`
	// Values holds the named inputs of a submitted form, plus inputs the
	// shim reads on click (max-download)
	Values map[string]string `json:"values,omitempty"`
}

// Value returns a form value; missing values read as ""
func (g Gesture) Value(name string) string {
	if g.Values == nil {
		return ""
	}
	return g.Values[name]
}

// Discard is a Page that drops every command
type Discard struct{}

func (Discard) Reload()                     {}
func (Discard) SetInnerHTML(string, string) {}
func (Discard) ShowMenu(string, int, int)   {}
func (Discard) HideMenus()                  {}
func (Discard) Disable(string)              {}
func (Discard) SelectSubgroup(string)       {}
