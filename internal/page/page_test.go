// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package page

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElement(t *testing.T) {
	el := Element{
		ID:    "1234",
		Class: "button subscribe-button",
		Attrs: map[string]string{"subscribe_status": "0"},
	}

	assert.True(t, el.HasClass("subscribe-button"))
	assert.False(t, el.HasClass("subscribe"))
	assert.Equal(t, "0", el.Attr("subscribe_status"))
	assert.Equal(t, "", el.Attr("missing"))
	assert.Equal(t, "", Element{}.Attr("x"))
}

func TestParseKind(t *testing.T) {
	kind, ok := ParseKind("Download")
	assert.True(t, ok)
	assert.Equal(t, KindDownload, kind)

	_, ok = ParseKind("index")
	assert.False(t, ok)
}

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Disable("42")
	r.SetInnerHTML(TargetTorrentInfo, "<tr></tr>")
	r.Reload()

	assert.Equal(t, 1, r.Count(CommandReload))
	last, ok := r.Last(CommandHTML)
	require.True(t, ok)
	assert.Equal(t, TargetTorrentInfo, last.Target)
	assert.Len(t, r.Commands(), 3)
}

func TestStream(t *testing.T) {
	s := NewStream()
	s.ShowMenu("undownloaded-ep-menu", 10, 20)

	select {
	case cmd := <-s.Commands():
		assert.Equal(t, Command{Type: CommandShowMenu, Target: "undownloaded-ep-menu", X: 10, Y: 20}, cmd)
	case <-time.After(time.Second):
		t.Fatal("command not delivered")
	}

	s.Close()
	s.Close()
	s.Reload()

	select {
	case <-s.Done():
	default:
		t.Fatal("done not closed")
	}
	assert.Len(t, s.Commands(), 0)
}

func TestElementSelector(t *testing.T) {
	tests := []struct {
		name  string
		el    Element
		class string
		want  string
	}{
		{
			name:  "with id",
			el:    Element{Tag: "BUTTON", ID: "1234"},
			class: "subscribe-button",
			want:  `button.subscribe-button[id="1234"]`,
		},
		{
			name:  "without id",
			el:    Element{},
			class: "anime-button",
			want:  "button.anime-button",
		},
		{
			name:  "quoted id",
			el:    Element{Tag: "button", ID: `a"b`},
			class: "clean-button",
			want:  `button.clean-button[id="a\"b"]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.el.Selector(tt.class))
		})
	}
}

func TestGestureValue(t *testing.T) {
	g := Gesture{Type: GestureSubmit, Values: map[string]string{"interval": "30"}}
	assert.Equal(t, "30", g.Value("interval"))
	assert.Equal(t, "", g.Value("max-download"))
	assert.Equal(t, "", Gesture{}.Value("interval"))
}
