// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package dispatch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/animebrr/internal/page"
	"github.com/autobrr/animebrr/internal/services/anime"
	"github.com/autobrr/animebrr/internal/types"
)

func payload(t *testing.T, call anime.Call) string {
	t.Helper()
	if call.Body == nil {
		return call.Query.Encode()
	}
	data, err := json.Marshal(call.Body)
	require.NoError(t, err)
	return string(data)
}

func TestHandleClick(t *testing.T) {
	tests := []struct {
		name        string
		kind        page.Kind
		gesture     page.Gesture
		wantPath    string
		wantPayload string
		wantDisable string
	}{
		{
			name: "update anime list from path",
			kind: page.KindAnime,
			gesture: page.Gesture{
				Target: page.Element{Tag: "BUTTON", Class: "anime-button"},
				Path:   "/anime/list/2024/4",
			},
			wantPath:    anime.PathUpdateAnimeList,
			wantPayload: `{"year":2024,"season":4}`,
			wantDisable: "button.anime-button",
		},
		{
			name: "update anime list with short path",
			kind: page.KindAnime,
			gesture: page.Gesture{
				Target: page.Element{Tag: "BUTTON", Class: "anime-button"},
				Path:   "/anime",
			},
			wantPath:    anime.PathUpdateAnimeList,
			wantPayload: `{"year":null,"season":null}`,
			wantDisable: "button.anime-button",
		},
		{
			name: "subscribe when status is 0",
			kind: page.KindAnime,
			gesture: page.Gesture{
				Target: page.Element{Tag: "BUTTON", ID: "3141", Class: "button subscribe-button", Attrs: map[string]string{"subscribe_status": "0"}},
			},
			wantPath:    anime.PathSubscribeAnime,
			wantPayload: `{"mikan_id":3141}`,
			wantDisable: `button.subscribe-button[id="3141"]`,
		},
		{
			name: "unsubscribe when status is 1",
			kind: page.KindAnime,
			gesture: page.Gesture{
				Target: page.Element{Tag: "BUTTON", ID: "3141", Class: "subscribe-button", Attrs: map[string]string{"subscribe_status": "1"}},
			},
			wantPath:    anime.PathCancelSubscribeAnime,
			wantPayload: `{"mikan_id":3141}`,
			wantDisable: `button.subscribe-button[id="3141"]`,
		},
		{
			name: "fetch seeds with type",
			kind: page.KindAnime,
			gesture: page.Gesture{
				Target: page.Element{Tag: "BUTTON", ID: "77", Class: "update-button", Attrs: map[string]string{"type": "1"}},
			},
			wantPath:    anime.PathUpdateAnimeSeed,
			wantPayload: `{"mikan_id":77,"type":"1"}`,
			wantDisable: `button.update-button[id="77"]`,
		},
		{
			name: "download subscribed with unparsable id",
			kind: page.KindAnime,
			gesture: page.Gesture{
				Target: page.Element{Tag: "BUTTON", ID: "abc", Class: "download-button"},
			},
			wantPath:    anime.PathDownloadSubscribeAnime,
			wantPayload: "mikan_id=NaN",
			wantDisable: `button.download-button[id="abc"]`,
		},
		{
			name: "delete anime data",
			kind: page.KindAnime,
			gesture: page.Gesture{
				Target: page.Element{Tag: "BUTTON", ID: "12px", Class: "clean-button"},
			},
			wantPath:    anime.PathDeleteAnimeData,
			wantPayload: `{"mikan_id":12}`,
			wantDisable: `button.clean-button[id="12px"]`,
		},
		{
			name: "task control",
			kind: page.KindDownload,
			gesture: page.Gesture{
				Target: page.Element{Tag: "BUTTON", ID: "resume", Class: "task-button", Attrs: map[string]string{"data-torrent": "ep1.torrent"}},
			},
			wantPath:    anime.PathQbExecute,
			wantPayload: `{"torrent_name":"ep1.torrent","execute_type":3}`,
		},
		{
			name: "start scheduler",
			kind: page.KindSetting,
			gesture: page.Gesture{
				Target: page.Element{Tag: "BUTTON", Class: "start-button"},
			},
			wantPath:    anime.PathStart,
			wantDisable: "button.start-button",
		},
		{
			name: "stop scheduler",
			kind: page.KindSetting,
			gesture: page.Gesture{
				Target: page.Element{Tag: "BUTTON", Class: "stop-button"},
			},
			wantPath:    anime.PathExit,
			wantDisable: "button.stop-button",
		},
		{
			name: "modify max downloads",
			kind: page.KindSetting,
			gesture: page.Gesture{
				Target: page.Element{Tag: "BUTTON", Class: "max-download-button"},
				Values: map[string]string{"max-download": "3"},
			},
			wantPath:    anime.PathModifyMaxActive,
			wantPayload: "nums=3",
		},
		{
			name: "sync finished tasks",
			kind: page.KindSetting,
			gesture: page.Gesture{
				Target: page.Element{Tag: "BUTTON", Class: "sync-button"},
			},
			wantPath: anime.PathLoadFinishedTasks,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend(t)
			rec := page.NewRecorder()
			d := New(backend, rec)

			tt.gesture.Type = page.GestureClick
			handled := d.HandleClick(context.Background(), tt.kind, tt.gesture)
			require.True(t, handled)

			calls := backend.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, tt.wantPath, calls[0].Path)
			assert.Equal(t, tt.wantPayload, payload(t, calls[0]))

			disable, ok := rec.Last(page.CommandDisable)
			if tt.wantDisable == "" {
				assert.False(t, ok)
			} else {
				require.True(t, ok)
				assert.Equal(t, tt.wantDisable, disable.Target)
				assert.Equal(t, page.CommandDisable, rec.Commands()[0].Type)
			}
			assert.Equal(t, 1, rec.Count(page.CommandReload))
		})
	}
}

func TestHandleClick_Unbound(t *testing.T) {
	backend := newFakeBackend(t)
	rec := page.NewRecorder()
	d := New(backend, rec)

	// task buttons only act on the download page
	handled := d.HandleClick(context.Background(), page.KindAnime, page.Gesture{
		Type:   page.GestureClick,
		Target: page.Element{Tag: "BUTTON", ID: "pause", Class: "task-button"},
	})

	assert.False(t, handled)
	assert.Empty(t, backend.Calls())
	assert.Empty(t, rec.Commands())
}

func TestHandleClick_Subgroup(t *testing.T) {
	backend := newFakeBackend(t)
	rec := page.NewRecorder()
	d := New(backend, rec)

	handled := d.HandleClick(context.Background(), page.KindDetail, page.Gesture{
		Type:   page.GestureClick,
		Target: page.Element{Tag: "DIV", ID: "382", Class: "subgroup"},
	})

	require.True(t, handled)
	assert.Empty(t, backend.Calls())
	cmd, ok := rec.Last(page.CommandSelectSubgroup)
	require.True(t, ok)
	assert.Equal(t, "382", cmd.Target)
}

func TestHandleClick_FailureKeepsButtonDisabled(t *testing.T) {
	backend := newFakeBackend(t)
	backend.err = assert.AnError
	rec := page.NewRecorder()
	d := New(backend, rec)

	handled := d.HandleClick(context.Background(), page.KindAnime, page.Gesture{
		Type:   page.GestureClick,
		Target: page.Element{Tag: "BUTTON", ID: "9", Class: "clean-button"},
	})

	require.True(t, handled)
	assert.Equal(t, 1, rec.Count(page.CommandDisable))
	assert.Equal(t, 0, rec.Count(page.CommandReload))
}

func TestHandleSubmit(t *testing.T) {
	backend := newFakeBackend(t)
	rec := page.NewRecorder()
	d := New(backend, rec)

	handled := d.HandleSubmit(context.Background(), page.KindSetting, page.Gesture{
		Type:   page.GestureSubmit,
		Values: map[string]string{"interval": " 0x1F"},
	})

	require.True(t, handled)
	calls := backend.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, anime.PathChangeInterval, calls[0].Path)
	// radix 10 stops at the x
	assert.Equal(t, `{"interval":0}`, payload(t, calls[0]))

	assert.False(t, d.HandleSubmit(context.Background(), page.KindAnime, page.Gesture{
		Type:   page.GestureSubmit,
		Values: map[string]string{"interval": "5"},
	}))
	assert.False(t, d.HandleSubmit(context.Background(), page.KindSetting, page.Gesture{Type: page.GestureSubmit}))
}

func TestUnsubscribed(t *testing.T) {
	for status, want := range map[string]bool{
		"0":   true,
		"":    true,
		" 0 ": true,
		"0.0": true,
		"1":   false,
		"yes": false,
	} {
		assert.Equal(t, want, unsubscribed(status), "status %q", status)
	}
}

func TestSegment(t *testing.T) {
	parts := []string{"", "anime", "list"}
	assert.Equal(t, "list", segment(parts, 2))
	assert.Equal(t, "", segment(parts, 3))
	assert.Equal(t, types.NaN, types.ParseInt(segment(parts, 4)))
}
