// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package anime

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/animebrr/internal/services/core"
	"github.com/autobrr/animebrr/internal/types"
)

type recordedRequest struct {
	Method      string
	Path        string
	Query       map[string][]string
	ContentType string
	Body        string
}

type fakeBackend struct {
	*httptest.Server
	mu       sync.Mutex
	requests []recordedRequest
	respond  func(w http.ResponseWriter, r *http.Request)
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{}
	fb.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		fb.mu.Lock()
		fb.requests = append(fb.requests, recordedRequest{
			Method:      r.Method,
			Path:        r.URL.Path,
			Query:       r.URL.Query(),
			ContentType: r.Header.Get("Content-Type"),
			Body:        string(body),
		})
		respond := fb.respond
		fb.mu.Unlock()

		if respond != nil {
			respond(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	}))
	t.Cleanup(fb.Close)
	return fb
}

func (fb *fakeBackend) recorded() []recordedRequest {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]recordedRequest(nil), fb.requests...)
}

func newTestClient(t *testing.T, url, taskAPI string) *Client {
	t.Helper()
	client, err := NewClient(url, taskAPI, 2*time.Second)
	require.NoError(t, err)
	return client
}

func TestClient_Actions(t *testing.T) {
	tests := []struct {
		name      string
		call      Call
		wantPath  string
		wantQuery map[string][]string
		wantBody  string
	}{
		{
			name:     "subscribe",
			call:     Subscribe(types.IntOf(1234)),
			wantPath: PathSubscribeAnime,
			wantBody: `{"mikan_id":1234}`,
		},
		{
			name:     "unsubscribe",
			call:     Unsubscribe(types.IntOf(1234)),
			wantPath: PathCancelSubscribeAnime,
			wantBody: `{"mikan_id":1234}`,
		},
		{
			name:     "update anime list",
			call:     UpdateAnimeList(types.IntOf(2024), types.IntOf(3)),
			wantPath: PathUpdateAnimeList,
			wantBody: `{"year":2024,"season":3}`,
		},
		{
			name:     "update anime seed",
			call:     UpdateAnimeSeed(types.IntOf(77), "1"),
			wantPath: PathUpdateAnimeSeed,
			wantBody: `{"mikan_id":77,"type":"1"}`,
		},
		{
			name:      "download subscribed",
			call:      DownloadSubscribed(types.IntOf(77)),
			wantPath:  PathDownloadSubscribeAnime,
			wantQuery: map[string][]string{"mikan_id": {"77"}},
		},
		{
			name:     "delete anime data",
			call:     DeleteAnimeData(types.IntOf(77)),
			wantPath: PathDeleteAnimeData,
			wantBody: `{"mikan_id":77}`,
		},
		{
			name:     "create task by episode",
			call:     CreateTaskByEpisode(types.IntOf(1234), types.IntOf(5)),
			wantPath: PathCreateTaskByEpisode,
			wantBody: `{"mikan_id":1234,"episode":5,"seed_url":""}`,
		},
		{
			name:     "create task by seed url",
			call:     CreateTaskBySeedURL("https://mikan/x.torrent"),
			wantPath: PathCreateTaskBySeedURL,
			wantBody: `{"mikan_id":0,"episode":0,"seed_url":"https://mikan/x.torrent"}`,
		},
		{
			name:     "recover episode seed",
			call:     RecoverEpisodeSeed(types.IntOf(1234), types.IntOf(5)),
			wantPath: PathRecoverSeed,
			wantBody: `{"mikan_id":1234,"episode":5,"seed_url":""}`,
		},
		{
			name:     "recover seed by url",
			call:     RecoverSeedByURL("https://mikan/y.torrent"),
			wantPath: PathRecoverSeed,
			wantBody: `{"mikan_id":0,"episode":0,"seed_url":"https://mikan/y.torrent"}`,
		},
		{
			name:      "episode offset filter",
			call:      AddEpisodeOffsetFilter(types.IntOf(1234), types.IntOf(5)),
			wantPath:  PathEpisodeOffsetFilter,
			wantQuery: map[string][]string{"mikan_id": {"1234"}, "episode_offset": {"5"}},
		},
		{
			name:     "change interval",
			call:     ChangeInterval(types.IntOf(30)),
			wantPath: PathChangeInterval,
			wantBody: `{"interval":30}`,
		},
		{
			name:      "modify max active downloads",
			call:      ModifyMaxActiveDownloads(types.IntOf(4)),
			wantPath:  PathModifyMaxActive,
			wantQuery: map[string][]string{"nums": {"4"}},
		},
		{
			name:     "start scheduler",
			call:     StartScheduler(),
			wantPath: PathStart,
		},
		{
			name:     "stop scheduler",
			call:     StopScheduler(),
			wantPath: PathExit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend(t)
			client := newTestClient(t, backend.URL, "")

			_, err := client.Do(context.Background(), tt.call)
			require.NoError(t, err)

			requests := backend.recorded()
			require.Len(t, requests, 1)

			req := requests[0]
			assert.Equal(t, http.MethodPost, req.Method)
			assert.Equal(t, tt.wantPath, req.Path)

			if tt.wantBody != "" {
				assert.Equal(t, "application/json", req.ContentType)
				assert.JSONEq(t, tt.wantBody, req.Body)
			} else {
				assert.Empty(t, req.Body)
			}

			if tt.wantQuery != nil {
				assert.Equal(t, tt.wantQuery, req.Query)
			} else {
				assert.Empty(t, req.Query)
			}
		})
	}
}

func TestClient_NaNSerialization(t *testing.T) {
	backend := newFakeBackend(t)
	client := newTestClient(t, backend.URL, "")

	_, err := client.Do(context.Background(), Subscribe(types.ParseInt("abc")))
	require.NoError(t, err)
	_, err = client.Do(context.Background(), AddEpisodeOffsetFilter(types.ParseInt("abc"), types.IntOf(2)))
	require.NoError(t, err)

	requests := backend.recorded()
	require.Len(t, requests, 2)
	assert.JSONEq(t, `{"mikan_id":null}`, requests[0].Body)
	assert.Equal(t, []string{"NaN"}, requests[1].Query["mikan_id"])
}

func TestClient_TaskAPIs(t *testing.T) {
	t.Run("consolidated", func(t *testing.T) {
		backend := newFakeBackend(t)
		client := newTestClient(t, backend.URL, "consolidated")

		ops := []struct {
			op   types.TaskOp
			code int
		}{
			{types.TaskDelete, 1},
			{types.TaskPause, 2},
			{types.TaskResume, 3},
			{types.TaskStart, 4},
		}
		for _, o := range ops {
			call, err := client.Tasks().TaskControl("[Sub] Show - 05.mkv", o.op)
			require.NoError(t, err)
			_, err = client.Do(context.Background(), call)
			require.NoError(t, err)
		}

		requests := backend.recorded()
		require.Len(t, requests, len(ops))
		for i, o := range ops {
			assert.Equal(t, PathQbExecute, requests[i].Path)

			var body map[string]any
			require.NoError(t, json.Unmarshal([]byte(requests[i].Body), &body))
			assert.Equal(t, "[Sub] Show - 05.mkv", body["torrent_name"])
			assert.EqualValues(t, o.code, body["execute_type"])
		}

		assert.Equal(t, PathLoadFinishedTasks, client.Tasks().SyncFinishedTasks().Path)
	})

	t.Run("legacy", func(t *testing.T) {
		backend := newFakeBackend(t)
		client := newTestClient(t, backend.URL, "legacy")

		want := map[types.TaskOp]string{
			types.TaskDelete: PathDeleteTaskByTorrentName,
			types.TaskStart:  PathStartTaskByTorrentName,
			types.TaskPause:  PathPauseTaskByTorrentName,
			types.TaskResume: PathResumeTaskByTorrentName,
		}
		for op, path := range want {
			call, err := client.Tasks().TaskControl("t1", op)
			require.NoError(t, err)
			assert.Equal(t, path, call.Path)

			_, err = client.Do(context.Background(), call)
			require.NoError(t, err)
		}

		for _, req := range backend.recorded() {
			assert.JSONEq(t, `{"torrent_name":"t1"}`, req.Body)
		}

		assert.Equal(t, PathReloadTask, client.Tasks().SyncFinishedTasks().Path)
	})

	t.Run("unknown op", func(t *testing.T) {
		client := newTestClient(t, "http://localhost", "")
		_, err := client.Tasks().TaskControl("t1", types.TaskOp("explode"))
		assert.Error(t, err)
	})

	t.Run("unknown variant", func(t *testing.T) {
		_, err := NewClient("http://localhost", "both", time.Second)
		assert.Error(t, err)
	})
}

func TestClient_NonJSONResponse(t *testing.T) {
	backend := newFakeBackend(t)
	backend.respond = func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}
	client := newTestClient(t, backend.URL, "")

	_, err := client.Do(context.Background(), StartScheduler())
	assert.ErrorIs(t, err, core.ErrNonJSONResponse)
}

func TestClient_NotConfigured(t *testing.T) {
	client := newTestClient(t, "", "")
	_, err := client.Do(context.Background(), StartScheduler())
	assert.ErrorIs(t, err, core.ErrServiceNotConfigured)
}

func TestClient_DownloadProgress(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantRows int
		wantErr  bool
	}{
		{name: "empty list", body: `[]`, wantRows: 0},
		{
			name: "two rows",
			body: `[
				{"mikan_id":1,"anime_name":"A","episode":1,"torrent_name":"a1","qb_info":{"done":"10.4","state":"downloading"}},
				{"mikan_id":2,"anime_name":"B","episode":2,"torrent_name":"b2","qb_info":{"done":"99.6","state":"stalledDL"}}
			]`,
			wantRows: 2,
		},
		{name: "error object", body: `{"error":"qb offline"}`, wantRows: 0},
		{name: "null", body: `null`, wantErr: true},
		{name: "not json", body: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newFakeBackend(t)
			backend.respond = func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}
			client := newTestClient(t, backend.URL, "")

			rows, err := client.DownloadProgress(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, rows, tt.wantRows)

			requests := backend.recorded()
			require.Len(t, requests, 1)
			assert.Equal(t, http.MethodGet, requests[0].Method)
			assert.Equal(t, PathDownloadProgress, requests[0].Path)
		})
	}
}

func TestClient_DataScalars(t *testing.T) {
	backend := newFakeBackend(t)
	backend.respond = func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PathDaemonPID:
			w.Write([]byte(`{"data":4242}`))
		case PathGetMaxActive:
			w.Write([]byte(`{"data":null}`))
		}
	}
	client := newTestClient(t, backend.URL, "")

	pid, err := client.DaemonPID(context.Background())
	require.NoError(t, err)
	value, ok := pid.Value()
	assert.True(t, ok)
	assert.Equal(t, "4242", value)

	max, err := client.MaxActiveDownloads(context.Background())
	require.NoError(t, err)
	_, ok = max.Value()
	assert.False(t, ok)
}
