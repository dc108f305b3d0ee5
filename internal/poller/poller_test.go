// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package poller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/animebrr/internal/page"
	"github.com/autobrr/animebrr/internal/types"
)

type step struct {
	rows []types.TorrentStatus
	err  error
}

type fakeSource struct {
	mu    sync.Mutex
	steps []step
	calls int
}

func (f *fakeSource) DownloadProgress(context.Context) ([]types.TorrentStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i >= len(f.steps) {
		i = len(f.steps) - 1
	}
	return f.steps[i].rows, f.steps[i].err
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSink struct {
	mu     sync.Mutex
	stored [][]types.TorrentStatus
}

func (s *fakeSink) StoreSnapshot(_ context.Context, rows []types.TorrentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = append(s.stored, rows)
	return nil
}

func row(name string, episode int64) types.TorrentStatus {
	return types.TorrentStatus{
		MikanID:     3141,
		AnimeName:   name,
		Episode:     episode,
		TorrentName: name + ".torrent",
		QbInfo:      types.QbInfo{Done: " 42.6% ", State: "downloading"},
	}
}

func table(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table><tbody>" + html + "</tbody></table>"))
	require.NoError(t, err)
	return doc
}

func TestPoll_EmptyRendersHeaderOnly(t *testing.T) {
	rec := page.NewRecorder()
	p := New(&fakeSource{steps: []step{{rows: []types.TorrentStatus{}}}}, rec, time.Second)

	rows, err := p.Poll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rows)

	cmd, ok := rec.Last(page.CommandHTML)
	require.True(t, ok)
	assert.Equal(t, page.TargetTorrentInfo, cmd.Target)

	doc := table(t, cmd.HTML)
	assert.Equal(t, 1, doc.Find("tr").Length())
	assert.Equal(t, 11, doc.Find("th").Length())
}

func TestPoll_RowsInOrder(t *testing.T) {
	rec := page.NewRecorder()
	sink := &fakeSink{}
	rows := []types.TorrentStatus{row("Frieren", 1), row("Dungeon Meshi", 2), row("<b>Oshi</b>", 3)}
	p := New(&fakeSource{steps: []step{{rows: rows}}}, rec, time.Second, WithSink(sink))

	_, err := p.Poll(context.Background())
	require.NoError(t, err)

	cmd, ok := rec.Last(page.CommandHTML)
	require.True(t, ok)
	doc := table(t, cmd.HTML)
	require.Equal(t, 4, doc.Find("tr").Length())

	var names []string
	doc.Find("td.column-name a").Each(func(_ int, s *goquery.Selection) {
		names = append(names, s.Text())
	})
	assert.Equal(t, []string{"Frieren", "Dungeon Meshi", "<b>Oshi</b>"}, names)

	first := doc.Find("tr").Eq(1)
	value, _ := first.Find("progress").Attr("value")
	assert.Equal(t, "43", value)
	href, _ := first.Find("td.column-name a").Attr("href")
	assert.Equal(t, "/anime/detail/3141", href)

	var ops []string
	first.Find("button.task-button").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		torrent, _ := s.Attr("data-torrent")
		assert.Equal(t, "Frieren.torrent", torrent)
		ops = append(ops, id)
	})
	assert.Equal(t, []string{"resume", "pause", "delete"}, ops)

	require.Len(t, sink.stored, 1)
	assert.Len(t, sink.stored[0], 3)
}

func TestRun_ReschedulesUntilCancelled(t *testing.T) {
	rec := page.NewRecorder()
	source := &fakeSource{steps: []step{{rows: []types.TorrentStatus{}}}}
	p := New(source, rec, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return source.Calls() >= 3
	}, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestRun_FailureStopsPolling(t *testing.T) {
	rec := page.NewRecorder()
	errDown := errors.New("connection refused")
	source := &fakeSource{steps: []step{
		{rows: []types.TorrentStatus{row("Frieren", 1)}},
		{err: errDown},
		{rows: []types.TorrentStatus{}},
	}}
	p := New(source, rec, time.Millisecond)

	err := p.Run(context.Background())
	assert.ErrorIs(t, err, errDown)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, source.Calls())
	// the last good table stays
	assert.Equal(t, 1, rec.Count(page.CommandHTML))
}

func TestNew_DefaultInterval(t *testing.T) {
	p := New(&fakeSource{}, page.NewRecorder(), 0)
	assert.Equal(t, 2*time.Second, p.interval)
}
