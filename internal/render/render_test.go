// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/animebrr/internal/types"
)

func TestDaemonPID(t *testing.T) {
	assert.Equal(t, "定时任务pid: 4242", DaemonPID(types.DataResponse{Data: json.RawMessage(`4242`)}))
	assert.Equal(t, "定时任务pid: 无", DaemonPID(types.DataResponse{Data: json.RawMessage(`null`)}))
	assert.Equal(t, "定时任务pid: 无", DaemonPID(types.DataResponse{}))
	assert.Equal(t, "定时任务pid: &lt;x&gt;", DaemonPID(types.DataResponse{Data: json.RawMessage(`"<x>"`)}))
}

func TestMaxDownloadInput(t *testing.T) {
	html := MaxDownloadInput(types.DataResponse{Data: json.RawMessage(`3`)})
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)

	input := doc.Find("input#max-download")
	require.Equal(t, 1, input.Length())
	value, ok := input.Attr("value")
	assert.True(t, ok)
	assert.Equal(t, "3", value)

	html = MaxDownloadInput(types.DataResponse{Data: json.RawMessage(`null`)})
	doc, err = goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	_, ok = doc.Find("input#max-download").Attr("value")
	assert.False(t, ok)
}

func TestTaskStatus(t *testing.T) {
	assert.Equal(t, "定时任务状态: running", TaskStatus(json.RawMessage(`{"data":"running"}`)))
	assert.Equal(t, "定时任务状态: 无", TaskStatus(json.RawMessage(`{"data":null}`)))
	assert.Equal(t, "定时任务状态: true", TaskStatus(json.RawMessage(`true`)))
}

func TestProgressText(t *testing.T) {
	out := ProgressText([]types.TorrentStatus{
		{AnimeName: "Frieren\n Beyond", Episode: 12, QbInfo: types.QbInfo{Done: "50%", State: "downloading"}},
	})

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Contains(t, lines[1], "Frieren Beyond")
	assert.Contains(t, lines[1], "downloading")
}
