// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"text/tabwriter"

	"github.com/autobrr/animebrr/internal/types"
)

var progressTemplate = template.Must(template.New("progress").Parse(`
<tr>
	<th class="column-name">番名</th>
	<th class="column-episode">集数</th>
	<th class="column-progress">进度</th>
	<th class="column-done">已完成</th>
	<th class="column-speed">下载速度</th>
	<th class="column-eta">剩余时间</th>
	<th class="column-peers">用户</th>
	<th class="column-seeds">做种数</th>
	<th class="column-size">大小</th>
	<th class="column-state">状态</th>
	<th class="column-button"></th>
</tr>
{{- range . }}
<tr>
	<td class="column-name" title="{{ .AnimeName }}">
		<a href="/anime/detail/{{ .MikanID }}">{{ .AnimeName }}</a>
	</td>
	<td class="column-episode">{{ .Episode }}</td>
	<td class="column-progress"><progress value="{{ .QbInfo.DonePercent }}" max="100"></progress></td>
	<td class="column-done">{{ .QbInfo.Done }}</td>
	<td class="column-speed">{{ .QbInfo.DownloadSpeed }}</td>
	<td class="column-eta">{{ .QbInfo.ETA }}</td>
	<td class="column-peers">{{ .QbInfo.Peers }}</td>
	<td class="column-seeds">{{ .QbInfo.Seeds }}</td>
	<td class="column-size">{{ .QbInfo.Size }}</td>
	<td class="column-state">{{ .QbInfo.State }}</td>
	<td class="column-button">
		<button class="task-button" id="resume" data-torrent="{{ .TorrentName }}">恢复</button>
		<button class="task-button" id="pause" data-torrent="{{ .TorrentName }}">暂停</button>
		<button class="task-button" id="delete" data-torrent="{{ .TorrentName }}">删除</button>
	</td>
</tr>
{{- end }}
`))

// ProgressTable renders the torrentInfo table: a header row followed by one
// row per entry, in input order.
func ProgressTable(rows []types.TorrentStatus) (string, error) {
	var buf bytes.Buffer
	if err := progressTemplate.Execute(&buf, rows); err != nil {
		return "", fmt.Errorf("failed to render progress table: %w", err)
	}
	return buf.String(), nil
}

// ProgressText renders the rows as an aligned plain-text table
func ProgressText(rows []types.TorrentStatus) string {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 4, 2, ' ', 0)

	fmt.Fprintln(w, "NAME\tEP\tDONE\tSPEED\tETA\tPEERS\tSEEDS\tSIZE\tSTATE")
	for _, row := range rows {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			oneLine(row.AnimeName),
			row.Episode,
			row.QbInfo.Done,
			row.QbInfo.DownloadSpeed,
			row.QbInfo.ETA,
			row.QbInfo.Peers,
			row.QbInfo.Seeds,
			row.QbInfo.Size,
			row.QbInfo.State,
		)
	}
	w.Flush()

	return buf.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
