// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package render

import (
	"encoding/json"
	"html"

	"github.com/autobrr/animebrr/internal/types"
)

// DaemonPID renders the scheduler pid line of the settings page
func DaemonPID(resp types.DataResponse) string {
	out := "定时任务pid: "
	if value, ok := resp.Value(); ok {
		return out + html.EscapeString(value)
	}
	return out + "无"
}

// MaxDownloadInput renders the concurrency cap input, prefilled when known
func MaxDownloadInput(resp types.DataResponse) string {
	out := `<input type="number"`
	if value, ok := resp.Value(); ok {
		out += ` value="` + html.EscapeString(value) + `"`
	}
	return out + ` id="max-download" style="width: 40px;">`
}

// TaskStatus renders the scheduler status reported by legacy backends
func TaskStatus(raw json.RawMessage) string {
	var data types.DataResponse
	if err := json.Unmarshal(raw, &data); err == nil && len(data.Data) > 0 {
		if value, ok := data.Value(); ok {
			return "定时任务状态: " + html.EscapeString(value)
		}
		return "定时任务状态: 无"
	}
	return "定时任务状态: " + html.EscapeString(string(raw))
}
