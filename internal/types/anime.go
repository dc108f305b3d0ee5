// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package types

import "encoding/json"

// ExecuteType selects the operation of the consolidated task endpoint
type ExecuteType int

const (
	ExecuteDelete ExecuteType = 1
	ExecutePause  ExecuteType = 2
	ExecuteResume ExecuteType = 3
	ExecuteStart  ExecuteType = 4
)

// TaskOp is a torrent task operation as named on the download page buttons
type TaskOp string

const (
	TaskResume TaskOp = "resume"
	TaskPause  TaskOp = "pause"
	TaskDelete TaskOp = "delete"
	TaskStart  TaskOp = "start"
)

// ExecuteType maps the op onto the consolidated endpoint's code
func (o TaskOp) ExecuteType() (ExecuteType, bool) {
	switch o {
	case TaskDelete:
		return ExecuteDelete, true
	case TaskPause:
		return ExecutePause, true
	case TaskResume:
		return ExecuteResume, true
	case TaskStart:
		return ExecuteStart, true
	}
	return 0, false
}

// MikanIDRequest is the body of the single-id anime actions
type MikanIDRequest struct {
	MikanID Int `json:"mikan_id"`
}

// AnimeListRequest refreshes the catalog for one broadcast period
type AnimeListRequest struct {
	Year   Int `json:"year"`
	Season Int `json:"season"`
}

// AnimeSeedRequest asks the backend to fetch seeds for an anime
type AnimeSeedRequest struct {
	MikanID Int    `json:"mikan_id"`
	Type    string `json:"type"`
}

// EpisodeRequest addresses one episode either by id and episode or by seed URL
type EpisodeRequest struct {
	MikanID Int    `json:"mikan_id"`
	Episode Int    `json:"episode"`
	SeedURL string `json:"seed_url"`
}

// TaskExecuteRequest is the body of the consolidated task endpoint
type TaskExecuteRequest struct {
	TorrentName string      `json:"torrent_name"`
	ExecuteType ExecuteType `json:"execute_type"`
}

// TorrentNameRequest is the body of the per-operation task endpoints
type TorrentNameRequest struct {
	TorrentName string `json:"torrent_name"`
}

// IntervalRequest changes the scheduler interval
type IntervalRequest struct {
	Interval Int `json:"interval"`
}

// DataResponse wraps the scalar settings the backend returns as {"data": ...}
type DataResponse struct {
	Data json.RawMessage `json:"data"`
}

// Value returns the wrapped scalar as display text, or false for null
func (r DataResponse) Value() (string, bool) {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return "", false
	}
	var s string
	if err := json.Unmarshal(r.Data, &s); err == nil {
		return s, true
	}
	return string(r.Data), true
}
