// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package types

import (
	"math"
	"strconv"
	"strings"
)

// TorrentStatus is one row of the download progress table
type TorrentStatus struct {
	MikanID     int64  `json:"mikan_id"`
	AnimeName   string `json:"anime_name"`
	Episode     int64  `json:"episode"`
	TorrentName string `json:"torrent_name"`
	QbInfo      QbInfo `json:"qb_info"`
}

// QbInfo is the qBittorrent view of a task. The backend formats every field.
type QbInfo struct {
	Name          string `json:"name"`
	Size          string `json:"size"`
	Done          string `json:"done"`
	Peers         string `json:"peers"`
	Seeds         string `json:"seeds"`
	DownloadSpeed string `json:"download_speed"`
	ETA           string `json:"eta"`
	Hash          string `json:"hash"`
	State         string `json:"state"`
}

// DonePercent returns the rounded progress, 0 when done is not a number
func (q QbInfo) DonePercent() int {
	done := strings.TrimSpace(q.Done)
	done = strings.TrimSuffix(done, "%")
	v, err := strconv.ParseFloat(done, 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return int(math.Round(v))
}
