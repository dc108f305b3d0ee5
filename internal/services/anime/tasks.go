// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package anime

import (
	"fmt"

	"github.com/autobrr/animebrr/internal/config"
	"github.com/autobrr/animebrr/internal/types"
)

// TaskAPI builds the torrent task calls of one backend generation.
// A backend speaks exactly one of them; the two are never mixed.
type TaskAPI interface {
	Name() string
	TaskControl(torrentName string, op types.TaskOp) (Call, error)
	SyncFinishedTasks() Call
}

// NewTaskAPI returns the task API for the configured variant
func NewTaskAPI(variant string) (TaskAPI, error) {
	switch variant {
	case "", config.TaskAPIConsolidated:
		return consolidatedTasks{}, nil
	case config.TaskAPILegacy:
		return legacyTasks{}, nil
	}
	return nil, fmt.Errorf("unknown task api %q", variant)
}

type consolidatedTasks struct{}

func (consolidatedTasks) Name() string {
	return config.TaskAPIConsolidated
}

func (consolidatedTasks) TaskControl(torrentName string, op types.TaskOp) (Call, error) {
	executeType, ok := op.ExecuteType()
	if !ok {
		return Call{}, fmt.Errorf("unknown task operation %q", op)
	}
	return postJSON("task_"+string(op), PathQbExecute, types.TaskExecuteRequest{
		TorrentName: torrentName,
		ExecuteType: executeType,
	}), nil
}

func (consolidatedTasks) SyncFinishedTasks() Call {
	return get("sync_finished_tasks", PathLoadFinishedTasks)
}

type legacyTasks struct{}

func (legacyTasks) Name() string {
	return config.TaskAPILegacy
}

func (legacyTasks) TaskControl(torrentName string, op types.TaskOp) (Call, error) {
	var path string
	switch op {
	case types.TaskDelete:
		path = PathDeleteTaskByTorrentName
	case types.TaskStart:
		path = PathStartTaskByTorrentName
	case types.TaskPause:
		path = PathPauseTaskByTorrentName
	case types.TaskResume:
		path = PathResumeTaskByTorrentName
	default:
		return Call{}, fmt.Errorf("unknown task operation %q", op)
	}
	return postJSON("task_"+string(op), path, types.TorrentNameRequest{TorrentName: torrentName}), nil
}

func (legacyTasks) SyncFinishedTasks() Call {
	return get("sync_finished_tasks", PathReloadTask)
}
