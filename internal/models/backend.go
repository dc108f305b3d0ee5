// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"time"
)

// BackendInstance is an anime backend the front end can drive
type BackendInstance struct {
	ID          int64  `json:"id"`
	InstanceID  string `json:"instanceId"`
	DisplayName string `json:"displayName"`
	URL         string `json:"url"`
	// TaskAPI is "consolidated" or "legacy"; empty means the configured default
	TaskAPI string `json:"taskApi,omitempty"`
}

// Action outcomes
const (
	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

// ActionRecord is one dispatched action as kept in the history
type ActionRecord struct {
	ID         int64     `json:"id"`
	Action     string    `json:"action"`
	InstanceID string    `json:"instanceId"`
	Method     string    `json:"method"`
	Path       string    `json:"path"`
	Payload    string    `json:"payload,omitempty"`
	Outcome    string    `json:"outcome"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"startedAt"`
	DurationMs int64     `json:"durationMs"`
}
