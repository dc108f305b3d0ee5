// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package models

import (
	"time"
)

// Backend health states
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
	StatusError   = "error"
)

// BackendHealth represents the reachability of an anime backend
type BackendHealth struct {
	InstanceID   string    `json:"instanceId"`
	Status       string    `json:"status"`
	ResponseTime int64     `json:"responseTime"`
	LastChecked  time.Time `json:"lastChecked"`
	Message      string    `json:"message,omitempty"`
	// SchedulerPID is the backend's scheduler pid, empty when it is not running
	SchedulerPID string `json:"schedulerPid,omitempty"`
}
