// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package cache

import (
	"context"
	"time"

	"github.com/autobrr/animebrr/internal/types"
)

// Snapshot is the last progress table polled from one backend
type Snapshot struct {
	InstanceID string                `json:"instanceId"`
	Rows       []types.TorrentStatus `json:"rows"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

// Snapshots keeps the latest progress snapshot per backend instance
type Snapshots struct {
	store Store
}

func NewSnapshots(store Store) *Snapshots {
	return &Snapshots{store: store}
}

func snapshotKey(instanceID string) string {
	return PrefixProgress + instanceID
}

// Latest returns the most recent snapshot, ErrKeyNotFound when none is fresh
func (s *Snapshots) Latest(ctx context.Context, instanceID string) (Snapshot, error) {
	var snap Snapshot
	if err := s.store.Get(ctx, snapshotKey(instanceID), &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// For binds the snapshots of one instance to a poller
func (s *Snapshots) For(instanceID string) *InstanceSnapshots {
	return &InstanceSnapshots{snapshots: s, instanceID: instanceID}
}

// InstanceSnapshots stores the polls of a single instance
type InstanceSnapshots struct {
	snapshots  *Snapshots
	instanceID string
}

func (s *InstanceSnapshots) StoreSnapshot(ctx context.Context, rows []types.TorrentStatus) error {
	return s.snapshots.store.Set(ctx, snapshotKey(s.instanceID), Snapshot{
		InstanceID: s.instanceID,
		Rows:       rows,
		UpdatedAt:  time.Now(),
	}, ProgressTTL)
}
