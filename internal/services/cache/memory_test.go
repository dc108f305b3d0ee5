// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/animebrr/internal/config"
	"github.com/autobrr/animebrr/internal/types"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()

	t.Run("Basic Operations", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "test_key", "test_value", time.Minute))

		var result string
		require.NoError(t, store.Get(ctx, "test_key", &result))
		assert.Equal(t, "test_value", result)

		require.NoError(t, store.Delete(ctx, "test_key"))
		assert.ErrorIs(t, store.Get(ctx, "test_key", &result), ErrKeyNotFound)
	})

	t.Run("Expiration", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "expiring_key", "expiring_value", 20*time.Millisecond))
		time.Sleep(50 * time.Millisecond)

		var result string
		assert.ErrorIs(t, store.Get(ctx, "expiring_key", &result), ErrKeyNotFound)
	})

	t.Run("Sweep", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "swept", 1, time.Millisecond))
		store.local.sweep(time.Now().Add(time.Second))

		store.local.RLock()
		_, ok := store.local.items["swept"]
		store.local.RUnlock()
		assert.False(t, ok)
	})
}

func TestMemoryStore_Closed(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Close())

	var v string
	assert.ErrorIs(t, store.Get(context.Background(), "k", &v), ErrClosed)
	assert.ErrorIs(t, store.Set(context.Background(), "k", "v", 0), ErrClosed)
	assert.ErrorIs(t, store.Close(), ErrClosed)
}

func TestTTLFor(t *testing.T) {
	assert.Equal(t, ProgressTTL, ttlFor(PrefixProgress+"default"))
	assert.Equal(t, DefaultTTL, ttlFor("other"))
}

func TestSnapshots(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	snapshots := NewSnapshots(store)

	_, err := snapshots.Latest(ctx, "home")
	assert.ErrorIs(t, err, ErrKeyNotFound)

	rows := []types.TorrentStatus{{MikanID: 1, AnimeName: "Frieren", Episode: 3}}
	require.NoError(t, snapshots.For("home").StoreSnapshot(ctx, rows))

	snap, err := snapshots.Latest(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, "home", snap.InstanceID)
	assert.Equal(t, rows, snap.Rows)
	assert.WithinDuration(t, time.Now(), snap.UpdatedAt, time.Minute)

	_, err = snapshots.Latest(ctx, "other")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestInitCache_Memory(t *testing.T) {
	store, err := InitCache(context.Background(), config.CacheConfig{Type: "memory"})
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &MemoryStore{}, store)

	store2, err := InitCache(context.Background(), config.CacheConfig{Type: "bogus"})
	require.NoError(t, err)
	defer store2.Close()
	assert.IsType(t, &MemoryStore{}, store2)
}

func TestRedisOptions(t *testing.T) {
	opts := redisOptions(config.RedisConfig{})
	assert.Equal(t, "localhost:6379", opts.Addr)

	opts = redisOptions(config.RedisConfig{Host: "redis", Port: 6380})
	assert.Equal(t, "redis:6380", opts.Addr)
}
