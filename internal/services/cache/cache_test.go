// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/animebrr/internal/config"
)

type testStruct struct {
	Name  string
	Value int
}

func setupTestCache(t *testing.T) *RedisStore {
	store, err := NewCache(context.Background(), redisOptions(config.RedisConfig{Host: "localhost", Port: 6379}))
	if err != nil {
		t.Skip("Redis not available, skipping test")
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

func TestRedisStore(t *testing.T) {
	store := setupTestCache(t)
	ctx := context.Background()

	want := testStruct{Name: "frieren", Value: 28}
	require.NoError(t, store.Set(ctx, "test:struct", want, time.Minute))

	var got testStruct
	require.NoError(t, store.Get(ctx, "test:struct", &got))
	assert.Equal(t, want, got)

	// drop the local copy to force a round trip
	store.local.clear()
	got = testStruct{}
	require.NoError(t, store.Get(ctx, "test:struct", &got))
	assert.Equal(t, want, got)

	require.NoError(t, store.Delete(ctx, "test:struct"))
	assert.ErrorIs(t, store.Get(ctx, "test:struct", &got), ErrKeyNotFound)
}

func TestRedisStore_Closed(t *testing.T) {
	store := setupTestCache(t)
	require.NoError(t, store.Close())

	var v string
	assert.ErrorIs(t, store.Get(context.Background(), "k", &v), ErrClosed)
}
