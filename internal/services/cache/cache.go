// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"
)

var (
	ErrKeyNotFound = errors.New("cache: key not found")
	ErrClosed      = errors.New("cache: store is closed")
)

const (
	PrefixProgress = "progress:"
	DefaultTimeout = 5 * time.Second
	RetryAttempts  = 2
	RetryDelay     = 50 * time.Millisecond

	DefaultTTL  = 15 * time.Minute
	ProgressTTL = 1 * time.Minute

	CleanupInterval = 1 * time.Minute
)

func ttlFor(key string) time.Duration {
	if strings.HasPrefix(key, PrefixProgress) {
		return ProgressTTL
	}
	return DefaultTTL
}

// RedisStore is a Redis backed Store fronted by a short-lived local copy
type RedisStore struct {
	client *redis.Client
	local  *LocalCache
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewCache connects to Redis and fails when it does not answer a ping
func NewCache(ctx context.Context, opts *redis.Options) (*RedisStore, error) {
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	storeCtx, storeCancel := context.WithCancel(context.Background())
	store := &RedisStore{
		client: client,
		local:  newLocalCache(),
		ctx:    storeCtx,
		cancel: storeCancel,
	}

	store.wg.Add(1)
	go func() {
		defer store.wg.Done()
		store.local.cleanup(store.ctx)
	}()

	return store, nil
}

func (s *RedisStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// retry runs op up to RetryAttempts times. stop reports errors not worth retrying.
func retry(ctx context.Context, op func(ctx context.Context) error, stop func(error) bool) error {
	var lastErr error
	for i := 0; i < RetryAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
		err := op(timeoutCtx)
		cancel()

		if err == nil {
			return nil
		}
		lastErr = err
		if stop != nil && stop(err) {
			break
		}
		if i < RetryAttempts-1 {
			time.Sleep(RetryDelay)
		}
	}
	return lastErr
}

// Get retrieves a value, local copy first
func (s *RedisStore) Get(ctx context.Context, key string, value interface{}) error {
	if s.isClosed() {
		return ErrClosed
	}

	if data, ok := s.local.get(key); ok {
		if err := json.Unmarshal(data, value); err == nil {
			return nil
		}
		log.Error().Str("key", key).Msg("Failed to unmarshal local cached value")
	}

	var data []byte
	err := retry(ctx, func(ctx context.Context) error {
		var err error
		data, err = s.client.Get(ctx, key).Bytes()
		return err
	}, func(err error) bool {
		return err == redis.Nil
	})
	if err == redis.Nil {
		return ErrKeyNotFound
	}
	if err != nil {
		return err
	}

	ttl := s.client.TTL(ctx, key).Val()
	if ttl <= 0 {
		ttl = ttlFor(key)
	}
	s.local.set(key, data, ttl)

	return json.Unmarshal(data, value)
}

// Set stores a value in Redis and the local copy
func (s *RedisStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if s.isClosed() {
		return ErrClosed
	}

	if expiration == 0 {
		expiration = ttlFor(key)
	}

	data, err := json.Marshal(value)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to marshal value for cache")
		return err
	}

	if err := retry(ctx, func(ctx context.Context) error {
		return s.client.Set(ctx, key, data, expiration).Err()
	}, nil); err != nil {
		return err
	}

	s.local.set(key, data, expiration)
	return nil
}

// Delete removes a value from Redis and the local copy
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if s.isClosed() {
		return ErrClosed
	}

	s.local.delete(key)

	return retry(ctx, func(ctx context.Context) error {
		return s.client.Del(ctx, key).Err()
	}, nil)
}

// Close closes the Redis connection and stops the cleanup goroutine
func (s *RedisStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	s.local.clear()

	return s.client.Close()
}
