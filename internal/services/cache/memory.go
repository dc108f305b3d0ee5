// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// LocalCache is an expiring in-process map of encoded values
type LocalCache struct {
	sync.RWMutex
	items map[string]*localCacheItem
}

type localCacheItem struct {
	value      []byte
	expiration time.Time
}

func newLocalCache() *LocalCache {
	return &LocalCache{items: make(map[string]*localCacheItem)}
}

func (c *LocalCache) get(key string) ([]byte, bool) {
	c.RLock()
	item, ok := c.items[key]
	c.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().Before(item.expiration) {
		return item.value, true
	}

	c.Lock()
	if current, ok := c.items[key]; ok && current == item {
		delete(c.items, key)
	}
	c.Unlock()
	return nil, false
}

func (c *LocalCache) set(key string, value []byte, ttl time.Duration) {
	c.Lock()
	c.items[key] = &localCacheItem{
		value:      value,
		expiration: time.Now().Add(ttl),
	}
	c.Unlock()
}

func (c *LocalCache) delete(key string) {
	c.Lock()
	delete(c.items, key)
	c.Unlock()
}

func (c *LocalCache) clear() {
	c.Lock()
	c.items = make(map[string]*localCacheItem)
	c.Unlock()
}

func (c *LocalCache) sweep(now time.Time) {
	c.Lock()
	for key, item := range c.items {
		if now.After(item.expiration) {
			delete(c.items, key)
		}
	}
	c.Unlock()
}

func (c *LocalCache) cleanup(ctx context.Context) {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			c.sweep(now)
		case <-ctx.Done():
			return
		}
	}
}

// MemoryStore implements Store in process
type MemoryStore struct {
	local  *LocalCache
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewMemoryStore creates a new in-memory cache instance
func NewMemoryStore() *MemoryStore {
	ctx, cancel := context.WithCancel(context.Background())

	store := &MemoryStore{
		local:  newLocalCache(),
		cancel: cancel,
	}

	store.wg.Add(1)
	go func() {
		defer store.wg.Done()
		store.local.cleanup(ctx)
	}()

	return store
}

func (s *MemoryStore) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Get retrieves a value from cache
func (s *MemoryStore) Get(ctx context.Context, key string, value interface{}) error {
	if s.isClosed() {
		return ErrClosed
	}

	data, ok := s.local.get(key)
	if !ok {
		return ErrKeyNotFound
	}
	return json.Unmarshal(data, value)
}

// Set stores a value in cache
func (s *MemoryStore) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
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

	s.local.set(key, data, expiration)
	return nil
}

// Delete removes a value from cache
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if s.isClosed() {
		return ErrClosed
	}

	s.local.delete(key)
	return nil
}

// Close stops the cleanup goroutine and drops every entry
func (s *MemoryStore) Close() error {
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

	return nil
}
