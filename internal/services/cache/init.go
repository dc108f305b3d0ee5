// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package cache

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/animebrr/internal/config"
)

// CacheType represents the type of cache to use
type CacheType string

const (
	CacheTypeRedis  CacheType = "redis"
	CacheTypeMemory CacheType = "memory"
)

func isDev() bool {
	return os.Getenv("GIN_MODE") != "release"
}

// redisOptions returns Redis settings for the configured address
func redisOptions(cfg config.RedisConfig) *redis.Options {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 6379
	}

	opts := &redis.Options{
		Addr:            fmt.Sprintf("%s:%d", host, port),
		MinIdleConns:    2,
		MaxRetries:      RetryAttempts,
		MinRetryBackoff: RetryDelay,
		MaxRetryBackoff: time.Second,
		ReadTimeout:     DefaultTimeout,
		WriteTimeout:    DefaultTimeout,
		PoolTimeout:     DefaultTimeout * 2,
	}

	if isDev() {
		opts.PoolSize = 5
		opts.IdleTimeout = 30 * time.Second
	} else {
		opts.PoolSize = 10
		opts.IdleTimeout = time.Minute
	}

	return opts
}

// cacheType resolves the configured type; unknown values fall back to memory
func cacheType(cfg config.CacheConfig) CacheType {
	switch strings.ToLower(cfg.Type) {
	case "redis":
		return CacheTypeRedis
	case "", "memory":
		return CacheTypeMemory
	default:
		log.Warn().Str("type", cfg.Type).Msg("Unknown cache type specified, defaulting to memory cache")
		return CacheTypeMemory
	}
}

// InitCache creates the configured store. Outside release mode an unreachable
// Redis falls back to the memory store.
func InitCache(ctx context.Context, cfg config.CacheConfig) (Store, error) {
	kind := cacheType(cfg)
	log.Debug().Str("type", string(kind)).Msg("Initializing cache")

	if kind == CacheTypeMemory {
		return NewMemoryStore(), nil
	}

	opts := redisOptions(cfg.Redis)
	store, err := NewCache(ctx, opts)
	if err != nil {
		if isDev() {
			log.Warn().Err(err).Str("addr", opts.Addr).Msg("Redis connection failed, falling back to memory cache")
			return NewMemoryStore(), nil
		}
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return store, nil
}
