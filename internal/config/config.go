// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	TaskAPIConsolidated = "consolidated"
	TaskAPILegacy       = "legacy"

	DefaultPollInterval = 2 * time.Second
)

// Config represents the main configuration structure
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Backend  BackendConfig  `toml:"backend"`
	Poller   PollerConfig   `toml:"poller"`
	Cache    CacheConfig    `toml:"cache"`
	Database DatabaseConfig `toml:"database"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	ListenAddr string `toml:"listen_addr" env:"ANIMEBRR__LISTEN_ADDR"`
}

// BackendConfig describes the default anime backend
type BackendConfig struct {
	URL     string `toml:"url" env:"ANIMEBRR__BACKEND_URL"`
	Name    string `toml:"name" env:"ANIMEBRR__BACKEND_NAME"`
	TaskAPI string `toml:"task_api" env:"ANIMEBRR__TASK_API"`
	// Timeout is in seconds
	Timeout int `toml:"timeout" env:"ANIMEBRR__BACKEND_TIMEOUT"`
}

// PollerConfig holds the torrent progress poller settings
type PollerConfig struct {
	Interval Duration `toml:"interval" env:"ANIMEBRR__POLL_INTERVAL"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type  string      `toml:"type" env:"CACHE_TYPE"`
	Redis RedisConfig `toml:"redis"`
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Host string `toml:"host" env:"REDIS_HOST"`
	Port int    `toml:"port" env:"REDIS_PORT"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Type     string `toml:"type" env:"ANIMEBRR__DB_TYPE"`
	Path     string `toml:"path" env:"ANIMEBRR__DB_PATH"`
	Host     string `toml:"host" env:"ANIMEBRR__DB_HOST"`
	Port     int    `toml:"port" env:"ANIMEBRR__DB_PORT"`
	User     string `toml:"user" env:"ANIMEBRR__DB_USER"`
	Password string `toml:"password" env:"ANIMEBRR__DB_PASSWORD"`
	Name     string `toml:"name" env:"ANIMEBRR__DB_NAME"`
}

// LogConfig controls the optional log file sink
type LogConfig struct {
	Level      string `toml:"level" env:"ANIMEBRR__LOG_LEVEL"`
	Path       string `toml:"path" env:"ANIMEBRR__LOG_PATH"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// MetricsConfig toggles the prometheus endpoint
type MetricsConfig struct {
	Enabled bool `toml:"enabled" env:"ANIMEBRR__METRICS_ENABLED"`
}

// Duration is a time.Duration that reads from TOML strings like "2s"
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a configuration usable without any file
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
		Backend: BackendConfig{
			URL:     "http://localhost:5173",
			Name:    "default",
			TaskAPI: TaskAPIConsolidated,
			Timeout: 15,
		},
		Poller: PollerConfig{
			Interval: Duration{DefaultPollInterval},
		},
		Cache: CacheConfig{
			Type: "memory",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: "./data/animebrr.db",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads the configuration from a TOML file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := Default()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}

	// Override with environment variables if they exist
	if err := LoadEnvOverrides(config); err != nil {
		return nil, fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// HasRequiredEnvVars reports whether the environment alone can configure the backend
func HasRequiredEnvVars() bool {
	return os.Getenv("ANIMEBRR__BACKEND_URL") != ""
}

// Validate checks values that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Backend.TaskAPI {
	case "":
		c.Backend.TaskAPI = TaskAPIConsolidated
	case TaskAPIConsolidated, TaskAPILegacy:
	default:
		return fmt.Errorf("invalid backend.task_api %q: want %q or %q", c.Backend.TaskAPI, TaskAPIConsolidated, TaskAPILegacy)
	}

	if c.Poller.Interval.Duration <= 0 {
		c.Poller.Interval.Duration = DefaultPollInterval
	}

	return nil
}

// BackendTimeout returns the request timeout for backend calls
func (c *Config) BackendTimeout() time.Duration {
	if c.Backend.Timeout <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Backend.Timeout) * time.Second
}

// LoadEnvOverrides checks for environment variables and overrides config values
func LoadEnvOverrides(config *Config) error {
	// Server
	if env := os.Getenv("ANIMEBRR__LISTEN_ADDR"); env != "" {
		config.Server.ListenAddr = env
	}

	// Backend
	if env := os.Getenv("ANIMEBRR__BACKEND_URL"); env != "" {
		config.Backend.URL = env
	}
	if env := os.Getenv("ANIMEBRR__BACKEND_NAME"); env != "" {
		config.Backend.Name = env
	}
	if env := os.Getenv("ANIMEBRR__TASK_API"); env != "" {
		config.Backend.TaskAPI = env
	}
	if env := os.Getenv("ANIMEBRR__BACKEND_TIMEOUT"); env != "" {
		timeout, err := strconv.Atoi(env)
		if err != nil {
			return fmt.Errorf("invalid ANIMEBRR__BACKEND_TIMEOUT: %w", err)
		}
		config.Backend.Timeout = timeout
	}

	// Poller
	if env := os.Getenv("ANIMEBRR__POLL_INTERVAL"); env != "" {
		if err := config.Poller.Interval.UnmarshalText([]byte(env)); err != nil {
			return err
		}
	}

	// Cache
	if env := os.Getenv("CACHE_TYPE"); env != "" {
		config.Cache.Type = env
	}
	if env := os.Getenv("REDIS_HOST"); env != "" {
		config.Cache.Redis.Host = env
	}
	if env := os.Getenv("REDIS_PORT"); env != "" {
		if port, err := strconv.Atoi(env); err == nil {
			config.Cache.Redis.Port = port
		}
	}

	// Database
	if env := os.Getenv("ANIMEBRR__DB_TYPE"); env != "" {
		config.Database.Type = env
	}
	if env := os.Getenv("ANIMEBRR__DB_PATH"); env != "" {
		config.Database.Path = env
	}
	if env := os.Getenv("ANIMEBRR__DB_HOST"); env != "" {
		config.Database.Host = env
	}
	if env := os.Getenv("ANIMEBRR__DB_PORT"); env != "" {
		if port, err := strconv.Atoi(env); err == nil {
			config.Database.Port = port
		}
	}
	if env := os.Getenv("ANIMEBRR__DB_USER"); env != "" {
		config.Database.User = env
	}
	if env := os.Getenv("ANIMEBRR__DB_PASSWORD"); env != "" {
		config.Database.Password = env
	}
	if env := os.Getenv("ANIMEBRR__DB_NAME"); env != "" {
		config.Database.Name = env
	}

	// Log
	if env := os.Getenv("ANIMEBRR__LOG_LEVEL"); env != "" {
		config.Log.Level = env
	}
	if env := os.Getenv("ANIMEBRR__LOG_PATH"); env != "" {
		config.Log.Path = env
	}

	// Metrics
	if env := os.Getenv("ANIMEBRR__METRICS_ENABLED"); env != "" {
		enabled, err := strconv.ParseBool(env)
		if err != nil {
			return fmt.Errorf("invalid ANIMEBRR__METRICS_ENABLED: %w", err)
		}
		config.Metrics.Enabled = enabled
	}

	return nil
}
