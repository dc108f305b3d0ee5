// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/autobrr/animebrr/internal/config"
)

const configKey = "config"

// Config middleware injects the application config into the Gin context
func Config(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(configKey, cfg)
		c.Next()
	}
}

// GetConfig returns the config injected by Config, nil when absent
func GetConfig(c *gin.Context) *config.Config {
	if v, ok := c.Get(configKey); ok {
		if cfg, ok := v.(*config.Config); ok {
			return cfg
		}
	}
	return nil
}
