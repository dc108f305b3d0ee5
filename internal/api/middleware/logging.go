// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package middleware

import (
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var sensitiveParams = []string{
	"apikey",
	"api_key",
	"key",
	"token",
	"password",
	"secret",
}

// redactQuery masks query parameters that look like credentials
func redactQuery(query string) string {
	if query == "" {
		return ""
	}

	parsed, err := url.ParseQuery(query)
	if err != nil {
		return query
	}

	for param := range parsed {
		lower := strings.ToLower(param)
		for _, sensitive := range sensitiveParams {
			if strings.Contains(lower, sensitive) {
				parsed.Set(param, "[REDACTED]")
				break
			}
		}
	}
	return parsed.Encode()
}

// Logger returns a gin middleware for logging HTTP requests with zerolog.
// Event streams and successful gestures log at debug, everything else at info.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if query := redactQuery(c.Request.URL.RawQuery); query != "" {
			path = path + "?" + query
		}

		status := c.Writer.Status()

		var event *zerolog.Event
		switch {
		case len(c.Errors) > 0:
			event = log.Error().Err(c.Errors.Last())
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		case strings.HasPrefix(c.FullPath(), "/api/session/"), c.FullPath() == "/health":
			event = log.Debug()
		default:
			event = log.Info()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", c.ClientIP()).
			Int("bytes", c.Writer.Size()).
			Msg("HTTP Request")
	}
}
