// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/autobrr/animebrr/internal/config"
)

var colors = map[string]string{
	"trace": "\033[36m", // Cyan
	"debug": "\033[33m", // Yellow
	"info":  "\033[34m", // Blue
	"warn":  "\033[33m", // Yellow
	"error": "\033[31m", // Red
	"fatal": "\033[35m", // Magenta
	"panic": "\033[35m", // Magenta
}

func consoleWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:     out,
		NoColor: false,
		FormatLevel: func(i interface{}) string {
			level, ok := i.(string)
			if !ok {
				return "???"
			}
			color := colors[level]
			if color == "" {
				color = "\033[37m" // Default to white
			}
			return color + strings.ToUpper(level) + "\033[0m"
		},
	}
}

// Init initializes the global logger with colored output
func Init() {
	log.Logger = zerolog.New(consoleWriter(os.Stdout)).With().Timestamp().Logger()
}

// Configure applies the level and the optional rotating file sink
func Configure(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Path == "" {
		return
	}

	file := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   true,
	}

	// file gets plain JSON lines, stdout keeps the colored console
	writer := zerolog.MultiLevelWriter(consoleWriter(os.Stdout), file)
	log.Logger = zerolog.New(writer).With().Timestamp().Logger()

	log.Debug().Str("path", cfg.Path).Msg("Log file enabled")
}
