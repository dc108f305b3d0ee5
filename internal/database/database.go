// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/autobrr/animebrr/internal/config"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB represents the database connection
type DB struct {
	*sql.DB
	driver string
	path   string

	squirrel sq.StatementBuilderType
}

// InitDB opens the configured database and creates the schema
func InitDB(cfg config.DatabaseConfig) (*DB, error) {
	var (
		database *sql.DB
		err      error
	)

	driver := cfg.Type
	if driver == "" {
		driver = DriverSQLite
	}

	switch driver {
	case DriverPostgres:
		database, err = openPostgres(cfg)
	case DriverSQLite:
		database, err = openSQLite(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported database type %q", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	database.SetMaxOpenConns(25)
	database.SetMaxIdleConns(25)
	database.SetConnMaxLifetime(5 * time.Minute)
	if driver == DriverSQLite {
		// one writer at a time
		database.SetMaxOpenConns(1)
	}

	log.Info().
		Str("driver", driver).
		Msg("Successfully connected to database")

	db := &DB{
		DB:     database,
		driver: driver,
		path:   cfg.Path,
		// sqlite understands $n placeholders as well
		squirrel: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}

	if err := db.initSchema(); err != nil {
		database.Close()
		return nil, errors.Wrap(err, "error initializing schema")
	}

	return db, nil
}

func openPostgres(cfg config.DatabaseConfig) (*sql.DB, error) {
	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, strconv.Itoa(port), cfg.User, cfg.Password, cfg.Name)
	log.Debug().
		Str("host", cfg.Host).
		Int("port", port).
		Str("database", cfg.Name).
		Msg("Initializing PostgreSQL database")

	const maxRetries = 5
	baseDelay := time.Second

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		database, err := sql.Open("postgres", dsn)
		if err == nil {
			if err = database.Ping(); err == nil {
				return database, nil
			}
			database.Close()
		}
		lastErr = err

		if attempt == maxRetries {
			break
		}

		delay := time.Duration(attempt) * baseDelay
		log.Debug().
			Int("attempt", attempt).
			Dur("delay", delay).
			Msg("Retrying database connection")
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, lastErr)
}

func openSQLite(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}

	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// force the file into existence before tightening its mode
	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("error creating database file: %w", err)
	}

	if err := os.Chmod(path, 0640); err != nil {
		database.Close()
		return nil, fmt.Errorf("error setting database file permissions: %w", err)
	}

	log.Debug().
		Str("path", path).
		Msg("Initializing SQLite database")

	return database, nil
}

// Path returns the database file path (for SQLite)
func (db *DB) Path() string {
	return db.path
}

// Driver returns the sql driver name
func (db *DB) Driver() string {
	return db.driver
}

func (db *DB) initSchema() error {
	autoIncrement := "INTEGER"
	if db.driver == DriverPostgres {
		autoIncrement = "SERIAL"
	}

	_, err := db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS backend_instances (
			id %s PRIMARY KEY,
			instance_id TEXT UNIQUE NOT NULL,
			display_name TEXT NOT NULL,
			url TEXT NOT NULL,
			task_api TEXT NOT NULL DEFAULT ''
		)`, autoIncrement))
	if err != nil {
		return err
	}

	_, err = db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS action_history (
			id %s PRIMARY KEY,
			action TEXT NOT NULL,
			instance_id TEXT NOT NULL DEFAULT '',
			method TEXT NOT NULL DEFAULT '',
			path TEXT NOT NULL DEFAULT '',
			payload TEXT NOT NULL DEFAULT '',
			outcome TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMP NOT NULL,
			duration_ms BIGINT NOT NULL DEFAULT 0
		)`, autoIncrement))
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_action_history_started_at ON action_history (started_at)`)
	return err
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
