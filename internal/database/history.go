// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/autobrr/animebrr/internal/models"
)

const DefaultHistoryLimit = 50

// RecordAction appends the action to the history and sets its id
func (db *DB) RecordAction(ctx context.Context, record *models.ActionRecord) error {
	queryBuilder := db.squirrel.Insert("action_history").
		Columns("action", "instance_id", "method", "path", "payload", "outcome", "error", "started_at", "duration_ms").
		Values(
			record.Action,
			record.InstanceID,
			record.Method,
			record.Path,
			record.Payload,
			record.Outcome,
			record.Error,
			record.StartedAt.UTC(),
			record.DurationMs,
		).
		Suffix("RETURNING id").RunWith(db.DB)

	if err := queryBuilder.QueryRowContext(ctx).Scan(&record.ID); err != nil {
		return errors.Wrap(err, "error recording action")
	}

	return nil
}

type HistoryParams struct {
	InstanceID string
	Action     string
	Outcome    string
	Limit      uint64
}

// ListActions returns the most recent actions first
func (db *DB) ListActions(ctx context.Context, params HistoryParams) ([]models.ActionRecord, error) {
	limit := params.Limit
	if limit == 0 {
		limit = DefaultHistoryLimit
	}

	queryBuilder := db.squirrel.
		Select("id", "action", "instance_id", "method", "path", "payload", "outcome", "error", "started_at", "duration_ms").
		From("action_history")

	if params.InstanceID != "" {
		queryBuilder = queryBuilder.Where(sq.Eq{"instance_id": params.InstanceID})
	}
	if params.Action != "" {
		queryBuilder = queryBuilder.Where(sq.Eq{"action": params.Action})
	}
	if params.Outcome != "" {
		queryBuilder = queryBuilder.Where(sq.Eq{"outcome": params.Outcome})
	}

	query, args, err := queryBuilder.OrderBy("started_at DESC", "id DESC").Limit(limit).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	records := []models.ActionRecord{}
	for rows.Next() {
		var record models.ActionRecord
		if err := rows.Scan(
			&record.ID,
			&record.Action,
			&record.InstanceID,
			&record.Method,
			&record.Path,
			&record.Payload,
			&record.Outcome,
			&record.Error,
			&record.StartedAt,
			&record.DurationMs,
		); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// PruneActions deletes actions started before the cutoff and returns how many went
func (db *DB) PruneActions(ctx context.Context, before time.Time) (int64, error) {
	query, args, err := db.squirrel.Delete("action_history").
		Where(sq.Lt{"started_at": before.UTC()}).
		ToSql()
	if err != nil {
		return 0, errors.Wrap(err, "error building query")
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, errors.Wrap(err, "error executing query")
	}

	return res.RowsAffected()
}
