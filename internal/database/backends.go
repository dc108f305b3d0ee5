// Copyright (c) 2024, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package database

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/autobrr/animebrr/internal/models"
)

var backendColumns = []string{"id", "instance_id", "display_name", "url", "task_api"}

type FindBackendParams struct {
	InstanceID string
	URL        string
}

// FindBackend returns the matching backend, nil when there is none
func (db *DB) FindBackend(ctx context.Context, params FindBackendParams) (*models.BackendInstance, error) {
	queryBuilder := db.squirrel.Select(backendColumns...).From("backend_instances")

	if params.InstanceID != "" {
		queryBuilder = queryBuilder.Where(sq.Eq{"instance_id": params.InstanceID})
	}
	if params.URL != "" {
		queryBuilder = queryBuilder.Where(sq.Eq{"url": params.URL})
	}

	query, args, err := queryBuilder.Limit(1).ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	var backend models.BackendInstance
	err = db.QueryRowContext(ctx, query, args...).Scan(
		&backend.ID,
		&backend.InstanceID,
		&backend.DisplayName,
		&backend.URL,
		&backend.TaskAPI,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "error executing query")
	}

	return &backend, nil
}

// ListBackends returns every backend ordered by instance id
func (db *DB) ListBackends(ctx context.Context) ([]models.BackendInstance, error) {
	query, args, err := db.squirrel.Select(backendColumns...).
		From("backend_instances").
		OrderBy("instance_id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	backends := []models.BackendInstance{}
	for rows.Next() {
		var backend models.BackendInstance
		if err := rows.Scan(
			&backend.ID,
			&backend.InstanceID,
			&backend.DisplayName,
			&backend.URL,
			&backend.TaskAPI,
		); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}
		backends = append(backends, backend)
	}

	return backends, rows.Err()
}

// CreateBackend inserts the backend and sets its id
func (db *DB) CreateBackend(ctx context.Context, backend *models.BackendInstance) error {
	queryBuilder := db.squirrel.Insert("backend_instances").
		Columns("instance_id", "display_name", "url", "task_api").
		Values(backend.InstanceID, backend.DisplayName, backend.URL, backend.TaskAPI).
		Suffix("RETURNING id").RunWith(db.DB)

	if err := queryBuilder.QueryRowContext(ctx).Scan(&backend.ID); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// UpdateBackend updates the backend with the same instance id
func (db *DB) UpdateBackend(ctx context.Context, backend *models.BackendInstance) error {
	query, args, err := db.squirrel.Update("backend_instances").
		Set("display_name", backend.DisplayName).
		Set("url", backend.URL).
		Set("task_api", backend.TaskAPI).
		Where(sq.Eq{"instance_id": backend.InstanceID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "error executing query")
	}

	return nil
}

// SaveBackend creates the backend or updates the existing one. It reports
// whether a new row was created.
func (db *DB) SaveBackend(ctx context.Context, backend *models.BackendInstance) (bool, error) {
	existing, err := db.FindBackend(ctx, FindBackendParams{InstanceID: backend.InstanceID})
	if err != nil {
		return false, err
	}

	if existing == nil {
		return true, db.CreateBackend(ctx, backend)
	}

	backend.ID = existing.ID
	return false, db.UpdateBackend(ctx, backend)
}

// DeleteBackend removes the backend; it reports false when none matched
func (db *DB) DeleteBackend(ctx context.Context, instanceID string) (bool, error) {
	query, args, err := db.squirrel.Delete("backend_instances").
		Where(sq.Eq{"instance_id": instanceID}).
		ToSql()
	if err != nil {
		return false, errors.Wrap(err, "error building query")
	}

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, errors.Wrap(err, "error executing query")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "error reading affected rows")
	}

	return affected > 0, nil
}
