// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// GenerationBatch is a persisted record of an asynchronous generation
// job submitted to the upstream provider.
type GenerationBatch struct {
	ID          string
	ProviderID  string
	Kind        string
	Status      string
	RequestMeta string
	Result      sql.NullString
	Error       sql.NullString
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Generation batch statuses.
const (
	BatchStatusPending   = "pending"
	BatchStatusRunning   = "running"
	BatchStatusCompleted = "completed"
	BatchStatusFailed    = "failed"
)

const genBatchColumns = `id, provider_id, kind, status, request_meta, result, error, created_by, created_at, updated_at`

// CreateGenerationBatchParams holds the fields for recording a new batch job.
type CreateGenerationBatchParams struct {
	ID          string
	ProviderID  string
	Kind        string
	RequestMeta string
	CreatedBy   string
}

// CreateGenerationBatch records a newly submitted batch job as pending.
func (q *Queries) CreateGenerationBatch(ctx context.Context, arg CreateGenerationBatchParams) error {
	meta := arg.RequestMeta
	if meta == "" {
		meta = "{}"
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO generation_batches (id, provider_id, kind, status, request_meta, created_by)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.ProviderID, arg.Kind, BatchStatusPending, meta, arg.CreatedBy)
	return err
}

// GetGenerationBatch returns a batch job by id.
func (q *Queries) GetGenerationBatch(ctx context.Context, id string) (GenerationBatch, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+genBatchColumns+` FROM generation_batches WHERE id = ?`, id)
	return scanGenerationBatch(row)
}

// ListOpenGenerationBatches returns jobs that have not reached a
// terminal state, oldest first.
func (q *Queries) ListOpenGenerationBatches(ctx context.Context) ([]GenerationBatch, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+genBatchColumns+` FROM generation_batches
		 WHERE status IN (?, ?) ORDER BY created_at`,
		BatchStatusPending, BatchStatusRunning)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []GenerationBatch
	for rows.Next() {
		b, err := scanGenerationBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// ListGenerationBatches returns the most recent batch jobs.
func (q *Queries) ListGenerationBatches(ctx context.Context, limit int64) ([]GenerationBatch, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+genBatchColumns+` FROM generation_batches ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []GenerationBatch
	for rows.Next() {
		b, err := scanGenerationBatch(rows)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// UpdateGenerationBatchStatus moves a batch job to a new status without
// touching its result.
func (q *Queries) UpdateGenerationBatchStatus(ctx context.Context, id, status string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE generation_batches SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id)
	return err
}

// CompleteGenerationBatch marks a batch job completed and stores its result.
func (q *Queries) CompleteGenerationBatch(ctx context.Context, id, result string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE generation_batches SET status = ?, result = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		BatchStatusCompleted, result, id)
	return err
}

// FailGenerationBatch marks a batch job failed and stores the error text.
func (q *Queries) FailGenerationBatch(ctx context.Context, id, errText string) error {
	_, err := q.db.ExecContext(ctx,
		`UPDATE generation_batches SET status = ?, error = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		BatchStatusFailed, errText, id)
	return err
}

// DeleteGenerationBatch removes a batch job record.
func (q *Queries) DeleteGenerationBatch(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM generation_batches WHERE id = ?`, id)
	return err
}

func scanGenerationBatch(row interface{ Scan(...any) error }) (GenerationBatch, error) {
	var b GenerationBatch
	err := row.Scan(&b.ID, &b.ProviderID, &b.Kind, &b.Status, &b.RequestMeta,
		&b.Result, &b.Error, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}
