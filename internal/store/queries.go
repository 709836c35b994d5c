// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cocobomp/witm-go/internal/model"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx so queries can run
// standalone or inside a transaction.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries wraps a database handle with typed query methods.
type Queries struct {
	db DBTX
}

// New returns a Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const questionColumns = `id, text, translations, category_id, likes, dislikes, is_deleted, deleted_at, created_at, updated_at`

func scanQuestion(row interface{ Scan(...any) error }) (model.Question, error) {
	var (
		qn           model.Question
		translations string
		isDeleted    int64
		deletedAt    sql.NullTime
		id           string
	)
	err := row.Scan(&id, &qn.Text, &translations, &qn.CategoryID, &qn.Likes, &qn.Dislikes,
		&isDeleted, &deletedAt, &qn.CreatedAt, &qn.UpdatedAt)
	if err != nil {
		return model.Question{}, err
	}
	qn.ID = model.PersistedID(id)
	qn.IsDeleted = isDeleted != 0
	if deletedAt.Valid {
		t := deletedAt.Time
		qn.DeletedAt = &t
	}
	if translations != "" {
		if err := json.Unmarshal([]byte(translations), &qn.Translations); err != nil {
			return model.Question{}, fmt.Errorf("decoding translations for question %s: %w", id, err)
		}
	}
	return qn, nil
}

// ListQuestions returns every question, including soft-deleted ones,
// ordered by creation time.
func (q *Queries) ListQuestions(ctx context.Context) ([]model.Question, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		qn, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, qn)
	}
	return questions, rows.Err()
}

// ListActiveQuestions returns questions not marked deleted, for the
// public game API.
func (q *Queries) ListActiveQuestions(ctx context.Context) ([]model.Question, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE is_deleted = 0 ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		qn, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, qn)
	}
	return questions, rows.Err()
}

// GetQuestion returns a single question by its persisted id.
func (q *Queries) GetQuestion(ctx context.Context, id string) (model.Question, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ?`, id)
	return scanQuestion(row)
}

// CreateQuestionParams holds the fields for inserting a question.
type CreateQuestionParams struct {
	ID           string
	Text         string
	Translations map[string]string
	CategoryID   string
	Likes        int64
	Dislikes     int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateQuestion inserts a new question row.
func (q *Queries) CreateQuestion(ctx context.Context, arg CreateQuestionParams) error {
	translations, err := encodeTranslations(arg.Translations)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx,
		`INSERT INTO questions (id, text, translations, category_id, likes, dislikes, is_deleted, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		arg.ID, arg.Text, translations, arg.CategoryID, arg.Likes, arg.Dislikes, arg.CreatedAt, arg.UpdatedAt)
	return err
}

// UpdateQuestionParams holds the editable fields of a question.
type UpdateQuestionParams struct {
	ID           string
	Text         string
	Translations map[string]string
	CategoryID   string
	UpdatedAt    time.Time
}

// UpdateQuestion overwrites the editable fields of an existing question.
func (q *Queries) UpdateQuestion(ctx context.Context, arg UpdateQuestionParams) error {
	translations, err := encodeTranslations(arg.Translations)
	if err != nil {
		return err
	}
	res, err := q.db.ExecContext(ctx,
		`UPDATE questions SET text = ?, translations = ?, category_id = ?, updated_at = ? WHERE id = ?`,
		arg.Text, translations, arg.CategoryID, arg.UpdatedAt, arg.ID)
	if err != nil {
		return err
	}
	return requireRow(res, arg.ID)
}

// SoftDeleteQuestion flags a question as deleted without removing the row.
func (q *Queries) SoftDeleteQuestion(ctx context.Context, id string, at time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE questions SET is_deleted = 1, deleted_at = ?, updated_at = ? WHERE id = ?`,
		at, at, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// RestoreQuestion clears the deleted flag on a question.
func (q *Queries) RestoreQuestion(ctx context.Context, id string, at time.Time) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE questions SET is_deleted = 0, deleted_at = NULL, updated_at = ? WHERE id = ?`,
		at, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// PurgeQuestion permanently removes a question row. Used by the
// maintenance CLI, never by the admin commit path.
func (q *Queries) PurgeQuestion(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM questions WHERE id = ?`, id)
	return err
}

// AdjustVotes increments the like or dislike counter on a question.
func (q *Queries) AdjustVotes(ctx context.Context, id string, likes, dislikes int64) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE questions SET likes = likes + ?, dislikes = dislikes + ? WHERE id = ? AND is_deleted = 0`,
		likes, dislikes, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// CountQuestionsByCategory returns active question counts keyed by category id.
func (q *Queries) CountQuestionsByCategory(ctx context.Context) (map[string]int64, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT category_id, COUNT(*) FROM questions WHERE is_deleted = 0 GROUP BY category_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var id string
		var n int64
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// ListCategories returns categories in display order.
func (q *Queries) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, title, icon FROM categories ORDER BY sort_order, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Title, &c.Icon); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// UpsertCategoryParams holds the fields for inserting or updating a category.
type UpsertCategoryParams struct {
	ID        string
	Title     string
	Icon      string
	SortOrder int64
}

// UpsertCategory inserts a category or updates it in place.
func (q *Queries) UpsertCategory(ctx context.Context, arg UpsertCategoryParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO categories (id, title, icon, sort_order) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, icon = excluded.icon, sort_order = excluded.sort_order`,
		arg.ID, arg.Title, arg.Icon, arg.SortOrder)
	return err
}

// CreateEventParams holds the fields for recording an event.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	UserEmail sql.NullString
	IP        string
	Meta      string
}

// CreateEvent records an application event.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	meta := arg.Meta
	if meta == "" {
		meta = "{}"
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO events (level, category, message, user_email, ip, meta) VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Level, arg.Category, arg.Message, arg.UserEmail, arg.IP, meta)
	return err
}

// DeleteOldEvents removes events created before cutoff and returns the
// number deleted.
func (q *Queries) DeleteOldEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, `DELETE FROM events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func encodeTranslations(t map[string]string) (string, error) {
	if len(t) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return "", fmt.Errorf("encoding translations: %w", err)
	}
	return string(b), nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("question %s: %w", id, sql.ErrNoRows)
	}
	return nil
}
