// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cocobomp/witm-go/internal/model"
)

// DefaultBatchLimit caps how many operations go into a single
// transaction during an atomic batch write.
const DefaultBatchLimit = 400

// Batch describes a set of question writes applied together.
type Batch struct {
	Updates     []model.Question
	SoftDeletes []model.QuestionID
	Creates     []model.Question
}

// Size returns the total number of operations in the batch.
func (b Batch) Size() int {
	return len(b.Updates) + len(b.SoftDeletes) + len(b.Creates)
}

// IsEmpty reports whether the batch contains no operations.
func (b Batch) IsEmpty() bool {
	return b.Size() == 0
}

// BatchResult summarizes an applied batch. CreatedIDs maps the draft
// ids supplied in Batch.Creates to the persisted ids assigned to them.
type BatchResult struct {
	UpdatedCount int
	DeletedCount int
	CreatedCount int
	CreatedIDs   map[model.QuestionID]model.QuestionID
}

// QuestionStore exposes the backing SQLite store to the admin layer.
type QuestionStore struct {
	db         *sql.DB
	batchLimit int
	now        func() time.Time
	newID      func() string
}

// NewQuestionStore wraps db. A batchLimit of zero or less falls back
// to DefaultBatchLimit.
func NewQuestionStore(db *sql.DB, batchLimit int) *QuestionStore {
	if batchLimit <= 0 {
		batchLimit = DefaultBatchLimit
	}
	return &QuestionStore{
		db:         db,
		batchLimit: batchLimit,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Queries returns a query handle on the underlying database.
func (s *QuestionStore) Queries() *Queries {
	return New(s.db)
}

// DB returns the underlying database handle.
func (s *QuestionStore) DB() *sql.DB {
	return s.db
}

// ListQuestions returns every question, including soft-deleted ones.
func (s *QuestionStore) ListQuestions(ctx context.Context) ([]model.Question, error) {
	return New(s.db).ListQuestions(ctx)
}

// ListCategories returns all categories in display order.
func (s *QuestionStore) ListCategories(ctx context.Context) ([]model.Category, error) {
	return New(s.db).ListCategories(ctx)
}

// AtomicBatchWrite applies the batch in chunks of at most the configured
// limit, each chunk in its own transaction. A failed chunk rolls back and
// stops processing; operations in earlier chunks stay committed.
func (s *QuestionStore) AtomicBatchWrite(ctx context.Context, batch Batch) (BatchResult, error) {
	result := BatchResult{CreatedIDs: make(map[model.QuestionID]model.QuestionID)}
	if batch.IsEmpty() {
		return result, nil
	}

	for _, chunk := range splitBatch(batch, s.batchLimit) {
		if err := s.applyChunk(ctx, chunk, &result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (s *QuestionStore) applyChunk(ctx context.Context, chunk Batch, result *BatchResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning batch transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := New(tx)
	now := s.now().UTC()

	for _, qn := range chunk.Updates {
		if qn.ID.IsDraft() {
			return fmt.Errorf("updating question %s: draft id in update set", qn.ID)
		}
		err := q.UpdateQuestion(ctx, UpdateQuestionParams{
			ID:           qn.ID.Key(),
			Text:         qn.Text,
			Translations: qn.Translations,
			CategoryID:   qn.CategoryID,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("updating question %s: %w", qn.ID, err)
		}
		result.UpdatedCount++
	}

	for _, id := range chunk.SoftDeletes {
		if id.IsDraft() {
			return fmt.Errorf("deleting question %s: draft id in delete set", id)
		}
		if err := q.SoftDeleteQuestion(ctx, id.Key(), now); err != nil {
			return fmt.Errorf("deleting question %s: %w", id, err)
		}
		result.DeletedCount++
	}

	for _, qn := range chunk.Creates {
		persisted := model.PersistedID(s.newID())
		err := q.CreateQuestion(ctx, CreateQuestionParams{
			ID:           persisted.Key(),
			Text:         qn.Text,
			Translations: qn.Translations,
			CategoryID:   qn.CategoryID,
			Likes:        0,
			Dislikes:     0,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("creating question %s: %w", qn.ID, err)
		}
		result.CreatedIDs[qn.ID] = persisted
		result.CreatedCount++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch transaction: %w", err)
	}
	return nil
}

// splitBatch slices the batch into chunks of at most limit operations,
// keeping the update/delete/create ordering within each chunk.
func splitBatch(batch Batch, limit int) []Batch {
	var chunks []Batch
	current := Batch{}

	flush := func() {
		if !current.IsEmpty() {
			chunks = append(chunks, current)
			current = Batch{}
		}
	}

	for _, qn := range batch.Updates {
		if current.Size() >= limit {
			flush()
		}
		current.Updates = append(current.Updates, qn)
	}
	for _, id := range batch.SoftDeletes {
		if current.Size() >= limit {
			flush()
		}
		current.SoftDeletes = append(current.SoftDeletes, id)
	}
	for _, qn := range batch.Creates {
		if current.Size() >= limit {
			flush()
		}
		current.Creates = append(current.Creates, qn)
	}
	flush()
	return chunks
}
