// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/cocobomp/witm-go/internal/model"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "witm-test-*.db")
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	dbPath := f.Name()
	f.Close()

	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	return db
}

func mustCreate(t *testing.T, q *Queries, id, text, category string) {
	t.Helper()
	now := time.Now().UTC()
	err := q.CreateQuestion(context.Background(), CreateQuestionParams{
		ID:           id,
		Text:         text,
		Translations: map[string]string{"fr": text},
		CategoryID:   category,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateQuestion: %v", err)
	}
}

func TestQuestionRoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	mustCreate(t, q, "q1", "Qui est le plus drôle ?", "wtf")

	got, err := q.GetQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if got.Text != "Qui est le plus drôle ?" {
		t.Errorf("text = %q", got.Text)
	}
	if got.Translations["fr"] != got.Text {
		t.Errorf("translations = %v", got.Translations)
	}
	if got.IsDeleted {
		t.Error("new question marked deleted")
	}
	if got.ID != model.PersistedID("q1") {
		t.Errorf("id = %v", got.ID)
	}
}

func TestSoftDeleteAndRestore(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	mustCreate(t, q, "q1", "question", "normal")

	now := time.Now().UTC()
	if err := q.SoftDeleteQuestion(ctx, "q1", now); err != nil {
		t.Fatalf("SoftDeleteQuestion: %v", err)
	}

	got, err := q.GetQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if !got.IsDeleted || got.DeletedAt == nil {
		t.Errorf("expected soft-deleted, got isDeleted=%v deletedAt=%v", got.IsDeleted, got.DeletedAt)
	}

	active, err := q.ListActiveQuestions(ctx)
	if err != nil {
		t.Fatalf("ListActiveQuestions: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("active = %d, want 0", len(active))
	}

	all, err := q.ListQuestions(ctx)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("all = %d, want 1", len(all))
	}

	if err := q.RestoreQuestion(ctx, "q1", time.Now().UTC()); err != nil {
		t.Fatalf("RestoreQuestion: %v", err)
	}
	got, err = q.GetQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if got.IsDeleted || got.DeletedAt != nil {
		t.Error("expected restored question")
	}
}

func TestUpdateMissingQuestion(t *testing.T) {
	db := testDB(t)
	q := New(db)

	err := q.UpdateQuestion(context.Background(), UpdateQuestionParams{
		ID:        "nope",
		Text:      "x",
		UpdatedAt: time.Now().UTC(),
	})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestAtomicBatchWrite(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	mustCreate(t, q, "q1", "original", "wtf")
	mustCreate(t, q, "q2", "doomed", "wtf")

	s := NewQuestionStore(db, 0)

	edited, err := q.GetQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	edited.Text = "edited"
	edited.Translations["fr"] = "edited"

	draftID := model.NewDraftID()
	result, err := s.AtomicBatchWrite(ctx, Batch{
		Updates:     []model.Question{edited},
		SoftDeletes: []model.QuestionID{model.PersistedID("q2")},
		Creates: []model.Question{{
			ID:           draftID,
			Text:         "brand new",
			Translations: map[string]string{"fr": "brand new"},
			CategoryID:   "hot",
		}},
	})
	if err != nil {
		t.Fatalf("AtomicBatchWrite: %v", err)
	}
	if result.UpdatedCount != 1 || result.DeletedCount != 1 || result.CreatedCount != 1 {
		t.Errorf("counts = %+v", result)
	}

	persisted, ok := result.CreatedIDs[draftID]
	if !ok {
		t.Fatalf("no persisted id for %v", draftID)
	}
	if persisted.IsDraft() {
		t.Errorf("persisted id still draft: %v", persisted)
	}

	created, err := q.GetQuestion(ctx, persisted.Key())
	if err != nil {
		t.Fatalf("GetQuestion created: %v", err)
	}
	if created.Text != "brand new" || created.Likes != 0 || created.Dislikes != 0 {
		t.Errorf("created = %+v", created)
	}

	got, err := q.GetQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("GetQuestion q1: %v", err)
	}
	if got.Text != "edited" {
		t.Errorf("q1 text = %q", got.Text)
	}

	deleted, err := q.GetQuestion(ctx, "q2")
	if err != nil {
		t.Fatalf("GetQuestion q2: %v", err)
	}
	if !deleted.IsDeleted {
		t.Error("q2 not soft-deleted")
	}
}

func TestAtomicBatchWriteRollsBack(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	mustCreate(t, q, "q1", "original", "wtf")

	s := NewQuestionStore(db, 0)

	edited, err := q.GetQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	edited.Text = "edited"

	// Deleting a missing id fails the chunk; the update in the same
	// chunk must roll back with it.
	_, err = s.AtomicBatchWrite(ctx, Batch{
		Updates:     []model.Question{edited},
		SoftDeletes: []model.QuestionID{model.PersistedID("gone")},
	})
	if err == nil {
		t.Fatal("expected error")
	}

	got, err := q.GetQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if got.Text != "original" {
		t.Errorf("q1 text = %q, want rollback to original", got.Text)
	}
}

func TestBatchChunking(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	s := NewQuestionStore(db, 2)

	var creates []model.Question
	for i := 0; i < 5; i++ {
		creates = append(creates, model.Question{
			ID:         model.NewDraftID(),
			Text:       "q",
			CategoryID: "normal",
		})
	}

	result, err := s.AtomicBatchWrite(ctx, Batch{Creates: creates})
	if err != nil {
		t.Fatalf("AtomicBatchWrite: %v", err)
	}
	if result.CreatedCount != 5 || len(result.CreatedIDs) != 5 {
		t.Errorf("created = %d ids = %d", result.CreatedCount, len(result.CreatedIDs))
	}

	all, err := New(db).ListQuestions(ctx)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(all) != 5 {
		t.Errorf("stored = %d, want 5", len(all))
	}
}

func TestSplitBatch(t *testing.T) {
	batch := Batch{
		Updates:     make([]model.Question, 3),
		SoftDeletes: make([]model.QuestionID, 3),
		Creates:     make([]model.Question, 3),
	}
	chunks := splitBatch(batch, 4)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	total := 0
	for _, c := range chunks {
		if c.Size() > 4 {
			t.Errorf("chunk size = %d, exceeds limit", c.Size())
		}
		total += c.Size()
	}
	if total != 9 {
		t.Errorf("total = %d, want 9", total)
	}
}

func TestAdjustVotes(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	mustCreate(t, q, "q1", "question", "wtf")

	if err := q.AdjustVotes(ctx, "q1", 1, 0); err != nil {
		t.Fatalf("AdjustVotes: %v", err)
	}
	if err := q.AdjustVotes(ctx, "q1", 0, 1); err != nil {
		t.Fatalf("AdjustVotes: %v", err)
	}

	got, err := q.GetQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("GetQuestion: %v", err)
	}
	if got.Likes != 1 || got.Dislikes != 1 {
		t.Errorf("votes = %d/%d", got.Likes, got.Dislikes)
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	first, err := New(db).ListQuestions(ctx)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(first) == 0 {
		t.Fatal("seed created no questions")
	}

	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Seed again: %v", err)
	}
	second, err := New(db).ListQuestions(ctx)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(second) != len(first) {
		t.Errorf("second seed changed count: %d -> %d", len(first), len(second))
	}
}

func TestSeedCountsMatchInsertedRows(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	wantCategories, wantQuestions := SeedCounts()

	categories, err := New(db).ListCategories(ctx)
	if err != nil {
		t.Fatalf("ListCategories: %v", err)
	}
	if len(categories) != wantCategories {
		t.Errorf("categories = %d, want %d", len(categories), wantCategories)
	}

	questions, err := New(db).ListQuestions(ctx)
	if err != nil {
		t.Fatalf("ListQuestions: %v", err)
	}
	if len(questions) != wantQuestions {
		t.Errorf("questions = %d, want %d", len(questions), wantQuestions)
	}
}

func TestGenerationBatchLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	q := New(db)

	err := q.CreateGenerationBatch(ctx, CreateGenerationBatchParams{
		ID:         "b1",
		ProviderID: "msgbatch_123",
		Kind:       "generate",
		CreatedBy:  "admin@example.com",
	})
	if err != nil {
		t.Fatalf("CreateGenerationBatch: %v", err)
	}

	open, err := q.ListOpenGenerationBatches(ctx)
	if err != nil {
		t.Fatalf("ListOpenGenerationBatches: %v", err)
	}
	if len(open) != 1 || open[0].Status != BatchStatusPending {
		t.Fatalf("open = %+v", open)
	}

	if err := q.CompleteGenerationBatch(ctx, "b1", `[{"fr":"x"}]`); err != nil {
		t.Fatalf("CompleteGenerationBatch: %v", err)
	}

	open, err = q.ListOpenGenerationBatches(ctx)
	if err != nil {
		t.Fatalf("ListOpenGenerationBatches: %v", err)
	}
	if len(open) != 0 {
		t.Errorf("open after complete = %d", len(open))
	}

	b, err := q.GetGenerationBatch(ctx, "b1")
	if err != nil {
		t.Fatalf("GetGenerationBatch: %v", err)
	}
	if b.Status != BatchStatusCompleted || !b.Result.Valid {
		t.Errorf("batch = %+v", b)
	}
}
