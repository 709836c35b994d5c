// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package draft implements the reconciliation layer the admin question
// editor works against: a locally-editable copy of the backing store
// with explicit change-sets and all-or-nothing commit semantics.
package draft

import (
	"context"
	"sync"
	"time"

	"github.com/cocobomp/witm-go/internal/model"
	"github.com/cocobomp/witm-go/internal/store"
)

// Backend is the backing store the reconciliation layer loads from and
// commits to. *store.QuestionStore satisfies it; tests substitute fakes.
type Backend interface {
	ListQuestions(ctx context.Context) ([]model.Question, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	AtomicBatchWrite(ctx context.Context, batch store.Batch) (store.BatchResult, error)
}

// Status tags a row in the merged list view.
type Status string

const (
	StatusUnchanged Status = "unchanged"
	StatusModified  Status = "modified"
	StatusDeleted   Status = "deleted"
	StatusNew       Status = "new"
)

// Row is one entry of the merged list view.
type Row struct {
	Question model.Question
	Status   Status
}

// CommitResult summarizes a successful commit.
type CommitResult struct {
	UpdatedCount int
	DeletedCount int
	CreatedCount int
	CreatedIDs   map[model.QuestionID]model.QuestionID
}

// Store holds a snapshot of the backing store plus local edits tracked
// in three change-sets. Persisted records live in working keyed by
// their store-assigned id; never-persisted drafts live in created under
// temporary ids. The backing store stays the source of truth: every
// successful Load or Commit resynchronizes the snapshot.
type Store struct {
	backend Backend

	mu         sync.Mutex
	snapshot   map[model.QuestionID]model.Question
	working    map[model.QuestionID]model.Question
	dirty      map[model.QuestionID]struct{}
	deleted    map[model.QuestionID]struct{}
	created    map[model.QuestionID]model.Question
	order      []model.QuestionID
	newOrder   []model.QuestionID
	categories []model.Category
	loaded     bool
	loading    bool
	saving     bool
	lastErr    error
	lastSaved  time.Time
}

// NewStore returns an empty store bound to backend. Call Load before
// editing.
func NewStore(backend Backend) *Store {
	s := &Store{backend: backend}
	s.resetLocked(nil)
	return s
}

func (s *Store) resetLocked(questions []model.Question) {
	s.snapshot = make(map[model.QuestionID]model.Question, len(questions))
	s.working = make(map[model.QuestionID]model.Question, len(questions))
	s.dirty = make(map[model.QuestionID]struct{})
	s.deleted = make(map[model.QuestionID]struct{})
	s.created = make(map[model.QuestionID]model.Question)
	s.order = s.order[:0]
	s.newOrder = s.newOrder[:0]
	for _, q := range questions {
		s.snapshot[q.ID] = q.Clone()
		s.working[q.ID] = q.Clone()
		s.order = append(s.order, q.ID)
	}
}

// Load fetches all questions and categories from the backend, replaces
// the snapshot and clears every change-set. On failure the prior state
// is left untouched so the call can be retried.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.loading || s.saving {
		s.mu.Unlock()
		return ErrBusy
	}
	s.loading = true
	s.mu.Unlock()

	err := s.load(ctx)

	s.mu.Lock()
	s.loading = false
	s.lastErr = err
	s.mu.Unlock()
	return err
}

// load fetches and swaps in a fresh snapshot. Callers hold the busy flag.
func (s *Store) load(ctx context.Context) error {
	questions, err := s.backend.ListQuestions(ctx)
	if err != nil {
		return &LoadError{Err: err}
	}
	categories, err := s.backend.ListCategories(ctx)
	if err != nil {
		return &LoadError{Err: err}
	}

	s.mu.Lock()
	s.resetLocked(questions)
	s.categories = categories
	s.loaded = true
	s.mu.Unlock()
	return nil
}

// Loaded reports whether an initial Load has ever succeeded.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Update applies patch to the record identified by id. Patches to a
// draft mutate the created entry in place without dirty-tracking;
// patches to a persisted record merge into working and mark it dirty.
// Unknown ids are ignored.
func (s *Store) Update(id model.QuestionID, patch model.QuestionPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q, ok := s.created[id]; ok {
		patch.Apply(&q)
		s.created[id] = q
		return
	}
	if q, ok := s.working[id]; ok {
		patch.Apply(&q)
		s.working[id] = q
		s.dirty[id] = struct{}{}
	}
}

// Delete marks a persisted record for soft deletion, overriding any
// pending edit on it. Deleting a draft discards it entirely. Idempotent.
func (s *Store) Delete(id model.QuestionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.created[id]; ok {
		delete(s.created, id)
		s.newOrder = removeID(s.newOrder, id)
		return
	}
	if _, ok := s.working[id]; ok {
		s.deleted[id] = struct{}{}
		delete(s.dirty, id)
	}
}

// Restore takes a persisted record back out of the pending-deletion
// set. Its working entry was never discarded, so any earlier edits
// reappear with it and the record is re-marked dirty when it still
// differs from the snapshot. No effect on ids not marked deleted.
func (s *Store) Restore(id model.QuestionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.deleted[id]; !ok {
		return
	}
	delete(s.deleted, id)
	if !sameContent(s.working[id], s.snapshot[id]) {
		s.dirty[id] = struct{}{}
	}
}

// sameContent compares the editable fields of two questions.
func sameContent(a, b model.Question) bool {
	if a.Text != b.Text || a.CategoryID != b.CategoryID || len(a.Translations) != len(b.Translations) {
		return false
	}
	for lang, text := range a.Translations {
		if b.Translations[lang] != text {
			return false
		}
	}
	return true
}

// Create inserts a fully-formed local draft and returns its temporary
// id for immediate further edits.
func (s *Store) Create(patch model.QuestionPatch) model.QuestionID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := model.NewDraftID()
	q := model.Question{
		ID:           id,
		Translations: map[string]string{},
	}
	patch.Apply(&q)
	s.created[id] = q
	s.newOrder = append(s.newOrder, id)
	return id
}

// Commit sends every pending change to the backend as one batch write,
// then resynchronizes the snapshot. With no pending changes it is a
// successful no-op. On a write failure every change-set is left intact
// for retry or discard. Once the write is confirmed the change-sets are
// cleared even if the follow-up reload fails, so a retried Commit never
// re-sends the same batch.
func (s *Store) Commit(ctx context.Context) (CommitResult, error) {
	s.mu.Lock()
	if s.loading || s.saving {
		s.mu.Unlock()
		return CommitResult{}, ErrBusy
	}
	batch := s.buildBatchLocked()
	if batch.IsEmpty() {
		s.mu.Unlock()
		return CommitResult{}, nil
	}
	s.saving = true
	s.mu.Unlock()

	result, err := s.backend.AtomicBatchWrite(ctx, batch)
	if err != nil {
		cerr := &CommitError{Err: err}
		s.mu.Lock()
		s.saving = false
		s.lastErr = cerr
		s.mu.Unlock()
		return CommitResult{}, cerr
	}

	// The write is confirmed. Fold it into the local state before
	// reloading so a failed reload can never re-send it: a retried
	// Commit after a reload failure would otherwise duplicate the
	// created rows.
	s.mu.Lock()
	s.applyCommitLocked(result)
	s.mu.Unlock()

	// Server-assigned timestamps are authoritative, so reload on top of
	// the local apply.
	loadErr := s.load(ctx)

	s.mu.Lock()
	s.saving = false
	s.lastErr = loadErr
	if loadErr == nil {
		s.lastSaved = time.Now()
	}
	s.mu.Unlock()

	// A reload failure after a confirmed write still reports the
	// write's counts; only the snapshot refresh is outstanding.
	return CommitResult{
		UpdatedCount: result.UpdatedCount,
		DeletedCount: result.DeletedCount,
		CreatedCount: result.CreatedCount,
		CreatedIDs:   result.CreatedIDs,
	}, loadErr
}

// applyCommitLocked folds a confirmed batch write into the snapshot:
// edits become the new baseline, deleted rows disappear, and drafts move
// into working under their server-assigned ids. All change-sets end up
// empty.
func (s *Store) applyCommitLocked(result store.BatchResult) {
	for id := range s.dirty {
		s.snapshot[id] = s.working[id].Clone()
	}
	for id := range s.deleted {
		delete(s.working, id)
		delete(s.snapshot, id)
		s.order = removeID(s.order, id)
	}
	for _, tempID := range s.newOrder {
		newID, ok := result.CreatedIDs[tempID]
		if !ok {
			continue
		}
		q := s.created[tempID]
		q.ID = newID
		s.snapshot[newID] = q.Clone()
		s.working[newID] = q.Clone()
		s.order = append(s.order, newID)
	}
	s.dirty = make(map[model.QuestionID]struct{})
	s.deleted = make(map[model.QuestionID]struct{})
	s.created = make(map[model.QuestionID]model.Question)
	s.newOrder = s.newOrder[:0]
}

func (s *Store) buildBatchLocked() store.Batch {
	var batch store.Batch
	for id := range s.dirty {
		if _, gone := s.deleted[id]; gone {
			continue
		}
		batch.Updates = append(batch.Updates, s.working[id].Clone())
	}
	for id := range s.deleted {
		batch.SoftDeletes = append(batch.SoftDeletes, id)
	}
	for _, id := range s.newOrder {
		batch.Creates = append(batch.Creates, s.created[id].Clone())
	}
	return batch
}

// Discard resets working to a deep copy of snapshot and clears every
// change-set and any stored error.
func (s *Store) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.working = make(map[model.QuestionID]model.Question, len(s.snapshot))
	for id, q := range s.snapshot {
		s.working[id] = q.Clone()
	}
	s.dirty = make(map[model.QuestionID]struct{})
	s.deleted = make(map[model.QuestionID]struct{})
	s.created = make(map[model.QuestionID]model.Question)
	s.newOrder = s.newOrder[:0]
	s.lastErr = nil
}

// List produces the merged view for rendering: every working entry not
// soft-deleted in the backing store, tagged with its pending status,
// followed by local drafts tagged new. Pure read.
func (s *Store) List() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]Row, 0, len(s.order)+len(s.newOrder))
	for _, id := range s.order {
		q, ok := s.working[id]
		if !ok || q.IsDeleted {
			continue
		}
		status := StatusUnchanged
		if _, ok := s.deleted[id]; ok {
			status = StatusDeleted
		} else if _, ok := s.dirty[id]; ok {
			status = StatusModified
		}
		rows = append(rows, Row{Question: q.Clone(), Status: status})
	}
	for _, id := range s.newOrder {
		rows = append(rows, Row{Question: s.created[id].Clone(), Status: StatusNew})
	}
	return rows
}

// Get returns the current working or draft copy of a record.
func (s *Store) Get(id model.QuestionID) (model.Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if q, ok := s.created[id]; ok {
		return q.Clone(), true
	}
	if q, ok := s.working[id]; ok {
		return q.Clone(), true
	}
	return model.Question{}, false
}

// Categories returns the categories fetched by the last successful Load.
func (s *Store) Categories() []model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Category(nil), s.categories...)
}

// UnsavedCount returns the number of pending operations.
func (s *Store) UnsavedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dirty) + len(s.deleted) + len(s.created)
}

// HasUnsaved reports whether any change is pending.
func (s *Store) HasUnsaved() bool {
	return s.UnsavedCount() > 0
}

// Err returns the error from the most recent Load or Commit, nil after
// a success or Discard.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// LastSaved returns the time of the most recent successful commit.
func (s *Store) LastSaved() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}

// Busy reports whether a Load or Commit is currently in flight.
func (s *Store) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading || s.saving
}

func removeID(ids []model.QuestionID, id model.QuestionID) []model.QuestionID {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
