// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/cocobomp/witm-go/internal/cache"
	"github.com/cocobomp/witm-go/internal/draft"
	"github.com/cocobomp/witm-go/internal/middleware"
	"github.com/cocobomp/witm-go/internal/model"
	"github.com/cocobomp/witm-go/internal/store"
)

// QuestionsHandler exposes the per-session draft workspace over the
// admin API. Every admin session edits its own workspace; changes only
// reach the backing store on commit.
type QuestionsHandler struct {
	drafts   *draft.Registry
	sessions *scs.SessionManager
	backend  *store.QuestionStore
	qcache   *cache.QuestionCache
}

// NewQuestionsHandler creates a new questions handler.
func NewQuestionsHandler(drafts *draft.Registry, sessions *scs.SessionManager, backend *store.QuestionStore, qcache *cache.QuestionCache) *QuestionsHandler {
	return &QuestionsHandler{
		drafts:   drafts,
		sessions: sessions,
		backend:  backend,
		qcache:   qcache,
	}
}

// questionRow is the wire form of one merged-view row.
type questionRow struct {
	ID           string            `json:"id"`
	Text         string            `json:"text"`
	Translations map[string]string `json:"translations"`
	CategoryID   string            `json:"categoryId"`
	Likes        int64             `json:"likes"`
	Dislikes     int64             `json:"dislikes"`
	Status       draft.Status      `json:"status"`
}

// workspaceState is the wire form of the workspace's pending-change
// summary, attached to every workspace response.
type workspaceState struct {
	UnsavedCount int    `json:"unsavedCount"`
	HasUnsaved   bool   `json:"hasUnsaved"`
	LastSaved    string `json:"lastSaved,omitempty"`
	Busy         bool   `json:"busy"`
	Error        string `json:"error,omitempty"`
}

// workspace returns the calling session's draft store, performing the
// initial load on first use.
func (h *QuestionsHandler) workspace(r *http.Request) (*draft.Store, error) {
	s := h.drafts.Get(h.sessions.Token(r.Context()))
	if !s.Loaded() {
		if err := s.Load(r.Context()); err != nil && !errors.Is(err, draft.ErrBusy) {
			return nil, err
		}
	}
	return s, nil
}

func stateOf(s *draft.Store) workspaceState {
	state := workspaceState{
		UnsavedCount: s.UnsavedCount(),
		HasUnsaved:   s.HasUnsaved(),
		Busy:         s.Busy(),
	}
	if t := s.LastSaved(); !t.IsZero() {
		state.LastSaved = t.Format(time.RFC3339)
	}
	if err := s.Err(); err != nil {
		state.Error = err.Error()
	}
	return state
}

func rowsOf(s *draft.Store) []questionRow {
	rows := s.List()
	out := make([]questionRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, questionRow{
			ID:           row.Question.ID.String(),
			Text:         row.Question.Text,
			Translations: row.Question.Translations,
			CategoryID:   row.Question.CategoryID,
			Likes:        row.Question.Likes,
			Dislikes:     row.Question.Dislikes,
			Status:       row.Status,
		})
	}
	return out
}

// List returns the merged workspace view with categories and state.
func (h *QuestionsHandler) List(w http.ResponseWriter, r *http.Request) {
	s, err := h.workspace(r)
	if err != nil {
		slog.Error("loading draft workspace", "error", err)
		writeJSONError(w, http.StatusBadGateway, "Failed to load questions from the store")
		return
	}

	writeJSONSuccess(w, map[string]any{
		"questions":  rowsOf(s),
		"categories": s.Categories(),
		"state":      stateOf(s),
	})
}

// Create adds a local draft question to the workspace.
func (h *QuestionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var patch model.QuestionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if patch.Text == nil || *patch.Text == "" {
		writeJSONError(w, http.StatusBadRequest, "text is required")
		return
	}

	s, err := h.workspace(r)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "Failed to load questions from the store")
		return
	}

	id := s.Create(patch)
	writeJSONStatus(w, http.StatusCreated, map[string]any{
		"id":    id.String(),
		"state": stateOf(s),
	})
}

// Update patches a question in the workspace.
func (h *QuestionsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := model.ParseQuestionID(chi.URLParam(r, "id"))

	var patch model.QuestionPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, err := h.workspace(r)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "Failed to load questions from the store")
		return
	}
	if _, ok := s.Get(id); !ok {
		writeJSONError(w, http.StatusNotFound, "Question not found")
		return
	}

	s.Update(id, patch)
	writeJSONSuccess(w, map[string]any{"state": stateOf(s)})
}

// Delete marks a question for deletion (or drops a local draft).
func (h *QuestionsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := model.ParseQuestionID(chi.URLParam(r, "id"))

	s, err := h.workspace(r)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "Failed to load questions from the store")
		return
	}

	s.Delete(id)
	writeJSONSuccess(w, map[string]any{"state": stateOf(s)})
}

// Restore takes a question back out of the pending-deletion set.
func (h *QuestionsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	id := model.ParseQuestionID(chi.URLParam(r, "id"))

	s, err := h.workspace(r)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "Failed to load questions from the store")
		return
	}

	s.Restore(id)
	writeJSONSuccess(w, map[string]any{"state": stateOf(s)})
}

// Commit writes every pending change to the backing store atomically.
// On success the public question cache is invalidated.
func (h *QuestionsHandler) Commit(w http.ResponseWriter, r *http.Request) {
	s, err := h.workspace(r)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "Failed to load questions from the store")
		return
	}

	result, err := s.Commit(r.Context())
	if err != nil {
		if errors.Is(err, draft.ErrBusy) {
			writeJSONError(w, http.StatusConflict, "Another save or reload is in progress")
			return
		}
		var loadErr *draft.LoadError
		if !errors.As(err, &loadErr) {
			slog.Error("commit failed", "error", err, "admin", middleware.GetPrincipalEmail(r))
			writeJSONError(w, http.StatusBadGateway, "Save failed; your changes are still pending")
			return
		}
		// The write landed; only the follow-up reload failed. Report the
		// counts and let the state's error field surface the stale view.
		slog.Warn("commit reload failed", "error", err, "admin", middleware.GetPrincipalEmail(r))
	}

	if h.qcache != nil {
		h.qcache.Invalidate(r.Context())
	}

	createdIDs := make(map[string]string, len(result.CreatedIDs))
	for tempID, storeID := range result.CreatedIDs {
		createdIDs[tempID.String()] = storeID.String()
	}

	slog.Info("workspace committed",
		"admin", middleware.GetPrincipalEmail(r),
		"updated", result.UpdatedCount,
		"deleted", result.DeletedCount,
		"created", result.CreatedCount,
	)

	writeJSONSuccess(w, map[string]any{
		"updatedCount": result.UpdatedCount,
		"deletedCount": result.DeletedCount,
		"createdCount": result.CreatedCount,
		"createdIds":   createdIDs,
		"state":        stateOf(s),
	})
}

// Discard throws away every pending change.
func (h *QuestionsHandler) Discard(w http.ResponseWriter, r *http.Request) {
	s, err := h.workspace(r)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "Failed to load questions from the store")
		return
	}

	s.Discard()
	writeJSONSuccess(w, map[string]any{"state": stateOf(s)})
}

// Reload refetches the snapshot from the backing store, dropping every
// pending change.
func (h *QuestionsHandler) Reload(w http.ResponseWriter, r *http.Request) {
	s := h.drafts.Get(h.sessions.Token(r.Context()))

	if err := s.Load(r.Context()); err != nil {
		if errors.Is(err, draft.ErrBusy) {
			writeJSONError(w, http.StatusConflict, "Another save or reload is in progress")
			return
		}
		slog.Error("reload failed", "error", err)
		writeJSONError(w, http.StatusBadGateway, "Failed to load questions from the store")
		return
	}

	writeJSONSuccess(w, map[string]any{
		"questions":  rowsOf(s),
		"categories": s.Categories(),
		"state":      stateOf(s),
	})
}

// Permanent hard-deletes a persisted question, bypassing the draft
// layer. The row removal runs in the background; the next reload
// reflects it.
func (h *QuestionsHandler) Permanent(w http.ResponseWriter, r *http.Request) {
	id := model.ParseQuestionID(chi.URLParam(r, "id"))
	if id.IsDraft() || id.IsZero() {
		writeJSONError(w, http.StatusBadRequest, "Only persisted questions can be permanently deleted")
		return
	}

	admin := middleware.GetPrincipalEmail(r)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.backend.Queries().PurgeQuestion(ctx, id.Key()); err != nil {
			slog.Error("permanent delete failed", "id", id.String(), "error", err, "admin", admin)
			return
		}
		slog.Warn("question permanently deleted", "id", id.String(), "admin", admin)
	}()

	writeJSONStatus(w, http.StatusAccepted, nil)
}
