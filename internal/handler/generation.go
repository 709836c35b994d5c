// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/cocobomp/witm-go/internal/draft"
	"github.com/cocobomp/witm-go/internal/generation"
	"github.com/cocobomp/witm-go/internal/middleware"
	"github.com/cocobomp/witm-go/internal/model"
	"github.com/cocobomp/witm-go/internal/store"
)

// maxGenerateCount caps a single generation request.
const maxGenerateCount = 20

// GenerationHandler exposes the question generation service. All
// handlers answer 503 when the service is not configured.
type GenerationHandler struct {
	client   *generation.Client
	poller   *generation.Poller
	queries  *store.Queries
	drafts   *draft.Registry
	sessions *scs.SessionManager
}

// NewGenerationHandler creates a new generation handler. client and
// poller may be nil when the service is disabled.
func NewGenerationHandler(client *generation.Client, poller *generation.Poller, queries *store.Queries, drafts *draft.Registry, sessions *scs.SessionManager) *GenerationHandler {
	return &GenerationHandler{
		client:   client,
		poller:   poller,
		queries:  queries,
		drafts:   drafts,
		sessions: sessions,
	}
}

func (h *GenerationHandler) enabled(w http.ResponseWriter) bool {
	if h.client == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "Generation service is not configured")
		return false
	}
	return true
}

type generateRequest struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

func (r generateRequest) validate() string {
	if r.Category == "" {
		return "category is required"
	}
	if r.Count < 1 || r.Count > maxGenerateCount {
		return "count must be between 1 and 20"
	}
	return ""
}

// candidateJSON is the wire form of one generated question.
type candidateJSON struct {
	Text         string            `json:"text"`
	Translations map[string]string `json:"translations"`
}

func candidatesToJSON(candidates []generation.Candidate) []candidateJSON {
	out := make([]candidateJSON, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, candidateJSON{
			Text:         c.Primary(),
			Translations: c.Translations(),
		})
	}
	return out
}

// Generate runs a synchronous generation call and returns candidates
// without touching any workspace.
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}

	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	candidates, err := h.client.Generate(r.Context(), req.Category, req.Count)
	if err != nil {
		slog.Error("generation failed", "category", req.Category, "error", err)
		writeJSONError(w, http.StatusBadGateway, "Generation failed")
		return
	}

	writeJSONSuccess(w, map[string]any{"candidates": candidatesToJSON(candidates)})
}

type translateRequest struct {
	Text      string   `json:"text"`
	Languages []string `json:"languages"`
}

// Translate translates a single question text.
func (h *GenerationHandler) Translate(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}

	var req translateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Text == "" {
		writeJSONError(w, http.StatusBadRequest, "text is required")
		return
	}
	if len(req.Languages) == 0 {
		req.Languages = []string{"en", "de"}
	}

	translations, err := h.client.Translate(r.Context(), req.Text, req.Languages)
	if err != nil {
		slog.Error("translation failed", "error", err)
		writeJSONError(w, http.StatusBadGateway, "Translation failed")
		return
	}

	writeJSONSuccess(w, map[string]any{"translations": translations})
}

// batchJSON is the wire form of a persisted batch job.
type batchJSON struct {
	ID         string `json:"id"`
	ProviderID string `json:"providerId"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	CreatedBy  string `json:"createdBy"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

func batchToJSON(b store.GenerationBatch) batchJSON {
	out := batchJSON{
		ID:         b.ID,
		ProviderID: b.ProviderID,
		Kind:       b.Kind,
		Status:     b.Status,
		CreatedBy:  b.CreatedBy,
		CreatedAt:  b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  b.UpdatedAt.Format(time.RFC3339),
	}
	if b.Error.Valid {
		out.Error = b.Error.String
	}
	return out
}

// CreateBatch submits an asynchronous generation job.
func (h *GenerationHandler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	if !h.enabled(w) {
		return
	}

	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if msg := req.validate(); msg != "" {
		writeJSONError(w, http.StatusBadRequest, msg)
		return
	}

	batch, err := h.poller.Submit(r.Context(), req.Category, req.Count, middleware.GetPrincipalEmail(r))
	if err != nil {
		slog.Error("batch submission failed", "category", req.Category, "error", err)
		writeJSONError(w, http.StatusBadGateway, "Batch submission failed")
		return
	}

	writeJSONStatus(w, http.StatusCreated, map[string]any{"batch": batchToJSON(batch)})
}

// ListBatches returns recent batch jobs, newest first.
func (h *GenerationHandler) ListBatches(w http.ResponseWriter, r *http.Request) {
	batches, err := h.queries.ListGenerationBatches(r.Context(), 50)
	if err != nil {
		slog.Error("listing generation batches", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to list batches")
		return
	}

	out := make([]batchJSON, 0, len(batches))
	for _, b := range batches {
		out = append(out, batchToJSON(b))
	}
	writeJSONSuccess(w, map[string]any{"batches": out})
}

// GetBatch returns a single batch job.
func (h *GenerationHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := h.queries.GetGenerationBatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "Batch not found")
			return
		}
		slog.Error("fetching generation batch", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to fetch batch")
		return
	}
	writeJSONSuccess(w, map[string]any{"batch": batchToJSON(batch)})
}

// ImportResults imports a completed batch's questions into the calling
// session's draft workspace as local drafts. Nothing is persisted until
// the workspace is committed.
func (h *GenerationHandler) ImportResults(w http.ResponseWriter, r *http.Request) {
	batch, err := h.queries.GetGenerationBatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			writeJSONError(w, http.StatusNotFound, "Batch not found")
			return
		}
		slog.Error("fetching generation batch", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to fetch batch")
		return
	}

	if batch.Status != store.BatchStatusCompleted || !batch.Result.Valid {
		writeJSONError(w, http.StatusConflict, "Batch has no results yet")
		return
	}

	var candidates []generation.Candidate
	if err := json.Unmarshal([]byte(batch.Result.String), &candidates); err != nil {
		slog.Error("decoding stored batch result", "id", batch.ID, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Stored batch result is unreadable")
		return
	}

	// The category the batch was requested for travels in request_meta.
	var meta struct {
		Category string `json:"category"`
	}
	_ = json.Unmarshal([]byte(batch.RequestMeta), &meta)

	s := h.drafts.Get(h.sessions.Token(r.Context()))
	if !s.Loaded() {
		if err := s.Load(r.Context()); err != nil {
			writeJSONError(w, http.StatusBadGateway, "Failed to load questions from the store")
			return
		}
	}

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		text := c.Primary()
		if text == "" {
			continue
		}
		id := s.Create(model.QuestionPatch{
			Text:         &text,
			Translations: c.Translations(),
			CategoryID:   &meta.Category,
		})
		ids = append(ids, id.String())
	}

	slog.Info("batch results imported into workspace",
		"batch", batch.ID,
		"imported", len(ids),
		"admin", middleware.GetPrincipalEmail(r),
	)

	writeJSONSuccess(w, map[string]any{
		"importedCount": len(ids),
		"draftIds":      ids,
	})
}

// DeleteBatch removes a batch job record.
func (h *GenerationHandler) DeleteBatch(w http.ResponseWriter, r *http.Request) {
	if err := h.queries.DeleteGenerationBatch(r.Context(), chi.URLParam(r, "id")); err != nil {
		slog.Error("deleting generation batch", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to delete batch")
		return
	}
	writeJSONSuccess(w, nil)
}
