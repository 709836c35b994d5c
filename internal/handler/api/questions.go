// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/cocobomp/witm-go/internal/middleware"
	"github.com/cocobomp/witm-go/internal/model"
)

// Sample size limits for the homepage example block.
const (
	defaultSampleCount = 10
	maxSampleCount     = 50
)

// Categories returns the game categories in play order.
func (h *Handler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.questions.Categories(r.Context())
	if err != nil {
		slog.Error("listing categories", "error", err)
		WriteInternalError(w, "Failed to load categories")
		return
	}
	WriteSuccess(w, categories)
}

// Questions returns all active questions in the requested language,
// optionally filtered by category.
func (h *Handler) Questions(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)

	questions, err := h.questions.Questions(r.Context(), lang)
	if err != nil {
		slog.Error("listing questions", "error", err, "lang", lang)
		WriteInternalError(w, "Failed to load questions")
		return
	}

	if category := r.URL.Query().Get("category"); category != "" {
		filtered := questions[:0]
		for _, q := range questions {
			if q.CategoryID == category {
				filtered = append(filtered, q)
			}
		}
		questions = filtered
	}

	WriteSuccess(w, questions)
}

// Sample returns a random selection of active questions for the
// homepage example block.
func (h *Handler) Sample(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)

	count := defaultSampleCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteBadRequest(w, "count must be a positive integer")
			return
		}
		count = n
	}
	if count > maxSampleCount {
		count = maxSampleCount
	}

	questions, err := h.questions.Questions(r.Context(), lang)
	if err != nil {
		slog.Error("sampling questions", "error", err, "lang", lang)
		WriteInternalError(w, "Failed to load questions")
		return
	}

	if len(questions) > count {
		rand.Shuffle(len(questions), func(i, j int) {
			questions[i], questions[j] = questions[j], questions[i]
		})
		questions = questions[:count]
	}

	WriteSuccess(w, questions)
}

type voteRequest struct {
	Vote string `json:"vote"`
}

// Vote records a like or dislike on a question.
func (h *Handler) Vote(w http.ResponseWriter, r *http.Request) {
	id := model.ParseQuestionID(chi.URLParam(r, "id"))
	if id.IsZero() || id.IsDraft() {
		WriteBadRequest(w, "invalid question id")
		return
	}

	var req voteRequest
	if err := readJSON(r, &req); err != nil {
		WriteBadRequest(w, "invalid request body")
		return
	}

	var likes, dislikes int64
	switch req.Vote {
	case "like":
		likes = 1
	case "dislike":
		dislikes = 1
	default:
		WriteBadRequest(w, "vote must be \"like\" or \"dislike\"")
		return
	}

	if err := h.queries.AdjustVotes(r.Context(), id.Key(), likes, dislikes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Question not found")
			return
		}
		slog.Error("recording vote", "id", id.String(), "error", err)
		WriteInternalError(w, "Failed to record vote")
		return
	}

	WriteSuccess(w, map[string]string{"status": "recorded"})
}
