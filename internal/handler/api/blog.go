// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cocobomp/witm-go/internal/i18n"
	"github.com/cocobomp/witm-go/internal/middleware"
)

// Blog returns post summaries for the requested language, newest first.
func (h *Handler) Blog(w http.ResponseWriter, r *http.Request) {
	lang := middleware.GetLanguage(r)
	WriteSuccess(w, h.posts.All(lang))
}

// BlogPost returns one rendered post by slug, falling back to another
// language when the requested one has no version of it.
func (h *Handler) BlogPost(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	lang := middleware.GetLanguage(r)

	post, ok := h.posts.BySlug(slug, lang)
	if !ok {
		WriteNotFound(w, "Post not found")
		return
	}
	WriteSuccess(w, post)
}

// Strings returns the site UI strings for a language so the frontend
// can localize without shipping every catalog.
func (h *Handler) Strings(w http.ResponseWriter, r *http.Request) {
	lang := chi.URLParam(r, "lang")
	if !i18n.IsSupported(lang) {
		WriteNotFound(w, "Unsupported language")
		return
	}
	WriteSuccess(w, i18n.Messages(lang))
}
