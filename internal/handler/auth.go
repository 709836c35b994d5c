// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/cocobomp/witm-go/internal/auth"
	"github.com/cocobomp/witm-go/internal/draft"
	"github.com/cocobomp/witm-go/internal/middleware"
	"github.com/cocobomp/witm-go/internal/session"
)

// AuthHandler handles admin sign-in and sign-out.
type AuthHandler struct {
	sessions   *scs.SessionManager
	provider   auth.Provider
	allowlist  *auth.Allowlist
	protection *middleware.LoginProtection
	drafts     *draft.Registry
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(sessions *scs.SessionManager, provider auth.Provider, allowlist *auth.Allowlist, protection *middleware.LoginProtection, drafts *draft.Registry) *AuthHandler {
	return &AuthHandler{
		sessions:   sessions,
		provider:   provider,
		allowlist:  allowlist,
		protection: protection,
		drafts:     drafts,
	}
}

type loginRequest struct {
	IDToken string `json:"id_token"`
}

// Login verifies an identity-provider token, checks the allow-list and
// opens an admin session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.IDToken == "" {
		writeJSONError(w, http.StatusBadRequest, "id_token is required")
		return
	}

	principal, err := h.provider.VerifyToken(r.Context(), req.IDToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			slog.Warn("login failed: token rejected", "ip", r.RemoteAddr)
			h.recordFailure(w, r.RemoteAddr)
			writeJSONError(w, http.StatusUnauthorized, "Invalid identity token")
			return
		}
		slog.Error("identity provider error during login", "error", err)
		writeJSONError(w, http.StatusBadGateway, "Identity provider unavailable")
		return
	}

	if locked, remaining := h.protection.IsAccountLocked(principal.Email); locked {
		slog.Warn("login attempt on locked account", "email", principal.Email, "remaining", remaining)
		writeJSONError(w, http.StatusTooManyRequests, "Account temporarily locked. Try again later.")
		return
	}

	if !h.allowlist.Allows(principal.Email) {
		slog.Warn("login failed: email not on allow-list", "email", principal.Email)
		h.recordFailure(w, principal.Email)
		writeJSONError(w, http.StatusForbidden, "This account has no admin access")
		return
	}

	h.protection.RecordSuccessfulLogin(principal.Email)

	// Regenerate session ID to prevent session fixation
	if err := h.sessions.RenewToken(r.Context()); err != nil {
		slog.Error("session renewal error", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to open session")
		return
	}
	h.sessions.Put(r.Context(), session.KeyEmail, principal.Email)
	h.sessions.Put(r.Context(), session.KeyName, principal.Name)

	slog.Info("admin logged in", "email", principal.Email)

	writeJSONSuccess(w, map[string]any{
		"email": principal.Email,
		"name":  principal.Name,
	})
}

// recordFailure books a failed attempt against key (email when known,
// client address otherwise).
func (h *AuthHandler) recordFailure(w http.ResponseWriter, key string) {
	if h.protection == nil {
		return
	}
	if locked, duration := h.protection.RecordFailedAttempt(key); locked {
		slog.Warn("sign-in locked after repeated failures", "key", key, "duration", duration)
	}
}

// Logout drops the session's draft workspace and destroys the session.
// Unsaved changes are discarded.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	email := h.sessions.GetString(r.Context(), session.KeyEmail)

	if h.drafts != nil {
		h.drafts.Drop(h.sessions.Token(r.Context()))
	}

	if err := h.sessions.Destroy(r.Context()); err != nil {
		slog.Error("session destroy error", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "Failed to close session")
		return
	}

	if email != "" {
		slog.Info("admin logged out", "email", email)
	}
	writeJSONSuccess(w, nil)
}

// Me returns the signed-in principal.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r)
	if principal == nil {
		writeJSONError(w, http.StatusUnauthorized, "Not signed in")
		return
	}
	writeJSONSuccess(w, map[string]any{
		"email": principal.Email,
		"name":  principal.Name,
	})
}
