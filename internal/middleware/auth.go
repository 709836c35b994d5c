// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// rate limiting, and request context handling.
package middleware

import (
	"context"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/cocobomp/witm-go/internal/auth"
	"github.com/cocobomp/witm-go/internal/session"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys for request data.
const (
	ContextKeyPrincipal   ContextKey = "principal"
	ContextKeyRequestPath ContextKey = "request_path"
)

// Auth creates middleware that requires an authenticated admin session.
// Admin routes are a JSON API consumed by the back-office frontend, so
// failures return 401 rather than a redirect.
func Auth(sm *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := sm.GetString(r.Context(), session.KeyEmail)
			if email == "" {
				WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "Sign-in required", nil)
				return
			}

			principal := auth.Principal{
				Email: email,
				Name:  sm.GetString(r.Context(), session.KeyName),
			}
			ctx := context.WithValue(r.Context(), ContextKeyPrincipal, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPrincipal retrieves the signed-in admin from the request context.
// Returns nil if the request is unauthenticated.
func GetPrincipal(r *http.Request) *auth.Principal {
	principal, ok := r.Context().Value(ContextKeyPrincipal).(auth.Principal)
	if !ok {
		return nil
	}
	return &principal
}

// GetPrincipalEmail returns the signed-in admin's email, or empty string.
func GetPrincipalEmail(r *http.Request) string {
	if p := GetPrincipal(r); p != nil {
		return p.Email
	}
	return ""
}

// RequestPath creates middleware that stores the request path in the context.
// This is used by the logging handler to include the URL in error logs.
func RequestPath(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), ContextKeyRequestPath, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestPath retrieves the request path from the context.
func GetRequestPath(ctx context.Context) string {
	path, ok := ctx.Value(ContextKeyRequestPath).(string)
	if !ok {
		return ""
	}
	return path
}
