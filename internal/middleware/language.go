// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/cocobomp/witm-go/internal/i18n"
)

// ContextKeyLanguage is the context key for the resolved language code.
const ContextKeyLanguage ContextKey = "language"

// Language creates middleware that resolves the game language for the
// request. Priority order:
//  1. Query parameter ?lang=XX (explicit language switch)
//  2. Accept-Language header
//  3. Default language
func Language() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lang := i18n.DefaultLanguage

			if queryLang := strings.ToLower(r.URL.Query().Get("lang")); queryLang != "" {
				if i18n.IsSupported(queryLang) {
					lang = queryLang
				}
			} else if acceptLang := r.Header.Get("Accept-Language"); acceptLang != "" {
				lang = i18n.MatchLanguage(acceptLang)
			}

			ctx := context.WithValue(r.Context(), ContextKeyLanguage, lang)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetLanguage retrieves the resolved language from the request context.
// Returns the default language if none was resolved.
func GetLanguage(r *http.Request) string {
	lang, ok := r.Context().Value(ContextKeyLanguage).(string)
	if !ok || lang == "" {
		return i18n.DefaultLanguage
	}
	return lang
}
