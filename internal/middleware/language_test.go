// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/cocobomp/witm-go/internal/i18n"
)

func TestMain(m *testing.M) {
	if err := i18n.Init(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func resolveLang(t *testing.T, target string, header string) string {
	t.Helper()
	var got string
	handler := Language()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetLanguage(r)
	}))

	req := httptest.NewRequest("GET", target, nil)
	if header != "" {
		req.Header.Set("Accept-Language", header)
	}
	handler.ServeHTTP(httptest.NewRecorder(), req)
	return got
}

func TestLanguageFromQuery(t *testing.T) {
	if got := resolveLang(t, "/api/v1/questions?lang=de", "fr"); got != "de" {
		t.Errorf("lang = %q, want de (query beats header)", got)
	}
}

func TestLanguageUnsupportedQueryFallsToDefault(t *testing.T) {
	if got := resolveLang(t, "/api/v1/questions?lang=pt", ""); got != "fr" {
		t.Errorf("lang = %q, want fr", got)
	}
}

func TestLanguageFromAcceptHeader(t *testing.T) {
	if got := resolveLang(t, "/api/v1/questions", "en-US,en;q=0.9"); got != "en" {
		t.Errorf("lang = %q, want en", got)
	}
}

func TestLanguageDefault(t *testing.T) {
	if got := resolveLang(t, "/api/v1/questions", ""); got != "fr" {
		t.Errorf("lang = %q, want fr", got)
	}
}

func TestGetLanguageWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if got := GetLanguage(req); got != i18n.DefaultLanguage {
		t.Errorf("lang = %q, want default", got)
	}
}
