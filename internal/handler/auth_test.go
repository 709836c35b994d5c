// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/cocobomp/witm-go/internal/auth"
	"github.com/cocobomp/witm-go/internal/middleware"
)

// fakeProvider maps tokens to principals; unknown tokens are invalid.
type fakeProvider struct {
	principals map[string]auth.Principal
}

func (p *fakeProvider) VerifyToken(_ context.Context, idToken string) (auth.Principal, error) {
	if principal, ok := p.principals[idToken]; ok {
		return principal, nil
	}
	return auth.Principal{}, auth.ErrInvalidToken
}

type authEnv struct {
	srv    *httptest.Server
	client *http.Client
}

func newAuthEnv(t *testing.T) *authEnv {
	t.Helper()

	provider := &fakeProvider{principals: map[string]auth.Principal{
		"good-token":     {Email: "admin@example.com", Name: "Admin"},
		"outsider-token": {Email: "stranger@example.com", Name: "Stranger"},
	}}
	allowlist := auth.NewAllowlist([]string{"admin@example.com"})
	protection := middleware.NewLoginProtection(middleware.DefaultLoginProtectionConfig())

	sm := scs.New()
	sm.Store = memstore.New()

	h := NewAuthHandler(sm, provider, allowlist, protection, nil)

	router := chi.NewRouter()
	router.Use(sm.LoadAndSave)
	router.Post("/admin/api/login", h.Login)
	router.Post("/admin/api/logout", h.Logout)
	router.With(middleware.Auth(sm)).Get("/admin/api/me", h.Me)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &authEnv{srv: srv, client: &http.Client{Jar: jar}}
}

func (e *authEnv) post(t *testing.T, path, body string) (int, map[string]json.RawMessage) {
	t.Helper()
	resp, err := e.client.Post(e.srv.URL+path, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var payload map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp.StatusCode, payload
}

func TestLoginSuccess(t *testing.T) {
	env := newAuthEnv(t)

	code, payload := env.post(t, "/admin/api/login", `{"id_token":"good-token"}`)
	require.Equal(t, http.StatusOK, code)

	var email string
	require.NoError(t, json.Unmarshal(payload["email"], &email))
	require.Equal(t, "admin@example.com", email)

	// The session now passes the auth middleware.
	resp, err := env.client.Get(env.srv.URL + "/admin/api/me")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginInvalidToken(t *testing.T) {
	env := newAuthEnv(t)

	code, _ := env.post(t, "/admin/api/login", `{"id_token":"bogus"}`)
	require.Equal(t, http.StatusUnauthorized, code)
}

func TestLoginNotAllowlisted(t *testing.T) {
	env := newAuthEnv(t)

	code, _ := env.post(t, "/admin/api/login", `{"id_token":"outsider-token"}`)
	require.Equal(t, http.StatusForbidden, code)
}

func TestLoginMissingToken(t *testing.T) {
	env := newAuthEnv(t)

	code, _ := env.post(t, "/admin/api/login", `{}`)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestLogoutEndsSession(t *testing.T) {
	env := newAuthEnv(t)

	code, _ := env.post(t, "/admin/api/login", `{"id_token":"good-token"}`)
	require.Equal(t, http.StatusOK, code)

	code, _ = env.post(t, "/admin/api/logout", "")
	require.Equal(t, http.StatusOK, code)

	resp, err := env.client.Get(env.srv.URL + "/admin/api/me")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMeWithoutSession(t *testing.T) {
	env := newAuthEnv(t)

	resp, err := env.client.Get(env.srv.URL + "/admin/api/me")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
