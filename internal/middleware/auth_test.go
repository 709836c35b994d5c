// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"

	"github.com/cocobomp/witm-go/internal/session"
)

func newTestSessionManager() *scs.SessionManager {
	sm := scs.New()
	sm.Cookie.Secure = false
	return sm
}

func TestAuthRejectsAnonymous(t *testing.T) {
	sm := newTestSessionManager()
	handler := sm.LoadAndSave(Auth(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not run for anonymous request")
	})))

	req := httptest.NewRequest("GET", "/admin/api/questions", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAuthPassesPrincipal(t *testing.T) {
	sm := newTestSessionManager()

	mux := http.NewServeMux()
	mux.Handle("/login", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sm.Put(r.Context(), session.KeyEmail, "admin@example.com")
		sm.Put(r.Context(), session.KeyName, "Admin")
		w.WriteHeader(http.StatusOK)
	}))

	var gotEmail, gotName string
	mux.Handle("/admin/api/state", Auth(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := GetPrincipal(r)
		if p != nil {
			gotEmail = p.Email
			gotName = p.Name
		}
		w.WriteHeader(http.StatusOK)
	})))

	srv := httptest.NewServer(sm.LoadAndSave(mux))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/login")
	if err != nil {
		t.Fatalf("login request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	cookies := resp.Cookies()
	if len(cookies) == 0 {
		t.Fatal("login did not set a session cookie")
	}

	req, _ := http.NewRequest("GET", srv.URL+"/admin/api/state", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp2, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authenticated request failed: %v", err)
	}
	defer func() { _ = resp2.Body.Close() }()

	if resp2.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp2.StatusCode)
	}
	if gotEmail != "admin@example.com" {
		t.Errorf("principal email = %q, want admin@example.com", gotEmail)
	}
	if gotName != "Admin" {
		t.Errorf("principal name = %q, want Admin", gotName)
	}
}

func TestGetPrincipalWithoutContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if GetPrincipal(req) != nil {
		t.Error("GetPrincipal on bare request should return nil")
	}
	if GetPrincipalEmail(req) != "" {
		t.Error("GetPrincipalEmail on bare request should be empty")
	}
}

func TestRequestPath(t *testing.T) {
	var got string
	handler := RequestPath(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetRequestPath(r.Context())
	}))

	req := httptest.NewRequest("GET", "/admin/api/questions", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "/admin/api/questions" {
		t.Errorf("request path = %q", got)
	}
}
