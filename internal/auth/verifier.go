// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const verifyTimeout = 10 * time.Second

// TokenVerifier checks identity tokens against a tokeninfo-style
// endpoint (Google's by default). The endpoint echoes the token's
// claims when the token is valid and returns a 4xx otherwise.
type TokenVerifier struct {
	endpoint   string
	httpClient *http.Client
}

// NewTokenVerifier returns a verifier for the given tokeninfo endpoint.
func NewTokenVerifier(endpoint string) *TokenVerifier {
	return &TokenVerifier{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: verifyTimeout},
	}
}

// VerifyToken implements Provider.
func (v *TokenVerifier) VerifyToken(ctx context.Context, idToken string) (Principal, error) {
	u, err := url.Parse(v.endpoint)
	if err != nil {
		return Principal{}, fmt.Errorf("parsing tokeninfo endpoint: %w", err)
	}
	q := u.Query()
	q.Set("id_token", idToken)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Principal{}, fmt.Errorf("new request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return Principal{}, fmt.Errorf("verifying token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return Principal{}, ErrInvalidToken
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return Principal{}, fmt.Errorf("tokeninfo error (status %d): %s", resp.StatusCode, string(body))
	}

	var claims struct {
		Email         string `json:"email"`
		EmailVerified string `json:"email_verified"`
		Name          string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&claims); err != nil {
		return Principal{}, fmt.Errorf("decoding tokeninfo response: %w", err)
	}

	if claims.Email == "" || claims.EmailVerified != "true" {
		return Principal{}, ErrInvalidToken
	}

	return Principal{Email: claims.Email, Name: claims.Name}, nil
}
