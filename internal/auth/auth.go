// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package auth verifies admin identities against an external identity
// provider and gates access with a static email allow-list.
package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidToken is returned when the identity provider rejects a
// token or the token carries no verified email.
var ErrInvalidToken = errors.New("auth: invalid identity token")

// Principal is a signed-in identity as reported by the provider.
type Principal struct {
	Email string
	Name  string
}

// Provider verifies an identity token and returns the principal it
// belongs to.
type Provider interface {
	VerifyToken(ctx context.Context, idToken string) (Principal, error)
}

// Allowlist is the set of admin email addresses permitted past
// sign-in. Membership is case-insensitive.
type Allowlist struct {
	emails map[string]struct{}
}

// NewAllowlist builds an allow-list from the configured addresses,
// ignoring empty entries.
func NewAllowlist(emails []string) *Allowlist {
	set := make(map[string]struct{}, len(emails))
	for _, email := range emails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		set[email] = struct{}{}
	}
	return &Allowlist{emails: set}
}

// Allows reports whether the email may access the admin surface.
func (a *Allowlist) Allows(email string) bool {
	_, ok := a.emails[strings.ToLower(strings.TrimSpace(email))]
	return ok
}

// Len returns the number of configured addresses.
func (a *Allowlist) Len() int { return len(a.emails) }
