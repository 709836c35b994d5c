// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package draft

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cocobomp/witm-go/internal/model"
)

func TestRegistryIsolatesSessions(t *testing.T) {
	r := NewRegistry(&fakeBackend{})

	a := r.Get("session-a")
	b := r.Get("session-b")
	assert.NotSame(t, a, b)
	assert.Same(t, a, r.Get("session-a"))

	a.Create(model.QuestionPatch{Text: strPtr("draft")})
	assert.Equal(t, 1, a.UnsavedCount())
	assert.Equal(t, 0, b.UnsavedCount())
}

func TestRegistryDrop(t *testing.T) {
	r := NewRegistry(&fakeBackend{})

	a := r.Get("session-a")
	a.Create(model.QuestionPatch{Text: strPtr("draft")})
	r.Drop("session-a")

	assert.Equal(t, 0, r.Get("session-a").UnsavedCount())
}

func TestRegistryPurge(t *testing.T) {
	r := NewRegistry(&fakeBackend{})

	r.Get("stale")
	r.stores["stale"].lastUsed = time.Now().Add(-2 * time.Hour)
	r.Get("fresh")

	removed := r.Purge(time.Hour)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, r.Len())
}
