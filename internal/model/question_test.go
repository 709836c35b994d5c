// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionClone_Independent(t *testing.T) {
	deletedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	q := Question{
		ID:           PersistedID("q1"),
		Text:         "Qui est le plus susceptible de rater son réveil ?",
		Translations: map[string]string{"en": "Who is most likely to oversleep?", "de": "Wer verschläft am ehesten?"},
		CategoryID:   "cat-classic",
		IsDeleted:    true,
		DeletedAt:    &deletedAt,
	}

	clone := q.Clone()
	clone.Translations["en"] = "changed"
	*clone.DeletedAt = clone.DeletedAt.Add(time.Hour)

	assert.Equal(t, "Who is most likely to oversleep?", q.Translations["en"])
	assert.Equal(t, deletedAt, *q.DeletedAt)
}

func TestQuestionPatch_Apply(t *testing.T) {
	q := Question{
		Text:         "original",
		Translations: map[string]string{"en": "one", "de": "zwei"},
		CategoryID:   "cat-a",
	}

	newText := "updated"
	newCat := "cat-b"
	patch := QuestionPatch{
		Text:         &newText,
		CategoryID:   &newCat,
		Translations: map[string]string{"en": "new one"},
	}
	patch.Apply(&q)

	assert.Equal(t, "updated", q.Text)
	assert.Equal(t, "cat-b", q.CategoryID)
	assert.Equal(t, "new one", q.Translations["en"])
	// untouched language survives a partial translations patch
	assert.Equal(t, "zwei", q.Translations["de"])
}

func TestQuestionPatch_NilFieldsUntouched(t *testing.T) {
	q := Question{Text: "keep", CategoryID: "cat-a"}
	QuestionPatch{}.Apply(&q)
	assert.Equal(t, "keep", q.Text)
	assert.Equal(t, "cat-a", q.CategoryID)
}

func TestQuestionID_RoundTrip(t *testing.T) {
	persisted := ParseQuestionID("abc-123")
	assert.False(t, persisted.IsDraft())
	assert.Equal(t, "abc-123", persisted.String())

	draft := NewDraftID()
	require.True(t, draft.IsDraft())

	reparsed := ParseQuestionID(draft.String())
	assert.True(t, reparsed.IsDraft())
	assert.Equal(t, draft.Key(), reparsed.Key())
	assert.Equal(t, draft, reparsed)
}

func TestNewDraftID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewDraftID()
		require.False(t, seen[id.Key()], "draft id collision")
		seen[id.Key()] = true
	}
}

func TestTranslationFor_Fallback(t *testing.T) {
	q := Question{Text: "fr text", Translations: map[string]string{"en": "en text"}}
	assert.Equal(t, "en text", q.TranslationFor("en"))
	assert.Equal(t, "fr text", q.TranslationFor("de"))
}
