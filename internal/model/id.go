// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strings"

	"github.com/google/uuid"
)

// draftIDPrefix is the wire prefix marking a locally created, not yet
// persisted question. Store-assigned ids are bare uuids and can never
// carry this prefix, so the two id spaces cannot collide.
const draftIDPrefix = "draft:"

// QuestionID identifies a question either by its store-assigned id or
// by a session-local draft id. The zero value is invalid.
type QuestionID struct {
	value string
	draft bool
}

// PersistedID wraps a store-assigned question id.
func PersistedID(id string) QuestionID {
	return QuestionID{value: id}
}

// NewDraftID allocates a fresh draft id, unique within the session.
func NewDraftID() QuestionID {
	return QuestionID{value: uuid.NewString(), draft: true}
}

// ParseQuestionID parses a wire-format id. Ids carrying the draft
// prefix parse as draft ids; everything else is treated as persisted.
func ParseQuestionID(s string) QuestionID {
	if rest, ok := strings.CutPrefix(s, draftIDPrefix); ok {
		return QuestionID{value: rest, draft: true}
	}
	return QuestionID{value: s}
}

// IsDraft reports whether the id refers to an uncommitted draft.
func (id QuestionID) IsDraft() bool { return id.draft }

// IsZero reports whether the id is empty.
func (id QuestionID) IsZero() bool { return id.value == "" }

// Key returns the raw id without the draft prefix, suitable as a map key
// within a single id space.
func (id QuestionID) Key() string { return id.value }

// String returns the wire representation of the id.
func (id QuestionID) String() string {
	if id.draft {
		return draftIDPrefix + id.value
	}
	return id.value
}

// MarshalText implements encoding.TextMarshaler.
func (id QuestionID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *QuestionID) UnmarshalText(b []byte) error {
	*id = ParseQuestionID(string(b))
	return nil
}
