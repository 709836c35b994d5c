// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain models and types used throughout the
// application including Question, Category, and event structures.
package model

import "time"

// Language codes for question content. French is the primary language;
// every question carries translations for all supported languages.
const (
	LangFrench  = "fr"
	LangEnglish = "en"
	LangGerman  = "de"
)

// SupportedLanguages lists the languages a question is translated into.
var SupportedLanguages = []string{LangFrench, LangEnglish, LangGerman}

// Question represents a single party-game question.
type Question struct {
	ID           QuestionID        `json:"id"`
	Text         string            `json:"text"` // primary-language (French) content
	Translations map[string]string `json:"translations"`
	CategoryID   string            `json:"categoryId"`
	Likes        int64             `json:"likes"`    // owned by external voting, read-only here
	Dislikes     int64             `json:"dislikes"` // owned by external voting, read-only here
	IsDeleted    bool              `json:"isDeleted"`
	DeletedAt    *time.Time        `json:"deletedAt,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// Clone returns a deep copy of the question. The translations map is
// copied so edits to the clone never leak into the original.
func (q Question) Clone() Question {
	clone := q
	if q.Translations != nil {
		clone.Translations = make(map[string]string, len(q.Translations))
		for lang, text := range q.Translations {
			clone.Translations[lang] = text
		}
	}
	if q.DeletedAt != nil {
		deletedAt := *q.DeletedAt
		clone.DeletedAt = &deletedAt
	}
	return clone
}

// TranslationFor returns the question text in the given language,
// falling back to the primary text when no translation exists.
func (q Question) TranslationFor(lang string) string {
	if text, ok := q.Translations[lang]; ok && text != "" {
		return text
	}
	return q.Text
}

// QuestionPatch carries the editable fields of a question. Nil fields
// are left untouched when the patch is applied.
type QuestionPatch struct {
	Text         *string           `json:"text,omitempty"`
	Translations map[string]string `json:"translations,omitempty"`
	CategoryID   *string           `json:"categoryId,omitempty"`
}

// Apply merges the patch into q. Translations are merged per language
// rather than replaced wholesale, so patching one language preserves
// the others.
func (p QuestionPatch) Apply(q *Question) {
	if p.Text != nil {
		q.Text = *p.Text
	}
	if p.CategoryID != nil {
		q.CategoryID = *p.CategoryID
	}
	if p.Translations != nil {
		if q.Translations == nil {
			q.Translations = make(map[string]string, len(p.Translations))
		}
		for lang, text := range p.Translations {
			q.Translations[lang] = text
		}
	}
}

// Category is read-only reference data for grouping questions.
type Category struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
}
