// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cocobomp/witm-go/internal/model"
	"github.com/cocobomp/witm-go/internal/store"
)

const (
	questionKeyPrefix = "questions:"
	categoriesKey     = "categories"
)

// QuestionCache serves the public game API from cache, falling back to
// the store on a miss. Admin commits call Invalidate so players see
// fresh questions on the next fetch.
type QuestionCache struct {
	cache   Cacher
	queries *store.Queries
	ttl     time.Duration
}

// PublicQuestion is the player-facing shape of a question.
type PublicQuestion struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	CategoryID string `json:"categoryId"`
	Likes      int64  `json:"likes"`
	Dislikes   int64  `json:"dislikes"`
}

// NewQuestionCache creates a question cache over the given backend.
func NewQuestionCache(cacher Cacher, queries *store.Queries, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		cache:   cacher,
		queries: queries,
		ttl:     ttl,
	}
}

// Questions returns all active questions rendered in the given language.
func (c *QuestionCache) Questions(ctx context.Context, lang string) ([]PublicQuestion, error) {
	key := questionKeyPrefix + lang

	if cached, err := c.cache.Get(ctx, key); err == nil {
		var questions []PublicQuestion
		if err := json.Unmarshal(cached, &questions); err == nil {
			return questions, nil
		}
		// Corrupt entry, fall through to a reload.
		_ = c.cache.Delete(ctx, key)
	}

	active, err := c.queries.ListActiveQuestions(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading questions: %w", err)
	}

	questions := make([]PublicQuestion, 0, len(active))
	for _, q := range active {
		questions = append(questions, PublicQuestion{
			ID:         q.ID.Key(),
			Text:       q.TranslationFor(lang),
			CategoryID: q.CategoryID,
			Likes:      q.Likes,
			Dislikes:   q.Dislikes,
		})
	}

	if encoded, err := json.Marshal(questions); err == nil {
		_ = c.cache.Set(ctx, key, encoded, c.ttl)
	}
	return questions, nil
}

// Categories returns all categories in display order.
func (c *QuestionCache) Categories(ctx context.Context) ([]model.Category, error) {
	if cached, err := c.cache.Get(ctx, categoriesKey); err == nil {
		var categories []model.Category
		if err := json.Unmarshal(cached, &categories); err == nil {
			return categories, nil
		}
		_ = c.cache.Delete(ctx, categoriesKey)
	}

	categories, err := c.queries.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading categories: %w", err)
	}

	if encoded, err := json.Marshal(categories); err == nil {
		_ = c.cache.Set(ctx, categoriesKey, encoded, c.ttl)
	}
	return categories, nil
}

// Invalidate drops every cached question payload. Called after a
// successful admin commit or vote.
func (c *QuestionCache) Invalidate(ctx context.Context) {
	_ = c.cache.DeleteByPrefix(ctx, questionKeyPrefix)
	_ = c.cache.Delete(ctx, categoriesKey)
}
