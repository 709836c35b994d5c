// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/cocobomp/witm-go/internal/blog"
	"github.com/cocobomp/witm-go/internal/cache"
	"github.com/cocobomp/witm-go/internal/i18n"
	"github.com/cocobomp/witm-go/internal/middleware"
	"github.com/cocobomp/witm-go/internal/model"
	"github.com/cocobomp/witm-go/internal/store"
)

func TestMain(m *testing.M) {
	if err := i18n.Init(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestHandler(t *testing.T) (*Handler, *store.Queries) {
	t.Helper()

	db, err := store.NewDB(filepath.Join(t.TempDir(), "api_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, store.Migrate(db))

	ctx := context.Background()
	queries := store.New(db)

	require.NoError(t, queries.UpsertCategory(ctx, store.UpsertCategoryParams{
		ID: "friends", Title: "Entre amis", Icon: "🍻", SortOrder: 1,
	}))
	require.NoError(t, queries.UpsertCategory(ctx, store.UpsertCategoryParams{
		ID: "family", Title: "En famille", Icon: "👪", SortOrder: 2,
	}))

	now := time.Now().UTC()
	fixtures := []store.CreateQuestionParams{
		{
			ID:   "q-1",
			Text: "Qui est le plus susceptible de rater son réveil ?",
			Translations: map[string]string{
				"fr": "Qui est le plus susceptible de rater son réveil ?",
				"en": "Who is most likely to oversleep?",
			},
			CategoryID: "friends",
			Likes:      3,
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		{
			ID:   "q-2",
			Text: "Qui est le plus susceptible de tout organiser ?",
			Translations: map[string]string{
				"fr": "Qui est le plus susceptible de tout organiser ?",
			},
			CategoryID: "family",
			CreatedAt:  now,
			UpdatedAt:  now,
		},
	}
	for _, f := range fixtures {
		require.NoError(t, queries.CreateQuestion(ctx, f))
	}

	mem := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = mem.Close() })
	qcache := cache.NewQuestionCache(mem, queries, time.Minute)

	posts, err := blog.Load(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	require.NoError(t, err)

	return NewHandler(qcache, queries, posts), queries
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NoError(t, json.Unmarshal(resp.Data, dst))
}

func TestStatus(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status StatusResponse
	decodeData(t, rec, &status)
	require.Equal(t, "ok", status.Status)
	require.Equal(t, "v1", status.Version)
}

func TestCategories(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Categories(rec, httptest.NewRequest(http.MethodGet, "/api/v1/categories", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var categories []model.Category
	decodeData(t, rec, &categories)
	require.Len(t, categories, 2)
	require.Equal(t, "friends", categories[0].ID)
}

func TestQuestionsUsesRequestLanguage(t *testing.T) {
	h, _ := newTestHandler(t)

	router := chi.NewRouter()
	router.Use(middleware.Language())
	router.Get("/api/v1/questions", h.Questions)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/questions?lang=en", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var questions []cache.PublicQuestion
	decodeData(t, rec, &questions)
	require.Len(t, questions, 2)

	byID := map[string]cache.PublicQuestion{}
	for _, q := range questions {
		byID[q.ID] = q
	}
	require.Equal(t, "Who is most likely to oversleep?", byID["q-1"].Text)
	// No English translation, falls back to the primary text.
	require.Equal(t, "Qui est le plus susceptible de tout organiser ?", byID["q-2"].Text)
}

func TestQuestionsCategoryFilter(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Questions(rec, httptest.NewRequest(http.MethodGet, "/api/v1/questions?category=family", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var questions []cache.PublicQuestion
	decodeData(t, rec, &questions)
	require.Len(t, questions, 1)
	require.Equal(t, "q-2", questions[0].ID)
}

func TestSample(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Sample(rec, httptest.NewRequest(http.MethodGet, "/api/v1/questions/sample?count=1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var questions []cache.PublicQuestion
	decodeData(t, rec, &questions)
	require.Len(t, questions, 1)
}

func TestSampleRejectsBadCount(t *testing.T) {
	h, _ := newTestHandler(t)

	for _, raw := range []string{"0", "-3", "abc"} {
		rec := httptest.NewRecorder()
		h.Sample(rec, httptest.NewRequest(http.MethodGet, "/api/v1/questions/sample?count="+raw, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, "count=%s", raw)
	}
}

func newVoteRequest(t *testing.T, id, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/questions/"+id+"/vote", strings.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestVote(t *testing.T) {
	h, queries := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Vote(rec, newVoteRequest(t, "q-1", `{"vote":"like"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	q, err := queries.GetQuestion(context.Background(), "q-1")
	require.NoError(t, err)
	require.Equal(t, int64(4), q.Likes)
	require.Equal(t, int64(0), q.Dislikes)
}

func TestVoteValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name string
		id   string
		body string
		want int
	}{
		{"unknown question", "q-missing", `{"vote":"like"}`, http.StatusNotFound},
		{"draft id", model.NewDraftID().String(), `{"vote":"like"}`, http.StatusBadRequest},
		{"bad vote value", "q-1", `{"vote":"maybe"}`, http.StatusBadRequest},
		{"bad body", "q-1", `not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Vote(rec, newVoteRequest(t, tt.id, tt.body))
			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestBlogList(t *testing.T) {
	h, _ := newTestHandler(t)

	router := chi.NewRouter()
	router.Use(middleware.Language())
	router.Get("/api/v1/blog", h.Blog)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/blog?lang=fr", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var posts []blog.Post
	decodeData(t, rec, &posts)
	require.NotEmpty(t, posts)
	for _, p := range posts {
		require.Equal(t, "fr", p.Lang)
		require.Empty(t, p.HTML)
	}
}

func TestBlogPost(t *testing.T) {
	h, _ := newTestHandler(t)

	router := chi.NewRouter()
	router.Use(middleware.Language())
	router.Get("/api/v1/blog/{slug}", h.BlogPost)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/blog/bienvenue?lang=fr", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var post blog.Post
	decodeData(t, rec, &post)
	require.Equal(t, "bienvenue", post.Slug)
	require.NotEmpty(t, post.HTML)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/blog/no-such-post", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStrings(t *testing.T) {
	h, _ := newTestHandler(t)

	router := chi.NewRouter()
	router.Get("/api/v1/strings/{lang}", h.Strings)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/strings/de", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var messages map[string]string
	decodeData(t, rec, &messages)
	require.NotEmpty(t, messages)
	require.Contains(t, messages, "site.title")

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/strings/pt", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
