// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package blog serves the site's embedded markdown posts.
package blog

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

//go:embed posts/*.md
var postsFS embed.FS

// htmlSanitizer strips dangerous markup from rendered post HTML.
var htmlSanitizer = bluemonday.UGCPolicy()

// Post is a rendered blog post.
type Post struct {
	Slug    string    `json:"slug"`
	Title   string    `json:"title"`
	Date    time.Time `json:"date"`
	Excerpt string    `json:"excerpt"`
	Tags    []string  `json:"tags"`
	Author  string    `json:"author"`
	Lang    string    `json:"lang"`
	HTML    string    `json:"html,omitempty"`
}

// Library holds all parsed posts, newest first.
type Library struct {
	posts []Post
}

// Load parses and renders every embedded post. Malformed posts are
// skipped with a warning so one bad file cannot take down the site.
func Load(logger *slog.Logger) (*Library, error) {
	entries, err := postsFS.ReadDir("posts")
	if err != nil {
		return nil, fmt.Errorf("reading embedded posts: %w", err)
	}

	lib := &Library{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		raw, err := postsFS.ReadFile("posts/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("reading post %s: %w", entry.Name(), err)
		}

		post, err := parsePost(strings.TrimSuffix(entry.Name(), ".md"), raw)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping malformed blog post", "file", entry.Name(), "error", err)
			}
			continue
		}
		lib.posts = append(lib.posts, post)
	}

	sort.Slice(lib.posts, func(i, j int) bool {
		return lib.posts[i].Date.After(lib.posts[j].Date)
	})

	if logger != nil {
		logger.Info("blog loaded", "posts", len(lib.posts))
	}
	return lib, nil
}

// All returns the posts for a language, newest first, without bodies.
func (l *Library) All(lang string) []Post {
	result := make([]Post, 0, len(l.posts))
	for _, post := range l.posts {
		if post.Lang != lang {
			continue
		}
		summary := post
		summary.HTML = ""
		result = append(result, summary)
	}
	return result
}

// BySlug returns the post with the given slug, preferring the requested
// language but falling back to any language carrying that slug.
func (l *Library) BySlug(slug, lang string) (Post, bool) {
	var fallback *Post
	for i := range l.posts {
		post := &l.posts[i]
		if post.Slug != slug {
			continue
		}
		if post.Lang == lang {
			return *post, true
		}
		if fallback == nil {
			fallback = post
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return Post{}, false
}

// Len returns the total number of posts across all languages.
func (l *Library) Len() int { return len(l.posts) }

// parsePost splits frontmatter from body and renders the body to
// sanitized HTML.
func parsePost(slug string, raw []byte) (Post, error) {
	meta, body, err := splitFrontmatter(raw)
	if err != nil {
		return Post{}, err
	}

	post := Post{
		Slug:    slug,
		Title:   meta["title"],
		Excerpt: meta["excerpt"],
		Author:  meta["author"],
		Lang:    meta["lang"],
	}
	if post.Title == "" {
		return Post{}, fmt.Errorf("post %s has no title", slug)
	}
	if post.Lang == "" {
		post.Lang = "en"
	}

	if dateStr := meta["date"]; dateStr != "" {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return Post{}, fmt.Errorf("post %s has invalid date %q: %w", slug, dateStr, err)
		}
		post.Date = date
	}

	// Tags are written as a JSON array in the frontmatter
	if tagsStr := meta["tags"]; strings.HasPrefix(tagsStr, "[") {
		if err := json.Unmarshal([]byte(tagsStr), &post.Tags); err != nil {
			return Post{}, fmt.Errorf("post %s has invalid tags: %w", slug, err)
		}
	}

	var buf bytes.Buffer
	if err := goldmark.Convert(body, &buf); err != nil {
		return Post{}, fmt.Errorf("rendering post %s: %w", slug, err)
	}
	post.HTML = string(htmlSanitizer.SanitizeBytes(buf.Bytes()))

	return post, nil
}

// splitFrontmatter separates the leading --- delimited block from the
// markdown body. Values keep their surrounding quotes stripped.
func splitFrontmatter(raw []byte) (map[string]string, []byte, error) {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	if !strings.HasPrefix(text, "---\n") {
		return map[string]string{}, raw, nil
	}

	rest := text[len("---\n"):]
	end := strings.Index(rest, "\n---\n")
	if end < 0 {
		return nil, nil, fmt.Errorf("unterminated frontmatter")
	}

	meta := make(map[string]string)
	for _, line := range strings.Split(rest[:end], "\n") {
		colon := strings.Index(line, ":")
		if colon < 0 {
			continue
		}
		key := strings.TrimSpace(line[:colon])
		value := strings.TrimSpace(line[colon+1:])
		if len(value) >= 2 && (value[0] == '"' && value[len(value)-1] == '"' ||
			value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
		meta[key] = value
	}

	return meta, []byte(rest[end+len("\n---\n"):]), nil
}
