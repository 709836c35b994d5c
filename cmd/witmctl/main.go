// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// witmctl runs one-off maintenance tasks against the witm database.
//
// Usage: witmctl <task> [options]
//
// Tasks:
//
//	seed     load the default categories and starter questions
//	count    print per-category question totals
//	patch    delete listed questions and insert replacements from a JSON file
//	balance  trim oversized categories, dropping the worst-rated questions
//
// Every task accepts --dry-run: all reads and computations run, writes
// are suppressed, and the same summary is printed.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/cocobomp/witm-go/internal/store"
)

const defaultDBPath = "./data/witm.db"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, "Usage: %s <task> [options]\n\n", os.Args[0])
	_, _ = fmt.Fprintf(os.Stderr, "Tasks:\n")
	_, _ = fmt.Fprintf(os.Stderr, "  seed      Load default categories and starter questions\n")
	_, _ = fmt.Fprintf(os.Stderr, "  count     Print per-category question totals\n")
	_, _ = fmt.Fprintf(os.Stderr, "  patch     Apply a question patch file (--file required)\n")
	_, _ = fmt.Fprintf(os.Stderr, "  balance   Trim categories to a target size (--target)\n")
	_, _ = fmt.Fprintf(os.Stderr, "\nAll tasks accept --dry-run and --db <path>.\n")
}

func run(task string, args []string) error {
	_ = godotenv.Load()

	fs := flag.NewFlagSet(task, flag.ExitOnError)
	dryRun := fs.Bool("dry-run", false, "Compute and report without writing")
	dbPath := fs.String("db", envOr("WITM_DB_PATH", defaultDBPath), "SQLite database path")
	patchFile := fs.String("file", "", "Patch file (patch task)")
	target := fs.Int("target", 100, "Questions to keep per category (balance task)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// Keep CLI output on stderr so summaries on stdout stay scriptable.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	db, err := store.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch task {
	case "seed":
		return runSeed(ctx, db, *dryRun)
	case "count":
		return runCount(ctx, db)
	case "patch":
		return runPatch(ctx, db, *patchFile, *dryRun)
	case "balance":
		return runBalance(ctx, db, *target, *dryRun)
	default:
		usage()
		return fmt.Errorf("unknown task %q", task)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func runSeed(ctx context.Context, db *sql.DB, dryRun bool) error {
	var existing int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&existing); err != nil {
		return fmt.Errorf("counting questions: %w", err)
	}

	suffix := ""
	if dryRun {
		suffix = " (dry run)"
	}

	// Seed is a no-op on a populated database.
	if existing > 0 {
		fmt.Printf("seed: 0 categories, 0 questions inserted, %d questions already present%s\n", existing, suffix)
		return nil
	}

	categories, questions := store.SeedCounts()
	if !dryRun {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding: %w", err)
		}
	}
	fmt.Printf("seed: %d categories, %d questions inserted, 0 questions already present%s\n", categories, questions, suffix)
	return nil
}

func runCount(ctx context.Context, db *sql.DB) error {
	queries := store.New(db)

	counts, err := queries.CountQuestionsByCategory(ctx)
	if err != nil {
		return fmt.Errorf("counting questions: %w", err)
	}

	categories, err := queries.ListCategories(ctx)
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}

	var total int64
	for _, cat := range categories {
		fmt.Printf("%-12s %d\n", cat.ID, counts[cat.ID])
		total += counts[cat.ID]
	}
	fmt.Printf("%-12s %d\n", "total", total)
	return nil
}

// patchDocument is the wire form of a question patch: texts to delete and
// replacement questions to insert.
type patchDocument struct {
	Delete []string `json:"delete"`
	Insert []struct {
		Text         string            `json:"text"`
		Translations map[string]string `json:"translations"`
		Category     string            `json:"category"`
	} `json:"insert"`
}

func runPatch(ctx context.Context, db *sql.DB, file string, dryRun bool) error {
	if file == "" {
		return fmt.Errorf("patch requires --file")
	}

	raw, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("reading patch file: %w", err)
	}
	var doc patchDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("parsing patch file: %w", err)
	}

	queries := store.New(db)
	questions, err := queries.ListQuestions(ctx)
	if err != nil {
		return fmt.Errorf("listing questions: %w", err)
	}

	byText := make(map[string]string, len(questions))
	for _, q := range questions {
		byText[q.Text] = q.ID.Key()
	}

	now := time.Now().UTC()
	deleted, missing := 0, 0
	for _, text := range doc.Delete {
		id, ok := byText[text]
		if !ok {
			slog.Warn("patch: question not found", "text", text)
			missing++
			continue
		}
		if !dryRun {
			if err := queries.SoftDeleteQuestion(ctx, id, now); err != nil {
				return fmt.Errorf("deleting %q: %w", text, err)
			}
		}
		deleted++
	}

	inserted := 0
	for _, ins := range doc.Insert {
		if ins.Text == "" {
			slog.Warn("patch: skipping insert with empty text")
			continue
		}
		if !dryRun {
			if err := queries.CreateQuestion(ctx, store.CreateQuestionParams{
				ID:           uuid.NewString(),
				Text:         ins.Text,
				Translations: ins.Translations,
				CategoryID:   ins.Category,
				CreatedAt:    now,
				UpdatedAt:    now,
			}); err != nil {
				return fmt.Errorf("inserting %q: %w", ins.Text, err)
			}
		}
		inserted++
	}

	suffix := ""
	if dryRun {
		suffix = " (dry run)"
	}
	fmt.Printf("patch: %d deleted, %d inserted, %d not found%s\n", deleted, inserted, missing, suffix)
	return nil
}

func runBalance(ctx context.Context, db *sql.DB, target int, dryRun bool) error {
	if target < 1 {
		return fmt.Errorf("balance target must be positive, got %d", target)
	}

	queries := store.New(db)
	questions, err := queries.ListActiveQuestions(ctx)
	if err != nil {
		return fmt.Errorf("listing questions: %w", err)
	}

	byCategory := make(map[string][]balanceEntry)
	for _, q := range questions {
		byCategory[q.CategoryID] = append(byCategory[q.CategoryID], balanceEntry{
			id:    q.ID.Key(),
			text:  q.Text,
			ratio: dislikeRatio(q.Likes, q.Dislikes),
		})
	}

	now := time.Now().UTC()
	trimmed := 0
	for category, entries := range byCategory {
		excess := len(entries) - target
		if excess <= 0 {
			continue
		}

		// Worst dislike ratio goes first.
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].ratio > entries[j].ratio
		})

		for _, entry := range entries[:excess] {
			slog.Info("balance: trimming question",
				"category", category, "text", entry.text, "ratio", fmt.Sprintf("%.2f", entry.ratio))
			if !dryRun {
				if err := queries.SoftDeleteQuestion(ctx, entry.id, now); err != nil {
					return fmt.Errorf("trimming %q: %w", entry.text, err)
				}
			}
			trimmed++
		}
	}

	suffix := ""
	if dryRun {
		suffix = " (dry run)"
	}
	fmt.Printf("balance: %d trimmed across %d categories, target %d%s\n", trimmed, len(byCategory), target, suffix)
	return nil
}

type balanceEntry struct {
	id    string
	text  string
	ratio float64
}

// dislikeRatio ranks questions for trimming. Unvoted questions rank
// neutral rather than best or worst.
func dislikeRatio(likes, dislikes int64) float64 {
	total := likes + dislikes
	if total == 0 {
		return 0.5
	}
	return float64(dislikes) / float64(total)
}
