// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/cocobomp/witm-go/internal/draft"
	"github.com/cocobomp/witm-go/internal/store"
)

// Scheduler runs background housekeeping jobs.
type Scheduler struct {
	db             *sql.DB
	drafts         *draft.Registry
	cron           *cron.Cron
	logger         *slog.Logger
	draftIdle      time.Duration
	eventRetention time.Duration
}

// New creates a new scheduler instance.
func New(db *sql.DB, drafts *draft.Registry, draftIdle time.Duration, eventRetentionDays int, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		db:             db,
		drafts:         drafts,
		cron:           cron.New(),
		logger:         logger,
		draftIdle:      draftIdle,
		eventRetention: time.Duration(eventRetentionDays) * 24 * time.Hour,
	}
}

// Start registers the housekeeping jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	// Drop idle draft workspaces every 10 minutes
	_, err := s.cron.AddFunc("*/10 * * * *", func() {
		s.PurgeDrafts()
	})
	if err != nil {
		return err
	}

	// Trim old event log entries nightly
	_, err = s.cron.AddFunc("30 3 * * *", func() {
		if err := s.CleanupEvents(); err != nil {
			s.logger.Error("failed to clean up old events", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// PurgeDrafts drops draft workspaces that have been idle longer than the
// configured timeout. Unsaved changes in those workspaces are lost.
func (s *Scheduler) PurgeDrafts() {
	if s.drafts == nil {
		return
	}
	purged := s.drafts.Purge(s.draftIdle)
	if purged > 0 {
		s.logger.Info("purged idle draft workspaces", "count", purged, "remaining", s.drafts.Len())
	}
}

// CleanupEvents deletes event log entries older than the retention window.
func (s *Scheduler) CleanupEvents() error {
	ctx := context.Background()
	queries := store.New(s.db)

	cutoff := time.Now().Add(-s.eventRetention)
	deleted, err := queries.DeleteOldEvents(ctx, cutoff)
	if err != nil {
		return err
	}

	if deleted > 0 {
		s.logger.Info("cleaned up old events", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	}
	return nil
}
