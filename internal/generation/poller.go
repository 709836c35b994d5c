// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package generation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cocobomp/witm-go/internal/store"
)

// Poller tracks submitted batch jobs in the database and polls the
// provider at a fixed interval until each reaches a terminal state,
// then fetches its results once. The loop sleeps while no jobs are
// outstanding and a single job is never polled concurrently with
// itself.
type Poller struct {
	client   *Client
	queries  *store.Queries
	logger   *slog.Logger
	interval time.Duration

	mu       sync.Mutex
	inFlight map[string]bool

	wake   chan struct{}
	cancel context.CancelFunc
	done   chan struct{}
}

// NewPoller returns a poller over the given client and store.
func NewPoller(client *Client, queries *store.Queries, logger *slog.Logger, interval time.Duration) *Poller {
	return &Poller{
		client:   client,
		queries:  queries,
		logger:   logger,
		interval: interval,
		inFlight: make(map[string]bool),
		wake:     make(chan struct{}, 1),
	}
}

// Submit creates a batch job at the provider, records it, and wakes the
// polling loop.
func (p *Poller) Submit(ctx context.Context, category string, count int, createdBy string) (store.GenerationBatch, error) {
	handle, err := p.client.CreateBatch(ctx, category, count)
	if err != nil {
		return store.GenerationBatch{}, err
	}

	meta, _ := json.Marshal(map[string]any{"category": category, "count": count})
	id := uuid.NewString()
	err = p.queries.CreateGenerationBatch(ctx, store.CreateGenerationBatchParams{
		ID:          id,
		ProviderID:  handle.ID,
		Kind:        "generate",
		RequestMeta: string(meta),
		CreatedBy:   createdBy,
	})
	if err != nil {
		return store.GenerationBatch{}, fmt.Errorf("recording batch job: %w", err)
	}

	p.logger.Info("submitted generation batch",
		"id", id,
		"provider_id", handle.ID,
		"category", category,
		"count", count,
	)
	p.Wake()

	return p.queries.GetGenerationBatch(ctx, id)
}

// Wake nudges the polling loop out of its idle sleep.
func (p *Poller) Wake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Start launches the polling loop. Call Stop to shut it down.
func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.run(ctx)
}

// Stop cancels the loop and waits for it to exit.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}

func (p *Poller) run(ctx context.Context) {
	defer close(p.done)

	timer := time.NewTimer(p.interval)
	defer timer.Stop()

	for {
		open := p.pollOnce(ctx)

		if !open {
			// Nothing outstanding; sleep until the next Submit.
			select {
			case <-ctx.Done():
				return
			case <-p.wake:
				continue
			}
		}

		timer.Reset(p.interval)
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
		case <-timer.C:
		}
	}
}

// pollOnce polls every open job not already in flight and reports
// whether any jobs remain outstanding. Individual poll failures are
// logged and do not abort the loop.
func (p *Poller) pollOnce(ctx context.Context) bool {
	batches, err := p.queries.ListOpenGenerationBatches(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Error("listing open generation batches", "error", err)
		}
		return false
	}
	if len(batches) == 0 {
		return false
	}

	var wg sync.WaitGroup
	for _, batch := range batches {
		if !p.acquire(batch.ID) {
			continue
		}
		wg.Add(1)
		go func(batch store.GenerationBatch) {
			defer wg.Done()
			defer p.release(batch.ID)
			p.pollJob(ctx, batch)
		}(batch)
	}
	wg.Wait()
	return true
}

func (p *Poller) acquire(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[id] {
		return false
	}
	p.inFlight[id] = true
	return true
}

func (p *Poller) release(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, id)
}

func (p *Poller) pollJob(ctx context.Context, batch store.GenerationBatch) {
	handle, err := p.client.BatchStatus(ctx, batch.ProviderID)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("polling generation batch", "id", batch.ID, "error", err)
		}
		return
	}

	if !handle.Terminal() {
		if batch.Status == store.BatchStatusPending {
			if err := p.queries.UpdateGenerationBatchStatus(ctx, batch.ID, store.BatchStatusRunning); err != nil {
				p.logger.Warn("updating batch status", "id", batch.ID, "error", err)
			}
		}
		return
	}

	candidates, err := p.client.BatchResults(ctx, batch.ProviderID, p.logger)
	if err != nil {
		p.logger.Warn("fetching batch results", "id", batch.ID, "error", err)
		if ferr := p.queries.FailGenerationBatch(ctx, batch.ID, err.Error()); ferr != nil {
			p.logger.Error("marking batch failed", "id", batch.ID, "error", ferr)
		}
		return
	}

	result, err := json.Marshal(candidates)
	if err != nil {
		p.logger.Error("encoding batch results", "id", batch.ID, "error", err)
		return
	}
	if err := p.queries.CompleteGenerationBatch(ctx, batch.ID, string(result)); err != nil {
		p.logger.Error("marking batch completed", "id", batch.ID, "error", err)
		return
	}
	p.logger.Info("generation batch completed", "id", batch.ID, "questions", len(candidates))
}
