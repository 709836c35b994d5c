// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package generation talks to the Anthropic API to produce new
// party-game questions and translations, synchronously or through the
// message batches endpoint with background polling.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const (
	httpTimeout      = 120 * time.Second
	anthropicVersion = "2023-06-01"

	maxGenerationTokens  = 2000
	maxTranslationTokens = 500
)

// Batch processing statuses reported by the provider.
const (
	BatchInProgress = "in_progress"
	BatchCanceling  = "canceling"
	BatchEnded      = "ended"
)

// Client is a thin Anthropic API client covering the messages and
// message batches endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewClient returns a client for the given API base URL, key and model.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: httpTimeout},
	}
}

// BatchHandle identifies an asynchronous generation job at the provider.
type BatchHandle struct {
	ID               string     `json:"id"`
	ProcessingStatus string     `json:"processing_status"`
	CreatedAt        time.Time  `json:"created_at"`
	EndedAt          *time.Time `json:"ended_at"`
	ExpiresAt        time.Time  `json:"expires_at"`
}

// Terminal reports whether the handle reached a final state.
func (b BatchHandle) Terminal() bool {
	return b.ProcessingStatus == BatchEnded
}

// Generate produces count new questions for a category in one
// synchronous round trip.
func (c *Client) Generate(ctx context.Context, category string, count int) ([]Candidate, error) {
	body := map[string]any{
		"model":      c.model,
		"max_tokens": maxGenerationTokens,
		"messages": []map[string]string{
			{"role": "user", "content": generationPrompt(category, count)},
		},
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/messages", body)
	if err != nil {
		return nil, &Error{Op: "generate", Err: err}
	}

	content, err := decodeMessageText(respBody)
	if err != nil {
		return nil, &Error{Op: "generate", Err: err}
	}
	return parseCandidates("generate", content)
}

// Translate renders text into the target languages.
func (c *Client) Translate(ctx context.Context, text string, targetLanguages []string) (map[string]string, error) {
	body := map[string]any{
		"model":      c.model,
		"max_tokens": maxTranslationTokens,
		"messages": []map[string]string{
			{"role": "user", "content": translationPrompt(text, targetLanguages)},
		},
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/messages", body)
	if err != nil {
		return nil, &Error{Op: "translate", Err: err}
	}

	content, err := decodeMessageText(respBody)
	if err != nil {
		return nil, &Error{Op: "translate", Err: err}
	}
	return parseTranslations("translate", content)
}

// CreateBatch submits an asynchronous generation job and returns its
// handle for polling.
func (c *Client) CreateBatch(ctx context.Context, category string, count int) (BatchHandle, error) {
	body := map[string]any{
		"requests": []map[string]any{
			{
				"custom_id": fmt.Sprintf("generate_%d", time.Now().UnixMilli()),
				"params": map[string]any{
					"model":      c.model,
					"max_tokens": maxGenerationTokens,
					"messages": []map[string]string{
						{"role": "user", "content": generationPrompt(category, count)},
					},
				},
			},
		},
	}

	respBody, err := c.doRequest(ctx, http.MethodPost, "/messages/batches", body)
	if err != nil {
		return BatchHandle{}, &Error{Op: "batch-create", Err: err}
	}

	var handle BatchHandle
	if err := json.Unmarshal(respBody, &handle); err != nil {
		return BatchHandle{}, &Error{Op: "batch-create", Err: fmt.Errorf("decode: %w", err)}
	}
	return handle, nil
}

// BatchStatus fetches the current state of a job.
func (c *Client) BatchStatus(ctx context.Context, batchID string) (BatchHandle, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/messages/batches/"+batchID, nil)
	if err != nil {
		return BatchHandle{}, &Error{Op: "batch-status", Err: err}
	}

	var handle BatchHandle
	if err := json.Unmarshal(respBody, &handle); err != nil {
		return BatchHandle{}, &Error{Op: "batch-status", Err: fmt.Errorf("decode: %w", err)}
	}
	return handle, nil
}

// BatchResults fetches and decodes the JSONL results of an ended job.
func (c *Client) BatchResults(ctx context.Context, batchID string, logger *slog.Logger) ([]Candidate, error) {
	respBody, err := c.doRequest(ctx, http.MethodGet, "/messages/batches/"+batchID+"/results", nil)
	if err != nil {
		return nil, &Error{Op: "batch-results", Err: err}
	}
	return parseBatchResults(bytes.NewReader(respBody), logger)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

func decodeMessageText(respBody []byte) (string, error) {
	var result struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	for _, block := range result.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", nil
}
