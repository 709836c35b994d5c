// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package generation

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
)

// Candidate is one generated question with its translations.
type Candidate struct {
	FR string `json:"fr"`
	EN string `json:"en"`
	DE string `json:"de"`
}

// Primary returns the French text, the game's primary language.
func (c Candidate) Primary() string { return c.FR }

// Translations returns the candidate as a language-keyed map, omitting
// empty entries.
func (c Candidate) Translations() map[string]string {
	t := make(map[string]string, 3)
	for lang, text := range map[string]string{"fr": c.FR, "en": c.EN, "de": c.DE} {
		if text != "" {
			t[lang] = text
		}
	}
	return t
}

// parseCandidates extracts the JSON array from a model reply. The model
// is asked for a bare array but sometimes wraps it in prose, so we cut
// out the outermost bracketed span before decoding.
func parseCandidates(op, content string) ([]Candidate, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < start {
		return nil, &ParseError{Op: op, Raw: content, Err: errors.New("no JSON array found in response")}
	}

	var candidates []Candidate
	if err := json.Unmarshal([]byte(content[start:end+1]), &candidates); err != nil {
		return nil, &ParseError{Op: op, Raw: content, Err: err}
	}
	return candidates, nil
}

// parseTranslations extracts the JSON object from a model reply.
func parseTranslations(op, content string) (map[string]string, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end < start {
		return nil, &ParseError{Op: op, Raw: content, Err: errors.New("no JSON object found in response")}
	}

	var translations map[string]string
	if err := json.Unmarshal([]byte(content[start:end+1]), &translations); err != nil {
		return nil, &ParseError{Op: op, Raw: content, Err: err}
	}
	return translations, nil
}

// batchResultLine is one line of the provider's JSONL results stream.
type batchResultLine struct {
	CustomID string `json:"custom_id"`
	Result   struct {
		Type    string `json:"type"`
		Message struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"message"`
	} `json:"result"`
}

// parseBatchResults decodes the provider's JSONL results stream. A
// malformed or failed line is logged and skipped; the remaining lines
// are still processed.
func parseBatchResults(r io.Reader, logger *slog.Logger) ([]Candidate, error) {
	var all []Candidate

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var result batchResultLine
		if err := json.Unmarshal([]byte(line), &result); err != nil {
			logger.Warn("skipping malformed batch result line", "error", err, "raw", line)
			continue
		}
		if result.Result.Type != "succeeded" {
			logger.Warn("skipping unsuccessful batch result",
				"custom_id", result.CustomID,
				"type", result.Result.Type,
			)
			continue
		}

		content := ""
		for _, block := range result.Result.Message.Content {
			if block.Type == "text" {
				content = block.Text
				break
			}
		}

		candidates, err := parseCandidates("batch-results", content)
		if err != nil {
			logger.Warn("skipping unparsable batch result",
				"custom_id", result.CustomID,
				"error", err,
			)
			continue
		}
		all = append(all, candidates...)
	}
	return all, scanner.Err()
}
