// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cocobomp/witm-go/internal/version"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	db        *sql.DB
	startTime time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{
		db:        db,
		startTime: time.Now(),
	}
}

// Health returns overall service health including database reachability.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	info := version.Get()
	data := map[string]any{
		"status":  "ok",
		"version": info.Version,
		"commit":  info.GitCommit,
		"uptime":  time.Since(h.startTime).Round(time.Second).String(),
	}

	if err := h.db.PingContext(r.Context()); err != nil {
		data["status"] = "degraded"
		data["database"] = "unreachable"
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(data)
		return
	}
	data["database"] = "ok"

	writeJSONSuccess(w, data)
}

// Live is a trivial liveness probe.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSONSuccess(w, map[string]any{"status": "ok"})
}

// Ready reports whether the service can serve traffic.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		writeJSONError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSONSuccess(w, map[string]any{"status": "ready"})
}
