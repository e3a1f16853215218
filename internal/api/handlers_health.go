// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package api

import (
	"net/http"
	"time"

	"github.com/cohabhq/cohab/internal/models"
)

// version is reported by the health endpoint. Overridden at build time via
// -ldflags "-X github.com/cohabhq/cohab/internal/api.version=...".
var version = "dev"

// Health returns the full health report: database connectivity, model
// lifecycle state, and process uptime. The report is "degraded" when the
// database is unreachable. Model state never degrades health; a fresh
// deployment legitimately runs untrained until the first training call.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.store != nil && h.store.Ping(r.Context()) == nil

	modelState := "unavailable"
	modelVersion := 0
	if h.matcher != nil {
		ms := h.matcher.Status()
		modelState = ms.State
		modelVersion = ms.ModelVersion
	}

	status := "healthy"
	if !dbConnected {
		status = "degraded"
	}

	health := models.HealthStatus{
		Status:            status,
		Version:           version,
		DatabaseConnected: dbConnected,
		ModelState:        modelState,
		ModelVersion:      modelVersion,
		Uptime:            time.Since(h.startTime).Seconds(),
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   health,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthLive is the liveness probe. Returns 200 OK while the process is
// alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// HealthReady is the readiness probe. Returns 200 only when the service
// can handle traffic, meaning the database answers pings. Scoring
// readiness is intentionally excluded: profile CRUD and room listings
// work before any model is trained.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	dbConnected := h.store != nil && h.store.Ping(r.Context()) == nil
	ready := dbConnected

	statusCode := http.StatusOK
	status := "ready"
	if !ready {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	respondJSON(w, statusCode, &models.APIResponse{
		Status: status,
		Data: map[string]interface{}{
			"database_connected": dbConnected,
			"ready_to_serve":     ready,
			"uptime":             time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}
