// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package api

import (
	"net/http"
	"time"
)

// PreprocessBatch embeds every profile still waiting on an embedding.
// Partial failure is a normal outcome (the embedding endpoint may be
// flaky), so the response always reports both counts and the run as a
// whole succeeds as long as the pending set could be listed.
func (h *Handler) PreprocessBatch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	processed, failed, err := h.preprocessor.PreprocessAll(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, map[string]interface{}{
		"processed": processed,
		"failed":    failed,
	}, start)
}

// PreprocessUser re-embeds a single profile, whether or not it already
// has an embedding. Used after profile edits to refresh the vector
// without waiting for the background worker.
func (h *Handler) PreprocessUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, err := pathInt(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	if err := h.preprocessor.PreprocessUser(r.Context(), userID); err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, map[string]interface{}{
		"user_id":  userID,
		"embedded": true,
	}, start)
}

// PreprocessStats reports embedding coverage: total profiles, how many
// are scoring-eligible, and how many still wait on an embedding.
func (h *Handler) PreprocessStats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	stats, err := h.preprocessor.Stats(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, stats, start)
}
