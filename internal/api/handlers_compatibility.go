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

// matchLimitDefault is the candidate count returned when ?k is absent.
const matchLimitDefault = 10

// matchLimitMax caps ?k so one request cannot demand the whole ranking
// of a large population.
const matchLimitMax = 100

// CompatibilityPair scores one pair of users and returns the blended
// score with its three sub-scores and the explanation. The cached flag in
// the response metadata reports whether the score came from the pair
// cache rather than a fresh computation.
func (h *Handler) CompatibilityPair(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userA, err := pathInt(r, "userA")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	userB, err := pathInt(r, "userB")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	score, err := h.matcher.ScorePair(r.Context(), userA, userB)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   score,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			Cached:      score.Cached,
		},
	})
}

// MatchUser ranks every eligible profile against the user and returns the
// top K, best-first. Candidates whose profiles are missing or still
// pending an embedding are listed under skipped. K defaults to 10 and is
// clamped to [1, 100].
func (h *Handler) MatchUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, err := pathInt(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	k := getIntParam(r, "k", matchLimitDefault)
	if k < 1 {
		k = 1
	}
	if k > matchLimitMax {
		k = matchLimitMax
	}

	// A nil pool means the engine ranks against every eligible profile.
	result, err := h.matcher.RankCandidates(r.Context(), userID, nil, k)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, result, start)
}
