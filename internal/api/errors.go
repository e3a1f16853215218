// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package api

import (
	"errors"
	"net/http"

	"github.com/cohabhq/cohab/internal/allocation"
	"github.com/cohabhq/cohab/internal/match"
	"github.com/cohabhq/cohab/internal/match/scorer"
	"github.com/cohabhq/cohab/internal/models"
	"github.com/cohabhq/cohab/internal/modelstore"
)

// errorResponse maps a domain error to its HTTP status and stable error
// code. Unrecognized errors are treated as persistence failures: the
// engines return sentinel errors for every expected condition, so
// anything else came from the store or a bug.
func errorResponse(err error) (status int, code string) {
	switch {
	case errors.Is(err, models.ErrProfileNotFound),
		errors.Is(err, models.ErrRoomNotFound),
		errors.Is(err, models.ErrNoActiveAssignment),
		errors.Is(err, modelstore.ErrModelBlobNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, match.ErrProfileNotEligible):
		return http.StatusUnprocessableEntity, "PROFILE_NOT_ELIGIBLE"
	case errors.Is(err, scorer.ErrTrainingDataInsufficient):
		return http.StatusUnprocessableEntity, "TRAINING_DATA_INSUFFICIENT"
	case errors.Is(err, match.ErrTrainingInProgress):
		return http.StatusConflict, "TRAINING_IN_PROGRESS"
	case errors.Is(err, match.ErrModelNotTrained):
		return http.StatusConflict, "MODEL_NOT_TRAINED"
	case errors.Is(err, allocation.ErrRunInProgress):
		return http.StatusConflict, "ALLOCATION_IN_PROGRESS"
	case errors.Is(err, allocation.ErrAlreadyAssigned):
		return http.StatusConflict, "ALREADY_ASSIGNED"
	case errors.Is(err, allocation.ErrInfeasible):
		return http.StatusConflict, "NO_FEASIBLE_ROOM"
	case errors.Is(err, allocation.ErrUnknownStrategy):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, allocation.ErrInvariantViolation):
		return http.StatusInternalServerError, "INVARIANT_VIOLATION"
	default:
		return http.StatusInternalServerError, "STORE_ERROR"
	}
}

// respondDomainError translates a domain error into the API envelope.
// Sentinel errors carry clean user-facing text; 5xx messages are replaced
// with a generic one so internals never leak to clients.
func respondDomainError(w http.ResponseWriter, err error) {
	status, code := errorResponse(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		message = "internal error"
	}
	respondError(w, status, code, message, err)
}
