// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cohabhq/cohab/internal/allocation"
	"github.com/cohabhq/cohab/internal/match"
	"github.com/cohabhq/cohab/internal/match/scorer"
	"github.com/cohabhq/cohab/internal/models"
	"github.com/cohabhq/cohab/internal/modelstore"
)

func TestErrorResponseMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"profile not found", models.ErrProfileNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"room not found", models.ErrRoomNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"no active assignment", models.ErrNoActiveAssignment, http.StatusNotFound, "NOT_FOUND"},
		{"model blob missing", modelstore.ErrModelBlobNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"profile not eligible", match.ErrProfileNotEligible, http.StatusUnprocessableEntity, "PROFILE_NOT_ELIGIBLE"},
		{"training data insufficient", scorer.ErrTrainingDataInsufficient, http.StatusUnprocessableEntity, "TRAINING_DATA_INSUFFICIENT"},
		{"training in progress", match.ErrTrainingInProgress, http.StatusConflict, "TRAINING_IN_PROGRESS"},
		{"model not trained", match.ErrModelNotTrained, http.StatusConflict, "MODEL_NOT_TRAINED"},
		{"allocation run in progress", allocation.ErrRunInProgress, http.StatusConflict, "ALLOCATION_IN_PROGRESS"},
		{"already assigned", allocation.ErrAlreadyAssigned, http.StatusConflict, "ALREADY_ASSIGNED"},
		{"no feasible room", allocation.ErrInfeasible, http.StatusConflict, "NO_FEASIBLE_ROOM"},
		{"unknown strategy", allocation.ErrUnknownStrategy, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"invariant violation", allocation.ErrInvariantViolation, http.StatusInternalServerError, "INVARIANT_VIOLATION"},
		{"unclassified error", errors.New("disk on fire"), http.StatusInternalServerError, "STORE_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, code := errorResponse(tt.err)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

// Sentinels arrive wrapped with call-site context; classification must
// see through the wrapping.
func TestErrorResponseUnwrapsChains(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "single wrap",
			err:      fmt.Errorf("user 7: %w", models.ErrProfileNotFound),
			wantCode: "NOT_FOUND",
		},
		{
			name:     "double wrap",
			err:      fmt.Errorf("rank candidates: %w", fmt.Errorf("user 7: %w", match.ErrProfileNotEligible)),
			wantCode: "PROFILE_NOT_ELIGIBLE",
		},
		{
			name:     "wrapped store sentinel",
			err:      fmt.Errorf("load latent model: %w", modelstore.ErrModelBlobNotFound),
			wantCode: "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, code := errorResponse(tt.err)
			if code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
		})
	}
}

func TestRespondDomainErrorScrubsInternalMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	respondDomainError(rec, errors.New("dial tcp 10.0.0.3:9000: connection refused"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil {
		t.Fatal("expected error payload")
	}
	if env.Error.Message != "internal error" {
		t.Errorf("5xx messages must not leak internals, got %q", env.Error.Message)
	}
}

func TestRespondDomainErrorKeepsClientMessages(t *testing.T) {
	rec := httptest.NewRecorder()
	err := fmt.Errorf("user 8: %w", allocation.ErrAlreadyAssigned)
	respondDomainError(rec, err)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil {
		t.Fatal("expected error payload")
	}
	// 4xx messages carry the real error so clients can act on it.
	if env.Error.Message != err.Error() {
		t.Errorf("expected %q, got %q", err.Error(), env.Error.Message)
	}
}
