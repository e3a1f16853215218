// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cohabhq/cohab/internal/logging"
	"github.com/cohabhq/cohab/internal/match"
	"github.com/cohabhq/cohab/internal/match/scorer"
	"github.com/cohabhq/cohab/internal/models"
)

// ModelsTrain starts a training run. The population gate is checked
// synchronously so an undersized dataset fails fast with 422; the run
// itself happens in the background and the client polls /models/status.
// Returns 409 if a run is already in flight.
func (h *Handler) ModelsTrain(w http.ResponseWriter, r *http.Request) {
	if h.matcher.Status().State == match.StateTraining.String() {
		respondDomainError(w, match.ErrTrainingInProgress)
		return
	}

	reqs, err := h.matcher.Requirements(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if !reqs.CanTrain {
		respondJSON(w, http.StatusUnprocessableEntity, &models.APIResponse{
			Status: "error",
			Data:   reqs,
			Metadata: models.Metadata{
				Timestamp: time.Now(),
			},
			Error: &models.APIError{
				Code:    "TRAINING_DATA_INSUFFICIENT",
				Message: "not enough scoring-eligible profiles to train",
			},
		})
		return
	}

	// The request context dies with the response; training runs on its
	// own detached context.
	go func() {
		trainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := h.matcher.Train(trainCtx); err != nil {
			switch {
			case errors.Is(err, match.ErrTrainingInProgress):
				logging.Warn().Msg("Training request lost the start race, run already in flight")
			case errors.Is(err, scorer.ErrTrainingDataInsufficient):
				logging.Warn().Err(err).Msg("Training aborted, population shrank below the minimum")
			default:
				logging.Error().Err(err).Msg("Background training run failed")
			}
		}
	}()

	respondJSON(w, http.StatusAccepted, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"training":   "started",
			"population": reqs.CurrentUsers,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// ModelsStatus reports the model lifecycle: state, version, training
// time, and population of the live snapshot.
func (h *Handler) ModelsStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondSuccess(w, h.matcher.Status(), start)
}

// ModelsRequirements reports the population gate: how many eligible
// profiles exist versus the minimum needed to train.
func (h *Handler) ModelsRequirements(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	reqs, err := h.matcher.Requirements(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, reqs, start)
}

// ModelsLoad restores the persisted model snapshots and makes them live.
// Returns 404 when no snapshot has ever been saved.
func (h *Handler) ModelsLoad(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := h.matcher.LoadModels(r.Context()); err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, h.matcher.Status(), start)
}
