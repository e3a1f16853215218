// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package api

import (
	"net/http"
	"time"

	"github.com/cohabhq/cohab/internal/allocation"
	"github.com/cohabhq/cohab/internal/logging"
	"github.com/cohabhq/cohab/internal/models"
)

// AllocationsRun executes a batch allocation run. The body names the
// strategy and may restrict the run to specific users; an infeasible run
// (nobody to place, or nowhere to place them) still returns 200 with the
// infeasible flag set, because an empty result is an answer, not a
// failure. Concurrent runs are rejected with 409.
func (h *Handler) AllocationsRun(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var body models.AllocationRequest
	if err := decodeJSONBody(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	if apiErr := validateRequest(&body); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	strategy, err := allocation.ParseStrategy(body.Strategy)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	result, err := h.allocator.Allocate(r.Context(), allocation.Request{
		Strategy:   strategy,
		Reallocate: body.Reallocate,
		UserIDs:    body.UserIDs,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Str("strategy", string(strategy)).
		Int("assigned", len(result.Assignments)).
		Int("unassigned", len(result.Unassigned)).
		Bool("infeasible", result.Infeasible).
		Msg("Allocation run completed")

	respondSuccess(w, result, start)
}

// singleAllocationRequest is the optional body of
// POST /api/v1/allocations/user/{userID}. An absent body means
// compatibility_first without reallocation.
type singleAllocationRequest struct {
	Strategy   string `json:"strategy,omitempty" validate:"omitempty,oneof=compatibility_first budget_first location_first balanced"`
	Reallocate bool   `json:"reallocate,omitempty"`
}

// AllocationsUser places one user into the best room open to them under
// the chosen strategy. Returns 409 when the user already holds an active
// assignment (unless reallocate is set) or when no open room can take
// them.
func (h *Handler) AllocationsUser(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, err := pathInt(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	body := singleAllocationRequest{Strategy: string(allocation.StrategyCompatibilityFirst)}
	if r.ContentLength != 0 {
		if err := decodeJSONBody(r, &body); err != nil {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
		if body.Strategy == "" {
			body.Strategy = string(allocation.StrategyCompatibilityFirst)
		}
	}
	if apiErr := validateRequest(&body); apiErr != nil {
		respondValidationError(w, apiErr)
		return
	}

	strategy, err := allocation.ParseStrategy(body.Strategy)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	assignment, err := h.allocator.AllocateUser(r.Context(), userID, strategy, body.Reallocate)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, assignment, start)
}

// AllocationsStatus reports engine-level run state: whether a run is in
// flight, total runs, and the outcome of the last one.
func (h *Handler) AllocationsStatus(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondSuccess(w, h.allocator.Status(), start)
}

// AllocationsRemove releases a user's active assignment. The assignment
// row is superseded, not deleted, so history stays queryable. Returns
// 404 when the user holds no active assignment.
func (h *Handler) AllocationsRemove(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID, err := pathInt(r, "userID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	// Fetch first so the response can name the released room.
	assignment, err := h.store.ActiveAssignmentForUser(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if err := h.store.RemoveAssignment(r.Context(), userID); err != nil {
		respondDomainError(w, err)
		return
	}

	logging.Ctx(r.Context()).Info().
		Int("user_id", userID).
		Int("room_id", assignment.RoomID).
		Msg("Assignment released")

	respondSuccess(w, map[string]interface{}{
		"user_id":          userID,
		"released_room_id": assignment.RoomID,
	}, start)
}

// Rooms lists every room with its static attributes.
func (h *Handler) Rooms(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	rooms, err := h.store.ListRooms(r.Context())
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, map[string]interface{}{
		"rooms": rooms,
		"count": len(rooms),
	}, start)
}

// RoomByID returns one room with its current occupants and open slots.
func (h *Handler) RoomByID(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	roomID, err := pathInt(r, "roomID")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}

	details, err := h.store.RoomOccupancy(r.Context(), roomID)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	respondSuccess(w, details, start)
}
