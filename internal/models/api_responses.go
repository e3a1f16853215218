// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package models

import "time"

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints. It provides a consistent structure for both successful and
// error responses.
//
// Status field values:
//   - "success": request completed, see Data
//   - "error": request failed, see Error
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"assigned": 4, "unassigned": [7]},
//	  "metadata": {"timestamp": "2026-08-01T12:00:00Z", "query_time_ms": 12}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response metadata for observability. QueryTimeMS is the
// engine/store execution time in milliseconds; Cached marks responses
// served from the pair-score cache.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	Cached      bool      `json:"cached,omitempty"`
}

// APIError represents structured error details.
//
// Error codes used across the API:
//   - VALIDATION_ERROR: invalid input parameters
//   - NOT_FOUND: profile, room, assignment, or model snapshot does not exist
//   - METHOD_NOT_ALLOWED: known path, wrong HTTP method
//   - PROFILE_NOT_ELIGIBLE: embedding pending, profile cannot be scored
//   - TRAINING_DATA_INSUFFICIENT: eligible population below the minimum
//   - TRAINING_IN_PROGRESS: a training run already holds the writer lock
//   - MODEL_NOT_TRAINED: scoring requested before any train/load
//   - ALLOCATION_IN_PROGRESS: a batch allocation run is already in flight
//   - ALREADY_ASSIGNED: user holds an active assignment and reallocate is off
//   - NO_FEASIBLE_ROOM: no open room can take the user under the strategy
//   - INVARIANT_VIOLATION: an allocation commit would break capacity rules
//   - STORE_ERROR: persistence failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthStatus is the payload of GET /api/v1/health. A degraded status
// means the database is unreachable; model state is reported but never
// degrades health, since untrained is a normal lifecycle phase.
type HealthStatus struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"database_connected"`
	ModelState        string  `json:"model_state"`
	ModelVersion      int     `json:"model_version"`
	Uptime            float64 `json:"uptime"`
}

// AllocationRequest is the request body for POST /api/v1/allocations.
type AllocationRequest struct {
	Strategy   string `json:"strategy" validate:"required,oneof=compatibility_first budget_first location_first balanced"`
	Reallocate bool   `json:"reallocate"`
	UserIDs    []int  `json:"user_ids,omitempty" validate:"omitempty,dive,gt=0"`
}

// TrainingRequirements reports whether the eligible population meets the
// minimum size for (re)training.
type TrainingRequirements struct {
	MinimumUsers int  `json:"minimum_users"`
	CurrentUsers int  `json:"current_users"`
	TotalUsers   int  `json:"total_users"`
	CanTrain     bool `json:"can_train"`
}

// PreprocessStats summarizes embedding coverage across the population.
type PreprocessStats struct {
	TotalProfiles int `json:"total_profiles"`
	Embedded      int `json:"embedded"`
	Pending       int `json:"pending"`
}
