// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package validation wraps go-playground/validator v10 behind a
// thread-safe singleton with error translation into the API's
// VALIDATION_ERROR shape.
//
// Request structs declare their rules as validate tags; handlers call
// ValidateStruct after decoding and convert failures with ToAPIError:
//
//	var req models.AllocationRequest
//	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
//	    // handle decode error
//	}
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	    return
//	}
//
// The built-in validators cover every rule the API needs:
//   - required: field must be set
//   - oneof=a b c: closed value sets (allocation strategies)
//   - gt/gte/lt/lte, min/max: numeric and length bounds (user ids,
//     candidate limits)
//   - dive: applies element rules to slices (user_ids entries)
//
// The singleton caches struct metadata, so the first validation of each
// request type pays the reflection cost once.
package validation
