// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package match

import "errors"

// Engine errors. Training-data insufficiency propagates from the scorer
// package unchanged so callers match one sentinel everywhere.
var (
	// ErrModelNotTrained is returned when scoring is requested before
	// any model set has been trained or loaded.
	ErrModelNotTrained = errors.New("models not trained")

	// ErrTrainingInProgress is returned when a training run is requested
	// while another is still running.
	ErrTrainingInProgress = errors.New("training already in progress")

	// ErrProfileNotEligible is returned when a profile's embedding is
	// still pending, so it cannot participate in scoring.
	ErrProfileNotEligible = errors.New("profile not eligible for scoring")
)
