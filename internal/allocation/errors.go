// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package allocation

import "errors"

var (
	// ErrUnknownStrategy is returned when a request names a strategy
	// that is not one of the four supported ones.
	ErrUnknownStrategy = errors.New("unknown allocation strategy")

	// ErrRunInProgress is returned when an allocation run is requested
	// while another run holds the engine. Runs never interleave.
	ErrRunInProgress = errors.New("allocation run already in progress")

	// ErrInvariantViolation is returned when a computed plan would
	// break a hard constraint (room over capacity, user assigned
	// twice). The run aborts before anything is committed.
	ErrInvariantViolation = errors.New("allocation invariant violation")

	// ErrInfeasible is returned by single-user allocation when no open
	// room can take the user. Batch runs report infeasibility on the
	// result instead of failing.
	ErrInfeasible = errors.New("no feasible assignment")

	// ErrAlreadyAssigned is returned by single-user allocation when
	// the user holds an active assignment and reallocation was not
	// requested.
	ErrAlreadyAssigned = errors.New("user already has an active assignment")
)
