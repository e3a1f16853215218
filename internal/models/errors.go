// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package models

import "errors"

// Domain lookup errors shared by the storage layer and its callers.
// Stores return these wrapped with context; callers match with errors.Is.
var (
	// ErrProfileNotFound reports a user id with no profile record.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrRoomNotFound reports a room id with no inventory record.
	ErrRoomNotFound = errors.New("room not found")

	// ErrNoActiveAssignment reports a user with no active assignment to
	// remove or supersede.
	ErrNoActiveAssignment = errors.New("no active assignment")
)
