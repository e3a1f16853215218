// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package database implements the persistence layer on embedded DuckDB
// via database/sql and the duckdb-go driver.
//
// Tables:
//
//   - users: intake profiles with preference enums, free-text fields,
//     and the preprocessed embedding vector (DOUBLE[])
//   - rooms: the room inventory with capacity, rent, amenities
//     (VARCHAR[]) and a location tag
//   - assignments: user-to-room placements; rows are superseded, never
//     deleted, so the full placement history stays queryable
//   - pair_scores: persisted compatibility results keyed by the
//     canonical ordered pair and model version
//
// The schema is created on open. Occupancy is always derived from
// active assignment rows; the rooms table carries no occupancy state.
// RecordAssignments commits an allocation run in one transaction so a
// reader never observes a user with two active assignments.
package database
