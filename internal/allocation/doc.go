// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package allocation assigns users to rooms under capacity, budget,
// and location constraints.
//
// A run is a pipeline: collect eligible users and open room slots,
// apply one of four strategies to produce a plan, validate the plan
// against hard invariants, then commit every assignment in a single
// transaction. Nothing is written before validation passes, so a
// failed or cancelled run leaves assignment state untouched.
//
// Strategies differ only in how they order candidate placements:
//
//   - compatibility_first pairs the highest-scoring users together,
//     using room cost and location only to break ties between rooms.
//   - budget_first walks users from lowest stated budget upward and
//     places each in the cheapest room they can afford.
//   - location_first groups users by preferred location and fills
//     matching rooms before falling through to compatibility.
//   - balanced ranks (pair, room) candidates by a weighted composite
//     of compatibility, budget fit, and location fit.
//
// All strategies are deterministic: equal keys break by ascending
// user id, then ascending room id. Given the same stored state and
// request, a rerun produces the same plan.
//
// A user who already holds an active assignment is skipped unless the
// request asks for reallocation, in which case the old assignment is
// superseded in the same transaction that records the new one.
// Superseded rows are kept as history, never deleted.
package allocation
