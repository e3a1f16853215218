// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package events is the in-process event bus. Profile updates, model
// training completions, and assignment commits are published as JSON
// messages over a Watermill gochannel Pub/Sub; a supervised router
// feeds subscribers, chiefly the pair-score cache invalidator.
//
// Topics:
//   - profile.updated: a profile changed or was re-embedded
//   - models.trained: a new model generation went live
//   - assignments.committed: an allocation run wrote assignments
package events
