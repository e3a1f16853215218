// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package match implements the compatibility engine: it trains and serves
// the three sub-score models, combines them into a final pair score with
// a structured explanation, and ranks candidate roommates for a user.
//
// # Model Lifecycle
//
// The engine owns an immutable model set (neighbor, latent, blend) plus a
// training state machine: untrained, training, trained, stale. Training
// builds a fresh set against a frozen population snapshot and swaps the
// pointer only on full success, so concurrent scoring always sees either
// the previous complete set or the new complete set, never a mixture.
// Profile changes move a trained engine to stale: scores remain servable
// from the existing snapshot until the next retrain.
//
// # Caching
//
// Pair scores are cached under the canonical (lower id first) pair, the
// model set version, and the feature layout version. Retrains and model
// reloads clear the cache; a profile change evicts only that user's
// entries.
package match
