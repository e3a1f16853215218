// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package cache provides the in-memory caches used on the scoring path.
//
// Two structures cover the two access patterns in the system:
//
//   - Cache is a TTL map used by the compatibility engine for pairwise
//     scores. Keys embed the canonical pair and the model fingerprint, so
//     a retrain naturally misses every stale entry even before the
//     explicit Clear. Per-user invalidation on profile changes goes
//     through DeleteFunc.
//
//   - LRUCache is a bounded least-recently-used cache keyed by text
//     digest, used by the embedding client to avoid re-embedding
//     identical profile text. Re-preprocessing a large population after
//     small edits touches only the changed profiles' texts.
//
// Both are safe for concurrent use and never return expired entries.
package cache
