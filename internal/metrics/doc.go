// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package metrics provides Prometheus instrumentation for the scoring
// engine, allocation runs, caches, the embedding client, DuckDB queries,
// and the HTTP API.
//
// All collectors are registered with the default registry via promauto
// at package load. The API layer exposes them on GET /metrics through
// promhttp.
//
// Collectors are grouped by concern:
//
//   - Scoring: request counts by outcome and latency histogram
//   - Training: run counts, duration, last-success timestamp, population
//   - Allocation: runs by strategy and outcome, duration, occupancy
//   - Cache: hits/misses/evictions/size by cache type
//   - Embedding: request counts, latency, circuit breaker state
//   - Database: query duration and error counts by operation and table
//   - API: request counts, latency, in-flight gauge
//
// Helper functions (RecordScore, RecordAllocation, RecordDBQuery, ...)
// bundle the common label combinations so call sites stay one line.
package metrics
