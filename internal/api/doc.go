// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package api provides the HTTP surface of Cohab: Chi routing, middleware,
// and the JSON handlers for scoring, matching, allocation, preprocessing,
// and operational health.
//
// # Endpoints
//
// Health and probes:
//
//	GET  /api/v1/health        - full health report (database, models)
//	GET  /api/v1/health/live   - liveness probe, always 200 while the process runs
//	GET  /api/v1/health/ready  - readiness probe, 503 until dependencies are up
//
// Preprocessing:
//
//	POST /api/v1/preprocess               - embed every profile still pending
//	POST /api/v1/preprocess/user/{userID} - re-embed a single profile
//	GET  /api/v1/preprocess/stats         - embedding coverage counts
//
// Models:
//
//	POST /api/v1/models/train        - start a training run (202, async)
//	GET  /api/v1/models/status       - model lifecycle state and version
//	GET  /api/v1/models/requirements - population gate for training
//	POST /api/v1/models/load         - restore models from the model store
//
// Scoring and matching:
//
//	GET /api/v1/compatibility/{userA}/{userB} - score one pair with explanation
//	GET /api/v1/match/user/{userID}?k=N       - top-K ranked candidates
//
// Allocation:
//
//	POST   /api/v1/allocations               - run a batch allocation
//	POST   /api/v1/allocations/user/{userID} - place a single user
//	GET    /api/v1/allocations/status        - engine run state
//	DELETE /api/v1/allocations/user/{userID} - release a user's assignment
//	GET    /api/v1/rooms                     - list rooms
//	GET    /api/v1/rooms/{roomID}            - room with current occupants
//
// All endpoints return the models.APIResponse envelope. Errors carry a
// stable machine-readable code (NOT_FOUND, MODEL_NOT_TRAINED, ...) so
// clients can branch without parsing messages.
//
// Handlers depend on narrow interfaces (Matcher, Allocator, Preprocessor,
// Store) rather than concrete engine types, so they can be exercised with
// lightweight fakes in tests.
package api
