// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package supervisor builds the suture supervision tree that keeps
// Cohab's long-running components alive.
//
// The tree has two child supervisors under the root:
//
//	cohab
//	├── core-layer
//	│   ├── event-router        (watermill consumer routing)
//	│   ├── preprocess-worker   (periodic embedding backfill)
//	│   └── train-scheduler     (startup + periodic model training)
//	└── api-layer
//	    └── http-server
//
// The split isolates failures: a crashing background worker is
// restarted inside core-layer while the HTTP server keeps answering
// requests from the live model snapshot, and vice versa.
//
// Supervisor events are logged through sutureslog into the shared
// zerolog logger (see logging.NewSlogLogger). Failure thresholds,
// decay, and backoff follow suture's defaults and are tunable via
// TreeConfig.
//
// Services must implement suture.Service: a blocking Serve(ctx) that
// returns when the context is cancelled, plus fmt.Stringer for log
// identification. The services subpackage holds the wrappers for
// components that do not natively speak this shape.
package supervisor
