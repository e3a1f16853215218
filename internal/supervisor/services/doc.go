// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package services provides suture.Service wrappers for components
// that do not natively fit the blocking Serve(ctx) shape.
//
// HTTPServerService adapts http.Server's blocking ListenAndServe into
// a context-aware service with graceful shutdown. TrainScheduler turns
// the scoring engine's Train method into a supervised loop that trains
// on startup and on a fixed interval.
//
// Components that already block on a context (the event router, the
// preprocess worker) implement suture.Service themselves and are added
// to the tree directly.
package services
