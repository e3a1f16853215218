// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package models provides the shared data model for Cohab: user profiles
// with their closed preference enumerations, rooms, assignments, and the
// API response envelope.
//
// Preference fields are closed enumerations with an explicit Unspecified
// variant. Unknown or missing values are resolved to Unspecified at the
// parsing boundary so downstream encoding never has to handle free-form
// category strings.
package models
