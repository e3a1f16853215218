// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the core database tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		`CREATE SEQUENCE IF NOT EXISTS users_id_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS rooms_id_seq START 1`,
		`CREATE SEQUENCE IF NOT EXISTS assignments_id_seq START 1`,

		// Intake profiles. Enum columns store the normalized variant
		// strings; unknown raw values are resolved to 'unspecified'
		// before they reach this table.
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY DEFAULT nextval('users_id_seq'),
			name TEXT NOT NULL,
			age INTEGER DEFAULT 0,
			gender TEXT DEFAULT 'unspecified',
			occupation TEXT DEFAULT '',
			sleep_schedule TEXT DEFAULT 'unspecified',
			cleanliness_level TEXT DEFAULT 'unspecified',
			noise_tolerance TEXT DEFAULT 'unspecified',
			social_preference TEXT DEFAULT 'unspecified',
			pet_preference TEXT DEFAULT 'unspecified',
			smoking_preference TEXT DEFAULT 'unspecified',
			hobbies TEXT DEFAULT '',
			dietary_restrictions TEXT DEFAULT '',
			budget_range TEXT DEFAULT '',
			location_preference TEXT DEFAULT '',
			embedding DOUBLE[],
			embedding_pending BOOLEAN DEFAULT true,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Room inventory. Occupancy is derived from assignments.
		`CREATE TABLE IF NOT EXISTS rooms (
			id INTEGER PRIMARY KEY DEFAULT nextval('rooms_id_seq'),
			room_number TEXT NOT NULL UNIQUE,
			floor_number INTEGER DEFAULT 0,
			room_type TEXT DEFAULT 'shared',
			capacity INTEGER NOT NULL DEFAULT 2,
			monthly_rent DOUBLE NOT NULL DEFAULT 0,
			amenities VARCHAR[],
			location_tag TEXT DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		// Placement history. Supersede flips status and stamps
		// superseded_at; rows are never deleted.
		`CREATE TABLE IF NOT EXISTS assignments (
			id INTEGER PRIMARY KEY DEFAULT nextval('assignments_id_seq'),
			user_id INTEGER NOT NULL,
			room_id INTEGER NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			assigned_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			superseded_at TIMESTAMP
		)`,

		// Persisted compatibility results. The pair is canonical
		// (user_a < user_b); explanation holds the JSON payload.
		`CREATE TABLE IF NOT EXISTS pair_scores (
			user_a INTEGER NOT NULL,
			user_b INTEGER NOT NULL,
			neighbor_score DOUBLE NOT NULL,
			latent_score DOUBLE NOT NULL,
			agreement_score DOUBLE NOT NULL,
			final_score DOUBLE NOT NULL,
			low_confidence BOOLEAN DEFAULT false,
			explanation TEXT DEFAULT '',
			model_version INTEGER NOT NULL,
			scored_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_a, user_b)
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}

// createIndexes creates indexes for common query patterns
func (db *DB) createIndexes() error {
	ctx, cancel := schemaContext()
	defer cancel()

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_users_embedding_pending ON users(embedding_pending)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_user_status ON assignments(user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_assignments_room_status ON assignments(room_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_pair_scores_model_version ON pair_scores(model_version)`,
	}

	for _, query := range indexes {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", query, err)
		}
	}

	return nil
}
