// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cohabhq/cohab/internal/metrics"
	"github.com/cohabhq/cohab/internal/models"
)

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

const profileColumns = `id, name, age, gender, occupation, sleep_schedule,
	cleanliness_level, noise_tolerance, social_preference, pet_preference,
	smoking_preference, hobbies, dietary_restrictions, budget_range,
	location_preference, embedding, embedding_pending, created_at, updated_at`

// UpsertProfile inserts a profile or replaces an existing record with
// the same id. Intake payloads are whole replacement records; preference
// enums are normalized before the write. A zero ID lets the sequence
// assign one, written back to p.ID.
func (db *DB) UpsertProfile(ctx context.Context, p *models.Profile) (err error) {
	defer func(start time.Time) { metrics.RecordDBQuery("upsert", "users", time.Since(start), err) }(time.Now())

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	p.Normalize()
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now

	if p.ID == 0 {
		query := `INSERT INTO users (
			name, age, gender, occupation, sleep_schedule, cleanliness_level,
			noise_tolerance, social_preference, pet_preference, smoking_preference,
			hobbies, dietary_restrictions, budget_range, location_preference,
			embedding, embedding_pending, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`

		row := db.conn.QueryRowContext(ctx, query,
			p.Name, p.Age, p.Gender, p.Occupation, p.SleepSchedule, p.Cleanliness,
			p.NoiseTolerance, p.SocialPreference, p.PetPreference, p.SmokingPreference,
			p.Hobbies, p.DietaryRestrictions, p.BudgetRange, p.LocationPreference,
			embeddingParam(p.Embedding), p.EmbeddingPending, p.CreatedAt, p.UpdatedAt,
		)
		if err = row.Scan(&p.ID); err != nil {
			return fmt.Errorf("failed to insert profile: %w", err)
		}
		return nil
	}

	query := `INSERT INTO users (
		id, name, age, gender, occupation, sleep_schedule, cleanliness_level,
		noise_tolerance, social_preference, pet_preference, smoking_preference,
		hobbies, dietary_restrictions, budget_range, location_preference,
		embedding, embedding_pending, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		name = excluded.name,
		age = excluded.age,
		gender = excluded.gender,
		occupation = excluded.occupation,
		sleep_schedule = excluded.sleep_schedule,
		cleanliness_level = excluded.cleanliness_level,
		noise_tolerance = excluded.noise_tolerance,
		social_preference = excluded.social_preference,
		pet_preference = excluded.pet_preference,
		smoking_preference = excluded.smoking_preference,
		hobbies = excluded.hobbies,
		dietary_restrictions = excluded.dietary_restrictions,
		budget_range = excluded.budget_range,
		location_preference = excluded.location_preference,
		embedding = excluded.embedding,
		embedding_pending = excluded.embedding_pending,
		updated_at = excluded.updated_at`

	_, err = db.conn.ExecContext(ctx, query,
		p.ID, p.Name, p.Age, p.Gender, p.Occupation, p.SleepSchedule, p.Cleanliness,
		p.NoiseTolerance, p.SocialPreference, p.PetPreference, p.SmokingPreference,
		p.Hobbies, p.DietaryRestrictions, p.BudgetRange, p.LocationPreference,
		embeddingParam(p.Embedding), p.EmbeddingPending, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert profile %d: %w", p.ID, err)
	}
	return nil
}

// GetProfile retrieves one profile by user id.
func (db *DB) GetProfile(ctx context.Context, userID int) (p *models.Profile, err error) {
	defer func(start time.Time) { metrics.RecordDBQuery("select", "users", time.Since(start), err) }(time.Now())

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + profileColumns + ` FROM users WHERE id = ?`
	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		return nil, err
	}

	p, err = scanProfile(stmt.QueryRowContext(ctx, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, models.ErrProfileNotFound)
		}
		return nil, fmt.Errorf("failed to get profile %d: %w", userID, err)
	}
	return p, nil
}

// ListProfiles returns every profile ordered by user id.
func (db *DB) ListProfiles(ctx context.Context) ([]*models.Profile, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + profileColumns + ` FROM users ORDER BY id`
	return db.queryProfiles(ctx, query)
}

// ListEligibleProfiles returns profiles whose embedding is ready,
// ordered by user id.
func (db *DB) ListEligibleProfiles(ctx context.Context) (profiles []*models.Profile, err error) {
	defer func(start time.Time) { metrics.RecordDBQuery("select", "users", time.Since(start), err) }(time.Now())

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + profileColumns + ` FROM users
		WHERE embedding_pending = false
		  AND embedding IS NOT NULL
		  AND array_length(embedding) > 0
		ORDER BY id`
	return db.queryProfiles(ctx, query)
}

// ListProfilesPendingEmbedding returns profiles still waiting on an
// embedding, ordered by user id. The preprocessing worker drains this
// set.
func (db *DB) ListProfilesPendingEmbedding(ctx context.Context) (profiles []*models.Profile, err error) {
	defer func(start time.Time) { metrics.RecordDBQuery("select", "users", time.Since(start), err) }(time.Now())

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + profileColumns + ` FROM users
		WHERE embedding_pending = true
		   OR embedding IS NULL
		   OR array_length(embedding) = 0
		ORDER BY id`
	return db.queryProfiles(ctx, query)
}

// CountProfiles returns the total and scoring-eligible profile counts.
func (db *DB) CountProfiles(ctx context.Context) (total, eligible int, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE embedding_pending = false
			AND embedding IS NOT NULL
			AND array_length(embedding) > 0)
	FROM users`

	if err := db.conn.QueryRowContext(ctx, query).Scan(&total, &eligible); err != nil {
		return 0, 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return total, eligible, nil
}

// UpdateEmbedding stores a freshly computed embedding vector and clears
// the pending flag.
func (db *DB) UpdateEmbedding(ctx context.Context, userID int, embedding []float64) (err error) {
	defer func(start time.Time) { metrics.RecordDBQuery("update", "users", time.Since(start), err) }(time.Now())

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `UPDATE users
		SET embedding = ?, embedding_pending = false, updated_at = ?
		WHERE id = ?`

	result, err := db.conn.ExecContext(ctx, query, embeddingParam(embedding), time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update embedding for user %d: %w", userID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, models.ErrProfileNotFound)
	}
	return nil
}

func (db *DB) queryProfiles(ctx context.Context, query string, args ...any) ([]*models.Profile, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer closeQuietly(rows)

	profiles := make([]*models.Profile, 0)
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return profiles, nil
}

func scanProfile(s scanner) (*models.Profile, error) {
	var (
		p            models.Profile
		rawEmbedding any
	)
	err := s.Scan(
		&p.ID, &p.Name, &p.Age, &p.Gender, &p.Occupation, &p.SleepSchedule,
		&p.Cleanliness, &p.NoiseTolerance, &p.SocialPreference, &p.PetPreference,
		&p.SmokingPreference, &p.Hobbies, &p.DietaryRestrictions, &p.BudgetRange,
		&p.LocationPreference, &rawEmbedding, &p.EmbeddingPending, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Embedding = toFloatSlice(rawEmbedding)
	return &p, nil
}

// embeddingParam converts an embedding for list binding. A nil or empty
// vector is stored as SQL NULL rather than an empty list.
func embeddingParam(embedding []float64) any {
	if len(embedding) == 0 {
		return nil
	}
	return embedding
}

// toFloatSlice converts a scanned DuckDB DOUBLE[] value. The driver
// hands list columns back as []any.
func toFloatSlice(v any) []float64 {
	raw, ok := v.([]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, e := range raw {
		switch n := e.(type) {
		case float64:
			out = append(out, n)
		case float32:
			out = append(out, float64(n))
		}
	}
	return out
}

// toStringSlice converts a scanned DuckDB VARCHAR[] value.
func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
