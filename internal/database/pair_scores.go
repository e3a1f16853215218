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

	"github.com/goccy/go-json"

	"github.com/cohabhq/cohab/internal/match"
	"github.com/cohabhq/cohab/internal/metrics"
)

// ErrPairScoreNotFound reports a pair with no persisted score row.
var ErrPairScoreNotFound = errors.New("pair score not found")

// UpsertPairScore persists one scored pair. The pair key is canonical
// (user_a < user_b); callers may pass the users in either order. The
// explanation is stored as JSON alongside the sub-scores so historical
// results stay inspectable after retraining.
func (db *DB) UpsertPairScore(ctx context.Context, score *match.PairScore, modelVersion int) (err error) {
	defer func(start time.Time) { metrics.RecordDBQuery("upsert", "pair_scores", time.Since(start), err) }(time.Now())

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	userA, userB := score.UserA, score.UserB
	if userA > userB {
		userA, userB = userB, userA
	}

	explanation, err := json.Marshal(score.Explanation)
	if err != nil {
		return fmt.Errorf("failed to marshal explanation: %w", err)
	}

	query := `INSERT INTO pair_scores (
		user_a, user_b, neighbor_score, latent_score, agreement_score,
		final_score, low_confidence, explanation, model_version, scored_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (user_a, user_b) DO UPDATE SET
		neighbor_score = excluded.neighbor_score,
		latent_score = excluded.latent_score,
		agreement_score = excluded.agreement_score,
		final_score = excluded.final_score,
		low_confidence = excluded.low_confidence,
		explanation = excluded.explanation,
		model_version = excluded.model_version,
		scored_at = excluded.scored_at`

	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		return err
	}

	_, err = stmt.ExecContext(ctx,
		userA, userB, score.NeighborScore, score.LatentScore, score.AgreementScore,
		score.FinalScore, score.LowConfidence, string(explanation), modelVersion, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert pair score (%d, %d): %w", userA, userB, err)
	}
	return nil
}

// GetPairScore loads a persisted score for the canonical pair, along
// with the model version that produced it.
func (db *DB) GetPairScore(ctx context.Context, userA, userB int) (*match.PairScore, int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if userA > userB {
		userA, userB = userB, userA
	}

	query := `SELECT user_a, user_b, neighbor_score, latent_score,
		agreement_score, final_score, low_confidence, explanation, model_version
	FROM pair_scores WHERE user_a = ? AND user_b = ?`

	var (
		score        match.PairScore
		explanation  string
		modelVersion int
	)
	err := db.conn.QueryRowContext(ctx, query, userA, userB).Scan(
		&score.UserA, &score.UserB, &score.NeighborScore, &score.LatentScore,
		&score.AgreementScore, &score.FinalScore, &score.LowConfidence,
		&explanation, &modelVersion,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, fmt.Errorf("pair (%d, %d): %w", userA, userB, ErrPairScoreNotFound)
		}
		return nil, 0, fmt.Errorf("failed to get pair score (%d, %d): %w", userA, userB, err)
	}

	if explanation != "" {
		if err := json.Unmarshal([]byte(explanation), &score.Explanation); err != nil {
			return nil, 0, fmt.Errorf("failed to unmarshal explanation for pair (%d, %d): %w", userA, userB, err)
		}
	}
	return &score, modelVersion, nil
}

// PurgePairScores removes persisted scores older than the given model
// version. Retraining bumps the version; stale rows only waste space.
func (db *DB) PurgePairScores(ctx context.Context, beforeVersion int) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM pair_scores WHERE model_version < ?`, beforeVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to purge pair scores: %w", err)
	}
	return result.RowsAffected()
}
