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

	"github.com/cohabhq/cohab/internal/logging"
	"github.com/cohabhq/cohab/internal/match/scorer"
	"github.com/cohabhq/cohab/internal/metrics"
	"github.com/cohabhq/cohab/internal/models"
)

const assignmentColumns = `id, user_id, room_id, status, assigned_at, superseded_at`

// ActiveAssignments returns every assignment currently in the active
// state, ordered by user id.
func (db *DB) ActiveAssignments(ctx context.Context) (assignments []*models.Assignment, err error) {
	defer func(start time.Time) { metrics.RecordDBQuery("select", "assignments", time.Since(start), err) }(time.Now())

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + assignmentColumns + ` FROM assignments
		WHERE status = ? ORDER BY user_id`
	return db.queryAssignments(ctx, query, models.AssignmentActive)
}

// AssignmentHistory returns every assignment a user has ever held,
// newest first. Superseded rows are included.
func (db *DB) AssignmentHistory(ctx context.Context, userID int) ([]*models.Assignment, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + assignmentColumns + ` FROM assignments
		WHERE user_id = ? ORDER BY assigned_at DESC, id DESC`
	return db.queryAssignments(ctx, query, userID)
}

// ActiveAssignmentForUser returns the user's current active assignment
// or models.ErrNoActiveAssignment.
func (db *DB) ActiveAssignmentForUser(ctx context.Context, userID int) (*models.Assignment, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + assignmentColumns + ` FROM assignments
		WHERE user_id = ? AND status = ?`

	a, err := scanAssignment(db.conn.QueryRowContext(ctx, query, userID, models.AssignmentActive))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", userID, models.ErrNoActiveAssignment)
		}
		return nil, fmt.Errorf("failed to get active assignment for user %d: %w", userID, err)
	}
	return a, nil
}

// RecordAssignments commits an allocation run atomically: the active
// assignments of supersedeUserIDs flip to superseded, then the new
// rows are inserted as active. Generated ids are written back into the
// passed assignments. Either everything commits or nothing does, so a
// concurrent reader never sees a user with two active assignments.
func (db *DB) RecordAssignments(ctx context.Context, assignments []*models.Assignment, supersedeUserIDs []int) (err error) {
	defer func(start time.Time) { metrics.RecordDBQuery("commit", "assignments", time.Since(start), err) }(time.Now())

	if len(assignments) == 0 && len(supersedeUserIDs) == 0 {
		return nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().
					Err(rbErr).
					AnErr("original_error", err).
					Msg("Assignment transaction rollback failed")
			}
		}
	}()

	now := time.Now().UTC()

	supersedeQuery := `UPDATE assignments
		SET status = ?, superseded_at = ?
		WHERE user_id = ? AND status = ?`
	for _, userID := range supersedeUserIDs {
		if _, err = tx.ExecContext(ctx, supersedeQuery,
			models.AssignmentSuperseded, now, userID, models.AssignmentActive); err != nil {
			return fmt.Errorf("failed to supersede assignments for user %d: %w", userID, err)
		}
	}

	insertQuery := `INSERT INTO assignments (user_id, room_id, status, assigned_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`
	for _, a := range assignments {
		if a.Status == "" {
			a.Status = models.AssignmentActive
		}
		if a.AssignedAt.IsZero() {
			a.AssignedAt = now
		}
		row := tx.QueryRowContext(ctx, insertQuery, a.UserID, a.RoomID, a.Status, a.AssignedAt)
		if err = row.Scan(&a.ID); err != nil {
			return fmt.Errorf("failed to insert assignment for user %d: %w", a.UserID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit assignments: %w", err)
	}
	return nil
}

// RemoveAssignment supersedes the user's active assignment. The row is
// kept for history; only the status flips. Returns
// models.ErrNoActiveAssignment when the user holds none.
func (db *DB) RemoveAssignment(ctx context.Context, userID int) (err error) {
	defer func(start time.Time) { metrics.RecordDBQuery("update", "assignments", time.Since(start), err) }(time.Now())

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `UPDATE assignments
		SET status = ?, superseded_at = ?
		WHERE user_id = ? AND status = ?`

	result, err := db.conn.ExecContext(ctx, query,
		models.AssignmentSuperseded, time.Now().UTC(), userID, models.AssignmentActive)
	if err != nil {
		return fmt.Errorf("failed to remove assignment for user %d: %w", userID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user %d: %w", userID, models.ErrNoActiveAssignment)
	}
	return nil
}

// Interactions derives the implicit co-living matrix from assignment
// history: every pair of users whose stays in the same room overlapped
// counts as one positive interaction with weight 1. Pairs are
// canonical (UserA < UserB) and distinct.
func (db *DB) Interactions(ctx context.Context) ([]scorer.Interaction, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	// Open-ended stays overlap until superseded; COALESCE pins them to
	// a far-future bound for the comparison.
	query := `SELECT DISTINCT a.user_id, b.user_id
		FROM assignments a
		JOIN assignments b
		  ON a.room_id = b.room_id
		 AND a.user_id < b.user_id
		 AND a.assigned_at < COALESCE(b.superseded_at, TIMESTAMP '9999-01-01')
		 AND b.assigned_at < COALESCE(a.superseded_at, TIMESTAMP '9999-01-01')
		ORDER BY a.user_id, b.user_id`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions: %w", err)
	}
	defer closeQuietly(rows)

	interactions := make([]scorer.Interaction, 0)
	for rows.Next() {
		var userA, userB int
		if err := rows.Scan(&userA, &userB); err != nil {
			return nil, fmt.Errorf("failed to scan interaction: %w", err)
		}
		interactions = append(interactions, scorer.Interaction{UserA: userA, UserB: userB, Weight: 1.0})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating interactions: %w", err)
	}
	return interactions, nil
}

func (db *DB) queryAssignments(ctx context.Context, query string, args ...any) ([]*models.Assignment, error) {
	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer closeQuietly(rows)

	assignments := make([]*models.Assignment, 0)
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assignments: %w", err)
	}
	return assignments, nil
}

func scanAssignment(s scanner) (*models.Assignment, error) {
	var (
		a          models.Assignment
		superseded sql.NullTime
	)
	err := s.Scan(&a.ID, &a.UserID, &a.RoomID, &a.Status, &a.AssignedAt, &superseded)
	if err != nil {
		return nil, err
	}
	if superseded.Valid {
		t := superseded.Time
		a.SupersededAt = &t
	}
	return &a, nil
}
