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
	"github.com/cohabhq/cohab/internal/metrics"
	"github.com/cohabhq/cohab/internal/models"
)

const roomColumns = `id, room_number, floor_number, room_type, capacity,
	monthly_rent, amenities, location_tag, created_at`

// CreateRoom inserts a room into the inventory. A zero ID lets the
// sequence assign one, written back to r.ID.
func (db *DB) CreateRoom(ctx context.Context, r *models.Room) (err error) {
	defer func(start time.Time) { metrics.RecordDBQuery("insert", "rooms", time.Since(start), err) }(time.Now())

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	if r.ID == 0 {
		query := `INSERT INTO rooms (
			room_number, floor_number, room_type, capacity, monthly_rent,
			amenities, location_tag, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`
		row := db.conn.QueryRowContext(ctx, query,
			r.RoomNumber, r.Floor, r.RoomType, r.Capacity, r.MonthlyRent,
			amenitiesParam(r.Amenities), r.LocationTag, r.CreatedAt,
		)
		if err = row.Scan(&r.ID); err != nil {
			return fmt.Errorf("failed to insert room: %w", err)
		}
		return nil
	}

	query := `INSERT INTO rooms (
		id, room_number, floor_number, room_type, capacity, monthly_rent,
		amenities, location_tag, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = db.conn.ExecContext(ctx, query,
		r.ID, r.RoomNumber, r.Floor, r.RoomType, r.Capacity, r.MonthlyRent,
		amenitiesParam(r.Amenities), r.LocationTag, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert room %d: %w", r.ID, err)
	}
	return nil
}

// ListRooms returns the full room inventory ordered by id.
func (db *DB) ListRooms(ctx context.Context) (rooms []*models.Room, err error) {
	defer func(start time.Time) { metrics.RecordDBQuery("select", "rooms", time.Since(start), err) }(time.Now())

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + roomColumns + ` FROM rooms ORDER BY id`
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer closeQuietly(rows)

	rooms = make([]*models.Room, 0)
	for rows.Next() {
		r, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		rooms = append(rooms, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rooms: %w", err)
	}
	return rooms, nil
}

// GetRoom retrieves one room by id.
func (db *DB) GetRoom(ctx context.Context, roomID int) (*models.Room, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	stmt, err := db.getStmt(ctx, query)
	if err != nil {
		return nil, err
	}

	r, err := scanRoom(stmt.QueryRowContext(ctx, roomID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room %d: %w", roomID, models.ErrRoomNotFound)
		}
		return nil, fmt.Errorf("failed to get room %d: %w", roomID, err)
	}
	return r, nil
}

// RoomOccupancy returns a room with its current occupant profiles and
// remaining open slots.
func (db *DB) RoomOccupancy(ctx context.Context, roomID int) (*models.RoomDetails, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	room, err := db.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + profileColumns + ` FROM users
		WHERE id IN (
			SELECT user_id FROM assignments
			WHERE room_id = ? AND status = ?
		)
		ORDER BY id`
	occupants, err := db.queryProfiles(ctx, query, roomID, models.AssignmentActive)
	if err != nil {
		return nil, fmt.Errorf("failed to load occupants for room %d: %w", roomID, err)
	}

	details := &models.RoomDetails{
		Room:      *room,
		Occupants: make([]models.Profile, 0, len(occupants)),
		OpenSlots: room.Capacity - len(occupants),
	}
	for _, p := range occupants {
		details.Occupants = append(details.Occupants, *p)
	}
	if details.OpenSlots < 0 {
		details.OpenSlots = 0
	}
	return details, nil
}

// SeedRooms populates the default room inventory when the table is
// empty: five shared double rooms across three floors. Idempotent; the
// UNIQUE constraint on room_number keeps re-runs from duplicating rows.
func (db *DB) SeedRooms(ctx context.Context) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	seeds := []models.Room{
		{RoomNumber: "101", Floor: 1, RoomType: "shared", Capacity: 2, MonthlyRent: 800.00,
			Amenities: []string{"WiFi", "Kitchen", "Bathroom"}, LocationTag: "north"},
		{RoomNumber: "102", Floor: 1, RoomType: "shared", Capacity: 2, MonthlyRent: 850.00,
			Amenities: []string{"WiFi", "Kitchen", "Bathroom", "Balcony"}, LocationTag: "south"},
		{RoomNumber: "201", Floor: 2, RoomType: "shared", Capacity: 2, MonthlyRent: 900.00,
			Amenities: []string{"WiFi", "Kitchen", "Bathroom", "Study Desk"}, LocationTag: "north"},
		{RoomNumber: "202", Floor: 2, RoomType: "shared", Capacity: 2, MonthlyRent: 950.00,
			Amenities: []string{"WiFi", "Kitchen", "Bathroom", "Balcony", "Study Desk"}, LocationTag: "south"},
		{RoomNumber: "301", Floor: 3, RoomType: "shared", Capacity: 2, MonthlyRent: 1000.00,
			Amenities: []string{"WiFi", "Kitchen", "Bathroom", "Study Desk", "Air Conditioning"}, LocationTag: "north"},
	}

	query := `INSERT INTO rooms (
		room_number, floor_number, room_type, capacity, monthly_rent,
		amenities, location_tag, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (room_number) DO NOTHING`

	now := time.Now().UTC()
	seeded := 0
	for _, r := range seeds {
		result, err := db.conn.ExecContext(ctx, query,
			r.RoomNumber, r.Floor, r.RoomType, r.Capacity, r.MonthlyRent,
			amenitiesParam(r.Amenities), r.LocationTag, now,
		)
		if err != nil {
			return fmt.Errorf("failed to seed room %s: %w", r.RoomNumber, err)
		}
		if n, err := result.RowsAffected(); err == nil {
			seeded += int(n)
		}
	}

	if seeded > 0 {
		logging.Info().Int("rooms", seeded).Msg("Seeded default room inventory")
	}
	return nil
}

func scanRoom(s scanner) (*models.Room, error) {
	var (
		r            models.Room
		rawAmenities any
	)
	err := s.Scan(
		&r.ID, &r.RoomNumber, &r.Floor, &r.RoomType, &r.Capacity,
		&r.MonthlyRent, &rawAmenities, &r.LocationTag, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Amenities = toStringSlice(rawAmenities)
	return &r, nil
}

// amenitiesParam converts an amenity list for binding. Empty lists are
// stored as SQL NULL.
func amenitiesParam(amenities []string) any {
	if len(amenities) == 0 {
		return nil
	}
	return amenities
}
