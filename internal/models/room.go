// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package models

import "time"

// Room represents one physical room in the inventory. Occupancy is always
// derived from active assignments, never stored on the room itself.
type Room struct {
	ID          int       `json:"id" db:"id"`
	RoomNumber  string    `json:"room_number" db:"room_number"`
	Floor       int       `json:"floor_number" db:"floor_number"`
	RoomType    string    `json:"room_type" db:"room_type"`
	Capacity    int       `json:"capacity" db:"capacity"`
	MonthlyRent float64   `json:"monthly_rent" db:"monthly_rent"`
	Amenities   []string  `json:"amenities" db:"amenities"`
	LocationTag string    `json:"location_tag" db:"location_tag"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// AssignmentStatus is the lifecycle state of an assignment record.
type AssignmentStatus string

// Assignment lifecycle states. Assignments are superseded by later
// allocation runs or explicit removal, never physically deleted, so the
// full assignment history remains queryable.
const (
	AssignmentActive     AssignmentStatus = "active"
	AssignmentSuperseded AssignmentStatus = "superseded"
)

// Assignment maps one user to one room. Invariants: a user holds at most
// one active assignment at any time, and a room's active assignment count
// never exceeds its capacity.
type Assignment struct {
	ID           int              `json:"id" db:"id"`
	UserID       int              `json:"user_id" db:"user_id"`
	RoomID       int              `json:"room_id" db:"room_id"`
	Status       AssignmentStatus `json:"status" db:"status"`
	AssignedAt   time.Time        `json:"assigned_at" db:"assigned_at"`
	SupersededAt *time.Time       `json:"superseded_at,omitempty" db:"superseded_at"`
}

// RoomDetails combines a room with its current occupants for the room
// detail query.
type RoomDetails struct {
	Room      Room      `json:"room"`
	Occupants []Profile `json:"occupants"`
	OpenSlots int       `json:"open_slots"`
}
