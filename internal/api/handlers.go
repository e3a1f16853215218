// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package api

import (
	"context"
	"time"

	"github.com/cohabhq/cohab/internal/allocation"
	"github.com/cohabhq/cohab/internal/match"
	"github.com/cohabhq/cohab/internal/models"
)

// Matcher is the compatibility engine surface the handlers consume.
// Implemented by *match.Engine.
type Matcher interface {
	Train(ctx context.Context) error
	ScorePair(ctx context.Context, userA, userB int) (*match.PairScore, error)
	RankCandidates(ctx context.Context, userID int, pool []int, limit int) (*match.RankResult, error)
	Status() match.Status
	Requirements(ctx context.Context) (models.TrainingRequirements, error)
	LoadModels(ctx context.Context) error
}

// Allocator is the room allocation surface the handlers consume.
// Implemented by *allocation.Engine.
type Allocator interface {
	Allocate(ctx context.Context, req allocation.Request) (*allocation.Result, error)
	AllocateUser(ctx context.Context, userID int, strategy allocation.Strategy, reallocate bool) (*models.Assignment, error)
	Status() allocation.Status
}

// Preprocessor is the embedding pipeline surface the handlers consume.
// Implemented by *preprocess.Service.
type Preprocessor interface {
	PreprocessAll(ctx context.Context) (processed, failed int, err error)
	PreprocessUser(ctx context.Context, userID int) error
	Stats(ctx context.Context) (*models.PreprocessStats, error)
}

// Store is the database surface the handlers consume. Implemented by
// *database.DB.
type Store interface {
	Ping(ctx context.Context) error
	ListRooms(ctx context.Context) ([]*models.Room, error)
	RoomOccupancy(ctx context.Context, roomID int) (*models.RoomDetails, error)
	ActiveAssignmentForUser(ctx context.Context, userID int) (*models.Assignment, error)
	RemoveAssignment(ctx context.Context, userID int) error
}

// Handler contains dependencies for the API handlers.
//
// Handler methods are split across files by endpoint area:
//   - handlers.go: Handler struct, constructor (this file)
//   - responses.go: shared response and validation helpers
//   - handlers_health.go: health and probe endpoints
//   - handlers_preprocess.go: embedding pipeline endpoints
//   - handlers_models.go: model lifecycle endpoints
//   - handlers_compatibility.go: pair scoring and candidate ranking
//   - handlers_allocations.go: allocation runs, assignments, rooms
type Handler struct {
	store        Store
	matcher      Matcher
	allocator    Allocator
	preprocessor Preprocessor
	startTime    time.Time
}

// NewHandler creates a new API handler with all required dependencies.
//
// The health endpoints tolerate nil dependencies and report the component
// as down; operation endpoints assume full wiring.
func NewHandler(store Store, matcher Matcher, allocator Allocator, preprocessor Preprocessor) *Handler {
	return &Handler{
		store:        store,
		matcher:      matcher,
		allocator:    allocator,
		preprocessor: preprocessor,
		startTime:    time.Now(),
	}
}
