// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package allocation

import (
	"fmt"
	"time"

	"github.com/cohabhq/cohab/internal/models"
)

// Strategy selects the placement policy for an allocation run.
type Strategy string

const (
	StrategyCompatibilityFirst Strategy = "compatibility_first"
	StrategyBudgetFirst        Strategy = "budget_first"
	StrategyLocationFirst      Strategy = "location_first"
	StrategyBalanced           Strategy = "balanced"
)

// ParseStrategy validates a strategy name from an API request or
// config file.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyCompatibilityFirst, StrategyBudgetFirst, StrategyLocationFirst, StrategyBalanced:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Valid reports whether s is one of the supported strategies.
func (s Strategy) Valid() bool {
	_, err := ParseStrategy(string(s))
	return err == nil
}

// requiresScores reports whether the strategy cannot run without
// trained compatibility models. budget_first and location_first use
// scores only for roommate tie-breaks and degrade to ascending-id
// order when models are untrained.
func (s Strategy) requiresScores() bool {
	return s == StrategyCompatibilityFirst || s == StrategyBalanced
}

// Config tunes allocation behavior. The zero value is usable via
// withDefaults.
type Config struct {
	// BudgetTolerance is the fraction above a user's stated budget a
	// room's rent may reach and still count as affordable.
	BudgetTolerance float64

	// Composite weights for the balanced strategy. They are used as
	// given; callers should keep them summing to 1.
	CompatibilityWeight float64
	BudgetWeight        float64
	LocationWeight      float64
}

// DefaultConfig returns the standard allocation tuning.
func DefaultConfig() Config {
	return Config{
		BudgetTolerance:     0.10,
		CompatibilityWeight: 0.5,
		BudgetWeight:        0.3,
		LocationWeight:      0.2,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.BudgetTolerance <= 0 {
		c.BudgetTolerance = def.BudgetTolerance
	}
	if c.CompatibilityWeight <= 0 && c.BudgetWeight <= 0 && c.LocationWeight <= 0 {
		c.CompatibilityWeight = def.CompatibilityWeight
		c.BudgetWeight = def.BudgetWeight
		c.LocationWeight = def.LocationWeight
	}
	return c
}

// Request describes one allocation run.
type Request struct {
	Strategy Strategy `json:"strategy"`

	// Reallocate lets users who already hold an active assignment
	// re-enter the pool. Their current assignment is superseded in the
	// same transaction that commits the run.
	Reallocate bool `json:"reallocate"`

	// UserIDs restricts the run to the listed users. Empty means all
	// eligible users.
	UserIDs []int `json:"user_ids,omitempty"`
}

// Statistics summarizes a run. Rates are percentages in [0, 100] and
// are computed from the run outcome, never stored.
type Statistics struct {
	UsersConsidered int     `json:"users_considered"`
	UsersAssigned   int     `json:"users_assigned"`
	RoomsFilled     int     `json:"rooms_filled"`
	OccupancyRate   float64 `json:"occupancy_rate"`
	AssignmentRate  float64 `json:"assignment_rate"`
}

// Result reports everything a run decided. An infeasible run (no
// users, or no open slots) is a valid empty result, not an error.
// Skipped lists requested user ids that are not eligible; Held lists
// requested users excluded because they already hold an active
// assignment and reallocation was not asked for.
type Result struct {
	Strategy    Strategy            `json:"strategy"`
	Assignments []models.Assignment `json:"assignments"`
	Unassigned  []int               `json:"unassigned,omitempty"`
	Skipped     []int               `json:"skipped,omitempty"`
	Held        []int               `json:"held,omitempty"`
	OpenRooms   []int               `json:"open_rooms,omitempty"`
	Infeasible  bool                `json:"infeasible"`
	Stats       Statistics          `json:"stats"`
	RunAt       time.Time           `json:"run_at"`
}

// Status reports engine-level run state for the status endpoint.
type Status struct {
	Running        bool      `json:"running"`
	TotalRuns      int64     `json:"total_runs"`
	LastRunAt      time.Time `json:"last_run_at"`
	LastStrategy   string    `json:"last_strategy,omitempty"`
	LastAssigned   int       `json:"last_assigned"`
	LastUnassigned int       `json:"last_unassigned"`
}
