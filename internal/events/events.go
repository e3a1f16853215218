// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package events

import (
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version. Increment on
// breaking payload changes.
const SchemaVersion = 1

// Topic names.
const (
	TopicProfileUpdated       = "profile.updated"
	TopicModelsTrained        = "models.trained"
	TopicAssignmentsCommitted = "assignments.committed"
)

// ProfileUpdated signals that a profile's attributes or embedding
// changed. Cached pair scores involving the user are stale.
type ProfileUpdated struct {
	SchemaVersion int       `json:"schema_version,omitempty"`
	EventID       string    `json:"event_id"`
	UserID        int       `json:"user_id"`
	Timestamp     time.Time `json:"timestamp"`
}

// ModelsTrained signals that a new model generation is live.
type ModelsTrained struct {
	SchemaVersion int       `json:"schema_version,omitempty"`
	EventID       string    `json:"event_id"`
	ModelVersion  int       `json:"model_version"`
	Population    int       `json:"population"`
	Timestamp     time.Time `json:"timestamp"`
}

// AssignmentsCommitted signals that an allocation run recorded
// assignments.
type AssignmentsCommitted struct {
	SchemaVersion int       `json:"schema_version,omitempty"`
	EventID       string    `json:"event_id"`
	Strategy      string    `json:"strategy"`
	UserIDs       []int     `json:"user_ids"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewProfileUpdated creates the event with a unique ID and timestamp.
func NewProfileUpdated(userID int) *ProfileUpdated {
	return &ProfileUpdated{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		UserID:        userID,
		Timestamp:     time.Now().UTC(),
	}
}

// NewModelsTrained creates the event with a unique ID and timestamp.
func NewModelsTrained(modelVersion, population int) *ModelsTrained {
	return &ModelsTrained{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		ModelVersion:  modelVersion,
		Population:    population,
		Timestamp:     time.Now().UTC(),
	}
}

// NewAssignmentsCommitted creates the event with a unique ID and
// timestamp.
func NewAssignmentsCommitted(strategy string, userIDs []int) *AssignmentsCommitted {
	return &AssignmentsCommitted{
		SchemaVersion: SchemaVersion,
		EventID:       uuid.New().String(),
		Strategy:      strategy,
		UserIDs:       userIDs,
		Timestamp:     time.Now().UTC(),
	}
}
