// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package match

// TrainingState is the engine's model lifecycle state.
type TrainingState int

// Lifecycle states. The engine starts untrained on every process start;
// only a successful training run or a model-store load reaches trained.
// Stale marks a trained snapshot whose inputs have changed since; its
// scores remain servable until the next retrain.
const (
	StateUntrained TrainingState = iota
	StateTraining
	StateTrained
	StateStale
)

// String returns the wire name of the state.
func (s TrainingState) String() string {
	switch s {
	case StateUntrained:
		return "untrained"
	case StateTraining:
		return "training"
	case StateTrained:
		return "trained"
	case StateStale:
		return "stale"
	default:
		return "unknown"
	}
}
