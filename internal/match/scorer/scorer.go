// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package scorer implements the three sub-score models behind the
// compatibility engine: a neighbor-similarity model, a latent-factor
// model, and a supervised blend model.
//
// Each model outputs a pair similarity in [0,1] and shares the same
// lifecycle: trained over a population snapshot, queried concurrently
// under a shared lock, and serialized to the model store as a JSON
// snapshot.
//
// # Thread Safety
//
// All models are safe for concurrent use. Training acquires an exclusive
// lock while scoring uses a shared lock.
package scorer

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// MinPopulation is the default minimum number of eligible profiles
// required to train any model.
const MinPopulation = 10

// Sentinel errors shared by all models.
var (
	// ErrTrainingDataInsufficient is returned when the eligible population
	// is below the configured minimum. The model's trained state is left
	// untouched by such a failure.
	ErrTrainingDataInsufficient = errors.New("training data insufficient")

	// ErrNotTrained is returned when a score is requested from an
	// untrained model.
	ErrNotTrained = errors.New("model not trained")

	// ErrCorruptSnapshot is returned when a persisted model blob cannot
	// be restored.
	ErrCorruptSnapshot = errors.New("corrupt model snapshot")
)

// Sample is one eligible profile's encoded feature vector, keyed by user id.
type Sample struct {
	UserID int
	Vector []float64
}

// Interaction is one implicit affinity observation between two users.
// The default source derives these from co-assignment history; any source
// producing (pair, weight) observations can feed the latent model.
type Interaction struct {
	UserA  int
	UserB  int
	Weight float64
}

// Model is the lifecycle surface common to all three sub-score models.
// The engine uses it for status reporting and persistence; scoring entry
// points are typed per model.
type Model interface {
	Name() string
	IsTrained() bool
	Version() int
	LastTrainedAt() time.Time

	// Snapshot serializes the trained state for the model store.
	Snapshot() ([]byte, error)

	// Restore replaces the model state from a persisted snapshot.
	Restore(data []byte) error
}

// Base provides the common trained-state bookkeeping for all models.
type Base struct {
	name          string
	trained       bool
	version       int
	lastTrainedAt time.Time
	mu            sync.RWMutex
}

// NewBase creates base bookkeeping with the given model name.
func NewBase(name string) Base {
	return Base{name: name}
}

// Name returns the model identifier.
func (b *Base) Name() string {
	return b.name
}

// IsTrained returns whether the model has been trained or restored.
func (b *Base) IsTrained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// Version returns the model version, incremented on every train/restore.
func (b *Base) Version() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}

// LastTrainedAt returns when the model was last trained.
func (b *Base) LastTrainedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastTrainedAt
}

// markTrained updates the trained state.
// Must be called while holding the training lock (acquireTrainLock).
func (b *Base) markTrained() {
	b.trained = true
	b.version++
	b.lastTrainedAt = time.Now()
}

// markRestored records a restore from a persisted snapshot.
// Must be called while holding the training lock.
func (b *Base) markRestored(version int, trainedAt time.Time) {
	b.trained = true
	b.version = version
	b.lastTrainedAt = trainedAt
}

// acquireTrainLock acquires the exclusive training lock.
func (b *Base) acquireTrainLock() {
	b.mu.Lock()
}

// releaseTrainLock releases the exclusive training lock.
func (b *Base) releaseTrainLock() {
	b.mu.Unlock()
}

// acquireScoreLock acquires the shared scoring lock.
func (b *Base) acquireScoreLock() {
	b.mu.RLock()
}

// releaseScoreLock releases the shared scoring lock.
func (b *Base) releaseScoreLock() {
	b.mu.RUnlock()
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (sqrt(normA) * sqrt(normB))
}

// sqrt returns the square root using Newton's method.
// This avoids importing math for a simple operation.
func sqrt(x float64) float64 {
	if x <= 0 {
		return 0
	}

	z := x
	for i := 0; i < 10; i++ {
		z = (z + x/z) / 2
	}
	return z
}

// jaccardOverlap computes Jaccard similarity between two sets.
func jaccardOverlap[T comparable](a, b []T) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	setA := make(map[T]struct{}, len(a))
	for _, id := range a {
		setA[id] = struct{}{}
	}

	intersection := 0
	setB := make(map[T]struct{}, len(b))
	for _, id := range b {
		setB[id] = struct{}{}
		if _, ok := setA[id]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

// clamp01 bounds a score to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// marshalSnapshot and unmarshalSnapshot centralize the snapshot codec so
// every model persists the same way.
func marshalSnapshot(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func unmarshalSnapshot(data []byte, v interface{}) error {
	if err := json.Unmarshal(data, v); err != nil {
		return ErrCorruptSnapshot
	}
	return nil
}

// ContextCancelled checks if the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// Ensure all models implement the lifecycle interface.
var (
	_ Model = (*NeighborModel)(nil)
	_ Model = (*LatentModel)(nil)
	_ Model = (*BlendModel)(nil)
)
