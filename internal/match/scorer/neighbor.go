// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package scorer

import (
	"context"
	"sort"
	"time"
)

// DefaultNeighborK is the neighbor window used when no K is configured.
const DefaultNeighborK = 5

// NeighborConfig tunes the neighbor-similarity model.
type NeighborConfig struct {
	// K is the nearest-neighbor window. Ranks inside the window map to
	// the upper half of the similarity scale.
	K int

	// MinPopulation is the minimum number of eligible samples required
	// to train. Zero falls back to the package default.
	MinPopulation int
}

// DefaultNeighborConfig returns the standard neighbor model settings.
func DefaultNeighborConfig() NeighborConfig {
	return NeighborConfig{K: DefaultNeighborK, MinPopulation: MinPopulation}
}

// NeighborModel scores a pair by how highly each user ranks in the other's
// cosine-similarity neighbor ordering. Training materializes the full
// ranking for every user, so scoring is a pair of map lookups.
//
// The pair score is the mean of the two directional rank similarities:
// ranks inside the K window map to (0.5, 1.0] and the remaining ranks
// decay linearly from 0.5 toward 0, so mutual nearest neighbors score
// close to 1 and mutually distant users close to 0.
type NeighborModel struct {
	Base
	cfg NeighborConfig

	// ranks maps user id to the 1-based rank of every other trained user
	// in that user's similarity ordering.
	ranks      map[int]map[int]int
	population int
}

// NewNeighborModel creates an untrained neighbor model. Zero config values
// fall back to the package defaults.
func NewNeighborModel(cfg NeighborConfig) *NeighborModel {
	if cfg.K <= 0 {
		cfg.K = DefaultNeighborK
	}
	if cfg.MinPopulation <= 0 {
		cfg.MinPopulation = MinPopulation
	}
	return &NeighborModel{Base: NewBase("neighbor"), cfg: cfg}
}

// Train computes the pairwise similarity rankings over the sample
// population. Training below the configured minimum population fails with
// ErrTrainingDataInsufficient and leaves any previous trained state
// untouched, as does context cancellation.
func (m *NeighborModel) Train(ctx context.Context, samples []Sample) error {
	if len(samples) < m.cfg.MinPopulation {
		return ErrTrainingDataInsufficient
	}

	ordered := make([]Sample, len(samples))
	copy(ordered, samples)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].UserID < ordered[j].UserID
	})

	type scored struct {
		id  int
		sim float64
	}

	ranks := make(map[int]map[int]int, len(ordered))
	for i := range ordered {
		if ContextCancelled(ctx) {
			return ctx.Err()
		}

		neighbors := make([]scored, 0, len(ordered)-1)
		for j := range ordered {
			if i == j {
				continue
			}
			neighbors = append(neighbors, scored{
				id:  ordered[j].UserID,
				sim: cosineSimilarity(ordered[i].Vector, ordered[j].Vector),
			})
		}

		// Similarity ties break on ascending user id so rankings are
		// byte-stable across runs.
		sort.Slice(neighbors, func(a, b int) bool {
			if neighbors[a].sim != neighbors[b].sim {
				return neighbors[a].sim > neighbors[b].sim
			}
			return neighbors[a].id < neighbors[b].id
		})

		ranking := make(map[int]int, len(neighbors))
		for pos, n := range neighbors {
			ranking[n.id] = pos + 1
		}
		ranks[ordered[i].UserID] = ranking
	}

	m.acquireTrainLock()
	defer m.releaseTrainLock()
	m.ranks = ranks
	m.population = len(ordered)
	m.markTrained()
	return nil
}

// ScorePair returns the mutual-rank similarity for a pair. Users outside
// the trained population score the neutral 0.5: absence of ranking data is
// no evidence either way.
func (m *NeighborModel) ScorePair(userA, userB int) (float64, error) {
	m.acquireScoreLock()
	defer m.releaseScoreLock()

	if !m.trained {
		return 0, ErrNotTrained
	}
	if userA == userB {
		return 1, nil
	}

	ranksA, okA := m.ranks[userA]
	ranksB, okB := m.ranks[userB]
	if !okA || !okB {
		return 0.5, nil
	}

	candidates := m.population - 1
	forward := m.rankSimilarity(ranksA[userB], candidates)
	backward := m.rankSimilarity(ranksB[userA], candidates)
	return clamp01((forward + backward) / 2), nil
}

// InPopulation reports whether a user was part of the trained population.
func (m *NeighborModel) InPopulation(userID int) bool {
	m.acquireScoreLock()
	defer m.releaseScoreLock()
	_, ok := m.ranks[userID]
	return ok
}

// Population returns the size of the trained population.
func (m *NeighborModel) Population() int {
	m.acquireScoreLock()
	defer m.releaseScoreLock()
	return m.population
}

// rankSimilarity converts a 1-based neighbor rank among candidates into a
// similarity. Ranks within the K window occupy (0.5, 1.0]; the remaining
// ranks fall back to a linear decay over the full ranking tail, from 0.5
// down to 0 at the last rank.
func (m *NeighborModel) rankSimilarity(rank, candidates int) float64 {
	if rank <= 0 || candidates <= 0 {
		return 0
	}
	k := m.cfg.K
	if k > candidates {
		k = candidates
	}
	if rank <= k {
		return 1.0 - 0.5*float64(rank-1)/float64(k)
	}
	tail := candidates - k
	return 0.5 * (1.0 - float64(rank-k)/float64(tail))
}

type neighborSnapshot struct {
	K          int                 `json:"k"`
	Population int                 `json:"population"`
	Ranks      map[int]map[int]int `json:"ranks"`
	Version    int                 `json:"version"`
	TrainedAt  time.Time           `json:"trained_at"`
}

// Snapshot serializes the trained rankings.
func (m *NeighborModel) Snapshot() ([]byte, error) {
	m.acquireScoreLock()
	defer m.releaseScoreLock()

	if !m.trained {
		return nil, ErrNotTrained
	}
	return marshalSnapshot(neighborSnapshot{
		K:          m.cfg.K,
		Population: m.population,
		Ranks:      m.ranks,
		Version:    m.version,
		TrainedAt:  m.lastTrainedAt,
	})
}

// Restore replaces the model state from a persisted snapshot.
func (m *NeighborModel) Restore(data []byte) error {
	var snap neighborSnapshot
	if err := unmarshalSnapshot(data, &snap); err != nil {
		return err
	}
	if snap.Population <= 0 || len(snap.Ranks) == 0 {
		return ErrCorruptSnapshot
	}

	m.acquireTrainLock()
	defer m.releaseTrainLock()
	if snap.K > 0 {
		m.cfg.K = snap.K
	}
	m.ranks = snap.Ranks
	m.population = snap.Population
	m.markRestored(snap.Version, snap.TrainedAt)
	return nil
}
