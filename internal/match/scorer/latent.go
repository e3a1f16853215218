// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package scorer

import (
	"context"
	"math"
	"sort"
	"time"
)

// LatentConfig tunes the latent-factor model.
type LatentConfig struct {
	// NumFactors is the dimension of the latent factor vectors.
	NumFactors int

	// NumIterations is the number of alternating optimization passes.
	NumIterations int

	// Regularization is the L2 regularization parameter.
	Regularization float64

	// Alpha scales the confidence transformation for implicit
	// observations: c = 1 + alpha * w.
	Alpha float64

	// MinPopulation is the minimum number of eligible samples required
	// to train. Zero falls back to the package default.
	MinPopulation int
}

// DefaultLatentConfig returns the standard latent model settings. The
// factor dimension is kept small because housing populations are orders of
// magnitude below typical collaborative-filtering corpora.
func DefaultLatentConfig() LatentConfig {
	return LatentConfig{
		NumFactors:     16,
		NumIterations:  15,
		Regularization: 0.05,
		Alpha:          40.0,
		MinPopulation:  MinPopulation,
	}
}

// LatentModel factorizes the implicit user-to-user interaction matrix with
// alternating least squares, following "Collaborative Filtering for
// Implicit Feedback Datasets" (Hu, Koren, Volinsky, 2008). Interactions
// are symmetric co-living observations, so the matrix is mirrored and both
// factor sides range over the same user set.
//
// The objective minimizes
//
//	sum_{u,v} c_uv * (p_uv - x_u' * y_v)^2 + lambda * (||x_u||^2 + ||y_v||^2)
//
// where p_uv = 1 when u and v have interacted and c_uv = 1 + alpha * w_uv.
// A pair scores as the cosine of the two subject-side factor vectors,
// rescaled from [-1,1] to [0,1]. Users without interaction history have no
// factors and score the cold-start neutral 0.5.
//
// Training is fully deterministic: factor initialization is a fixed
// pattern of the row and factor index, and partner lists are processed in
// ascending index order so float accumulation order never varies.
type LatentModel struct {
	Base
	cfg LatentConfig

	factors map[int][]float64
}

// NewLatentModel creates an untrained latent model. Zero config values
// fall back to the package defaults.
func NewLatentModel(cfg LatentConfig) *LatentModel {
	def := DefaultLatentConfig()
	if cfg.NumFactors <= 0 {
		cfg.NumFactors = def.NumFactors
	}
	if cfg.NumIterations <= 0 {
		cfg.NumIterations = def.NumIterations
	}
	if cfg.Regularization <= 0 {
		cfg.Regularization = def.Regularization
	}
	if cfg.Alpha <= 0 {
		cfg.Alpha = def.Alpha
	}
	if cfg.MinPopulation <= 0 {
		cfg.MinPopulation = MinPopulation
	}
	return &LatentModel{Base: NewBase("latent"), cfg: cfg}
}

// weightedPartner is one confidence-weighted neighbor of a matrix row.
type weightedPartner struct {
	idx  int
	conf float64
}

// Train factorizes the interaction matrix. The population gates training:
// fewer eligible samples than the configured minimum fails with
// ErrTrainingDataInsufficient and leaves previous state untouched. An
// empty interaction history trains an empty model whose every pair scores
// the cold-start neutral.
func (m *LatentModel) Train(ctx context.Context, population []Sample, interactions []Interaction) error {
	if len(population) < m.cfg.MinPopulation {
		return ErrTrainingDataInsufficient
	}
	if ContextCancelled(ctx) {
		return ctx.Err()
	}

	userIndex := make(map[int]int)
	var indexToUser []int
	index := func(id int) int {
		if row, ok := userIndex[id]; ok {
			return row
		}
		row := len(indexToUser)
		userIndex[id] = row
		indexToUser = append(indexToUser, id)
		return row
	}

	// Mirror every observation so the matrix is symmetric; duplicates
	// keep the highest confidence.
	confByRow := make(map[int]map[int]float64)
	record := func(row, partner int, conf float64) {
		if confByRow[row] == nil {
			confByRow[row] = make(map[int]float64)
		}
		if conf > confByRow[row][partner] {
			confByRow[row][partner] = conf
		}
	}
	for _, inter := range interactions {
		if inter.Weight <= 0 || inter.UserA == inter.UserB {
			continue
		}
		a := index(inter.UserA)
		b := index(inter.UserB)
		conf := 1.0 + m.cfg.Alpha*inter.Weight
		record(a, b, conf)
		record(b, a, conf)
	}

	numUsers := len(indexToUser)
	numFactors := m.cfg.NumFactors

	if numUsers == 0 {
		m.acquireTrainLock()
		defer m.releaseTrainLock()
		m.factors = make(map[int][]float64)
		m.markTrained()
		return nil
	}

	partners := make([][]weightedPartner, numUsers)
	for row := 0; row < numUsers; row++ {
		confs := confByRow[row]
		list := make([]weightedPartner, 0, len(confs))
		for idx, conf := range confs {
			list = append(list, weightedPartner{idx: idx, conf: conf})
		}
		sort.Slice(list, func(i, j int) bool { return list[i].idx < list[j].idx })
		partners[row] = list
	}

	// Deterministic small-value initialization.
	initSide := func() [][]float64 {
		side := make([][]float64, numUsers)
		for u := 0; u < numUsers; u++ {
			side[u] = make([]float64, numFactors)
			for f := 0; f < numFactors; f++ {
				side[u][f] = 0.1 * (float64((u*numFactors+f)%1000)/1000.0 - 0.5)
			}
		}
		return side
	}
	subject := initSide()
	partner := initSide()

	lambda := m.cfg.Regularization
	for iter := 0; iter < m.cfg.NumIterations; iter++ {
		if ContextCancelled(ctx) {
			return ctx.Err()
		}
		updateSide(subject, partner, partners, lambda)
		updateSide(partner, subject, partners, lambda)
	}

	factors := make(map[int][]float64, numUsers)
	for row, id := range indexToUser {
		factors[id] = subject[row]
	}

	m.acquireTrainLock()
	defer m.releaseTrainLock()
	m.factors = factors
	m.markTrained()
	return nil
}

// updateSide solves one half of the alternating optimization: every row of
// target is refit against the fixed source side. Rows are independent, so
// each solve is a dense normal-equation system over the factor dimension.
func updateSide(target, source [][]float64, partners [][]weightedPartner, lambda float64) {
	numFactors := 0
	if len(source) > 0 {
		numFactors = len(source[0])
	}

	// Precompute S'S once per half-pass.
	sts := make([][]float64, numFactors)
	for f := range sts {
		sts[f] = make([]float64, numFactors)
	}
	for _, row := range source {
		for f1 := 0; f1 < numFactors; f1++ {
			for f2 := f1; f2 < numFactors; f2++ {
				sts[f1][f2] += row[f1] * row[f2]
				if f1 != f2 {
					sts[f2][f1] = sts[f1][f2]
				}
			}
		}
	}

	a := make([][]float64, numFactors)
	for f := range a {
		a[f] = make([]float64, numFactors)
	}
	b := make([]float64, numFactors)

	for u := range target {
		for f := range a {
			copy(a[f], sts[f])
			a[f][f] += lambda
			b[f] = 0
		}

		// A += (c - 1) * s * s' and b += c * s per observed partner.
		for _, p := range partners[u] {
			s := source[p.idx]
			cMinus1 := p.conf - 1.0
			for f1 := 0; f1 < numFactors; f1++ {
				for f2 := f1; f2 < numFactors; f2++ {
					delta := cMinus1 * s[f1] * s[f2]
					a[f1][f2] += delta
					if f1 != f2 {
						a[f2][f1] += delta
					}
				}
				b[f1] += p.conf * s[f1]
			}
		}

		target[u] = solveLinearSystem(a, b)
	}
}

// solveLinearSystem solves A*x = b via Cholesky decomposition with
// forward and back substitution. Non-positive pivots are floored to keep
// the decomposition defined on near-singular systems.
func solveLinearSystem(a [][]float64, b []float64) []float64 {
	n := len(b)

	lower := make([][]float64, n)
	for i := range lower {
		lower[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := a[i][j]
			for k := 0; k < j; k++ {
				sum -= lower[i][k] * lower[j][k]
			}

			if i == j {
				if sum <= 0 {
					sum = 1e-10
				}
				lower[i][j] = math.Sqrt(sum)
			} else if lower[j][j] != 0 {
				lower[i][j] = sum / lower[j][j]
			}
		}
	}

	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= lower[i][j] * z[j]
		}
		if lower[i][i] != 0 {
			z[i] = sum / lower[i][i]
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= lower[j][i] * x[j]
		}
		if lower[i][i] != 0 {
			x[i] = sum / lower[i][i]
		}
	}

	return x
}

// ScorePair returns the factor-space similarity for a pair. Either user
// missing factors yields the cold-start neutral 0.5; callers can detect
// that through HasFactors for confidence reporting.
func (m *LatentModel) ScorePair(userA, userB int) (float64, error) {
	m.acquireScoreLock()
	defer m.releaseScoreLock()

	if !m.trained {
		return 0, ErrNotTrained
	}
	if userA == userB {
		return 1, nil
	}

	fa, okA := m.factors[userA]
	fb, okB := m.factors[userB]
	if !okA || !okB {
		return 0.5, nil
	}

	return clamp01((cosineSimilarity(fa, fb) + 1) / 2), nil
}

// HasFactors reports whether a user accumulated enough interaction
// history to hold a factor vector.
func (m *LatentModel) HasFactors(userID int) bool {
	m.acquireScoreLock()
	defer m.releaseScoreLock()
	_, ok := m.factors[userID]
	return ok
}

type latentSnapshot struct {
	NumFactors int               `json:"num_factors"`
	Factors    map[int][]float64 `json:"factors"`
	Version    int               `json:"version"`
	TrainedAt  time.Time         `json:"trained_at"`
}

// Snapshot serializes the trained factors.
func (m *LatentModel) Snapshot() ([]byte, error) {
	m.acquireScoreLock()
	defer m.releaseScoreLock()

	if !m.trained {
		return nil, ErrNotTrained
	}
	return marshalSnapshot(latentSnapshot{
		NumFactors: m.cfg.NumFactors,
		Factors:    m.factors,
		Version:    m.version,
		TrainedAt:  m.lastTrainedAt,
	})
}

// Restore replaces the model state from a persisted snapshot. An empty
// factor map is valid: it restores a model trained before any interaction
// history existed.
func (m *LatentModel) Restore(data []byte) error {
	var snap latentSnapshot
	if err := unmarshalSnapshot(data, &snap); err != nil {
		return err
	}
	if snap.NumFactors <= 0 {
		return ErrCorruptSnapshot
	}
	for _, f := range snap.Factors {
		if len(f) != snap.NumFactors {
			return ErrCorruptSnapshot
		}
	}

	m.acquireTrainLock()
	defer m.releaseTrainLock()
	m.cfg.NumFactors = snap.NumFactors
	m.factors = snap.Factors
	if m.factors == nil {
		m.factors = make(map[int][]float64)
	}
	m.markRestored(snap.Version, snap.TrainedAt)
	return nil
}
