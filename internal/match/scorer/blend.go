// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package scorer

import (
	"context"
	"math"
	"time"
)

// Fixed blend weights used when no trained blend model is available. The
// two learned similarity signals dominate; rule-based agreement breaks the
// remainder.
const (
	FallbackNeighborWeight  = 0.4
	FallbackLatentWeight    = 0.4
	FallbackAgreementWeight = 0.2
)

// numBlendFeatures is the width of the blend feature vector.
const numBlendFeatures = 4

// blendFeatureNames labels the feature vector positions for explanations.
var blendFeatureNames = [numBlendFeatures]string{"neighbor", "latent", "agreement", "hobby_overlap"}

// PairFeatures carries one pair's sub-score inputs to the blend model.
type PairFeatures struct {
	Neighbor  float64
	Latent    float64
	Agreement Agreement
}

// vector lays the features out in blendFeatureNames order.
func (f PairFeatures) vector() []float64 {
	return []float64{f.Neighbor, f.Latent, f.Agreement.Score(), f.Agreement.HobbyOverlap}
}

// FallbackScore combines the sub-scores with the fixed weights. Used for
// the final score whenever the blend model is untrained.
func FallbackScore(f PairFeatures) float64 {
	return clamp01(FallbackNeighborWeight*f.Neighbor +
		FallbackLatentWeight*f.Latent +
		FallbackAgreementWeight*f.Agreement.Score())
}

// PairExample is one labeled training observation for the blend model.
// Positive labels come from pairs that actually lived together; negative
// labels come from deterministic sampling of never-matched pairs.
type PairExample struct {
	Features PairFeatures
	Label    float64
}

// BlendConfig tunes the blend model's logistic regression fit.
type BlendConfig struct {
	// LearningRate is the gradient descent step size.
	LearningRate float64

	// NumIterations is the number of full-batch gradient passes.
	NumIterations int

	// Regularization is the L2 penalty on the feature weights. The bias
	// is never regularized.
	Regularization float64
}

// DefaultBlendConfig returns the standard blend model settings.
func DefaultBlendConfig() BlendConfig {
	return BlendConfig{
		LearningRate:   0.1,
		NumIterations:  200,
		Regularization: 0.001,
	}
}

// BlendModel calibrates the final compatibility score with logistic
// regression over the sub-score features. Weights initialize to zero and
// training is full-batch, so identical examples always fit identical
// weights.
//
// The blend is the only supervised model and the only one allowed to stay
// untrained after a successful engine training run: with no co-living
// history there are no labels, and callers fall back to FallbackScore.
type BlendModel struct {
	Base
	cfg BlendConfig

	// weights is the bias followed by one weight per feature.
	weights []float64
}

// NewBlendModel creates an untrained blend model. Zero config values fall
// back to the package defaults.
func NewBlendModel(cfg BlendConfig) *BlendModel {
	def := DefaultBlendConfig()
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = def.LearningRate
	}
	if cfg.NumIterations <= 0 {
		cfg.NumIterations = def.NumIterations
	}
	if cfg.Regularization <= 0 {
		cfg.Regularization = def.Regularization
	}
	return &BlendModel{Base: NewBase("blend"), cfg: cfg}
}

// Train fits the logistic weights. Both label classes must be present:
// a single-class corpus carries no ranking signal and fails with
// ErrTrainingDataInsufficient, leaving previous state untouched.
func (m *BlendModel) Train(ctx context.Context, examples []PairExample) error {
	var positives, negatives int
	for _, ex := range examples {
		if ex.Label > 0.5 {
			positives++
		} else {
			negatives++
		}
	}
	if positives == 0 || negatives == 0 {
		return ErrTrainingDataInsufficient
	}

	vectors := make([][]float64, len(examples))
	labels := make([]float64, len(examples))
	for i, ex := range examples {
		vectors[i] = ex.Features.vector()
		labels[i] = ex.Label
	}

	weights := make([]float64, numBlendFeatures+1)
	grad := make([]float64, numBlendFeatures+1)
	count := float64(len(examples))

	for iter := 0; iter < m.cfg.NumIterations; iter++ {
		if ContextCancelled(ctx) {
			return ctx.Err()
		}

		for i := range grad {
			grad[i] = 0
		}
		for i, vec := range vectors {
			residual := sigmoid(dotWithBias(weights, vec)) - labels[i]
			grad[0] += residual
			for f, v := range vec {
				grad[f+1] += residual * v
			}
		}

		weights[0] -= m.cfg.LearningRate * grad[0] / count
		for f := 1; f < len(weights); f++ {
			weights[f] -= m.cfg.LearningRate * (grad[f]/count + m.cfg.Regularization*weights[f])
		}
	}

	m.acquireTrainLock()
	defer m.releaseTrainLock()
	m.weights = weights
	m.markTrained()
	return nil
}

// ScoreFeatures returns the calibrated probability that a pair with these
// features belongs together.
func (m *BlendModel) ScoreFeatures(f PairFeatures) (float64, error) {
	m.acquireScoreLock()
	defer m.releaseScoreLock()

	if !m.trained {
		return 0, ErrNotTrained
	}
	return clamp01(sigmoid(dotWithBias(m.weights, f.vector()))), nil
}

// FeatureWeights returns the learned weight per feature name plus the
// bias, for explanation output. Returns nil when untrained.
func (m *BlendModel) FeatureWeights() map[string]float64 {
	m.acquireScoreLock()
	defer m.releaseScoreLock()

	if !m.trained {
		return nil
	}
	out := make(map[string]float64, numBlendFeatures+1)
	out["bias"] = m.weights[0]
	for i, name := range blendFeatureNames {
		out[name] = m.weights[i+1]
	}
	return out
}

func dotWithBias(weights, vec []float64) float64 {
	z := weights[0]
	for i, v := range vec {
		z += weights[i+1] * v
	}
	return z
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}

type blendSnapshot struct {
	Weights   []float64 `json:"weights"`
	Version   int       `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
}

// Snapshot serializes the fitted weights.
func (m *BlendModel) Snapshot() ([]byte, error) {
	m.acquireScoreLock()
	defer m.releaseScoreLock()

	if !m.trained {
		return nil, ErrNotTrained
	}
	return marshalSnapshot(blendSnapshot{
		Weights:   m.weights,
		Version:   m.version,
		TrainedAt: m.lastTrainedAt,
	})
}

// Restore replaces the model state from a persisted snapshot.
func (m *BlendModel) Restore(data []byte) error {
	var snap blendSnapshot
	if err := unmarshalSnapshot(data, &snap); err != nil {
		return err
	}
	if len(snap.Weights) != numBlendFeatures+1 {
		return ErrCorruptSnapshot
	}

	m.acquireTrainLock()
	defer m.releaseTrainLock()
	m.weights = snap.Weights
	m.markRestored(snap.Version, snap.TrainedAt)
	return nil
}
