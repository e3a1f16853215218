// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package feature turns user profiles into fixed-order numeric feature
// vectors consumed by every scoring model.
//
// Encoding is a pure function of the profile record: identical profile in,
// identical vector out. Categorical fields map through fixed ordinal tables
// with the Unspecified variant landing on the neutral midpoint, so encoding
// is total — a half-filled intake record encodes without error. The text
// block is the profile's stored embedding (populated by the preprocessing
// step); profiles still awaiting an embedding get a zero text block and are
// excluded from scoring by the eligibility flag, not by an encoder failure.
package feature

import "github.com/cohabhq/cohab/internal/models"

// LayoutVersion identifies the vector layout. Any change to block order,
// block size, or an ordinal table must bump this constant; cached vectors
// and pairwise scores from older layouts are never partially reused.
const LayoutVersion = 1

// DefaultEmbeddingDim is the embedding block width used when no dimension
// is configured. It matches the default sentence-embedding model served by
// the embedding collaborator.
const DefaultEmbeddingDim = 384

// Block layout of an encoded vector.
const (
	idxSleep = iota
	idxCleanliness
	idxNoise
	idxSocial
	idxPets
	idxSmoking
	idxAge
	idxBudget
	// CategoricalNumericLen is the number of slots before the embedding block.
	CategoricalNumericLen
)

// unspecifiedCode is the neutral value every unspecified or unknown
// categorical resolves to.
const unspecifiedCode = 0.5

var sleepCodes = map[models.SleepSchedule]float64{
	models.SleepEarlyBird: 0.0,
	models.SleepNightOwl:  1.0,
	models.SleepFlexible:  0.5,
	models.SleepRegular:   0.25,
}

var cleanlinessCodes = map[models.CleanlinessLevel]float64{
	models.CleanlinessVeryClean: 1.0,
	models.CleanlinessClean:     0.75,
	models.CleanlinessModerate:  0.5,
	models.CleanlinessRelaxed:   0.25,
}

var noiseCodes = map[models.NoiseTolerance]float64{
	models.NoiseVeryQuiet: 0.0,
	models.NoiseQuiet:     0.25,
	models.NoiseModerate:  0.5,
	models.NoiseNoisy:     0.75,
}

var socialCodes = map[models.SocialPreference]float64{
	models.SocialVerySocial: 1.0,
	models.SocialSocial:     0.75,
	models.SocialModerate:   0.5,
	models.SocialIntrovert:  0.25,
}

var petCodes = map[models.PetPreference]float64{
	models.PetsLove: 1.0,
	models.PetsOK:   0.75,
	models.PetsHave: 0.5,
	models.PetsNo:   0.0,
}

var smokingCodes = map[models.SmokingPreference]float64{
	models.SmokingSmoker:    1.0,
	models.SmokingOK:        0.5,
	models.SmokingNonSmoker: 0.0,
}

// budgetScale normalizes parsed budget midpoints into [0,1]. 2000 is the
// top of the parse table ("1500+" resolves to 2000).
const budgetScale = 2000.0

// Vector is the encoded form of one profile.
type Vector struct {
	// Values is the concatenation of the categorical block, the numeric
	// block, and the embedding block, in layout order.
	Values []float64

	// LayoutVersion stamps the layout the vector was produced under.
	LayoutVersion int

	// HasEmbedding reports whether the embedding block carries a real
	// embedding or the zero placeholder.
	HasEmbedding bool
}

// CategoricalNumeric returns the leading categorical+numeric block.
func (v Vector) CategoricalNumeric() []float64 {
	if len(v.Values) < CategoricalNumericLen {
		return v.Values
	}
	return v.Values[:CategoricalNumericLen]
}

// EmbeddingBlock returns the trailing embedding block.
func (v Vector) EmbeddingBlock() []float64 {
	if len(v.Values) < CategoricalNumericLen {
		return nil
	}
	return v.Values[CategoricalNumericLen:]
}

// Encoder encodes profiles into feature vectors with a fixed embedding
// dimension. The zero-width guard makes a misconfigured encoder obvious in
// tests rather than producing ragged vectors.
type Encoder struct {
	embeddingDim int
}

// NewEncoder creates an encoder whose embedding block is embeddingDim wide.
// Non-positive dimensions fall back to DefaultEmbeddingDim.
func NewEncoder(embeddingDim int) *Encoder {
	if embeddingDim <= 0 {
		embeddingDim = DefaultEmbeddingDim
	}
	return &Encoder{embeddingDim: embeddingDim}
}

// EmbeddingDim returns the configured embedding block width.
func (e *Encoder) EmbeddingDim() int {
	return e.embeddingDim
}

// VectorLen returns the total encoded vector length.
func (e *Encoder) VectorLen() int {
	return CategoricalNumericLen + e.embeddingDim
}

// Encode produces the feature vector for a profile. It never fails: unknown
// categoricals encode as the neutral code, a missing age encodes as the
// population midpoint, and a missing embedding encodes as a zero block with
// HasEmbedding false.
func (e *Encoder) Encode(p *models.Profile) Vector {
	values := make([]float64, e.VectorLen())

	values[idxSleep] = ordinal(sleepCodes, models.ParseSleepSchedule(string(p.SleepSchedule)))
	values[idxCleanliness] = ordinal(cleanlinessCodes, models.ParseCleanlinessLevel(string(p.Cleanliness)))
	values[idxNoise] = ordinal(noiseCodes, models.ParseNoiseTolerance(string(p.NoiseTolerance)))
	values[idxSocial] = ordinal(socialCodes, models.ParseSocialPreference(string(p.SocialPreference)))
	values[idxPets] = ordinal(petCodes, models.ParsePetPreference(string(p.PetPreference)))
	values[idxSmoking] = ordinal(smokingCodes, models.ParseSmokingPreference(string(p.SmokingPreference)))
	values[idxAge] = encodeAge(p.Age)
	values[idxBudget] = clamp01(ParseBudget(p.BudgetRange) / budgetScale)

	hasEmbedding := len(p.Embedding) > 0 && !p.EmbeddingPending
	if hasEmbedding {
		// A stored embedding narrower than the configured block leaves the
		// remainder zero; a wider one truncates to the block.
		copy(values[CategoricalNumericLen:], p.Embedding)
	}

	return Vector{
		Values:        values,
		LayoutVersion: LayoutVersion,
		HasEmbedding:  hasEmbedding,
	}
}

// ordinal looks up an enum's code, defaulting to the neutral midpoint.
func ordinal[K comparable](codes map[K]float64, key K) float64 {
	if code, ok := codes[key]; ok {
		return code
	}
	return unspecifiedCode
}

// encodeAge normalizes age to [0,1] over a 0–100 range. Missing (zero) or
// out-of-range ages land on the population midpoint.
func encodeAge(age int) float64 {
	if age <= 0 || age > 100 {
		return unspecifiedCode
	}
	return float64(age) / 100.0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
