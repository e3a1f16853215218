// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package feature

import (
	"reflect"
	"testing"

	"github.com/cohabhq/cohab/internal/models"
)

func testProfile() *models.Profile {
	return &models.Profile{
		ID:                 1,
		Name:               "Ada",
		Age:                28,
		SleepSchedule:      models.SleepNightOwl,
		Cleanliness:        models.CleanlinessClean,
		NoiseTolerance:     models.NoiseQuiet,
		SocialPreference:   models.SocialModerate,
		PetPreference:      models.PetsNo,
		SmokingPreference:  models.SmokingNonSmoker,
		Hobbies:            "chess, hiking",
		BudgetRange:        "750-1000",
		LocationPreference: "north",
		Embedding:          []float64{0.25, -0.5, 0.75},
	}
}

func TestEncodeDeterministic(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(3)
	p := testProfile()

	first := enc.Encode(p)
	second := enc.Encode(p)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Encode not deterministic: %v vs %v", first, second)
	}
	if first.LayoutVersion != LayoutVersion {
		t.Errorf("LayoutVersion = %d, want %d", first.LayoutVersion, LayoutVersion)
	}
}

func TestEncodeLayout(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(3)
	v := enc.Encode(testProfile())

	if len(v.Values) != CategoricalNumericLen+3 {
		t.Fatalf("vector length = %d, want %d", len(v.Values), CategoricalNumericLen+3)
	}

	want := []float64{
		1.0,  // night_owl
		0.75, // clean
		0.25, // quiet
		0.5,  // moderate social
		0.0,  // no_pets
		0.0,  // non_smoker
		0.28, // age 28
		875.0 / 2000.0,
	}
	got := v.CategoricalNumeric()
	for i, w := range want {
		if diff := got[i] - w; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("slot %d = %v, want %v", i, got[i], w)
		}
	}

	if !reflect.DeepEqual(v.EmbeddingBlock(), []float64{0.25, -0.5, 0.75}) {
		t.Errorf("embedding block = %v", v.EmbeddingBlock())
	}
	if !v.HasEmbedding {
		t.Error("HasEmbedding = false for populated embedding")
	}
}

func TestEncodeTotalOnMalformedProfile(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(4)

	tests := []struct {
		name    string
		profile models.Profile
	}{
		{"zero profile", models.Profile{}},
		{"garbage categoricals", models.Profile{
			SleepSchedule:     "sometimes",
			Cleanliness:       "extreme",
			NoiseTolerance:    "???",
			SocialPreference:  "party animal",
			PetPreference:     "dragons",
			SmokingPreference: "pipe",
			BudgetRange:       "whatever works",
		}},
		{"negative age", models.Profile{Age: -4}},
		{"huge age", models.Profile{Age: 900}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			v := enc.Encode(&tt.profile)
			if len(v.Values) != enc.VectorLen() {
				t.Fatalf("vector length = %d, want %d", len(v.Values), enc.VectorLen())
			}
			// Every unspecified categorical and out-of-range age lands on
			// the neutral code.
			for i := 0; i <= idxAge; i++ {
				if v.Values[i] != 0.5 {
					t.Errorf("slot %d = %v, want neutral 0.5", i, v.Values[i])
				}
			}
			if v.HasEmbedding {
				t.Error("HasEmbedding = true without embedding")
			}
		})
	}
}

func TestEncodePendingEmbeddingZeroBlock(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(3)
	p := testProfile()
	p.EmbeddingPending = true

	v := enc.Encode(p)
	if v.HasEmbedding {
		t.Error("HasEmbedding = true for pending profile")
	}
	for i, val := range v.EmbeddingBlock() {
		if val != 0 {
			t.Errorf("embedding slot %d = %v, want 0", i, val)
		}
	}
}

func TestEncodeShortEmbeddingPadsZero(t *testing.T) {
	t.Parallel()

	enc := NewEncoder(5)
	p := testProfile() // 3-dim embedding into a 5-dim block

	v := enc.Encode(p)
	block := v.EmbeddingBlock()
	if block[3] != 0 || block[4] != 0 {
		t.Errorf("expected zero padding, got %v", block)
	}
}
