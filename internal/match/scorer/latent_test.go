// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package scorer

import (
	"context"
	"errors"
	"math"
	"testing"
)

func TestNewLatentModel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    LatentConfig
		verify func(t *testing.T, m *LatentModel)
	}{
		{
			name: "applies defaults for zero config",
			cfg:  LatentConfig{},
			verify: func(t *testing.T, m *LatentModel) {
				def := DefaultLatentConfig()
				if m.cfg.NumFactors != def.NumFactors {
					t.Errorf("NumFactors = %d, want %d", m.cfg.NumFactors, def.NumFactors)
				}
				if m.cfg.NumIterations != def.NumIterations {
					t.Errorf("NumIterations = %d, want %d", m.cfg.NumIterations, def.NumIterations)
				}
				if m.cfg.Regularization != def.Regularization {
					t.Errorf("Regularization = %v, want %v", m.cfg.Regularization, def.Regularization)
				}
				if m.cfg.Alpha != def.Alpha {
					t.Errorf("Alpha = %v, want %v", m.cfg.Alpha, def.Alpha)
				}
			},
		},
		{
			name: "uses provided config values",
			cfg:  LatentConfig{NumFactors: 8, NumIterations: 5, Regularization: 0.1, Alpha: 10},
			verify: func(t *testing.T, m *LatentModel) {
				if m.cfg.NumFactors != 8 {
					t.Errorf("NumFactors = %d, want 8", m.cfg.NumFactors)
				}
				if m.cfg.NumIterations != 5 {
					t.Errorf("NumIterations = %d, want 5", m.cfg.NumIterations)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := NewLatentModel(tt.cfg)
			if m == nil {
				t.Fatal("NewLatentModel() returned nil")
			}
			if m.Name() != "latent" {
				t.Errorf("Name() = %q, want %q", m.Name(), "latent")
			}
			tt.verify(t, m)
		})
	}
}

func TestLatentModel_Train(t *testing.T) {
	t.Parallel()

	interactions := []Interaction{
		{UserA: 1, UserB: 9, Weight: 1.0},
		{UserA: 2, UserB: 9, Weight: 1.0},
		{UserA: 3, UserB: 10, Weight: 1.0},
	}

	t.Run("below minimum population fails and stays untrained", func(t *testing.T) {
		t.Parallel()

		m := NewLatentModel(LatentConfig{})
		err := m.Train(context.Background(), fanSamples()[:5], interactions)
		if !errors.Is(err, ErrTrainingDataInsufficient) {
			t.Fatalf("Train() error = %v, want ErrTrainingDataInsufficient", err)
		}
		if m.IsTrained() {
			t.Error("IsTrained() = true after failed training")
		}
	})

	t.Run("empty interaction history trains an empty model", func(t *testing.T) {
		t.Parallel()

		m := NewLatentModel(LatentConfig{})
		if err := m.Train(context.Background(), fanSamples(), nil); err != nil {
			t.Fatalf("Train() error = %v", err)
		}
		if !m.IsTrained() {
			t.Fatal("IsTrained() = false after training")
		}

		got, err := m.ScorePair(1, 2)
		if err != nil {
			t.Fatalf("ScorePair() error = %v", err)
		}
		if got != 0.5 {
			t.Errorf("ScorePair(1, 2) = %v, want cold-start 0.5", got)
		}
		if m.HasFactors(1) {
			t.Error("HasFactors(1) = true with no interaction history")
		}
	})

	t.Run("interacting users receive factors", func(t *testing.T) {
		t.Parallel()

		m := NewLatentModel(LatentConfig{})
		if err := m.Train(context.Background(), fanSamples(), interactions); err != nil {
			t.Fatalf("Train() error = %v", err)
		}

		for _, id := range []int{1, 2, 3, 9, 10} {
			if !m.HasFactors(id) {
				t.Errorf("HasFactors(%d) = false, want true", id)
			}
		}
		for _, id := range []int{4, 5, 6, 7, 8, 11, 12} {
			if m.HasFactors(id) {
				t.Errorf("HasFactors(%d) = true, want false", id)
			}
		}
	})

	t.Run("zero and self interactions are ignored", func(t *testing.T) {
		t.Parallel()

		m := NewLatentModel(LatentConfig{})
		noise := []Interaction{
			{UserA: 4, UserB: 4, Weight: 1.0},
			{UserA: 5, UserB: 6, Weight: 0},
		}
		if err := m.Train(context.Background(), fanSamples(), noise); err != nil {
			t.Fatalf("Train() error = %v", err)
		}
		for _, id := range []int{4, 5, 6} {
			if m.HasFactors(id) {
				t.Errorf("HasFactors(%d) = true, want false", id)
			}
		}
	})

	t.Run("cancelled context aborts without state change", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		m := NewLatentModel(LatentConfig{})
		if err := m.Train(ctx, fanSamples(), interactions); !errors.Is(err, context.Canceled) {
			t.Fatalf("Train() error = %v, want context.Canceled", err)
		}
		if m.IsTrained() {
			t.Error("IsTrained() = true after cancelled training")
		}
	})
}

func TestLatentModel_ScorePair(t *testing.T) {
	t.Parallel()

	m := NewLatentModel(LatentConfig{})
	interactions := []Interaction{
		{UserA: 1, UserB: 9, Weight: 1.0},
		{UserA: 2, UserB: 9, Weight: 1.0},
		{UserA: 3, UserB: 10, Weight: 1.0},
	}
	if err := m.Train(context.Background(), fanSamples(), interactions); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	t.Run("identical interaction history factorizes identically", func(t *testing.T) {
		// Users 1 and 2 share the exact same partner list, so every
		// alternating pass solves the same system for both rows and
		// their factors stay bitwise equal.
		got, err := m.ScorePair(1, 2)
		if err != nil {
			t.Fatalf("ScorePair() error = %v", err)
		}
		if got != 1.0 {
			t.Errorf("ScorePair(1, 2) = %v, want 1.0", got)
		}
	})

	t.Run("disjoint histories score below identical ones", func(t *testing.T) {
		same, err := m.ScorePair(1, 2)
		if err != nil {
			t.Fatalf("ScorePair(1, 2) error = %v", err)
		}
		disjoint, err := m.ScorePair(1, 3)
		if err != nil {
			t.Fatalf("ScorePair(1, 3) error = %v", err)
		}
		if disjoint >= same {
			t.Errorf("disjoint pair %v not below identical pair %v", disjoint, same)
		}
	})

	t.Run("symmetric in argument order", func(t *testing.T) {
		forward, err := m.ScorePair(1, 9)
		if err != nil {
			t.Fatalf("ScorePair(1, 9) error = %v", err)
		}
		backward, err := m.ScorePair(9, 1)
		if err != nil {
			t.Fatalf("ScorePair(9, 1) error = %v", err)
		}
		if forward != backward {
			t.Errorf("ScorePair(1, 9) = %v but reversed = %v", forward, backward)
		}
	})

	t.Run("cold-start users score neutral", func(t *testing.T) {
		for _, pair := range [][2]int{{1, 6}, {6, 7}, {6, 999}} {
			got, err := m.ScorePair(pair[0], pair[1])
			if err != nil {
				t.Fatalf("ScorePair(%d, %d) error = %v", pair[0], pair[1], err)
			}
			if got != 0.5 {
				t.Errorf("ScorePair(%d, %d) = %v, want 0.5", pair[0], pair[1], got)
			}
		}
	})

	t.Run("scores stay within bounds", func(t *testing.T) {
		for _, pair := range [][2]int{{1, 9}, {2, 9}, {3, 10}, {1, 3}, {9, 10}} {
			got, err := m.ScorePair(pair[0], pair[1])
			if err != nil {
				t.Fatalf("ScorePair(%d, %d) error = %v", pair[0], pair[1], err)
			}
			if got < 0 || got > 1 {
				t.Errorf("ScorePair(%d, %d) = %v outside [0,1]", pair[0], pair[1], got)
			}
		}
	})

	t.Run("untrained model returns ErrNotTrained", func(t *testing.T) {
		fresh := NewLatentModel(LatentConfig{})
		if _, err := fresh.ScorePair(1, 2); !errors.Is(err, ErrNotTrained) {
			t.Errorf("ScorePair() error = %v, want ErrNotTrained", err)
		}
	})
}

func TestLatentModel_Determinism(t *testing.T) {
	t.Parallel()

	interactions := []Interaction{
		{UserA: 1, UserB: 9, Weight: 1.0},
		{UserA: 2, UserB: 9, Weight: 0.5},
		{UserA: 3, UserB: 10, Weight: 1.0},
		{UserA: 9, UserB: 10, Weight: 1.0},
	}

	first := NewLatentModel(LatentConfig{})
	second := NewLatentModel(LatentConfig{})
	if err := first.Train(context.Background(), fanSamples(), interactions); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if err := second.Train(context.Background(), fanSamples(), interactions); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	for _, pair := range [][2]int{{1, 2}, {1, 9}, {2, 10}, {3, 9}, {9, 10}} {
		s1, err := first.ScorePair(pair[0], pair[1])
		if err != nil {
			t.Fatalf("ScorePair(%d, %d) error = %v", pair[0], pair[1], err)
		}
		s2, err := second.ScorePair(pair[0], pair[1])
		if err != nil {
			t.Fatalf("ScorePair(%d, %d) error = %v", pair[0], pair[1], err)
		}
		if s1 != s2 {
			t.Errorf("ScorePair(%d, %d) differs across identical trainings: %v vs %v", pair[0], pair[1], s1, s2)
		}
	}
}

func TestLatentModel_SnapshotRestore(t *testing.T) {
	t.Parallel()

	m := NewLatentModel(LatentConfig{})
	interactions := []Interaction{
		{UserA: 1, UserB: 9, Weight: 1.0},
		{UserA: 2, UserB: 9, Weight: 1.0},
	}
	if err := m.Train(context.Background(), fanSamples(), interactions); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	data, err := m.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	restored := NewLatentModel(LatentConfig{})
	if err := restored.Restore(data); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if !restored.IsTrained() {
		t.Fatal("IsTrained() = false after restore")
	}

	for _, pair := range [][2]int{{1, 2}, {1, 9}, {1, 5}} {
		want, err := m.ScorePair(pair[0], pair[1])
		if err != nil {
			t.Fatalf("ScorePair() error = %v", err)
		}
		got, err := restored.ScorePair(pair[0], pair[1])
		if err != nil {
			t.Fatalf("ScorePair() error = %v", err)
		}
		if got != want {
			t.Errorf("restored ScorePair(%d, %d) = %v, want %v", pair[0], pair[1], got, want)
		}
	}

	t.Run("rejects corrupt payloads", func(t *testing.T) {
		tests := []struct {
			name string
			data []byte
		}{
			{name: "not json", data: []byte("garbage")},
			{name: "missing factor width", data: []byte(`{"factors":{}}`)},
			{name: "ragged factors", data: []byte(`{"num_factors":4,"factors":{"1":[0.1,0.2]}}`)},
		}
		for _, tt := range tests {
			fresh := NewLatentModel(LatentConfig{})
			if err := fresh.Restore(tt.data); !errors.Is(err, ErrCorruptSnapshot) {
				t.Errorf("%s: Restore() error = %v, want ErrCorruptSnapshot", tt.name, err)
			}
		}
	})
}

func TestSolveLinearSystem(t *testing.T) {
	t.Parallel()

	// Symmetric positive definite system with a known solution.
	a := [][]float64{
		{4, 2},
		{2, 3},
	}
	b := []float64{4, 5}
	want := []float64{0.25, 1.5}

	got := solveLinearSystem(a, b)
	if len(got) != len(want) {
		t.Fatalf("solveLinearSystem() returned %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-6 {
			t.Errorf("x[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
