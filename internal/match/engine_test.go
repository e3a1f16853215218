// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package match

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/cohabhq/cohab/internal/match/scorer"
	"github.com/cohabhq/cohab/internal/models"
)

// mockProfileSource implements ProfileSource over an in-memory map.
type mockProfileSource struct {
	mu       sync.Mutex
	profiles map[int]*models.Profile
	getErr   error
	listErr  error
	countErr error
}

func (m *mockProfileSource) GetProfile(_ context.Context, userID int) (*models.Profile, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, models.ErrProfileNotFound
	}
	return p, nil
}

func (m *mockProfileSource) ListEligibleProfiles(_ context.Context) ([]*models.Profile, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.profiles))
	for id := range m.profiles {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*models.Profile, 0, len(ids))
	for _, id := range ids {
		if p := m.profiles[id]; p.ScoringEligible() {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProfileSource) CountProfiles(_ context.Context) (int, int, error) {
	if m.countErr != nil {
		return 0, 0, m.countErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	eligible := 0
	for _, p := range m.profiles {
		if p.ScoringEligible() {
			eligible++
		}
	}
	return len(m.profiles), eligible, nil
}

// mockInteractionSource implements InteractionSource.
type mockInteractionSource struct {
	interactions []scorer.Interaction
	err          error
}

func (m *mockInteractionSource) Interactions(_ context.Context) ([]scorer.Interaction, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.interactions, nil
}

// mockModelStore implements ModelStore over in-memory maps.
type mockModelStore struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	versions  map[string]int
	trainedAt map[string]time.Time
	saveErr   error
	loadErr   error
}

func newMockModelStore() *mockModelStore {
	return &mockModelStore{
		blobs:     make(map[string][]byte),
		versions:  make(map[string]int),
		trainedAt: make(map[string]time.Time),
	}
}

func (m *mockModelStore) SaveModel(_ context.Context, name string, blob []byte, version int, trainedAt time.Time) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[name] = blob
	m.versions[name] = version
	m.trainedAt[name] = trainedAt
	return nil
}

func (m *mockModelStore) LoadModel(_ context.Context, name string) ([]byte, int, time.Time, error) {
	if m.loadErr != nil {
		return nil, 0, time.Time{}, m.loadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	blob, ok := m.blobs[name]
	if !ok {
		return nil, 0, time.Time{}, fmt.Errorf("model %q not found", name)
	}
	return blob, m.versions[name], m.trainedAt[name], nil
}

// testProfile builds a deterministic profile. Attributes cycle with the id
// so agreement levels vary across the population.
func testProfile(id int) *models.Profile {
	sleeps := []models.SleepSchedule{models.SleepEarlyBird, models.SleepNightOwl, models.SleepFlexible, models.SleepRegular}
	cleans := []models.CleanlinessLevel{models.CleanlinessVeryClean, models.CleanlinessClean, models.CleanlinessModerate, models.CleanlinessRelaxed}
	noises := []models.NoiseTolerance{models.NoiseVeryQuiet, models.NoiseQuiet, models.NoiseModerate, models.NoiseNoisy}
	socials := []models.SocialPreference{models.SocialVerySocial, models.SocialSocial, models.SocialModerate, models.SocialIntrovert}
	pets := []models.PetPreference{models.PetsLove, models.PetsOK, models.PetsNo, models.PetsHave}
	smoking := []models.SmokingPreference{models.SmokingSmoker, models.SmokingNonSmoker, models.SmokingOK}
	hobbies := []string{"reading, hiking", "gaming, cooking", "hiking, music", "cooking, reading"}

	return &models.Profile{
		ID:                 id,
		Name:               fmt.Sprintf("user-%d", id),
		Age:                22 + id%10,
		SleepSchedule:      sleeps[id%len(sleeps)],
		Cleanliness:        cleans[id%len(cleans)],
		NoiseTolerance:     noises[id%len(noises)],
		SocialPreference:   socials[id%len(socials)],
		PetPreference:      pets[id%len(pets)],
		SmokingPreference:  smoking[id%len(smoking)],
		Hobbies:            hobbies[id%len(hobbies)],
		BudgetRange:        "900-1100",
		LocationPreference: "downtown",
		Embedding:          []float64{1, float64(id) * 0.1, float64(id%3) * 0.5, float64(id%5) * 0.25},
	}
}

func testPopulation(n int) map[int]*models.Profile {
	out := make(map[int]*models.Profile, n)
	for id := 1; id <= n; id++ {
		out[id] = testProfile(id)
	}
	return out
}

func testInteractions() []scorer.Interaction {
	return []scorer.Interaction{
		{UserA: 1, UserB: 2, Weight: 1.0},
		{UserA: 3, UserB: 4, Weight: 1.0},
		{UserA: 5, UserB: 6, Weight: 0.5},
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.EmbeddingDim = 4
	cfg.Latent.NumFactors = 4
	cfg.Latent.NumIterations = 5
	return cfg
}

func newTestEngine(t *testing.T, profiles map[int]*models.Profile, interactions []scorer.Interaction) (*Engine, *mockProfileSource, *mockInteractionSource) {
	t.Helper()
	eng := NewEngine(testConfig(), zerolog.Nop())
	t.Cleanup(eng.Stop)
	ps := &mockProfileSource{profiles: profiles}
	is := &mockInteractionSource{interactions: interactions}
	eng.SetProviders(ps, is)
	return eng, ps, is
}

func mustTrain(t *testing.T, eng *Engine) {
	t.Helper()
	if err := eng.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
}

func TestNewEngine_Defaults(t *testing.T) {
	eng := NewEngine(Config{}, zerolog.Nop())
	defer eng.Stop()

	st := eng.Status()
	if st.State != "untrained" {
		t.Errorf("State = %q, want untrained", st.State)
	}
	if st.MinimumUsers != scorer.MinPopulation {
		t.Errorf("MinimumUsers = %d, want %d", st.MinimumUsers, scorer.MinPopulation)
	}
	if st.ModelVersion != 0 {
		t.Errorf("ModelVersion = %d, want 0", st.ModelVersion)
	}
}

func TestEngine_Train(t *testing.T) {
	t.Run("trains on sufficient population", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())

		mustTrain(t, eng)

		st := eng.Status()
		if st.State != "trained" {
			t.Errorf("State = %q, want trained", st.State)
		}
		if st.ModelVersion != 1 {
			t.Errorf("ModelVersion = %d, want 1", st.ModelVersion)
		}
		if st.PopulationSize != 12 {
			t.Errorf("PopulationSize = %d, want 12", st.PopulationSize)
		}
		if !st.BlendTrained {
			t.Error("BlendTrained = false, want true")
		}
		if st.TrainedAt.IsZero() {
			t.Error("TrainedAt is zero")
		}
	})

	t.Run("retrain bumps the version", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())

		mustTrain(t, eng)
		mustTrain(t, eng)

		if got := eng.Status().ModelVersion; got != 2 {
			t.Errorf("ModelVersion = %d, want 2", got)
		}
	})

	t.Run("insufficient population fails untouched", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(5), testInteractions())

		err := eng.Train(context.Background())
		if !errors.Is(err, scorer.ErrTrainingDataInsufficient) {
			t.Fatalf("Train() error = %v, want ErrTrainingDataInsufficient", err)
		}
		if st := eng.Status(); st.State != "untrained" {
			t.Errorf("State = %q, want untrained", st.State)
		}
	})

	t.Run("source failure keeps previous model serving", func(t *testing.T) {
		eng, _, is := newTestEngine(t, testPopulation(12), testInteractions())
		mustTrain(t, eng)

		is.err = errors.New("db down")
		if err := eng.Train(context.Background()); err == nil {
			t.Fatal("Train() error = nil, want failure")
		}

		st := eng.Status()
		if st.State != "trained" {
			t.Errorf("State = %q, want trained", st.State)
		}
		if st.ModelVersion != 1 {
			t.Errorf("ModelVersion = %d, want 1", st.ModelVersion)
		}
		if _, err := eng.ScorePair(context.Background(), 1, 2); err != nil {
			t.Errorf("ScorePair() after failed retrain error = %v", err)
		}
	})

	t.Run("concurrent run rejected", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())

		eng.trainMu.Lock()
		err := eng.Train(context.Background())
		eng.trainMu.Unlock()

		if !errors.Is(err, ErrTrainingInProgress) {
			t.Errorf("Train() error = %v, want ErrTrainingInProgress", err)
		}
	})

	t.Run("without sources", func(t *testing.T) {
		eng := NewEngine(testConfig(), zerolog.Nop())
		defer eng.Stop()

		if err := eng.Train(context.Background()); err == nil {
			t.Error("Train() error = nil, want failure")
		}
	})

	t.Run("no interactions tolerates untrained blend", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), nil)

		mustTrain(t, eng)

		st := eng.Status()
		if st.State != "trained" {
			t.Errorf("State = %q, want trained", st.State)
		}
		if st.BlendTrained {
			t.Error("BlendTrained = true, want false")
		}

		// Fallback blend still serves scores.
		ps, err := eng.ScorePair(context.Background(), 1, 2)
		if err != nil {
			t.Fatalf("ScorePair() error = %v", err)
		}
		if ps.FinalScore < 0 || ps.FinalScore > 1 {
			t.Errorf("FinalScore = %v, want within [0,1]", ps.FinalScore)
		}
	})

	t.Run("callback fires after swap", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())

		fired := 0
		eng.SetOnTrained(func() {
			fired++
			if eng.Status().State != "trained" {
				t.Error("callback observed state before swap")
			}
		})

		mustTrain(t, eng)
		if fired != 1 {
			t.Errorf("callback fired %d times, want 1", fired)
		}
	})
}

func TestEngine_ScorePair(t *testing.T) {
	t.Run("untrained", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())

		if _, err := eng.ScorePair(context.Background(), 1, 2); !errors.Is(err, ErrModelNotTrained) {
			t.Errorf("ScorePair() error = %v, want ErrModelNotTrained", err)
		}
	})

	t.Run("scores a trained pair", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())
		mustTrain(t, eng)

		ps, err := eng.ScorePair(context.Background(), 2, 1)
		if err != nil {
			t.Fatalf("ScorePair() error = %v", err)
		}
		if ps.UserA != 1 || ps.UserB != 2 {
			t.Errorf("pair = (%d,%d), want canonical (1,2)", ps.UserA, ps.UserB)
		}
		for name, score := range map[string]float64{
			"neighbor":  ps.NeighborScore,
			"latent":    ps.LatentScore,
			"agreement": ps.AgreementScore,
			"final":     ps.FinalScore,
		} {
			if score < 0 || score > 1 {
				t.Errorf("%s score = %v, want within [0,1]", name, score)
			}
		}
		if ps.Cached {
			t.Error("first score reported Cached")
		}
		if ps.LowConfidence {
			t.Error("LowConfidence = true for fully trained pair")
		}
	})

	t.Run("second call hits the cache", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())
		mustTrain(t, eng)

		first, err := eng.ScorePair(context.Background(), 1, 2)
		if err != nil {
			t.Fatalf("ScorePair() error = %v", err)
		}
		second, err := eng.ScorePair(context.Background(), 2, 1)
		if err != nil {
			t.Fatalf("ScorePair() error = %v", err)
		}
		if !second.Cached {
			t.Error("second call not served from cache")
		}
		if second.FinalScore != first.FinalScore {
			t.Errorf("cached FinalScore = %v, want %v", second.FinalScore, first.FinalScore)
		}
	})

	t.Run("symmetric without cache", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())
		mustTrain(t, eng)

		forward, err := eng.ScorePair(context.Background(), 3, 7)
		if err != nil {
			t.Fatalf("ScorePair() error = %v", err)
		}
		eng.cache.Clear()
		backward, err := eng.ScorePair(context.Background(), 7, 3)
		if err != nil {
			t.Fatalf("ScorePair() error = %v", err)
		}
		if forward.FinalScore != backward.FinalScore {
			t.Errorf("asymmetric: %v vs %v", forward.FinalScore, backward.FinalScore)
		}
	})

	t.Run("same user", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())
		mustTrain(t, eng)

		ps, err := eng.ScorePair(context.Background(), 5, 5)
		if err != nil {
			t.Fatalf("ScorePair() error = %v", err)
		}
		if ps.NeighborScore != 1 || ps.LatentScore != 1 {
			t.Errorf("self scores = (%v,%v), want (1,1)", ps.NeighborScore, ps.LatentScore)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())
		mustTrain(t, eng)

		if _, err := eng.ScorePair(context.Background(), 1, 999); !errors.Is(err, models.ErrProfileNotFound) {
			t.Errorf("ScorePair() error = %v, want ErrProfileNotFound", err)
		}
	})

	t.Run("pending user", func(t *testing.T) {
		profiles := testPopulation(12)
		pending := testProfile(13)
		pending.Embedding = nil
		pending.EmbeddingPending = true
		profiles[13] = pending

		eng, _, _ := newTestEngine(t, profiles, testInteractions())
		mustTrain(t, eng)

		if _, err := eng.ScorePair(context.Background(), 1, 13); !errors.Is(err, ErrProfileNotEligible) {
			t.Errorf("ScorePair() error = %v, want ErrProfileNotEligible", err)
		}
	})

	t.Run("user joined after training is low confidence", func(t *testing.T) {
		profiles := testPopulation(12)
		eng, ps, _ := newTestEngine(t, profiles, testInteractions())
		mustTrain(t, eng)

		ps.mu.Lock()
		ps.profiles[99] = testProfile(99)
		ps.mu.Unlock()

		got, err := eng.ScorePair(context.Background(), 1, 99)
		if err != nil {
			t.Fatalf("ScorePair() error = %v", err)
		}
		if !got.LowConfidence {
			t.Error("LowConfidence = false for a user unseen at training")
		}
		if got.NeighborScore != 0.5 || got.LatentScore != 0.5 {
			t.Errorf("unseen user scores = (%v,%v), want neutral (0.5,0.5)", got.NeighborScore, got.LatentScore)
		}
	})

	t.Run("no interaction history is low confidence", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())
		mustTrain(t, eng)

		// Users 7 and 8 are in the trained population but have no
		// co-living history, so their latent factors are absent.
		got, err := eng.ScorePair(context.Background(), 7, 8)
		if err != nil {
			t.Fatalf("ScorePair() error = %v", err)
		}
		if !got.LowConfidence {
			t.Error("LowConfidence = false without latent factors")
		}
		if got.LatentScore != 0.5 {
			t.Errorf("LatentScore = %v, want neutral 0.5", got.LatentScore)
		}
	})
}

func TestEngine_RankCandidates(t *testing.T) {
	t.Run("untrained", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())

		if _, err := eng.RankCandidates(context.Background(), 1, nil, 0); !errors.Is(err, ErrModelNotTrained) {
			t.Errorf("RankCandidates() error = %v, want ErrModelNotTrained", err)
		}
	})

	t.Run("orders best first", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())
		mustTrain(t, eng)

		result, err := eng.RankCandidates(context.Background(), 1, nil, 0)
		if err != nil {
			t.Fatalf("RankCandidates() error = %v", err)
		}
		if len(result.Scores) != 11 {
			t.Fatalf("len(Scores) = %d, want 11", len(result.Scores))
		}
		for i, ps := range result.Scores {
			if ps.UserA != 1 {
				t.Errorf("Scores[%d].UserA = %d, want 1", i, ps.UserA)
			}
			if ps.UserB == 1 {
				t.Errorf("Scores[%d] ranked the requesting user", i)
			}
			if i > 0 && ps.FinalScore > result.Scores[i-1].FinalScore {
				t.Errorf("Scores[%d] out of order: %v after %v", i, ps.FinalScore, result.Scores[i-1].FinalScore)
			}
		}
		if len(result.Skipped) != 0 {
			t.Errorf("Skipped = %v, want empty", result.Skipped)
		}
	})

	t.Run("skips missing and pending candidates", func(t *testing.T) {
		profiles := testPopulation(12)
		pending := testProfile(13)
		pending.EmbeddingPending = true
		profiles[13] = pending

		eng, _, _ := newTestEngine(t, profiles, testInteractions())
		mustTrain(t, eng)

		result, err := eng.RankCandidates(context.Background(), 1, []int{2, 999, 13, 3}, 0)
		if err != nil {
			t.Fatalf("RankCandidates() error = %v", err)
		}
		if len(result.Scores) != 2 {
			t.Errorf("len(Scores) = %d, want 2", len(result.Scores))
		}
		if want := []int{13, 999}; !reflect.DeepEqual(result.Skipped, want) {
			t.Errorf("Skipped = %v, want %v", result.Skipped, want)
		}
	})

	t.Run("deduplicates pool and drops self", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())
		mustTrain(t, eng)

		result, err := eng.RankCandidates(context.Background(), 1, []int{2, 2, 1, 3}, 0)
		if err != nil {
			t.Fatalf("RankCandidates() error = %v", err)
		}
		if len(result.Scores) != 2 {
			t.Errorf("len(Scores) = %d, want 2", len(result.Scores))
		}
		if len(result.Skipped) != 0 {
			t.Errorf("Skipped = %v, want empty", result.Skipped)
		}
	})

	t.Run("limit truncates after ordering", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())
		mustTrain(t, eng)

		full, err := eng.RankCandidates(context.Background(), 1, nil, 0)
		if err != nil {
			t.Fatalf("RankCandidates() error = %v", err)
		}
		limited, err := eng.RankCandidates(context.Background(), 1, nil, 3)
		if err != nil {
			t.Fatalf("RankCandidates() error = %v", err)
		}
		if len(limited.Scores) != 3 {
			t.Fatalf("len(Scores) = %d, want 3", len(limited.Scores))
		}
		for i := range limited.Scores {
			if limited.Scores[i].UserB != full.Scores[i].UserB {
				t.Errorf("limited order diverges at %d: %d vs %d", i, limited.Scores[i].UserB, full.Scores[i].UserB)
			}
		}
	})

	t.Run("ties break by ascending candidate id", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())
		mustTrain(t, eng)

		// Seed the pair cache so candidates 2 and 3 tie exactly and 4
		// dominates; ranking must serve these entries verbatim.
		version := eng.Status().ModelVersion
		eng.cache.Set(pairKey(1, 2, version), PairScore{UserA: 1, UserB: 2, FinalScore: 0.75})
		eng.cache.Set(pairKey(1, 3, version), PairScore{UserA: 1, UserB: 3, FinalScore: 0.75})
		eng.cache.Set(pairKey(1, 4, version), PairScore{UserA: 1, UserB: 4, FinalScore: 0.9})

		result, err := eng.RankCandidates(context.Background(), 1, []int{4, 3, 2}, 0)
		if err != nil {
			t.Fatalf("RankCandidates() error = %v", err)
		}
		got := []int{result.Scores[0].UserB, result.Scores[1].UserB, result.Scores[2].UserB}
		if want := []int{4, 2, 3}; !reflect.DeepEqual(got, want) {
			t.Errorf("order = %v, want %v", got, want)
		}
	})

	t.Run("pending requester rejected", func(t *testing.T) {
		profiles := testPopulation(12)
		profiles[1].EmbeddingPending = true

		eng, _, _ := newTestEngine(t, profiles, testInteractions())
		// User 1 is ineligible, so train on the remaining 11.
		mustTrain(t, eng)

		if _, err := eng.RankCandidates(context.Background(), 1, nil, 0); !errors.Is(err, ErrProfileNotEligible) {
			t.Errorf("RankCandidates() error = %v, want ErrProfileNotEligible", err)
		}
	})
}

func TestEngine_InvalidateUser(t *testing.T) {
	eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())
	mustTrain(t, eng)

	if _, err := eng.ScorePair(context.Background(), 1, 2); err != nil {
		t.Fatalf("ScorePair() error = %v", err)
	}
	if _, err := eng.ScorePair(context.Background(), 3, 4); err != nil {
		t.Fatalf("ScorePair() error = %v", err)
	}

	eng.InvalidateUser(1)

	if st := eng.Status(); st.State != "stale" {
		t.Errorf("State = %q, want stale", st.State)
	}

	touched, err := eng.ScorePair(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("ScorePair() error = %v", err)
	}
	if touched.Cached {
		t.Error("invalidated pair served from cache")
	}

	untouched, err := eng.ScorePair(context.Background(), 3, 4)
	if err != nil {
		t.Fatalf("ScorePair() error = %v", err)
	}
	if !untouched.Cached {
		t.Error("unrelated pair lost its cache entry")
	}
}

func TestEngine_SaveLoadModels(t *testing.T) {
	t.Run("round trip preserves scores", func(t *testing.T) {
		store := newMockModelStore()

		first, ps, is := newTestEngine(t, testPopulation(12), testInteractions())
		first.SetModelStore(store)
		mustTrain(t, first)

		want, err := first.ScorePair(context.Background(), 1, 7)
		if err != nil {
			t.Fatalf("ScorePair() error = %v", err)
		}

		for _, name := range []string{"neighbor", "latent", "blend"} {
			if _, ok := store.blobs[name]; !ok {
				t.Fatalf("store missing %q snapshot", name)
			}
		}

		second := NewEngine(testConfig(), zerolog.Nop())
		t.Cleanup(second.Stop)
		second.SetProviders(ps, is)
		second.SetModelStore(store)

		if err := second.LoadModels(context.Background()); err != nil {
			t.Fatalf("LoadModels() error = %v", err)
		}
		st := second.Status()
		if st.State != "trained" {
			t.Errorf("State = %q, want trained", st.State)
		}
		if st.PopulationSize != 12 {
			t.Errorf("PopulationSize = %d, want 12", st.PopulationSize)
		}

		got, err := second.ScorePair(context.Background(), 1, 7)
		if err != nil {
			t.Fatalf("ScorePair() error = %v", err)
		}
		if got.FinalScore != want.FinalScore {
			t.Errorf("restored FinalScore = %v, want %v", got.FinalScore, want.FinalScore)
		}
	})

	t.Run("missing blend downgrades to fallback", func(t *testing.T) {
		store := newMockModelStore()

		first, ps, is := newTestEngine(t, testPopulation(12), testInteractions())
		first.SetModelStore(store)
		mustTrain(t, first)

		store.mu.Lock()
		delete(store.blobs, "blend")
		store.mu.Unlock()

		second := NewEngine(testConfig(), zerolog.Nop())
		t.Cleanup(second.Stop)
		second.SetProviders(ps, is)
		second.SetModelStore(store)

		if err := second.LoadModels(context.Background()); err != nil {
			t.Fatalf("LoadModels() error = %v", err)
		}
		if second.Status().BlendTrained {
			t.Error("BlendTrained = true after blend snapshot removed")
		}
	})

	t.Run("missing required snapshot fails", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())
		eng.SetModelStore(newMockModelStore())

		if err := eng.LoadModels(context.Background()); err == nil {
			t.Error("LoadModels() error = nil, want failure")
		}
	})

	t.Run("no store configured", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())

		if err := eng.LoadModels(context.Background()); err == nil {
			t.Error("LoadModels() error = nil, want failure")
		}
		if err := eng.SaveModels(context.Background()); err == nil {
			t.Error("SaveModels() error = nil, want failure")
		}
	})

	t.Run("explicit save after attach", func(t *testing.T) {
		eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())

		if err := eng.SaveModels(context.Background()); err == nil {
			t.Error("SaveModels() before store attach succeeded")
		}

		store := newMockModelStore()
		eng.SetModelStore(store)

		if err := eng.SaveModels(context.Background()); !errors.Is(err, ErrModelNotTrained) {
			t.Errorf("SaveModels() untrained error = %v, want ErrModelNotTrained", err)
		}

		mustTrain(t, eng)
		if err := eng.SaveModels(context.Background()); err != nil {
			t.Fatalf("SaveModels() error = %v", err)
		}
		if len(store.blobs) != 3 {
			t.Errorf("store holds %d snapshots, want 3", len(store.blobs))
		}
	})
}

func TestEngine_Requirements(t *testing.T) {
	profiles := testPopulation(12)
	pending := testProfile(13)
	pending.EmbeddingPending = true
	profiles[13] = pending

	eng, _, _ := newTestEngine(t, profiles, testInteractions())

	req, err := eng.Requirements(context.Background())
	if err != nil {
		t.Fatalf("Requirements() error = %v", err)
	}
	want := models.TrainingRequirements{
		MinimumUsers: scorer.MinPopulation,
		CurrentUsers: 12,
		TotalUsers:   13,
		CanTrain:     true,
	}
	if req != want {
		t.Errorf("Requirements() = %+v, want %+v", req, want)
	}

	small, _, _ := newTestEngine(t, testPopulation(4), nil)
	req, err = small.Requirements(context.Background())
	if err != nil {
		t.Fatalf("Requirements() error = %v", err)
	}
	if req.CanTrain {
		t.Error("CanTrain = true below the minimum population")
	}
}

func TestEngine_Metrics(t *testing.T) {
	eng, _, _ := newTestEngine(t, testPopulation(12), testInteractions())
	mustTrain(t, eng)

	if _, err := eng.ScorePair(context.Background(), 1, 2); err != nil {
		t.Fatalf("ScorePair() error = %v", err)
	}
	if _, err := eng.ScorePair(context.Background(), 1, 2); err != nil {
		t.Fatalf("ScorePair() error = %v", err)
	}

	m := eng.Metrics()
	if m.ScoreRequests != 2 {
		t.Errorf("ScoreRequests = %d, want 2", m.ScoreRequests)
	}
	if m.CacheHits != 1 {
		t.Errorf("CacheHits = %d, want 1", m.CacheHits)
	}
	if m.CacheMisses != 1 {
		t.Errorf("CacheMisses = %d, want 1", m.CacheMisses)
	}
	if m.TrainRuns != 1 {
		t.Errorf("TrainRuns = %d, want 1", m.TrainRuns)
	}
}

func TestBuildBlendExamples(t *testing.T) {
	profiles := testPopulation(12)
	list := make([]*models.Profile, 0, len(profiles))
	for id := 1; id <= 12; id++ {
		list = append(list, profiles[id])
	}

	samples := make([]scorer.Sample, 0, len(list))
	for _, p := range list {
		samples = append(samples, scorer.Sample{UserID: p.ID, Vector: p.Embedding})
	}

	neighbor := scorer.NewNeighborModel(scorer.DefaultNeighborConfig())
	if err := neighbor.Train(context.Background(), samples); err != nil {
		t.Fatalf("neighbor.Train() error = %v", err)
	}
	latent := scorer.NewLatentModel(scorer.LatentConfig{NumFactors: 4, NumIterations: 5, Regularization: 0.05, Alpha: 40})
	if err := latent.Train(context.Background(), samples, testInteractions()); err != nil {
		t.Fatalf("latent.Train() error = %v", err)
	}

	examples, err := buildBlendExamples(list, testInteractions(), neighbor, latent)
	if err != nil {
		t.Fatalf("buildBlendExamples() error = %v", err)
	}

	// Three positives, each paired with one sampled negative.
	if len(examples) != 6 {
		t.Fatalf("len(examples) = %d, want 6", len(examples))
	}
	positives, negatives := 0, 0
	for _, ex := range examples {
		switch ex.Label {
		case 1:
			positives++
		case 0:
			negatives++
		default:
			t.Errorf("unexpected label %v", ex.Label)
		}
	}
	if positives != 3 || negatives != 3 {
		t.Errorf("labels = %d positive / %d negative, want 3/3", positives, negatives)
	}

	again, err := buildBlendExamples(list, testInteractions(), neighbor, latent)
	if err != nil {
		t.Fatalf("buildBlendExamples() error = %v", err)
	}
	if !reflect.DeepEqual(examples, again) {
		t.Error("example construction is not deterministic")
	}

	// History naming absent profiles contributes nothing.
	withGhosts := append(testInteractions(), scorer.Interaction{UserA: 100, UserB: 101, Weight: 1})
	ghosted, err := buildBlendExamples(list, withGhosts, neighbor, latent)
	if err != nil {
		t.Fatalf("buildBlendExamples() error = %v", err)
	}
	if len(ghosted) != len(examples) {
		t.Errorf("ghost interaction changed example count: %d vs %d", len(ghosted), len(examples))
	}
}
