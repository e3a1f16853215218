// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package match

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/cohabhq/cohab/internal/cache"
	"github.com/cohabhq/cohab/internal/feature"
	"github.com/cohabhq/cohab/internal/match/scorer"
	"github.com/cohabhq/cohab/internal/models"
)

// ProfileSource supplies profiles for scoring and training. Implemented by
// the database layer; kept as an interface so the engine carries no storage
// dependency and tests can run against in-memory fixtures.
type ProfileSource interface {
	// GetProfile returns one profile or models.ErrProfileNotFound.
	GetProfile(ctx context.Context, userID int) (*models.Profile, error)

	// ListEligibleProfiles returns every profile whose embedding is ready.
	ListEligibleProfiles(ctx context.Context) ([]*models.Profile, error)

	// CountProfiles returns the total and scoring-eligible profile counts.
	CountProfiles(ctx context.Context) (total, eligible int, err error)
}

// InteractionSource supplies the implicit co-living history the latent and
// blend models train on.
type InteractionSource interface {
	Interactions(ctx context.Context) ([]scorer.Interaction, error)
}

// ModelStore persists trained model snapshots across restarts.
type ModelStore interface {
	SaveModel(ctx context.Context, name string, blob []byte, version int, trainedAt time.Time) error
	LoadModel(ctx context.Context, name string) (blob []byte, version int, trainedAt time.Time, err error)
}

// modelSet is one immutable trained generation. Scoring reads whichever
// set the pointer held when the request started; Train swaps the pointer
// only after every model trained, so readers never observe a mixture of
// generations.
type modelSet struct {
	neighbor *scorer.NeighborModel
	latent   *scorer.LatentModel
	blend    *scorer.BlendModel

	version    int
	trainedAt  time.Time
	population int
}

// Engine trains the sub-score models and serves compatibility scores.
// It is safe for concurrent use.
type Engine struct {
	cfg     Config
	logger  zerolog.Logger
	encoder *feature.Encoder

	profiles     ProfileSource
	interactions InteractionSource
	store        ModelStore

	mu      sync.RWMutex
	set     *modelSet
	state   TrainingState
	version int

	// trainMu serializes training runs; TryLock turns a concurrent
	// request into ErrTrainingInProgress instead of a queue.
	trainMu sync.Mutex

	cache *cache.Cache

	onTrained func()

	scoreRequests atomic.Int64
	cacheHits     atomic.Int64
	cacheMisses   atomic.Int64
	trainRuns     atomic.Int64
}

// NewEngine creates an engine with the given tuning. Data sources are
// attached separately so construction stays free of storage concerns.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg Config, logger zerolog.Logger) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		cfg:     cfg,
		logger:  logger.With().Str("component", "match").Logger(),
		encoder: feature.NewEncoder(cfg.EmbeddingDim),
		cache:   cache.New(cfg.CacheTTL),
		state:   StateUntrained,
	}
}

// SetProviders attaches the profile and interaction sources.
func (e *Engine) SetProviders(profiles ProfileSource, interactions InteractionSource) {
	e.profiles = profiles
	e.interactions = interactions
}

// SetModelStore attaches the snapshot store. Optional: without one the
// engine trains in memory only.
func (e *Engine) SetModelStore(store ModelStore) {
	e.store = store
}

// SetOnTrained registers a callback invoked after each successful training
// run, once the new model set is live. Wire before starting the engine.
func (e *Engine) SetOnTrained(fn func()) {
	e.onTrained = fn
}

// Stop releases the cache janitor. The engine must not be used after.
func (e *Engine) Stop() {
	e.cache.Stop()
}

// Train builds a fresh model set from the current eligible population and
// swaps it in atomically. All-or-nothing: any failure leaves the previous
// set and state untouched. A blend model short on labeled history is the
// one tolerated exception; the engine then serves fixed-weight fallback
// scores until enough history accumulates.
func (e *Engine) Train(ctx context.Context) error {
	if !e.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	if e.profiles == nil || e.interactions == nil {
		return fmt.Errorf("data sources not configured")
	}

	start := time.Now()

	e.mu.Lock()
	prevState := e.state
	e.state = StateTraining
	e.mu.Unlock()

	swapped := false
	defer func() {
		if !swapped {
			e.mu.Lock()
			e.state = prevState
			e.mu.Unlock()
		}
	}()

	profiles, err := e.profiles.ListEligibleProfiles(ctx)
	if err != nil {
		return fmt.Errorf("list eligible profiles: %w", err)
	}
	if len(profiles) < e.cfg.MinPopulation {
		return fmt.Errorf("%w: %d eligible users, need %d",
			scorer.ErrTrainingDataInsufficient, len(profiles), e.cfg.MinPopulation)
	}

	samples := make([]scorer.Sample, 0, len(profiles))
	for _, p := range profiles {
		samples = append(samples, scorer.Sample{
			UserID: p.ID,
			Vector: e.encoder.Encode(p).Values,
		})
	}

	history, err := e.interactions.Interactions(ctx)
	if err != nil {
		return fmt.Errorf("load interactions: %w", err)
	}

	e.logger.Info().
		Int("eligible_users", len(profiles)).
		Int("interactions", len(history)).
		Msg("starting model training")

	neighbor := scorer.NewNeighborModel(e.cfg.Neighbor)
	if err := neighbor.Train(ctx, samples); err != nil {
		return fmt.Errorf("train neighbor model: %w", err)
	}

	latent := scorer.NewLatentModel(e.cfg.Latent)
	if err := latent.Train(ctx, samples, history); err != nil {
		return fmt.Errorf("train latent model: %w", err)
	}

	blend := scorer.NewBlendModel(e.cfg.Blend)
	examples, err := buildBlendExamples(profiles, history, neighbor, latent)
	if err != nil {
		return fmt.Errorf("build blend examples: %w", err)
	}
	if err := blend.Train(ctx, examples); err != nil {
		if !errors.Is(err, scorer.ErrTrainingDataInsufficient) {
			return fmt.Errorf("train blend model: %w", err)
		}
		e.logger.Warn().
			Int("examples", len(examples)).
			Msg("blend training skipped, serving fixed-weight fallback")
	}

	e.mu.Lock()
	e.version++
	set := &modelSet{
		neighbor:   neighbor,
		latent:     latent,
		blend:      blend,
		version:    e.version,
		trainedAt:  time.Now().UTC(),
		population: len(profiles),
	}
	e.set = set
	e.state = StateTrained
	e.mu.Unlock()
	swapped = true
	e.trainRuns.Add(1)

	e.cache.Clear()

	if e.store != nil {
		if err := e.saveModels(ctx, set); err != nil {
			e.logger.Error().Err(err).Msg("persisting model snapshots failed")
		}
	}

	e.logger.Info().
		Int("model_version", set.version).
		Int("population", set.population).
		Bool("blend_trained", blend.IsTrained()).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("model training complete")

	if e.onTrained != nil {
		e.onTrained()
	}

	return nil
}

// ScorePair scores one pair. Both profiles must exist and be eligible.
// Results serve from the pair cache within one model generation; a cached
// result returns with Cached set.
func (e *Engine) ScorePair(ctx context.Context, userA, userB int) (*PairScore, error) {
	e.scoreRequests.Add(1)

	set := e.currentSet()
	if set == nil {
		return nil, ErrModelNotTrained
	}
	if e.profiles == nil {
		return nil, fmt.Errorf("profile source not configured")
	}

	lo, hi := orderPair(userA, userB)
	key := pairKey(lo, hi, set.version)
	if v, ok := e.cache.Get(key); ok {
		if ps, ok := v.(PairScore); ok {
			e.cacheHits.Add(1)
			ps.Cached = true
			return &ps, nil
		}
	}
	e.cacheMisses.Add(1)

	pa, err := e.eligibleProfile(ctx, lo)
	if err != nil {
		return nil, err
	}
	pb := pa
	if hi != lo {
		if pb, err = e.eligibleProfile(ctx, hi); err != nil {
			return nil, err
		}
	}

	ps, err := scoreProfiles(set, pa, pb)
	if err != nil {
		return nil, err
	}

	e.cache.Set(key, *ps)
	return ps, nil
}

// RankCandidates scores userID against the candidate pool and returns the
// results best-first. A nil pool means every eligible profile. Candidates
// with missing or pending profiles are reported in Skipped rather than
// failing the batch; ties in final score break by ascending candidate id.
// A positive limit truncates after ordering.
func (e *Engine) RankCandidates(ctx context.Context, userID int, pool []int, limit int) (*RankResult, error) {
	set := e.currentSet()
	if set == nil {
		return nil, ErrModelNotTrained
	}
	if e.profiles == nil {
		return nil, fmt.Errorf("profile source not configured")
	}

	if _, err := e.eligibleProfile(ctx, userID); err != nil {
		return nil, err
	}

	if pool == nil {
		eligible, err := e.profiles.ListEligibleProfiles(ctx)
		if err != nil {
			return nil, fmt.Errorf("list eligible profiles: %w", err)
		}
		pool = make([]int, 0, len(eligible))
		for _, p := range eligible {
			pool = append(pool, p.ID)
		}
	}

	result := &RankResult{
		UserID: userID,
		Scores: make([]PairScore, 0, len(pool)),
	}
	seen := map[int]struct{}{userID: {}}
	for _, candidate := range pool {
		if scorer.ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		if _, dup := seen[candidate]; dup {
			continue
		}
		seen[candidate] = struct{}{}

		ps, err := e.ScorePair(ctx, userID, candidate)
		if err != nil {
			if errors.Is(err, models.ErrProfileNotFound) || errors.Is(err, ErrProfileNotEligible) {
				result.Skipped = append(result.Skipped, candidate)
				continue
			}
			return nil, fmt.Errorf("score candidate %d: %w", candidate, err)
		}

		// Scores are computed on the canonical pair order; re-orient so
		// the requesting user is always first.
		if ps.UserA != userID {
			ps.UserA, ps.UserB = userID, ps.UserA
		}
		result.Scores = append(result.Scores, *ps)
	}

	sort.Slice(result.Scores, func(i, j int) bool {
		if result.Scores[i].FinalScore != result.Scores[j].FinalScore {
			return result.Scores[i].FinalScore > result.Scores[j].FinalScore
		}
		return result.Scores[i].UserB < result.Scores[j].UserB
	})
	if limit > 0 && len(result.Scores) > limit {
		result.Scores = result.Scores[:limit]
	}
	sort.Ints(result.Skipped)

	return result, nil
}

// Status reports the engine lifecycle and live model generation.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()

	st := Status{
		State:        e.state.String(),
		MinimumUsers: e.cfg.MinPopulation,
	}
	if e.set != nil {
		st.ModelVersion = e.set.version
		st.TrainedAt = e.set.trainedAt
		st.PopulationSize = e.set.population
		st.BlendTrained = e.set.blend.IsTrained()
	}
	return st
}

// Requirements reports whether the eligible population currently meets the
// training minimum.
func (e *Engine) Requirements(ctx context.Context) (models.TrainingRequirements, error) {
	if e.profiles == nil {
		return models.TrainingRequirements{}, fmt.Errorf("profile source not configured")
	}
	total, eligible, err := e.profiles.CountProfiles(ctx)
	if err != nil {
		return models.TrainingRequirements{}, fmt.Errorf("count profiles: %w", err)
	}
	return models.TrainingRequirements{
		MinimumUsers: e.cfg.MinPopulation,
		CurrentUsers: eligible,
		TotalUsers:   total,
		CanTrain:     eligible >= e.cfg.MinPopulation,
	}, nil
}

// Metrics returns the cumulative engine counters.
func (e *Engine) Metrics() EngineMetrics {
	return EngineMetrics{
		ScoreRequests: e.scoreRequests.Load(),
		CacheHits:     e.cacheHits.Load(),
		CacheMisses:   e.cacheMisses.Load(),
		TrainRuns:     e.trainRuns.Load(),
	}
}

// CacheStats exposes the pair cache counters.
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.GetStats()
}

// SaveModels persists the live model set to the snapshot store.
func (e *Engine) SaveModels(ctx context.Context) error {
	if e.store == nil {
		return fmt.Errorf("model store not configured")
	}
	set := e.currentSet()
	if set == nil {
		return ErrModelNotTrained
	}
	return e.saveModels(ctx, set)
}

// LoadModels restores the last persisted model set and makes it live.
// Neighbor and latent snapshots are required; a missing or unusable blend
// snapshot downgrades to fixed-weight fallback scoring.
func (e *Engine) LoadModels(ctx context.Context) error {
	if e.store == nil {
		return fmt.Errorf("model store not configured")
	}

	neighbor := scorer.NewNeighborModel(e.cfg.Neighbor)
	version, trainedAt, err := e.restoreModel(ctx, neighbor)
	if err != nil {
		return fmt.Errorf("neighbor model: %w", err)
	}

	latent := scorer.NewLatentModel(e.cfg.Latent)
	latentVersion, latentTrainedAt, err := e.restoreModel(ctx, latent)
	if err != nil {
		return fmt.Errorf("latent model: %w", err)
	}
	if latentVersion > version {
		version = latentVersion
	}
	if latentTrainedAt.After(trainedAt) {
		trainedAt = latentTrainedAt
	}

	blend := scorer.NewBlendModel(e.cfg.Blend)
	if _, _, err := e.restoreModel(ctx, blend); err != nil {
		e.logger.Warn().Err(err).Msg("blend snapshot unavailable, serving fixed-weight fallback")
		blend = scorer.NewBlendModel(e.cfg.Blend)
	}

	e.mu.Lock()
	// Versions only move forward in-process so cache keys never collide
	// across generations.
	if version <= e.version {
		version = e.version + 1
	}
	e.version = version
	e.set = &modelSet{
		neighbor:   neighbor,
		latent:     latent,
		blend:      blend,
		version:    version,
		trainedAt:  trainedAt,
		population: neighbor.Population(),
	}
	e.state = StateTrained
	e.mu.Unlock()

	e.cache.Clear()

	e.logger.Info().
		Int("model_version", version).
		Int("population", neighbor.Population()).
		Bool("blend_trained", blend.IsTrained()).
		Msg("model snapshots restored")

	return nil
}

// InvalidateUser evicts a user's cached pair scores and marks a trained
// engine stale. Existing scores keep serving from the current snapshot
// until the next retrain.
func (e *Engine) InvalidateUser(userID int) {
	evicted := e.cache.DeleteFunc(func(key string) bool {
		var a, b int
		var rest string
		if _, err := fmt.Sscanf(key, "pair:%d:%d:%s", &a, &b, &rest); err != nil {
			return false
		}
		return a == userID || b == userID
	})

	e.mu.Lock()
	if e.state == StateTrained {
		e.state = StateStale
	}
	e.mu.Unlock()

	if evicted > 0 {
		e.logger.Debug().
			Int("user_id", userID).
			Int("evicted", evicted).
			Msg("pair score cache invalidated")
	}
}

// InvalidateAll evicts every cached pair score. Called after a new model
// generation goes live so stale-generation entries do not linger until
// their TTL.
func (e *Engine) InvalidateAll() {
	evicted := e.cache.DeletePrefix("pair:")
	if evicted > 0 {
		e.logger.Debug().Int("evicted", evicted).Msg("pair score cache purged")
	}
}

// Trained reports whether a model set is live and scoring can serve.
func (e *Engine) Trained() bool {
	return e.currentSet() != nil
}

// currentSet returns the live model generation, nil before the first
// successful train or load.
func (e *Engine) currentSet() *modelSet {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.set
}

// eligibleProfile loads a profile and enforces embedding readiness.
func (e *Engine) eligibleProfile(ctx context.Context, userID int) (*models.Profile, error) {
	p, err := e.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	if !p.ScoringEligible() {
		return nil, fmt.Errorf("user %d: %w", userID, ErrProfileNotEligible)
	}
	return p, nil
}

// saveModels snapshots every trained model in the set. An untrained blend
// is skipped, not an error.
func (e *Engine) saveModels(ctx context.Context, set *modelSet) error {
	for _, m := range []scorer.Model{set.neighbor, set.latent, set.blend} {
		if !m.IsTrained() {
			continue
		}
		blob, err := m.Snapshot()
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", m.Name(), err)
		}
		if err := e.store.SaveModel(ctx, m.Name(), blob, set.version, set.trainedAt); err != nil {
			return fmt.Errorf("save %s: %w", m.Name(), err)
		}
	}
	return nil
}

// restoreModel loads one named snapshot into a fresh model.
func (e *Engine) restoreModel(ctx context.Context, m scorer.Model) (int, time.Time, error) {
	blob, version, trainedAt, err := e.store.LoadModel(ctx, m.Name())
	if err != nil {
		return 0, time.Time{}, err
	}
	if err := m.Restore(blob); err != nil {
		return 0, time.Time{}, err
	}
	return version, trainedAt, nil
}

// scoreProfiles computes the full pair score against one model set.
func scoreProfiles(set *modelSet, pa, pb *models.Profile) (*PairScore, error) {
	neighborScore, err := set.neighbor.ScorePair(pa.ID, pb.ID)
	if err != nil {
		return nil, fmt.Errorf("neighbor score: %w", err)
	}
	latentScore, err := set.latent.ScorePair(pa.ID, pb.ID)
	if err != nil {
		return nil, fmt.Errorf("latent score: %w", err)
	}
	agreement := scorer.ComputeAgreement(pa, pb)

	features := scorer.PairFeatures{
		Neighbor:  neighborScore,
		Latent:    latentScore,
		Agreement: agreement,
	}

	final := scorer.FallbackScore(features)
	if set.blend.IsTrained() {
		if final, err = set.blend.ScoreFeatures(features); err != nil {
			return nil, fmt.Errorf("blend score: %w", err)
		}
	}

	lowConfidence := !set.neighbor.InPopulation(pa.ID) ||
		!set.neighbor.InPopulation(pb.ID) ||
		!set.latent.HasFactors(pa.ID) ||
		!set.latent.HasFactors(pb.ID)

	return &PairScore{
		UserA:          pa.ID,
		UserB:          pb.ID,
		NeighborScore:  neighborScore,
		LatentScore:    latentScore,
		AgreementScore: agreement.Score(),
		FinalScore:     final,
		LowConfidence:  lowConfidence,
		Explanation:    buildExplanation(pa, pb, agreement, contributionWeights(set.blend)),
	}, nil
}

// buildBlendExamples derives labeled pairs for the blend model. Positives
// are pairs with recorded co-living history; negatives are sampled
// deterministically: for each positive pair, the smallest-id user with no
// recorded history against its first member. Deterministic sampling keeps
// retraining reproducible on identical inputs.
func buildBlendExamples(profiles []*models.Profile, history []scorer.Interaction, neighbor *scorer.NeighborModel, latent *scorer.LatentModel) ([]scorer.PairExample, error) {
	byID := make(map[int]*models.Profile, len(profiles))
	ids := make([]int, 0, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	sort.Ints(ids)

	interacted := make(map[[2]int]struct{}, len(history))
	for _, h := range history {
		if h.UserA == h.UserB || h.Weight <= 0 {
			continue
		}
		lo, hi := orderPair(h.UserA, h.UserB)
		interacted[[2]int{lo, hi}] = struct{}{}
	}

	features := func(a, b int) (scorer.PairFeatures, error) {
		neighborScore, err := neighbor.ScorePair(a, b)
		if err != nil {
			return scorer.PairFeatures{}, fmt.Errorf("neighbor score %d/%d: %w", a, b, err)
		}
		latentScore, err := latent.ScorePair(a, b)
		if err != nil {
			return scorer.PairFeatures{}, fmt.Errorf("latent score %d/%d: %w", a, b, err)
		}
		return scorer.PairFeatures{
			Neighbor:  neighborScore,
			Latent:    latentScore,
			Agreement: scorer.ComputeAgreement(byID[a], byID[b]),
		}, nil
	}

	positives := make([][2]int, 0, len(interacted))
	for pair := range interacted {
		if byID[pair[0]] == nil || byID[pair[1]] == nil {
			continue
		}
		positives = append(positives, pair)
	}
	sort.Slice(positives, func(i, j int) bool {
		if positives[i][0] != positives[j][0] {
			return positives[i][0] < positives[j][0]
		}
		return positives[i][1] < positives[j][1]
	})

	examples := make([]scorer.PairExample, 0, 2*len(positives))
	seenNegative := make(map[[2]int]struct{}, len(positives))

	for _, pair := range positives {
		f, err := features(pair[0], pair[1])
		if err != nil {
			return nil, err
		}
		examples = append(examples, scorer.PairExample{Features: f, Label: 1})

		for _, c := range ids {
			if c == pair[0] {
				continue
			}
			lo, hi := orderPair(pair[0], c)
			if _, ok := interacted[[2]int{lo, hi}]; ok {
				continue
			}
			if _, dup := seenNegative[[2]int{lo, hi}]; dup {
				continue
			}
			seenNegative[[2]int{lo, hi}] = struct{}{}
			nf, err := features(lo, hi)
			if err != nil {
				return nil, err
			}
			examples = append(examples, scorer.PairExample{Features: nf, Label: 0})
			break
		}
	}

	return examples, nil
}

// pairKey is the cache key for a canonical pair under one model generation
// and feature layout.
func pairKey(lo, hi, version int) string {
	return fmt.Sprintf("pair:%d:%d:m%d:l%d", lo, hi, version, feature.LayoutVersion)
}

// orderPair returns the pair in canonical order, lower id first.
func orderPair(a, b int) (int, int) {
	if a <= b {
		return a, b
	}
	return b, a
}
