// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package allocation

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/cohabhq/cohab/internal/match"
	"github.com/cohabhq/cohab/internal/models"
)

// Store is the persistence surface an allocation run needs. The
// database package implements it.
type Store interface {
	// ListEligibleProfiles returns profiles that are ready for
	// scoring and placement, ordered by user id.
	ListEligibleProfiles(ctx context.Context) ([]*models.Profile, error)

	// ListRooms returns the full room inventory.
	ListRooms(ctx context.Context) ([]*models.Room, error)

	// ActiveAssignments returns every assignment currently in the
	// active state.
	ActiveAssignments(ctx context.Context) ([]*models.Assignment, error)

	// RecordAssignments commits a run: it marks the active
	// assignments of supersedeUserIDs as superseded and inserts the
	// new assignments, all inside one transaction. Implementations
	// may fill in generated assignment IDs.
	RecordAssignments(ctx context.Context, assignments []*models.Assignment, supersedeUserIDs []int) error
}

// PairScorer supplies compatibility scores. The match engine
// implements it.
type PairScorer interface {
	ScorePair(ctx context.Context, userA, userB int) (*match.PairScore, error)
	Trained() bool
}

// Engine runs allocation. At most one run executes at a time; a
// request arriving mid-run fails with ErrRunInProgress rather than
// queueing, so callers see load instead of silent latency.
type Engine struct {
	cfg    Config
	logger zerolog.Logger
	store  Store
	scorer PairScorer

	runMu sync.Mutex

	statusMu       sync.RWMutex
	running        bool
	lastRunAt      time.Time
	lastStrategy   Strategy
	lastAssigned   int
	lastUnassigned int

	totalRuns atomic.Int64

	onAllocated func(*Result)
}

// NewEngine creates an allocation engine. Store and scorer are
// required; the engine does not hold background goroutines.
func NewEngine(cfg Config, logger zerolog.Logger, store Store, scorer PairScorer) *Engine {
	return &Engine{
		cfg:    cfg.withDefaults(),
		logger: logger.With().Str("component", "allocation").Logger(),
		store:  store,
		scorer: scorer,
	}
}

// SetOnAllocated registers a callback invoked after each committed
// run, used for event publication. Must be set before the first run.
func (e *Engine) SetOnAllocated(fn func(*Result)) {
	e.onAllocated = fn
}

// Allocate executes one allocation run and commits its plan
// atomically. A run with no users or no open slots returns an empty
// result with Infeasible set; it is not an error.
func (e *Engine) Allocate(ctx context.Context, req Request) (*Result, error) {
	if !req.Strategy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, req.Strategy)
	}
	if req.Strategy.requiresScores() && !e.scorer.Trained() {
		return nil, fmt.Errorf("strategy %s: %w", req.Strategy, match.ErrModelNotTrained)
	}
	if !e.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer e.runMu.Unlock()

	e.setRunning(true)
	defer e.setRunning(false)

	started := time.Now()

	snap, err := e.collect(ctx, req)
	if err != nil {
		return nil, err
	}

	st := newRunState(snap, e.scorer)

	if len(snap.users) > 0 && snap.openSlotTotal() > 0 {
		if err := e.applyStrategy(ctx, req.Strategy, st); err != nil {
			return nil, err
		}
		if err := validatePlan(snap, st); err != nil {
			return nil, err
		}
	}

	// Last cancellation point before the transaction. A cancelled run
	// must leave no trace.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	assignments, err := e.commit(ctx, snap, st)
	if err != nil {
		return nil, fmt.Errorf("commit assignments: %w", err)
	}

	result := buildResult(req.Strategy, snap, st, assignments)
	e.recordRun(result)

	e.logger.Info().
		Str("strategy", string(req.Strategy)).
		Int("considered", result.Stats.UsersConsidered).
		Int("assigned", result.Stats.UsersAssigned).
		Int("unassigned", len(result.Unassigned)).
		Bool("infeasible", result.Infeasible).
		Int64("duration_ms", time.Since(started).Milliseconds()).
		Msg("Allocation run complete")

	if e.onAllocated != nil {
		e.onAllocated(result)
	}
	return result, nil
}

// AllocateUser places a single user. Unlike a batch run, failure to
// place the user is an error (ErrInfeasible) so API callers get a
// definite outcome.
func (e *Engine) AllocateUser(ctx context.Context, userID int, strategy Strategy, reallocate bool) (*models.Assignment, error) {
	result, err := e.Allocate(ctx, Request{
		Strategy:   strategy,
		Reallocate: reallocate,
		UserIDs:    []int{userID},
	})
	if err != nil {
		return nil, err
	}
	if len(result.Skipped) > 0 {
		return nil, fmt.Errorf("user %d: %w", userID, match.ErrProfileNotEligible)
	}
	if len(result.Held) > 0 {
		return nil, fmt.Errorf("user %d: %w", userID, ErrAlreadyAssigned)
	}
	if len(result.Assignments) == 0 {
		return nil, fmt.Errorf("user %d: %w", userID, ErrInfeasible)
	}
	a := result.Assignments[0]
	return &a, nil
}

// Status reports run state without blocking on an in-flight run.
func (e *Engine) Status() Status {
	e.statusMu.RLock()
	defer e.statusMu.RUnlock()
	return Status{
		Running:        e.running,
		TotalRuns:      e.totalRuns.Load(),
		LastRunAt:      e.lastRunAt,
		LastStrategy:   string(e.lastStrategy),
		LastAssigned:   e.lastAssigned,
		LastUnassigned: e.lastUnassigned,
	}
}

func (e *Engine) setRunning(v bool) {
	e.statusMu.Lock()
	e.running = v
	e.statusMu.Unlock()
}

func (e *Engine) recordRun(r *Result) {
	e.totalRuns.Add(1)
	e.statusMu.Lock()
	e.lastRunAt = r.RunAt
	e.lastStrategy = r.Strategy
	e.lastAssigned = r.Stats.UsersAssigned
	e.lastUnassigned = len(r.Unassigned)
	e.statusMu.Unlock()
}

// snapshot is the immutable view of users, rooms, and occupancy a run
// plans against. Reallocated users are removed from occupancy here so
// strategies see their slots as open.
type snapshot struct {
	users     []*models.Profile // ascending id
	rooms     []*models.Room    // ascending id
	occupants map[int][]int     // room id -> occupant user ids, assignment order
	active    map[int]*models.Assignment
	supersede []int // user ids whose active assignment this run replaces
	skipped   []int // requested ids that are not eligible
	held      []int // requested ids excluded because already assigned
}

func (s *snapshot) openSlotTotal() int {
	total := 0
	for _, r := range s.rooms {
		if open := r.Capacity - len(s.occupants[r.ID]); open > 0 {
			total += open
		}
	}
	return total
}

func (e *Engine) collect(ctx context.Context, req Request) (*snapshot, error) {
	profiles, err := e.store.ListEligibleProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list eligible profiles: %w", err)
	}
	rooms, err := e.store.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	actives, err := e.store.ActiveAssignments(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active assignments: %w", err)
	}

	activeByUser := make(map[int]*models.Assignment, len(actives))
	for _, a := range actives {
		activeByUser[a.UserID] = a
	}

	var requested map[int]struct{}
	if len(req.UserIDs) > 0 {
		requested = make(map[int]struct{}, len(req.UserIDs))
		for _, id := range req.UserIDs {
			requested[id] = struct{}{}
		}
	}

	sort.Slice(profiles, func(i, j int) bool { return profiles[i].ID < profiles[j].ID })

	snap := &snapshot{
		active:    activeByUser,
		occupants: make(map[int][]int),
	}

	superseding := make(map[int]struct{})
	eligible := make(map[int]struct{}, len(profiles))
	for _, p := range profiles {
		eligible[p.ID] = struct{}{}
		if requested != nil {
			if _, ok := requested[p.ID]; !ok {
				continue
			}
		}
		if _, holds := activeByUser[p.ID]; holds {
			if !req.Reallocate {
				if requested != nil {
					snap.held = append(snap.held, p.ID)
				}
				continue
			}
			snap.supersede = append(snap.supersede, p.ID)
			superseding[p.ID] = struct{}{}
		}
		snap.users = append(snap.users, p)
	}

	if requested != nil {
		for _, id := range req.UserIDs {
			if _, ok := eligible[id]; !ok {
				snap.skipped = append(snap.skipped, id)
			}
		}
		sort.Ints(snap.skipped)
		snap.skipped = dedupSorted(snap.skipped)
	}

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	snap.rooms = rooms

	// Occupancy excludes users this run will supersede: their slot is
	// up for grabs.
	for _, a := range actives {
		if _, gone := superseding[a.UserID]; gone {
			continue
		}
		snap.occupants[a.RoomID] = append(snap.occupants[a.RoomID], a.UserID)
	}
	return snap, nil
}

func (e *Engine) applyStrategy(ctx context.Context, strategy Strategy, st *runState) error {
	switch strategy {
	case StrategyCompatibilityFirst:
		return e.applyCompatibilityFirst(ctx, st)
	case StrategyBudgetFirst:
		return e.applyBudgetFirst(ctx, st)
	case StrategyLocationFirst:
		return e.applyLocationFirst(ctx, st)
	case StrategyBalanced:
		return e.applyBalanced(ctx, st)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// validatePlan re-checks the hard invariants against the snapshot
// before anything touches the database.
func validatePlan(snap *snapshot, st *runState) error {
	planned := make(map[int]int, len(st.plan))
	perRoom := make(map[int]int)
	roomByID := make(map[int]*models.Room, len(snap.rooms))
	for _, r := range snap.rooms {
		roomByID[r.ID] = r
	}
	superseding := make(map[int]struct{}, len(snap.supersede))
	for _, id := range snap.supersede {
		superseding[id] = struct{}{}
	}

	for _, pa := range st.plan {
		if _, dup := planned[pa.userID]; dup {
			return fmt.Errorf("%w: user %d planned twice", ErrInvariantViolation, pa.userID)
		}
		planned[pa.userID] = pa.roomID

		if a, held := snap.active[pa.userID]; held {
			if _, ok := superseding[pa.userID]; !ok {
				return fmt.Errorf("%w: user %d already active in room %d", ErrInvariantViolation, pa.userID, a.RoomID)
			}
		}

		room, ok := roomByID[pa.roomID]
		if !ok {
			return fmt.Errorf("%w: unknown room %d", ErrInvariantViolation, pa.roomID)
		}
		perRoom[pa.roomID]++
		if len(snap.occupants[pa.roomID])+perRoom[pa.roomID] > room.Capacity {
			return fmt.Errorf("%w: room %d over capacity %d", ErrInvariantViolation, pa.roomID, room.Capacity)
		}
	}
	return nil
}

func (e *Engine) commit(ctx context.Context, snap *snapshot, st *runState) ([]models.Assignment, error) {
	if len(st.plan) == 0 && len(snap.supersede) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	rows := make([]*models.Assignment, 0, len(st.plan))
	for _, pa := range st.plan {
		rows = append(rows, &models.Assignment{
			UserID:     pa.userID,
			RoomID:     pa.roomID,
			Status:     models.AssignmentActive,
			AssignedAt: now,
		})
	}
	if err := e.store.RecordAssignments(ctx, rows, snap.supersede); err != nil {
		return nil, err
	}
	out := make([]models.Assignment, len(rows))
	for i, r := range rows {
		out[i] = *r
	}
	return out, nil
}

func buildResult(strategy Strategy, snap *snapshot, st *runState, assignments []models.Assignment) *Result {
	result := &Result{
		Strategy:    strategy,
		Assignments: assignments,
		Skipped:     snap.skipped,
		Held:        snap.held,
		RunAt:       time.Now().UTC(),
	}
	if assignments == nil {
		result.Assignments = []models.Assignment{}
	}

	for _, p := range snap.users {
		if _, ok := st.assigned[p.ID]; !ok {
			result.Unassigned = append(result.Unassigned, p.ID)
		}
	}
	sort.Ints(result.Unassigned)

	result.Infeasible = len(snap.users) == 0 || snap.openSlotTotal() == 0

	totalCapacity := 0
	occupied := 0
	for _, r := range snap.rooms {
		totalCapacity += r.Capacity
		count := len(snap.occupants[r.ID]) + st.plannedPerRoom[r.ID]
		occupied += count
		if count >= r.Capacity && r.Capacity > 0 {
			result.Stats.RoomsFilled++
		} else if count < r.Capacity {
			result.OpenRooms = append(result.OpenRooms, r.ID)
		}
	}
	sort.Ints(result.OpenRooms)

	result.Stats.UsersConsidered = len(snap.users)
	result.Stats.UsersAssigned = len(st.plan)
	if totalCapacity > 0 {
		result.Stats.OccupancyRate = 100 * float64(occupied) / float64(totalCapacity)
	}
	if len(snap.users) > 0 {
		result.Stats.AssignmentRate = 100 * float64(len(st.plan)) / float64(len(snap.users))
	}
	return result
}

func dedupSorted(ids []int) []int {
	if len(ids) < 2 {
		return ids
	}
	out := ids[:1]
	for _, id := range ids[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}

// scoringFatal reports whether a scorer error must fail the whole
// run, as opposed to per-pair problems that only exclude a candidate.
func scoringFatal(err error) bool {
	return errors.Is(err, match.ErrModelNotTrained) || errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
