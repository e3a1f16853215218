// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package allocation

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/cohabhq/cohab/internal/feature"
	"github.com/cohabhq/cohab/internal/match"
	"github.com/cohabhq/cohab/internal/models"
)

type plannedAssignment struct {
	userID int
	roomID int
}

// runState is the mutable working set a strategy fills in. Occupants
// start as a copy of the snapshot's and grow with planned placements,
// so roommate scoring always sees who would actually share the room.
type runState struct {
	snap           *snapshot
	scorer         PairScorer
	openSlots      map[int]int // room id -> remaining open slots
	assigned       map[int]int // user id -> planned room id
	plan           []plannedAssignment
	plannedPerRoom map[int]int
	occupants      map[int][]int // room id -> existing + planned occupants
	scores         map[[2]int]float64
	byID           map[int]*models.Profile
}

func newRunState(snap *snapshot, scorer PairScorer) *runState {
	st := &runState{
		snap:           snap,
		scorer:         scorer,
		openSlots:      make(map[int]int, len(snap.rooms)),
		assigned:       make(map[int]int),
		plannedPerRoom: make(map[int]int),
		occupants:      make(map[int][]int, len(snap.rooms)),
		scores:         make(map[[2]int]float64),
		byID:           make(map[int]*models.Profile, len(snap.users)),
	}
	for _, r := range snap.rooms {
		open := r.Capacity - len(snap.occupants[r.ID])
		if open < 0 {
			open = 0
		}
		st.openSlots[r.ID] = open
		if occ := snap.occupants[r.ID]; len(occ) > 0 {
			st.occupants[r.ID] = append([]int(nil), occ...)
		}
	}
	for _, p := range snap.users {
		st.byID[p.ID] = p
	}
	return st
}

func (st *runState) assign(userID, roomID int) {
	st.openSlots[roomID]--
	st.assigned[userID] = roomID
	st.plannedPerRoom[roomID]++
	st.occupants[roomID] = append(st.occupants[roomID], userID)
	st.plan = append(st.plan, plannedAssignment{userID: userID, roomID: roomID})
}

// unassignedUsers preserves the snapshot's ascending-id order.
func (st *runState) unassignedUsers() []*models.Profile {
	out := make([]*models.Profile, 0, len(st.snap.users))
	for _, p := range st.snap.users {
		if _, ok := st.assigned[p.ID]; !ok {
			out = append(out, p)
		}
	}
	return out
}

func (st *runState) pairScore(ctx context.Context, a, b int) (float64, error) {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	key := [2]int{lo, hi}
	if v, ok := st.scores[key]; ok {
		return v, nil
	}
	ps, err := st.scorer.ScorePair(ctx, lo, hi)
	if err != nil {
		return 0, err
	}
	st.scores[key] = ps.FinalScore
	return ps.FinalScore, nil
}

// pairScoreOrZero degrades scoring problems to a zero score so budget
// and location strategies keep a deterministic ascending-id order
// when models are untrained.
func (st *runState) pairScoreOrZero(ctx context.Context, a, b int) float64 {
	v, err := st.pairScore(ctx, a, b)
	if err != nil {
		return 0
	}
	return v
}

// applyCompatibilityFirst scores every unassigned pair, then places
// pairs from the best score down. Ties break by ascending id sum so
// reruns are stable. Leftover users fill remaining single slots.
func (e *Engine) applyCompatibilityFirst(ctx context.Context, st *runState) error {
	users := st.unassignedUsers()
	type scoredPair struct {
		a, b  int
		score float64
	}
	pairs := make([]scoredPair, 0, len(users)*(len(users)-1)/2)
	for i := 0; i < len(users); i++ {
		for j := i + 1; j < len(users); j++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			score, err := st.pairScore(ctx, users[i].ID, users[j].ID)
			if err != nil {
				if scoringFatal(err) {
					return err
				}
				e.logger.Debug().
					Int("user_a", users[i].ID).
					Int("user_b", users[j].ID).
					Err(err).
					Msg("Pair excluded from allocation")
				continue
			}
			pairs = append(pairs, scoredPair{a: users[i].ID, b: users[j].ID, score: score})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score > pairs[j].score
		}
		si, sj := pairs[i].a+pairs[i].b, pairs[j].a+pairs[j].b
		if si != sj {
			return si < sj
		}
		if pairs[i].a != pairs[j].a {
			return pairs[i].a < pairs[j].a
		}
		return pairs[i].b < pairs[j].b
	})
	for _, pr := range pairs {
		if _, ok := st.assigned[pr.a]; ok {
			continue
		}
		if _, ok := st.assigned[pr.b]; ok {
			continue
		}
		room := st.bestRoomForPair(pr.a, pr.b)
		if room == nil {
			continue
		}
		st.assign(pr.a, room.ID)
		st.assign(pr.b, room.ID)
	}
	e.fillByCompatibility(ctx, st)
	return nil
}

// applyBudgetFirst serves the tightest budgets first: each user in
// ascending budget order takes the cheapest open room they can
// afford, then the rest of that room fills with the best-matching
// remaining affordable users before the walk continues.
func (e *Engine) applyBudgetFirst(ctx context.Context, st *runState) error {
	queue := st.unassignedUsers()
	sort.SliceStable(queue, func(i, j int) bool {
		bi, bj := userBudget(queue[i]), userBudget(queue[j])
		if bi != bj {
			return bi < bj
		}
		return queue[i].ID < queue[j].ID
	})
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		u := queue[0]
		queue = queue[1:]
		if _, ok := st.assigned[u.ID]; ok {
			continue
		}
		room := st.cheapestAffordable(u, e.cfg.BudgetTolerance)
		if room == nil {
			continue
		}
		st.assign(u.ID, room.ID)
		ref := st.occupants[room.ID][0]
		for st.openSlots[room.ID] > 0 {
			var pick *models.Profile
			pickScore := -1.0
			for _, v := range queue {
				if _, ok := st.assigned[v.ID]; ok {
					continue
				}
				if !affordable(v, room, e.cfg.BudgetTolerance) {
					continue
				}
				s := st.pairScoreOrZero(ctx, ref, v.ID)
				if pick == nil || s > pickScore || (s == pickScore && v.ID < pick.ID) {
					pick, pickScore = v, s
				}
			}
			if pick == nil {
				break
			}
			st.assign(pick.ID, room.ID)
		}
	}
	return nil
}

// applyLocationFirst fills rooms from matching location groups, then
// hands everyone left to the compatibility pass. Without trained
// models that pass degrades to ascending-id placement instead of
// failing the run.
func (e *Engine) applyLocationFirst(ctx context.Context, st *runState) error {
	groups := make(map[string][]*models.Profile)
	for _, p := range st.snap.users {
		tok := normalizeLocation(p.LocationPreference)
		if tok == "" {
			continue
		}
		groups[tok] = append(groups[tok], p)
	}
	tokens := make([]string, 0, len(groups))
	for tok := range groups {
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	for _, tok := range tokens {
		if err := ctx.Err(); err != nil {
			return err
		}
		group := groups[tok]
		for _, r := range st.roomsForLocation(tok) {
			for st.openSlots[r.ID] > 0 {
				pick := st.pickForRoom(ctx, r, group)
				if pick == nil {
					break
				}
				st.assign(pick.ID, r.ID)
			}
		}
	}

	if err := e.applyCompatibilityFirst(ctx, st); err != nil {
		if errors.Is(err, match.ErrModelNotTrained) {
			st.assignAscending()
			return nil
		}
		return err
	}
	return nil
}

// applyBalanced ranks every (pair, room) candidate by a weighted
// composite of compatibility, budget fit, and location fit, places
// candidates from the top down, then fills leftover single slots by
// compatibility.
func (e *Engine) applyBalanced(ctx context.Context, st *runState) error {
	users := st.unassignedUsers()
	type candidate struct {
		a, b      int
		roomID    int
		composite float64
	}
	var cands []candidate
	for i := 0; i < len(users); i++ {
		for j := i + 1; j < len(users); j++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			pa, pb := users[i], users[j]
			compat, err := st.pairScore(ctx, pa.ID, pb.ID)
			if err != nil {
				if scoringFatal(err) {
					return err
				}
				e.logger.Debug().
					Int("user_a", pa.ID).
					Int("user_b", pb.ID).
					Err(err).
					Msg("Pair excluded from allocation")
				continue
			}
			for _, r := range st.snap.rooms {
				if st.openSlots[r.ID] < 2 {
					continue
				}
				bf := (budgetFit(userBudget(pa), r.MonthlyRent) + budgetFit(userBudget(pb), r.MonthlyRent)) / 2
				lf := (locationFit(pa.LocationPreference, r.LocationTag) + locationFit(pb.LocationPreference, r.LocationTag)) / 2
				cands = append(cands, candidate{
					a:      pa.ID,
					b:      pb.ID,
					roomID: r.ID,
					composite: e.cfg.CompatibilityWeight*compat +
						e.cfg.BudgetWeight*bf +
						e.cfg.LocationWeight*lf,
				})
			}
		}
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].composite != cands[j].composite {
			return cands[i].composite > cands[j].composite
		}
		si, sj := cands[i].a+cands[i].b, cands[j].a+cands[j].b
		if si != sj {
			return si < sj
		}
		if cands[i].a != cands[j].a {
			return cands[i].a < cands[j].a
		}
		if cands[i].b != cands[j].b {
			return cands[i].b < cands[j].b
		}
		return cands[i].roomID < cands[j].roomID
	})
	for _, c := range cands {
		if _, ok := st.assigned[c.a]; ok {
			continue
		}
		if _, ok := st.assigned[c.b]; ok {
			continue
		}
		if st.openSlots[c.roomID] < 2 {
			continue
		}
		st.assign(c.a, c.roomID)
		st.assign(c.b, c.roomID)
	}
	e.fillByCompatibility(ctx, st)
	return nil
}

// fillByCompatibility places remaining users one at a time into the
// open room whose current occupants they score best against. Empty
// rooms score zero, so joining a good match beats opening a fresh
// room; ties fall to rent, then room id.
func (e *Engine) fillByCompatibility(ctx context.Context, st *runState) {
	for _, p := range st.unassignedUsers() {
		var best *models.Room
		bestScore := -1.0
		for _, r := range st.snap.rooms {
			if st.openSlots[r.ID] < 1 {
				continue
			}
			score := 0.0
			for _, occ := range st.occupants[r.ID] {
				if s := st.pairScoreOrZero(ctx, p.ID, occ); s > score {
					score = s
				}
			}
			if best == nil || score > bestScore || (score == bestScore && singleRoomLess(r, best)) {
				best, bestScore = r, score
			}
		}
		if best != nil {
			st.assign(p.ID, best.ID)
		}
	}
}

// assignAscending is the fully degraded order: users by ascending id
// into the cheapest open room.
func (st *runState) assignAscending() {
	for _, p := range st.unassignedUsers() {
		var best *models.Room
		for _, r := range st.snap.rooms {
			if st.openSlots[r.ID] < 1 {
				continue
			}
			if best == nil || singleRoomLess(r, best) {
				best = r
			}
		}
		if best == nil {
			return
		}
		st.assign(p.ID, best.ID)
	}
}

// bestRoomForPair picks the open room that best fits both users:
// tightest remaining capacity first, then lowest rent, then most
// location matches, then lowest room id.
func (st *runState) bestRoomForPair(a, b int) *models.Room {
	pa, pb := st.byID[a], st.byID[b]
	var best *models.Room
	for _, r := range st.snap.rooms {
		if st.openSlots[r.ID] < 2 {
			continue
		}
		if best == nil || st.pairRoomLess(r, best, pa, pb) {
			best = r
		}
	}
	return best
}

func (st *runState) pairRoomLess(r, cur *models.Room, pa, pb *models.Profile) bool {
	if st.openSlots[r.ID] != st.openSlots[cur.ID] {
		return st.openSlots[r.ID] < st.openSlots[cur.ID]
	}
	if r.MonthlyRent != cur.MonthlyRent {
		return r.MonthlyRent < cur.MonthlyRent
	}
	rm, cm := locationMatchCount(r.LocationTag, pa, pb), locationMatchCount(cur.LocationTag, pa, pb)
	if rm != cm {
		return rm > cm
	}
	return r.ID < cur.ID
}

func (st *runState) cheapestAffordable(p *models.Profile, tol float64) *models.Room {
	var best *models.Room
	for _, r := range st.snap.rooms {
		if st.openSlots[r.ID] < 1 {
			continue
		}
		if !affordable(p, r, tol) {
			continue
		}
		if best == nil || r.MonthlyRent < best.MonthlyRent ||
			(r.MonthlyRent == best.MonthlyRent && r.ID < best.ID) {
			best = r
		}
	}
	return best
}

func (st *runState) roomsForLocation(tok string) []*models.Room {
	var out []*models.Room
	for _, r := range st.snap.rooms {
		if st.openSlots[r.ID] < 1 {
			continue
		}
		if normalizeLocation(r.LocationTag) != tok {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].MonthlyRent != out[j].MonthlyRent {
			return out[i].MonthlyRent < out[j].MonthlyRent
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// pickForRoom chooses the next group member for a room: lowest id
// when the room is empty, otherwise the best match against the first
// occupant with ascending id breaking ties.
func (st *runState) pickForRoom(ctx context.Context, r *models.Room, group []*models.Profile) *models.Profile {
	occ := st.occupants[r.ID]
	var pick *models.Profile
	pickScore := -1.0
	for _, v := range group {
		if _, ok := st.assigned[v.ID]; ok {
			continue
		}
		if len(occ) == 0 {
			if pick == nil || v.ID < pick.ID {
				pick = v
			}
			continue
		}
		s := st.pairScoreOrZero(ctx, occ[0], v.ID)
		if pick == nil || s > pickScore || (s == pickScore && v.ID < pick.ID) {
			pick, pickScore = v, s
		}
	}
	return pick
}

func singleRoomLess(r, cur *models.Room) bool {
	if r.MonthlyRent != cur.MonthlyRent {
		return r.MonthlyRent < cur.MonthlyRent
	}
	return r.ID < cur.ID
}

func userBudget(p *models.Profile) float64 {
	return feature.ParseBudget(p.BudgetRange)
}

func affordable(p *models.Profile, r *models.Room, tol float64) bool {
	budget := userBudget(p)
	if budget <= 0 {
		return true
	}
	return r.MonthlyRent <= budget*(1+tol)
}

// budgetFit scores how well a rent sits inside a budget: 1 at or
// under budget, decaying linearly to 0 at double the budget.
func budgetFit(budget, rent float64) float64 {
	if budget <= 0 {
		return 0.5
	}
	if rent <= budget {
		return 1
	}
	over := (rent - budget) / budget
	if over >= 1 {
		return 0
	}
	return 1 - over
}

// locationFit is 1 on a match, 0 on a mismatch, and 0.5 when the user
// states no preference.
func locationFit(pref, tag string) float64 {
	p := normalizeLocation(pref)
	if p == "" {
		return 0.5
	}
	if p == normalizeLocation(tag) {
		return 1
	}
	return 0
}

func locationMatchCount(tag string, profiles ...*models.Profile) int {
	n := 0
	t := normalizeLocation(tag)
	for _, p := range profiles {
		pref := normalizeLocation(p.LocationPreference)
		if pref != "" && pref == t {
			n++
		}
	}
	return n
}

func normalizeLocation(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "unspecified" {
		return ""
	}
	return s
}
