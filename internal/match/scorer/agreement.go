// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package scorer

import (
	"github.com/cohabhq/cohab/internal/feature"
	"github.com/cohabhq/cohab/internal/models"
)

// Agreement match levels per preference dimension. Exact agreement earns
// the full bonus, adjacent-tier or flexible agreement earns half, and an
// unspecified value on either side earns nothing: missing data neither
// matches nor conflicts.
const (
	matchExact   = 1.0
	matchPartial = 0.5
	matchNone    = 0.0
)

// Per-dimension bonuses of the aggregate agreement score.
const (
	agreementBase         = 0.5
	agreementExactBonus   = 0.10
	agreementPartialBonus = 0.05
)

// Agreement holds the rule-derived match level for each preference
// dimension of a pair, plus the hobby token overlap ratio. The levels feed
// the blend model as features and the explanation builder as evidence; the
// aggregate Score is the deterministic component of the fallback blend.
type Agreement struct {
	Sleep        float64
	Cleanliness  float64
	Noise        float64
	Social       float64
	Pets         float64
	Smoking      float64
	HobbyOverlap float64
}

// ComputeAgreement derives the agreement features for a pair of profiles.
// The computation is symmetric: ComputeAgreement(a, b) equals
// ComputeAgreement(b, a) for every pair.
func ComputeAgreement(a, b *models.Profile) Agreement {
	return Agreement{
		Sleep:        sleepMatch(a.SleepSchedule, b.SleepSchedule),
		Cleanliness:  tierMatch(a.Cleanliness.Tier())(b.Cleanliness.Tier()),
		Noise:        tierMatch(a.NoiseTolerance.Tier())(b.NoiseTolerance.Tier()),
		Social:       tierMatch(a.SocialPreference.Tier())(b.SocialPreference.Tier()),
		Pets:         exactMatch(a.PetPreference, b.PetPreference, models.PetsUnspecified),
		Smoking:      exactMatch(a.SmokingPreference, b.SmokingPreference, models.SmokingUnspecified),
		HobbyOverlap: jaccardOverlap(feature.HobbyTokens(a.Hobbies), feature.HobbyTokens(b.Hobbies)),
	}
}

// Score aggregates the per-dimension levels into the rule-based agreement
// score: base 0.5, +0.10 per exact match, +0.05 per partial match on the
// ordered dimensions, +0.10 each for pet and smoking agreement, capped at
// 1.0. Hobby overlap is carried as a feature but does not contribute to
// the aggregate.
func (g Agreement) Score() float64 {
	score := agreementBase
	score += tierBonus(g.Sleep)
	score += tierBonus(g.Cleanliness)
	score += tierBonus(g.Noise)
	score += tierBonus(g.Social)
	if g.Pets >= matchExact {
		score += agreementExactBonus
	}
	if g.Smoking >= matchExact {
		score += agreementExactBonus
	}
	return clamp01(score)
}

func tierBonus(level float64) float64 {
	switch {
	case level >= matchExact:
		return agreementExactBonus
	case level >= matchPartial:
		return agreementPartialBonus
	default:
		return 0
	}
}

// sleepMatch scores sleep schedule agreement. Identical schedules are an
// exact match; a flexible schedule on either side is a partial match with
// any other specified schedule.
func sleepMatch(a, b models.SleepSchedule) float64 {
	if a == models.SleepUnspecified || b == models.SleepUnspecified {
		return matchNone
	}
	if a == b {
		return matchExact
	}
	if a == models.SleepFlexible || b == models.SleepFlexible {
		return matchPartial
	}
	return matchNone
}

// tierMatch scores an ordered preference dimension: exact tier is an exact
// match, adjacent tiers are a partial match. The curried shape keeps the
// two-value Tier results usable inline.
func tierMatch(aTier int, aOK bool) func(bTier int, bOK bool) float64 {
	return func(bTier int, bOK bool) float64 {
		if !aOK || !bOK {
			return matchNone
		}
		diff := aTier - bTier
		if diff < 0 {
			diff = -diff
		}
		switch diff {
		case 0:
			return matchExact
		case 1:
			return matchPartial
		default:
			return matchNone
		}
	}
}

func exactMatch[T comparable](a, b, unspecified T) float64 {
	if a == unspecified || b == unspecified {
		return matchNone
	}
	if a == b {
		return matchExact
	}
	return matchNone
}
