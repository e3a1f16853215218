// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package match

import (
	"math"
	"sort"

	"github.com/cohabhq/cohab/internal/feature"
	"github.com/cohabhq/cohab/internal/match/scorer"
	"github.com/cohabhq/cohab/internal/models"
)

// AttributeNote is one piece of explanation evidence: an attribute name
// and a short detail of how the two profiles relate on it.
type AttributeNote struct {
	Attribute string `json:"attribute"`
	Detail    string `json:"detail"`
}

// Explanation justifies a pair score from profile evidence alone. It is
// reproducible: the same two profiles and blend weights always produce the
// same explanation, with no opaque model internals involved.
type Explanation struct {
	Matched       []AttributeNote    `json:"matched"`
	Conflicts     []AttributeNote    `json:"conflicts"`
	SharedHobbies []string           `json:"shared_hobbies,omitempty"`
	Contributions map[string]float64 `json:"contributions"`
}

// attributeEvidence pairs an agreement level with the raw values behind it.
type attributeEvidence struct {
	name      string
	level     float64
	valueA    string
	valueB    string
	specified bool
}

// buildExplanation assembles the evidence for one pair. Attributes either
// side left unspecified are omitted entirely; they neither match nor
// conflict. Attribute order is fixed so output is deterministic.
func buildExplanation(a, b *models.Profile, agr scorer.Agreement, contributions map[string]float64) Explanation {
	evidence := []attributeEvidence{
		{
			name:      "sleep_schedule",
			level:     agr.Sleep,
			valueA:    string(a.SleepSchedule),
			valueB:    string(b.SleepSchedule),
			specified: a.SleepSchedule != models.SleepUnspecified && b.SleepSchedule != models.SleepUnspecified,
		},
		{
			name:      "cleanliness",
			level:     agr.Cleanliness,
			valueA:    string(a.Cleanliness),
			valueB:    string(b.Cleanliness),
			specified: a.Cleanliness != models.CleanlinessUnspecified && b.Cleanliness != models.CleanlinessUnspecified,
		},
		{
			name:      "noise_tolerance",
			level:     agr.Noise,
			valueA:    string(a.NoiseTolerance),
			valueB:    string(b.NoiseTolerance),
			specified: a.NoiseTolerance != models.NoiseUnspecified && b.NoiseTolerance != models.NoiseUnspecified,
		},
		{
			name:      "social_preference",
			level:     agr.Social,
			valueA:    string(a.SocialPreference),
			valueB:    string(b.SocialPreference),
			specified: a.SocialPreference != models.SocialUnspecified && b.SocialPreference != models.SocialUnspecified,
		},
		{
			name:      "pet_preference",
			level:     agr.Pets,
			valueA:    string(a.PetPreference),
			valueB:    string(b.PetPreference),
			specified: a.PetPreference != models.PetsUnspecified && b.PetPreference != models.PetsUnspecified,
		},
		{
			name:      "smoking_preference",
			level:     agr.Smoking,
			valueA:    string(a.SmokingPreference),
			valueB:    string(b.SmokingPreference),
			specified: a.SmokingPreference != models.SmokingUnspecified && b.SmokingPreference != models.SmokingUnspecified,
		},
	}

	out := Explanation{
		Matched:       make([]AttributeNote, 0, len(evidence)),
		Conflicts:     make([]AttributeNote, 0, 2),
		SharedHobbies: sharedHobbies(a.Hobbies, b.Hobbies),
		Contributions: contributions,
	}
	for _, ev := range evidence {
		if !ev.specified {
			continue
		}
		switch {
		case ev.level >= 1:
			out.Matched = append(out.Matched, AttributeNote{
				Attribute: ev.name,
				Detail:    "both " + ev.valueA,
			})
		case ev.level > 0:
			out.Matched = append(out.Matched, AttributeNote{
				Attribute: ev.name,
				Detail:    ev.valueA + " near " + ev.valueB,
			})
		default:
			out.Conflicts = append(out.Conflicts, AttributeNote{
				Attribute: ev.name,
				Detail:    ev.valueA + " vs " + ev.valueB,
			})
		}
	}
	return out
}

// sharedHobbies intersects the two hobby token sets, sorted for stable
// output. Nil when nothing is shared.
func sharedHobbies(a, b string) []string {
	tokensB := make(map[string]struct{})
	for _, tok := range feature.HobbyTokens(b) {
		tokensB[tok] = struct{}{}
	}

	var shared []string
	for _, tok := range feature.HobbyTokens(a) {
		if _, ok := tokensB[tok]; ok {
			shared = append(shared, tok)
		}
	}
	sort.Strings(shared)
	return shared
}

// contributionWeights normalizes the blend model's learned weight
// magnitudes into per-feature contribution shares summing to one. An
// untrained blend reports the fixed fallback split.
func contributionWeights(blend *scorer.BlendModel) map[string]float64 {
	learned := blend.FeatureWeights()
	if learned == nil {
		return fallbackContributions()
	}

	total := 0.0
	out := make(map[string]float64, len(learned))
	for name, w := range learned {
		if name == "bias" {
			continue
		}
		out[name] = math.Abs(w)
		total += math.Abs(w)
	}
	if total == 0 {
		return fallbackContributions()
	}
	for name := range out {
		out[name] /= total
	}
	return out
}

func fallbackContributions() map[string]float64 {
	return map[string]float64{
		"neighbor":  scorer.FallbackNeighborWeight,
		"latent":    scorer.FallbackLatentWeight,
		"agreement": scorer.FallbackAgreementWeight,
	}
}
