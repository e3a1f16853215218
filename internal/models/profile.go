// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package models

import "time"

// SleepSchedule is a closed preference enumeration.
type SleepSchedule string

// SleepSchedule variants.
const (
	SleepEarlyBird   SleepSchedule = "early_bird"
	SleepNightOwl    SleepSchedule = "night_owl"
	SleepFlexible    SleepSchedule = "flexible"
	SleepRegular     SleepSchedule = "regular"
	SleepUnspecified SleepSchedule = "unspecified"
)

// ParseSleepSchedule resolves a raw category string to a SleepSchedule.
// Unknown or empty values resolve to SleepUnspecified, never an error.
func ParseSleepSchedule(s string) SleepSchedule {
	switch SleepSchedule(s) {
	case SleepEarlyBird, SleepNightOwl, SleepFlexible, SleepRegular:
		return SleepSchedule(s)
	default:
		return SleepUnspecified
	}
}

// CleanlinessLevel is a closed preference enumeration, ordered from
// relaxed (lowest tier) to very clean (highest tier).
type CleanlinessLevel string

// CleanlinessLevel variants.
const (
	CleanlinessVeryClean   CleanlinessLevel = "very_clean"
	CleanlinessClean       CleanlinessLevel = "clean"
	CleanlinessModerate    CleanlinessLevel = "moderate"
	CleanlinessRelaxed     CleanlinessLevel = "relaxed"
	CleanlinessUnspecified CleanlinessLevel = "unspecified"
)

// ParseCleanlinessLevel resolves a raw category string to a CleanlinessLevel.
func ParseCleanlinessLevel(s string) CleanlinessLevel {
	switch CleanlinessLevel(s) {
	case CleanlinessVeryClean, CleanlinessClean, CleanlinessModerate, CleanlinessRelaxed:
		return CleanlinessLevel(s)
	default:
		return CleanlinessUnspecified
	}
}

// Tier returns the ordinal position of the level (0 = relaxed, 3 = very
// clean) and whether the level is specified.
func (c CleanlinessLevel) Tier() (int, bool) {
	switch c {
	case CleanlinessRelaxed:
		return 0, true
	case CleanlinessModerate:
		return 1, true
	case CleanlinessClean:
		return 2, true
	case CleanlinessVeryClean:
		return 3, true
	default:
		return 0, false
	}
}

// NoiseTolerance is a closed preference enumeration, ordered from very
// quiet (lowest tier) to noisy (highest tier).
type NoiseTolerance string

// NoiseTolerance variants.
const (
	NoiseVeryQuiet   NoiseTolerance = "very_quiet"
	NoiseQuiet       NoiseTolerance = "quiet"
	NoiseModerate    NoiseTolerance = "moderate"
	NoiseNoisy       NoiseTolerance = "noisy"
	NoiseUnspecified NoiseTolerance = "unspecified"
)

// ParseNoiseTolerance resolves a raw category string to a NoiseTolerance.
func ParseNoiseTolerance(s string) NoiseTolerance {
	switch NoiseTolerance(s) {
	case NoiseVeryQuiet, NoiseQuiet, NoiseModerate, NoiseNoisy:
		return NoiseTolerance(s)
	default:
		return NoiseUnspecified
	}
}

// Tier returns the ordinal position of the tolerance (0 = very quiet,
// 3 = noisy) and whether the tolerance is specified.
func (n NoiseTolerance) Tier() (int, bool) {
	switch n {
	case NoiseVeryQuiet:
		return 0, true
	case NoiseQuiet:
		return 1, true
	case NoiseModerate:
		return 2, true
	case NoiseNoisy:
		return 3, true
	default:
		return 0, false
	}
}

// SocialPreference is a closed preference enumeration, ordered from
// introvert (lowest tier) to very social (highest tier).
type SocialPreference string

// SocialPreference variants.
const (
	SocialVerySocial  SocialPreference = "very_social"
	SocialSocial      SocialPreference = "social"
	SocialModerate    SocialPreference = "moderate"
	SocialIntrovert   SocialPreference = "introvert"
	SocialUnspecified SocialPreference = "unspecified"
)

// ParseSocialPreference resolves a raw category string to a SocialPreference.
func ParseSocialPreference(s string) SocialPreference {
	switch SocialPreference(s) {
	case SocialVerySocial, SocialSocial, SocialModerate, SocialIntrovert:
		return SocialPreference(s)
	default:
		return SocialUnspecified
	}
}

// Tier returns the ordinal position of the preference (0 = introvert,
// 3 = very social) and whether the preference is specified.
func (s SocialPreference) Tier() (int, bool) {
	switch s {
	case SocialIntrovert:
		return 0, true
	case SocialModerate:
		return 1, true
	case SocialSocial:
		return 2, true
	case SocialVerySocial:
		return 3, true
	default:
		return 0, false
	}
}

// PetPreference is a closed preference enumeration.
type PetPreference string

// PetPreference variants.
const (
	PetsLove        PetPreference = "love_pets"
	PetsOK          PetPreference = "ok_with_pets"
	PetsNo          PetPreference = "no_pets"
	PetsHave        PetPreference = "have_pets"
	PetsUnspecified PetPreference = "unspecified"
)

// ParsePetPreference resolves a raw category string to a PetPreference.
func ParsePetPreference(s string) PetPreference {
	switch PetPreference(s) {
	case PetsLove, PetsOK, PetsNo, PetsHave:
		return PetPreference(s)
	default:
		return PetsUnspecified
	}
}

// SmokingPreference is a closed preference enumeration.
type SmokingPreference string

// SmokingPreference variants.
const (
	SmokingSmoker      SmokingPreference = "smoker"
	SmokingNonSmoker   SmokingPreference = "non_smoker"
	SmokingOK          SmokingPreference = "ok_with_smoking"
	SmokingUnspecified SmokingPreference = "unspecified"
)

// ParseSmokingPreference resolves a raw category string to a SmokingPreference.
func ParseSmokingPreference(s string) SmokingPreference {
	switch SmokingPreference(s) {
	case SmokingSmoker, SmokingNonSmoker, SmokingOK:
		return SmokingPreference(s)
	default:
		return SmokingUnspecified
	}
}

// Gender is a closed enumeration. It is carried for profile display and
// room-type policy; it does not participate in compatibility scoring.
type Gender string

// Gender variants.
const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
	GenderUndisclosed Gender = "prefer_not_to_say"
	GenderUnspecified Gender = "unspecified"
)

// ParseGender resolves a raw category string to a Gender.
func ParseGender(s string) Gender {
	switch Gender(s) {
	case GenderMale, GenderFemale, GenderOther, GenderUndisclosed:
		return Gender(s)
	default:
		return GenderUnspecified
	}
}

// Profile represents one user seeking shared housing. Profiles are produced
// by the external intake collaborator; the engine treats them as immutable
// for scoring purposes. Edits arrive as whole replacement records and
// invalidate any cached scores for the user.
//
// A profile is scoring-eligible once its embedding vector has been
// populated by the preprocessing step (EmbeddingPending false and a
// non-empty Embedding).
type Profile struct {
	ID                  int               `json:"id" db:"id"`
	Name                string            `json:"name" db:"name"`
	Age                 int               `json:"age" db:"age"`
	Gender              Gender            `json:"gender" db:"gender"`
	Occupation          string            `json:"occupation" db:"occupation"`
	SleepSchedule       SleepSchedule     `json:"sleep_schedule" db:"sleep_schedule"`
	Cleanliness         CleanlinessLevel  `json:"cleanliness_level" db:"cleanliness_level"`
	NoiseTolerance      NoiseTolerance    `json:"noise_tolerance" db:"noise_tolerance"`
	SocialPreference    SocialPreference  `json:"social_preference" db:"social_preference"`
	PetPreference       PetPreference     `json:"pet_preference" db:"pet_preference"`
	SmokingPreference   SmokingPreference `json:"smoking_preference" db:"smoking_preference"`
	Hobbies             string            `json:"hobbies" db:"hobbies"`
	DietaryRestrictions string            `json:"dietary_restrictions" db:"dietary_restrictions"`
	BudgetRange         string            `json:"budget_range" db:"budget_range"`
	LocationPreference  string            `json:"location_preference" db:"location_preference"`
	Embedding           []float64         `json:"embedding,omitempty" db:"embedding"`
	EmbeddingPending    bool              `json:"embedding_pending" db:"embedding_pending"`
	CreatedAt           time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at" db:"updated_at"`
}

// ScoringEligible reports whether the profile can participate in
// compatibility scoring and allocation.
func (p *Profile) ScoringEligible() bool {
	return !p.EmbeddingPending && len(p.Embedding) > 0
}

// Normalize resolves every preference field through its parser so that
// unknown raw values become the Unspecified variant. Intake payloads pass
// through here once; after that the enums are trusted.
func (p *Profile) Normalize() {
	p.Gender = ParseGender(string(p.Gender))
	p.SleepSchedule = ParseSleepSchedule(string(p.SleepSchedule))
	p.Cleanliness = ParseCleanlinessLevel(string(p.Cleanliness))
	p.NoiseTolerance = ParseNoiseTolerance(string(p.NoiseTolerance))
	p.SocialPreference = ParseSocialPreference(string(p.SocialPreference))
	p.PetPreference = ParsePetPreference(string(p.PetPreference))
	p.SmokingPreference = ParseSmokingPreference(string(p.SmokingPreference))
}
