// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package models

import "testing"

func TestParsePreferenceEnums(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		got   func(string) string
		want  string
	}{
		{"sleep known", "night_owl", func(s string) string { return string(ParseSleepSchedule(s)) }, "night_owl"},
		{"sleep unknown", "whenever", func(s string) string { return string(ParseSleepSchedule(s)) }, "unspecified"},
		{"sleep empty", "", func(s string) string { return string(ParseSleepSchedule(s)) }, "unspecified"},
		{"cleanliness known", "very_clean", func(s string) string { return string(ParseCleanlinessLevel(s)) }, "very_clean"},
		{"cleanliness unknown", "spotless", func(s string) string { return string(ParseCleanlinessLevel(s)) }, "unspecified"},
		{"noise known", "quiet", func(s string) string { return string(ParseNoiseTolerance(s)) }, "quiet"},
		{"noise unknown", "loud", func(s string) string { return string(ParseNoiseTolerance(s)) }, "unspecified"},
		{"social known", "introvert", func(s string) string { return string(ParseSocialPreference(s)) }, "introvert"},
		{"pets known", "have_pets", func(s string) string { return string(ParsePetPreference(s)) }, "have_pets"},
		{"pets unknown", "allergic", func(s string) string { return string(ParsePetPreference(s)) }, "unspecified"},
		{"smoking known", "non_smoker", func(s string) string { return string(ParseSmokingPreference(s)) }, "non_smoker"},
		{"gender known", "prefer_not_to_say", func(s string) string { return string(ParseGender(s)) }, "prefer_not_to_say"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.got(tt.input); got != tt.want {
				t.Errorf("parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTiers(t *testing.T) {
	t.Parallel()

	if tier, ok := CleanlinessVeryClean.Tier(); !ok || tier != 3 {
		t.Errorf("CleanlinessVeryClean.Tier() = %d, %v, want 3, true", tier, ok)
	}
	if _, ok := CleanlinessUnspecified.Tier(); ok {
		t.Error("CleanlinessUnspecified.Tier() should report unspecified")
	}
	if tier, ok := NoiseVeryQuiet.Tier(); !ok || tier != 0 {
		t.Errorf("NoiseVeryQuiet.Tier() = %d, %v, want 0, true", tier, ok)
	}
	if tier, ok := SocialVerySocial.Tier(); !ok || tier != 3 {
		t.Errorf("SocialVerySocial.Tier() = %d, %v, want 3, true", tier, ok)
	}
}

func TestScoringEligible(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		profile Profile
		want    bool
	}{
		{"eligible", Profile{Embedding: []float64{0.1, 0.2}, EmbeddingPending: false}, true},
		{"pending", Profile{Embedding: []float64{0.1, 0.2}, EmbeddingPending: true}, false},
		{"no embedding", Profile{EmbeddingPending: false}, false},
		{"fresh", Profile{EmbeddingPending: true}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.profile.ScoringEligible(); got != tt.want {
				t.Errorf("ScoringEligible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeResolvesUnknowns(t *testing.T) {
	t.Parallel()

	p := Profile{
		Gender:            "robot",
		SleepSchedule:     "night_owl",
		Cleanliness:       "immaculate",
		NoiseTolerance:    "quiet",
		SocialPreference:  "",
		PetPreference:     "love_pets",
		SmokingPreference: "vaper",
	}
	p.Normalize()

	if p.Gender != GenderUnspecified {
		t.Errorf("Gender = %q, want unspecified", p.Gender)
	}
	if p.SleepSchedule != SleepNightOwl {
		t.Errorf("SleepSchedule = %q, want night_owl", p.SleepSchedule)
	}
	if p.Cleanliness != CleanlinessUnspecified {
		t.Errorf("Cleanliness = %q, want unspecified", p.Cleanliness)
	}
	if p.SocialPreference != SocialUnspecified {
		t.Errorf("SocialPreference = %q, want unspecified", p.SocialPreference)
	}
	if p.SmokingPreference != SmokingUnspecified {
		t.Errorf("SmokingPreference = %q, want unspecified", p.SmokingPreference)
	}
}
