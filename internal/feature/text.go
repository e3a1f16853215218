// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package feature

import (
	"strconv"
	"strings"

	"github.com/cohabhq/cohab/internal/models"
)

// ProfileText flattens a profile into the canonical text fed to the
// embedding capability. The field order is fixed so identical profiles
// always produce identical text, which the embedding contract turns into
// identical vectors.
func ProfileText(p *models.Profile) string {
	fields := []struct {
		label string
		value string
	}{
		{"Name", p.Name},
		{"Age", formatAge(p.Age)},
		{"Gender", string(p.Gender)},
		{"Occupation", p.Occupation},
		{"Sleep schedule", string(p.SleepSchedule)},
		{"Cleanliness", string(p.Cleanliness)},
		{"Noise tolerance", string(p.NoiseTolerance)},
		{"Social preference", string(p.SocialPreference)},
		{"Dietary restrictions", p.DietaryRestrictions},
		{"Pets", string(p.PetPreference)},
		{"Smoking", string(p.SmokingPreference)},
		{"Budget", p.BudgetRange},
		{"Location", p.LocationPreference},
		{"Hobbies and interests", p.Hobbies},
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		value := strings.TrimSpace(f.value)
		if value == "" {
			value = "not specified"
		}
		parts = append(parts, f.label+": "+value)
	}

	return strings.Join(parts, " | ")
}

// HobbyTokens splits the hobbies field into lowercase tokens for overlap
// comparison. Tokens are split on commas and whitespace; duplicates are
// collapsed.
func HobbyTokens(hobbies string) []string {
	raw := strings.FieldsFunc(strings.ToLower(hobbies), func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})

	seen := make(map[string]struct{}, len(raw))
	tokens := make([]string, 0, len(raw))
	for _, tok := range raw {
		tok = strings.Trim(tok, ".!?")
		if tok == "" || tok == "and" {
			continue
		}
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}

	return tokens
}

func formatAge(age int) string {
	if age <= 0 {
		return ""
	}
	return strconv.Itoa(age)
}
