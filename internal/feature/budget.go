// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package feature

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultBudget is the midpoint assumed when a budget range cannot be
// parsed at all.
const DefaultBudget = 1000.0

var firstNumber = regexp.MustCompile(`\d+`)

// budgetMidpoints maps the intake form's canned budget ranges to their
// midpoint values.
var budgetMidpoints = map[string]float64{
	"500-750":   625,
	"750-1000":  875,
	"1000-1500": 1250,
	"1500+":     2000,
}

// ParseBudget resolves a free-form budget range string to a point value.
// Canned ranges resolve to their midpoints, "under …" resolves to 500,
// open-ended "1500+" style ranges to 2000, anything else to the first
// number it contains, and unparseable input to DefaultBudget. Never fails.
func ParseBudget(s string) float64 {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return DefaultBudget
	}

	if v, ok := budgetMidpoints[normalized]; ok {
		return v
	}
	if strings.Contains(normalized, "under") {
		return 500
	}
	if strings.HasSuffix(normalized, "+") {
		if m := firstNumber.FindString(normalized); m != "" {
			if v, err := strconv.ParseFloat(m, 64); err == nil {
				// Open-ended ranges resolve above their floor.
				return v + 500
			}
		}
		return 2000
	}
	if m := firstNumber.FindString(normalized); m != "" {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			return v
		}
	}

	return DefaultBudget
}
