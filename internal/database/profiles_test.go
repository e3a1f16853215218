// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/cohabhq/cohab/internal/models"
)

func TestUpsertProfileRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p := eligibleProfile("Alice")
	if err := db.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("UpsertProfile() error: %v", err)
	}
	if p.ID == 0 {
		t.Fatal("UpsertProfile did not assign an id")
	}

	got, err := db.GetProfile(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProfile() error: %v", err)
	}
	if got.Name != "Alice" {
		t.Errorf("Name = %q, want Alice", got.Name)
	}
	if got.SleepSchedule != models.SleepEarlyBird {
		t.Errorf("SleepSchedule = %q, want early_bird", got.SleepSchedule)
	}
	if got.BudgetRange != "750-1000" {
		t.Errorf("BudgetRange = %q, want 750-1000", got.BudgetRange)
	}
	if len(got.Embedding) != 4 {
		t.Fatalf("Embedding length = %d, want 4", len(got.Embedding))
	}
	if got.Embedding[2] != 0.3 {
		t.Errorf("Embedding[2] = %v, want 0.3", got.Embedding[2])
	}
	if got.EmbeddingPending {
		t.Error("EmbeddingPending = true, want false")
	}
	if !got.ScoringEligible() {
		t.Error("stored profile should be scoring eligible")
	}
}

func TestUpsertProfileNormalizesEnums(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p := pendingProfile("Bob")
	p.Gender = models.Gender("martian")
	p.SleepSchedule = models.SleepSchedule("whenever")
	if err := db.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("UpsertProfile() error: %v", err)
	}

	got, err := db.GetProfile(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProfile() error: %v", err)
	}
	if got.Gender != models.GenderUnspecified {
		t.Errorf("Gender = %q, want unspecified", got.Gender)
	}
	if got.SleepSchedule != models.SleepUnspecified {
		t.Errorf("SleepSchedule = %q, want unspecified", got.SleepSchedule)
	}
}

func TestUpsertProfileReplacesExisting(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p := eligibleProfile("Carol")
	if err := db.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("UpsertProfile() error: %v", err)
	}

	p.Occupation = "designer"
	p.BudgetRange = "1000-1500"
	if err := db.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("UpsertProfile() update error: %v", err)
	}

	got, err := db.GetProfile(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProfile() error: %v", err)
	}
	if got.Occupation != "designer" {
		t.Errorf("Occupation = %q, want designer", got.Occupation)
	}
	if got.BudgetRange != "1000-1500" {
		t.Errorf("BudgetRange = %q, want 1000-1500", got.BudgetRange)
	}

	profiles, err := db.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles() error: %v", err)
	}
	if len(profiles) != 1 {
		t.Errorf("profile count after upsert = %d, want 1", len(profiles))
	}
}

func TestGetProfileNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetProfile(context.Background(), 4242)
	if !errors.Is(err, models.ErrProfileNotFound) {
		t.Errorf("error = %v, want ErrProfileNotFound", err)
	}
}

func TestListEligibleProfilesFiltersPending(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	ready := eligibleProfile("Ready")
	waiting := pendingProfile("Waiting")
	if err := db.UpsertProfile(ctx, ready); err != nil {
		t.Fatalf("UpsertProfile(ready) error: %v", err)
	}
	if err := db.UpsertProfile(ctx, waiting); err != nil {
		t.Fatalf("UpsertProfile(waiting) error: %v", err)
	}

	eligible, err := db.ListEligibleProfiles(ctx)
	if err != nil {
		t.Fatalf("ListEligibleProfiles() error: %v", err)
	}
	if len(eligible) != 1 {
		t.Fatalf("eligible count = %d, want 1", len(eligible))
	}
	if eligible[0].ID != ready.ID {
		t.Errorf("eligible[0].ID = %d, want %d", eligible[0].ID, ready.ID)
	}

	all, err := db.ListProfiles(ctx)
	if err != nil {
		t.Fatalf("ListProfiles() error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("total count = %d, want 2", len(all))
	}
}

func TestListProfilesPendingEmbedding(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	ready := eligibleProfile("Ready")
	waiting := pendingProfile("Waiting")
	if err := db.UpsertProfile(ctx, ready); err != nil {
		t.Fatalf("UpsertProfile(ready) error: %v", err)
	}
	if err := db.UpsertProfile(ctx, waiting); err != nil {
		t.Fatalf("UpsertProfile(waiting) error: %v", err)
	}

	pending, err := db.ListProfilesPendingEmbedding(ctx)
	if err != nil {
		t.Fatalf("ListProfilesPendingEmbedding() error: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending count = %d, want 1", len(pending))
	}
	if pending[0].ID != waiting.ID {
		t.Errorf("pending[0].ID = %d, want %d", pending[0].ID, waiting.ID)
	}

	if err := db.UpdateEmbedding(ctx, waiting.ID, []float64{0.1, 0.2, 0.3}); err != nil {
		t.Fatalf("UpdateEmbedding() error: %v", err)
	}
	pending, err = db.ListProfilesPendingEmbedding(ctx)
	if err != nil {
		t.Fatalf("ListProfilesPendingEmbedding() after update error: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending count after embedding = %d, want 0", len(pending))
	}
}

func TestCountProfiles(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := db.UpsertProfile(ctx, eligibleProfile("user")); err != nil {
			t.Fatalf("UpsertProfile() error: %v", err)
		}
	}
	if err := db.UpsertProfile(ctx, pendingProfile("pending")); err != nil {
		t.Fatalf("UpsertProfile() error: %v", err)
	}

	total, eligible, err := db.CountProfiles(ctx)
	if err != nil {
		t.Fatalf("CountProfiles() error: %v", err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
	if eligible != 3 {
		t.Errorf("eligible = %d, want 3", eligible)
	}
}

func TestUpdateEmbedding(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	p := pendingProfile("Dan")
	if err := db.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("UpsertProfile() error: %v", err)
	}

	vec := []float64{0.5, 0.6, 0.7}
	if err := db.UpdateEmbedding(ctx, p.ID, vec); err != nil {
		t.Fatalf("UpdateEmbedding() error: %v", err)
	}

	got, err := db.GetProfile(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProfile() error: %v", err)
	}
	if got.EmbeddingPending {
		t.Error("EmbeddingPending still true after UpdateEmbedding")
	}
	if len(got.Embedding) != 3 || got.Embedding[0] != 0.5 {
		t.Errorf("Embedding = %v, want [0.5 0.6 0.7]", got.Embedding)
	}
	if !got.ScoringEligible() {
		t.Error("profile should be eligible after embedding update")
	}
}

func TestUpdateEmbeddingUnknownUser(t *testing.T) {
	db := setupTestDB(t)

	err := db.UpdateEmbedding(context.Background(), 999, []float64{0.1})
	if !errors.Is(err, models.ErrProfileNotFound) {
		t.Errorf("error = %v, want ErrProfileNotFound", err)
	}
}
