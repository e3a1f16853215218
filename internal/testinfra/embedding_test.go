// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

//go:build integration

package testinfra

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cohabhq/cohab/internal/config"
	"github.com/cohabhq/cohab/internal/embedding"
)

// TestEmbeddingContainer_Integration runs the production embedding
// client against a real containerized service. This test requires
// Docker and network access for the model pull; it is skipped in
// environments without Docker.
func TestEmbeddingContainer_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	SkipIfNoDocker(t)

	// First run downloads the image and the model; allow for slow links.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	svc, err := NewEmbeddingContainer(ctx,
		WithStartTimeout(90*time.Second),
		WithContainerLog(NewContainerLogger(t)),
	)
	if err != nil {
		t.Fatalf("Failed to create embedding container: %v", err)
	}
	defer CleanupContainer(t, ctx, svc.Container)

	t.Logf("Embedding service started at: %s", svc.URL)

	// The pull reported success; confirm the service actually lists
	// the model before pointing the client at it.
	err = WaitForReady(ctx, svc.Container, func() bool {
		resp, err := http.Get(svc.TagsEndpoint())
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return strings.Contains(string(body), svc.Model)
	}, 30*time.Second)
	if err != nil {
		logs, _ := svc.Logs(ctx)
		t.Fatalf("Model never became available: %v\nContainer logs:\n%s", err, logs)
	}

	client := embedding.NewClient(&config.EmbeddingConfig{
		BaseURL: svc.URL,
		Model:   svc.Model,
		// Accept whatever width the model produces.
		Dimension:     0,
		Timeout:       60 * time.Second,
		RatePerSecond: 10,
		RateBurst:     5,
		CacheSize:     16,
	})

	const text = "Night owl software engineer, very clean, loves quiet evenings and board games"

	first, err := client.Embed(ctx, text)
	if err != nil {
		logs, _ := svc.Logs(ctx)
		t.Fatalf("Embed failed: %v\nContainer logs:\n%s", err, logs)
	}
	if len(first) == 0 {
		t.Fatal("Embed returned an empty vector")
	}
	t.Logf("Embedding dimension: %d", len(first))

	// Repeat call returns the identical vector.
	second, err := client.Embed(ctx, text)
	if err != nil {
		t.Fatalf("Repeat embed failed: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("Repeat embed length = %d, want %d", len(second), len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Repeat embed differs at index %d: %v vs %v", i, first[i], second[i])
		}
	}

	// A different profile text produces a same-width, different vector.
	other, err := client.Embed(ctx, "Early bird nurse with two cats, social and relaxed about cleaning")
	if err != nil {
		t.Fatalf("Embed of second text failed: %v", err)
	}
	if len(other) != len(first) {
		t.Fatalf("Second text vector length = %d, want %d", len(other), len(first))
	}
	same := true
	for i := range first {
		if first[i] != other[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("Different texts produced identical vectors")
	}
}
