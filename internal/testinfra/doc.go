// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package testinfra provides shared infrastructure for integration
// tests: Docker availability checks, container lifecycle helpers, and
// a ready-to-use embedding service container.
//
// All code in this package sits behind the integration build tag; the
// package costs nothing in normal test runs.
//
// # Usage
//
// Tests that need Docker should skip gracefully when it is absent:
//
//	func TestSomething_Integration(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    // ... test with containers
//	}
//
// Run integration tests with:
//
//	go test -tags=integration ./...
//
// # Embedding Service Container
//
// NewEmbeddingContainer starts an Ollama container and pulls a small
// embedding model, giving tests a real endpoint that speaks the same
// wire format as production:
//
//	svc, err := testinfra.NewEmbeddingContainer(ctx)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	defer testinfra.CleanupContainer(t, ctx, svc.Container)
//	// svc.URL is the base URL for internal/embedding clients
package testinfra
