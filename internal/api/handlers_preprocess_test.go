// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/cohabhq/cohab/internal/models"
)

func TestPreprocessBatch(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	d.preprocessor.processed = 7
	d.preprocessor.failed = 2

	rec := doRequest(t, d.router, http.MethodPost, "/api/v1/preprocess", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Processed int `json:"processed"`
		Failed    int `json:"failed"`
	}
	decodeData(t, decodeEnvelope(t, rec), &body)
	if body.Processed != 7 || body.Failed != 2 {
		t.Errorf("expected processed=7 failed=2, got %d/%d", body.Processed, body.Failed)
	}
}

func TestPreprocessBatchError(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	d.preprocessor.allErr = errors.New("embedding service unreachable")

	rec := doRequest(t, d.router, http.MethodPost, "/api/v1/preprocess", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != "STORE_ERROR" {
		t.Errorf("expected STORE_ERROR, got %+v", env.Error)
	}
	// Internal details must not leak to clients.
	if env.Error.Message != "internal error" {
		t.Errorf("expected scrubbed message, got %q", env.Error.Message)
	}
}

func TestPreprocessUser(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	rec := doRequest(t, d.router, http.MethodPost, "/api/v1/preprocess/user/42", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if d.preprocessor.lastUserID != 42 {
		t.Errorf("expected user 42 preprocessed, got %d", d.preprocessor.lastUserID)
	}

	var body struct {
		UserID   int  `json:"user_id"`
		Embedded bool `json:"embedded"`
	}
	decodeData(t, decodeEnvelope(t, rec), &body)
	if body.UserID != 42 || !body.Embedded {
		t.Errorf("unexpected body: %+v", body)
	}
}

func TestPreprocessUserNotFound(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	d.preprocessor.userErr = models.ErrProfileNotFound

	rec := doRequest(t, d.router, http.MethodPost, "/api/v1/preprocess/user/999", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %+v", env.Error)
	}
}

func TestPreprocessUserBadParam(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"non-numeric", "/api/v1/preprocess/user/abc"},
		{"zero", "/api/v1/preprocess/user/0"},
		{"negative", "/api/v1/preprocess/user/-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newTestDeps()
			rec := doRequest(t, d.router, http.MethodPost, tt.path, nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			env := decodeEnvelope(t, rec)
			if env.Error == nil || env.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("expected VALIDATION_ERROR, got %+v", env.Error)
			}
		})
	}
}

func TestPreprocessStats(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	d.preprocessor.stats = &models.PreprocessStats{TotalProfiles: 20, Embedded: 15, Pending: 5}

	rec := doRequest(t, d.router, http.MethodGet, "/api/v1/preprocess/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var stats models.PreprocessStats
	decodeData(t, decodeEnvelope(t, rec), &stats)
	if stats.TotalProfiles != 20 || stats.Embedded != 15 || stats.Pending != 5 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}
