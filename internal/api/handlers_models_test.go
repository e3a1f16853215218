// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/cohabhq/cohab/internal/match"
	"github.com/cohabhq/cohab/internal/models"
	"github.com/cohabhq/cohab/internal/modelstore"
)

func TestModelsTrainStartsBackgroundRun(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	rec := doRequest(t, d.router, http.MethodPost, "/api/v1/models/train", nil)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Training   string `json:"training"`
		Population int    `json:"population"`
	}
	decodeData(t, decodeEnvelope(t, rec), &body)
	if body.Training != "started" {
		t.Errorf("expected training=started, got %q", body.Training)
	}
	if body.Population != 12 {
		t.Errorf("expected population 12, got %d", body.Population)
	}

	// The run is detached from the request; wait for the goroutine.
	select {
	case <-d.matcher.trainCalled:
	case <-time.After(2 * time.Second):
		t.Fatal("Train was never invoked")
	}
}

func TestModelsTrainConflictWhileTraining(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	d.matcher.status.State = match.StateTraining.String()

	rec := doRequest(t, d.router, http.MethodPost, "/api/v1/models/train", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != "TRAINING_IN_PROGRESS" {
		t.Errorf("expected TRAINING_IN_PROGRESS, got %+v", env.Error)
	}

	select {
	case <-d.matcher.trainCalled:
		t.Fatal("Train must not run while a run is in flight")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestModelsTrainInsufficientData(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	d.matcher.requirements = models.TrainingRequirements{
		MinimumUsers: 3,
		CurrentUsers: 1,
		TotalUsers:   4,
		CanTrain:     false,
	}

	rec := doRequest(t, d.router, http.MethodPost, "/api/v1/models/train", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d: %s", rec.Code, rec.Body.String())
	}

	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != "TRAINING_DATA_INSUFFICIENT" {
		t.Fatalf("expected TRAINING_DATA_INSUFFICIENT, got %+v", env.Error)
	}

	// The gate numbers ride along so the client can show progress.
	var reqs models.TrainingRequirements
	decodeData(t, env, &reqs)
	if reqs.CurrentUsers != 1 || reqs.MinimumUsers != 3 {
		t.Errorf("unexpected requirements payload: %+v", reqs)
	}

	select {
	case <-d.matcher.trainCalled:
		t.Fatal("Train must not run when the population gate fails")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestModelsTrainRequirementsError(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	d.matcher.reqErr = errors.New("query failed")

	rec := doRequest(t, d.router, http.MethodPost, "/api/v1/models/train", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestModelsStatus(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	rec := doRequest(t, d.router, http.MethodGet, "/api/v1/models/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var status match.Status
	decodeData(t, decodeEnvelope(t, rec), &status)
	if status.State != "trained" {
		t.Errorf("expected trained, got %q", status.State)
	}
	if status.ModelVersion != 3 {
		t.Errorf("expected version 3, got %d", status.ModelVersion)
	}
	if status.PopulationSize != 12 {
		t.Errorf("expected population 12, got %d", status.PopulationSize)
	}
}

func TestModelsRequirements(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	rec := doRequest(t, d.router, http.MethodGet, "/api/v1/models/requirements", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var reqs models.TrainingRequirements
	decodeData(t, decodeEnvelope(t, rec), &reqs)
	if !reqs.CanTrain {
		t.Error("expected can_train true")
	}
	if reqs.CurrentUsers != 12 || reqs.TotalUsers != 15 {
		t.Errorf("unexpected requirements: %+v", reqs)
	}
}

func TestModelsLoad(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	rec := doRequest(t, d.router, http.MethodPost, "/api/v1/models/load", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if d.matcher.loadCalls != 1 {
		t.Errorf("expected one LoadModels call, got %d", d.matcher.loadCalls)
	}

	var status match.Status
	decodeData(t, decodeEnvelope(t, rec), &status)
	if status.State != "trained" {
		t.Errorf("expected trained after load, got %q", status.State)
	}
}

func TestModelsLoadNoSnapshot(t *testing.T) {
	t.Parallel()

	d := newTestDeps()
	// The engine wraps the store sentinel; the mapping must see through it.
	d.matcher.loadErr = fmt.Errorf("load neighbor model: %w", modelstore.ErrModelBlobNotFound)

	rec := doRequest(t, d.router, http.MethodPost, "/api/v1/models/load", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %+v", env.Error)
	}
}
