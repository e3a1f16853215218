// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

package modelstore

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/cohabhq/cohab/internal/config"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(&config.ModelStoreConfig{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	})
	return store
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	blob := []byte(`{"factors":16,"user_vectors":[[0.1,0.2]]}`)
	trainedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	if err := store.SaveModel(ctx, "latent", blob, 7, trainedAt); err != nil {
		t.Fatalf("SaveModel() error: %v", err)
	}

	got, version, loadedAt, err := store.LoadModel(ctx, "latent")
	if err != nil {
		t.Fatalf("LoadModel() error: %v", err)
	}
	if !bytes.Equal(got, blob) {
		t.Errorf("blob = %q, want %q", got, blob)
	}
	if version != 7 {
		t.Errorf("version = %d, want 7", version)
	}
	if !loadedAt.Equal(trainedAt) {
		t.Errorf("trainedAt = %v, want %v", loadedAt, trainedAt)
	}
}

func TestLoadModelMissing(t *testing.T) {
	store := setupTestStore(t)

	_, _, _, err := store.LoadModel(context.Background(), "nope")
	if !errors.Is(err, ErrModelBlobNotFound) {
		t.Errorf("error = %v, want ErrModelBlobNotFound", err)
	}
}

func TestSaveModelOverwrites(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.SaveModel(ctx, "neighbor", []byte("v1"), 1, time.Now()); err != nil {
		t.Fatalf("SaveModel() v1 error: %v", err)
	}
	if err := store.SaveModel(ctx, "neighbor", []byte("v2"), 2, time.Now()); err != nil {
		t.Fatalf("SaveModel() v2 error: %v", err)
	}

	blob, version, _, err := store.LoadModel(ctx, "neighbor")
	if err != nil {
		t.Fatalf("LoadModel() error: %v", err)
	}
	if string(blob) != "v2" {
		t.Errorf("blob = %q, want v2", blob)
	}
	if version != 2 {
		t.Errorf("version = %d, want 2", version)
	}
}

func TestGetMeta(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	trainedAt := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := store.SaveModel(ctx, "blend", []byte("weights"), 4, trainedAt); err != nil {
		t.Fatalf("SaveModel() error: %v", err)
	}

	meta, err := store.GetMeta(ctx, "blend")
	if err != nil {
		t.Fatalf("GetMeta() error: %v", err)
	}
	if meta.Version != 4 {
		t.Errorf("Version = %d, want 4", meta.Version)
	}
	if !meta.TrainedAt.Equal(trainedAt) {
		t.Errorf("TrainedAt = %v, want %v", meta.TrainedAt, trainedAt)
	}
	if meta.Checksum == "" {
		t.Error("Checksum is empty")
	}

	if _, err := store.GetMeta(ctx, "ghost"); !errors.Is(err, ErrModelBlobNotFound) {
		t.Errorf("GetMeta(ghost) error = %v, want ErrModelBlobNotFound", err)
	}
}

func TestLoadModelDetectsCorruption(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.SaveModel(ctx, "latent", []byte("pristine"), 1, time.Now()); err != nil {
		t.Fatalf("SaveModel() error: %v", err)
	}

	// Tamper with the blob behind the store's back.
	err := store.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(modelKeyPrefix+"latent"), []byte("tampered"))
	})
	if err != nil {
		t.Fatalf("tamper write error: %v", err)
	}

	if _, _, _, err := store.LoadModel(ctx, "latent"); err == nil {
		t.Error("LoadModel() accepted a blob that fails its checksum")
	}
}

func TestListModels(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	names, err := store.ListModels(ctx)
	if err != nil {
		t.Fatalf("ListModels() error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("initial names = %v, want empty", names)
	}

	for _, name := range []string{"neighbor", "latent", "blend"} {
		if err := store.SaveModel(ctx, name, []byte(name), 1, time.Now()); err != nil {
			t.Fatalf("SaveModel(%s) error: %v", name, err)
		}
	}

	names, err = store.ListModels(ctx)
	if err != nil {
		t.Fatalf("ListModels() error: %v", err)
	}
	sort.Strings(names)
	want := []string{"blend", "latent", "neighbor"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestDeleteModel(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.SaveModel(ctx, "latent", []byte("data"), 1, time.Now()); err != nil {
		t.Fatalf("SaveModel() error: %v", err)
	}
	if err := store.DeleteModel(ctx, "latent"); err != nil {
		t.Fatalf("DeleteModel() error: %v", err)
	}
	if _, _, _, err := store.LoadModel(ctx, "latent"); !errors.Is(err, ErrModelBlobNotFound) {
		t.Errorf("LoadModel after delete error = %v, want ErrModelBlobNotFound", err)
	}

	// Deleting again is a no-op.
	if err := store.DeleteModel(ctx, "latent"); err != nil {
		t.Errorf("second DeleteModel() error: %v", err)
	}
}

func TestOpenPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := Open(&config.ModelStoreConfig{Path: dir})
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if err := store.SaveModel(ctx, "neighbor", []byte("survives"), 3, time.Now()); err != nil {
		t.Fatalf("SaveModel() error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := Open(&config.ModelStoreConfig{Path: dir})
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer func() {
		if err := reopened.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	}()

	blob, version, _, err := reopened.LoadModel(ctx, "neighbor")
	if err != nil {
		t.Fatalf("LoadModel() after reopen error: %v", err)
	}
	if string(blob) != "survives" || version != 3 {
		t.Errorf("got (%q, %d), want (survives, 3)", blob, version)
	}
}
