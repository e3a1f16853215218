// Cohab - Roommate Compatibility Scoring and Room Allocation
// Copyright 2026 Cohab Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cohabhq/cohab

// Package modelstore persists trained model snapshots in BadgerDB so a
// restart does not force a retrain. Each named model has two keys: the
// raw snapshot blob and a small JSON metadata record carrying the model
// version, training time and a checksum of the blob.
package modelstore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/cohabhq/cohab/internal/config"
	"github.com/cohabhq/cohab/internal/logging"
)

// Key prefixes for BadgerDB storage
const (
	modelKeyPrefix     = "model:"
	modelMetaKeyPrefix = "model_meta:"
)

// ErrModelBlobNotFound is returned when no snapshot exists under the
// requested name.
var ErrModelBlobNotFound = errors.New("model blob not found")

// Meta describes a stored model snapshot.
type Meta struct {
	Version   int       `json:"version"`
	TrainedAt time.Time `json:"trained_at"`
	Checksum  string    `json:"checksum"`
}

// Store is a BadgerDB-backed model snapshot store.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the snapshot store at the configured path.
func Open(cfg *config.ModelStoreConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for model store: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("Model store opened")
	return &Store{db: db}, nil
}

// Close closes the underlying BadgerDB.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveModel stores a snapshot blob and its metadata under name. Blob and
// metadata are written in one transaction, so a reader never observes one
// without the other.
func (s *Store) SaveModel(ctx context.Context, name string, blob []byte, version int, trainedAt time.Time) error {
	sum := sha256.Sum256(blob)
	meta := Meta{
		Version:   version,
		TrainedAt: trainedAt.UTC(),
		Checksum:  hex.EncodeToString(sum[:]),
	}
	metaData, err := json.Marshal(&meta)
	if err != nil {
		return fmt.Errorf("marshal model metadata: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(modelKeyPrefix+name), blob); err != nil {
			return fmt.Errorf("set model blob: %w", err)
		}
		if err := txn.Set([]byte(modelMetaKeyPrefix+name), metaData); err != nil {
			return fmt.Errorf("set model metadata: %w", err)
		}
		return nil
	})
}

// LoadModel retrieves the snapshot stored under name. The blob checksum is
// verified against the stored metadata before the snapshot is returned.
func (s *Store) LoadModel(ctx context.Context, name string) (blob []byte, version int, trainedAt time.Time, err error) {
	var meta Meta

	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(modelKeyPrefix + name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("model %q: %w", name, ErrModelBlobNotFound)
		}
		if err != nil {
			return fmt.Errorf("get model blob: %w", err)
		}
		blob, err = item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("copy model blob: %w", err)
		}

		metaItem, err := txn.Get([]byte(modelMetaKeyPrefix + name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("model %q metadata: %w", name, ErrModelBlobNotFound)
		}
		if err != nil {
			return fmt.Errorf("get model metadata: %w", err)
		}
		return metaItem.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return nil, 0, time.Time{}, err
	}

	sum := sha256.Sum256(blob)
	if got := hex.EncodeToString(sum[:]); got != meta.Checksum {
		return nil, 0, time.Time{}, fmt.Errorf("model %q: blob checksum mismatch", name)
	}

	return blob, meta.Version, meta.TrainedAt, nil
}

// GetMeta returns the metadata for a stored snapshot without reading the blob.
func (s *Store) GetMeta(ctx context.Context, name string) (*Meta, error) {
	var meta Meta

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(modelMetaKeyPrefix + name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("model %q metadata: %w", name, ErrModelBlobNotFound)
		}
		if err != nil {
			return fmt.Errorf("get model metadata: %w", err)
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if err != nil {
		return nil, err
	}

	return &meta, nil
}

// ListModels returns the names of all stored snapshots.
func (s *Store) ListModels(ctx context.Context) ([]string, error) {
	names := make([]string, 0)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(modelMetaKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := it.Item().Key()
			names = append(names, string(key[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	return names, nil
}

// DeleteModel removes a snapshot and its metadata. Deleting a missing
// snapshot is not an error.
func (s *Store) DeleteModel(ctx context.Context, name string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(modelKeyPrefix + name)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete model blob: %w", err)
		}
		if err := txn.Delete([]byte(modelMetaKeyPrefix + name)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete model metadata: %w", err)
		}
		return nil
	})
}
