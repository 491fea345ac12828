// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package stickerledger

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/mjseo/goalpost/internal/models"
)

// ErrReplayStoreClosed is returned after Close.
var ErrReplayStoreClosed = errors.New("replay store is closed")

// ReplayStore records the result of each keyed grant so a retried call can
// be answered without re-applying the delta. Keys expire after a TTL; a
// replay after expiry is treated as a new grant, which callers accept by
// supplying the key in the first place.
type ReplayStore struct {
	db     *badger.DB
	ttl    time.Duration
	mu     sync.RWMutex
	closed bool
}

// OpenReplayStore opens a Badger-backed store at path. An empty path
// selects the in-memory backend, used in tests and when persistence of
// idempotency keys across restarts is not needed.
func OpenReplayStore(path string, ttl time.Duration) (*ReplayStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open replay store: %w", err)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ReplayStore{db: db, ttl: ttl}, nil
}

func replayKey(goalID, granterID, key string) []byte {
	return []byte("grant:" + goalID + ":" + granterID + ":" + key)
}

// Recall returns the recorded result for the key, if one is stored.
func (s *ReplayStore) Recall(goalID, granterID, key string) (*models.GrantResult, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrReplayStoreClosed
	}

	var result models.GrantResult
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(replayKey(goalID, granterID, key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &result)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("recall grant result: %w", err)
	}
	return &result, true, nil
}

// Remember stores the result under the key with the configured TTL.
func (s *ReplayStore) Remember(goalID, granterID, key string, result *models.GrantResult) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrReplayStoreClosed
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal grant result: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(replayKey(goalID, granterID, key), data).WithTTL(s.ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("remember grant result: %w", err)
	}
	return nil
}

// Close releases the underlying Badger database.
func (s *ReplayStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
