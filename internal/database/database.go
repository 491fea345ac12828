// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

// Package database provides DuckDB-backed persistence for the Goalpost
// entities: users, follow edges, goals, goal participants, goal invitations
// and the sticker ledger.
//
// One DB value owns the connection and the schema. All queries are
// parameterized. Multi-row mutations (invitation accept, sticker append,
// goal cascade delete) run inside explicit transactions, and mutations to a
// given participant row are additionally serialized through a per-key lock
// so the cached sticker counter can never be corrupted by interleaved
// writers.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/mjseo/goalpost/internal/config"
	"github.com/mjseo/goalpost/internal/logging"
)

// DB wraps the DuckDB connection and provides data access methods.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig

	// participantLocks serializes mutations per (goal_id, user_id) so the
	// cached sticker counter is read and written by one goroutine at a
	// time. Keys are never removed; the set is bounded by participants
	// touched during the process lifetime.
	participantLocks sync.Map
}

// New opens the database and initializes the schema.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	if dir := filepath.Dir(cfg.Path); cfg.Path != ":memory:" && dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", dir, err)
		}
	}

	maxMemory := cfg.MaxMemory
	if maxMemory == "" {
		maxMemory = "1GB"
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
		cfg.Path, threads, maxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// DuckDB is in-process; pooling adds nothing and idle expiry would
	// drop the only connection holding :memory: state.
	conn.SetConnMaxLifetime(0)
	conn.SetMaxIdleConns(1)
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, cfg: cfg}

	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	if err := db.createIndexes(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("create indexes: %w", err)
	}

	logging.Debug().Str("path", cfg.Path).Int("threads", threads).Msg("database ready")
	return db, nil
}

// Close releases the database connection.
func (db *DB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}

// Ping checks that the connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// ensureContext guarantees queries run under a deadline even when the
// caller passed none.
func (db *DB) ensureContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return context.WithTimeout(context.Background(), 30*time.Second)
	}
	if _, has := ctx.Deadline(); !has {
		return context.WithTimeout(ctx, 30*time.Second)
	}
	return ctx, func() {}
}

// lockParticipant acquires the per-participant write lock and returns the
// unlock function.
func (db *DB) lockParticipant(goalID, userID string) func() {
	key := goalID + "/" + userID
	v, _ := db.participantLocks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// closeQuietly closes a resource ignoring the error; used on error paths
// where Close failures are not actionable.
func closeQuietly(c interface{ Close() error }) {
	if c != nil {
		_ = c.Close()
	}
}

// rollbackQuietly rolls back a transaction, tolerating the "already
// committed" error produced on success paths.
func rollbackQuietly(tx *sql.Tx) {
	if tx != nil {
		_ = tx.Rollback()
	}
}
