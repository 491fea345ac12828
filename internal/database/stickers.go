// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mjseo/goalpost/internal/metrics"
	"github.com/mjseo/goalpost/internal/models"
)

// ErrCountOutOfRange is returned by AppendGrant when applying the delta
// would leave the participant's counter outside [0, target].
var ErrCountOutOfRange = errors.New("sticker count out of range")

// ErrNoActiveParticipant is returned by AppendGrant when the recipient has
// no active participant row.
var ErrNoActiveParticipant = errors.New("no active participant")

// AppendGrant appends a ledger entry and updates the cached counter in one
// transaction, holding the per-participant lock so the read of the prior
// counter and the write of the new one cannot interleave with another
// grant. Returns the new counter value.
func (db *DB) AppendGrant(ctx context.Context, entry *models.StickerGrantEntry, target int, idempotencyKey string) (int, error) {
	unlock := db.lockParticipant(entry.GoalID, entry.RecipientID)
	defer unlock()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin grant tx: %w", err)
	}
	defer rollbackQuietly(tx)

	var status string
	var current int
	err = tx.QueryRowContext(ctx, `
		SELECT status, current_sticker_count FROM goal_participants
		WHERE goal_id = ? AND user_id = ?
	`, entry.GoalID, entry.RecipientID).Scan(&status, &current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNoActiveParticipant
	}
	if err != nil {
		return 0, fmt.Errorf("read participant counter: %w", err)
	}
	if status != string(models.ParticipantActive) {
		return 0, ErrNoActiveParticipant
	}

	newCount := current + entry.Delta
	if newCount < 0 || newCount > target {
		return 0, fmt.Errorf("count %d with delta %+d leaves [0, %d]: %w",
			current, entry.Delta, target, ErrCountOutOfRange)
	}

	start := time.Now()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO sticker_ledger (id, goal_id, recipient_id, granted_by, delta, reason, idempotency_key, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.GoalID, entry.RecipientID, entry.GrantedBy,
		entry.Delta, nullable(entry.Reason), nullable(idempotencyKey), entry.Timestamp)
	metrics.ObserveDBQuery("insert", "sticker_ledger", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("append ledger entry: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE goal_participants SET current_sticker_count = ?
		WHERE goal_id = ? AND user_id = ?
	`, newCount, entry.GoalID, entry.RecipientID)
	if err != nil {
		return 0, fmt.Errorf("update cached counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit grant tx: %w", err)
	}
	return newCount, nil
}

// ListGrantEntries returns the ledger for a (goal, recipient) pair in
// chronological order.
func (db *DB) ListGrantEntries(ctx context.Context, goalID, recipientID string) ([]models.StickerGrantEntry, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT id, goal_id, recipient_id, granted_by, delta, reason, ts
		FROM sticker_ledger
		WHERE goal_id = ? AND recipient_id = ?
		ORDER BY ts, id
	`
	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, goalID, recipientID)
	metrics.ObserveDBQuery("select", "sticker_ledger", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var entries []models.StickerGrantEntry
	for rows.Next() {
		var e models.StickerGrantEntry
		var reason stringOrNull
		if err := rows.Scan(&e.ID, &e.GoalID, &e.RecipientID, &e.GrantedBy, &e.Delta, &reason, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		e.Reason = string(reason)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SumGrantEntries returns the ledger sum for a (goal, recipient) pair.
// Exposed for the counter-consistency invariant checks.
func (db *DB) SumGrantEntries(ctx context.Context, goalID, recipientID string) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var sum int
	err := db.conn.QueryRowContext(ctx, `
		SELECT coalesce(sum(delta), 0) FROM sticker_ledger
		WHERE goal_id = ? AND recipient_id = ?
	`, goalID, recipientID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("sum ledger: %w", err)
	}
	return sum, nil
}

// DeleteGrantEntriesForGoal removes all ledger entries for a goal. It is
// the downstream cleanup after a goal delete: idempotent and safe to retry.
func (db *DB) DeleteGrantEntriesForGoal(ctx context.Context, goalID string) (int64, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	res, err := db.conn.ExecContext(ctx, `DELETE FROM sticker_ledger WHERE goal_id = ?`, goalID)
	metrics.ObserveDBQuery("delete", "sticker_ledger", time.Since(start), err)
	if err != nil {
		return 0, fmt.Errorf("delete ledger entries: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// stringOrNull scans nullable text columns into a plain string.
type stringOrNull string

func (s *stringOrNull) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = ""
	case string:
		*s = stringOrNull(v)
	case []byte:
		*s = stringOrNull(v)
	default:
		return fmt.Errorf("unsupported type %T for text column", value)
	}
	return nil
}
