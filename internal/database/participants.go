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

const participantColumns = `goal_id, user_id, status, current_sticker_count, joined_at`

// GetParticipant retrieves a participant row, or nil when absent.
func (db *DB) GetParticipant(ctx context.Context, goalID, userID string) (*models.GoalParticipant, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + participantColumns + ` FROM goal_participants WHERE goal_id = ? AND user_id = ?`
	return scanParticipant(db.conn.QueryRowContext(ctx, query, goalID, userID))
}

// UpsertActiveParticipant creates or reactivates a participant row with a
// zero sticker count. The per-participant lock serializes against
// concurrent sticker grants on the same row.
func (db *DB) UpsertActiveParticipant(ctx context.Context, goalID, userID string, joinedAt time.Time) error {
	unlock := db.lockParticipant(goalID, userID)
	defer unlock()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		INSERT INTO goal_participants (goal_id, user_id, status, current_sticker_count, joined_at)
		VALUES (?, ?, 'active', 0, ?)
		ON CONFLICT (goal_id, user_id)
		DO UPDATE SET status = 'active', current_sticker_count = 0, joined_at = excluded.joined_at
	`
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query, goalID, userID, joinedAt)
	metrics.ObserveDBQuery("upsert", "goal_participants", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("upsert participant: %w", err)
	}
	return nil
}

// WithdrawParticipant marks an active participant withdrawn. Returns
// sql.ErrNoRows when no active row exists.
func (db *DB) WithdrawParticipant(ctx context.Context, goalID, userID string) error {
	unlock := db.lockParticipant(goalID, userID)
	defer unlock()

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `UPDATE goal_participants SET status = 'withdrawn' WHERE goal_id = ? AND user_id = ? AND status = 'active'`
	start := time.Now()
	res, err := db.conn.ExecContext(ctx, query, goalID, userID)
	metrics.ObserveDBQuery("update", "goal_participants", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("withdraw participant: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// CountOtherActiveParticipants counts active participants other than the
// given user. Used by the goal-delete precondition.
func (db *DB) CountOtherActiveParticipants(ctx context.Context, goalID, excludeUserID string) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT count(*) FROM goal_participants WHERE goal_id = ? AND user_id <> ? AND status = 'active'`
	var n int
	if err := db.conn.QueryRowContext(ctx, query, goalID, excludeUserID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count active participants: %w", err)
	}
	return n, nil
}

// ListParticipants returns a goal's participants in join order.
func (db *DB) ListParticipants(ctx context.Context, goalID string) ([]models.GoalParticipant, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + participantColumns + ` FROM goal_participants WHERE goal_id = ? ORDER BY joined_at`
	rows, err := db.conn.QueryContext(ctx, query, goalID)
	if err != nil {
		return nil, fmt.Errorf("query participants: %w", err)
	}
	defer rows.Close()

	var participants []models.GoalParticipant
	for rows.Next() {
		var p models.GoalParticipant
		var status string
		if err := rows.Scan(&p.GoalID, &p.UserID, &status, &p.CurrentStickerCount, &p.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		p.Status = models.ParticipantStatus(status)
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func scanParticipant(row *sql.Row) (*models.GoalParticipant, error) {
	var p models.GoalParticipant
	var status string
	err := row.Scan(&p.GoalID, &p.UserID, &status, &p.CurrentStickerCount, &p.JoinedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan participant: %w", err)
	}
	p.Status = models.ParticipantStatus(status)
	return &p, nil
}
