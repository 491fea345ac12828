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

const invitationColumns = `id, goal_id, from_user_id, to_user_id, invitation_type, status, message, created_at, responded_at`

// pendingKey builds the value enforcing the one-pending-per-(goal,
// candidate) rule. It is set while an invitation is pending and cleared to
// NULL on response, so the UNIQUE(pending_key) constraint only ever bites
// on a second open proposal for the same goal and candidate member.
func pendingKey(inv *models.GoalInvitation) string {
	return inv.GoalID + "/" + inv.Candidate()
}

// InsertInvitation inserts a pending invitation. Returns ErrDuplicateKey
// when a pending invitation already exists for the goal and candidate; the
// constraint, not a prior read, is what collapses concurrent duplicates.
func (db *DB) InsertInvitation(ctx context.Context, inv *models.GoalInvitation) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		INSERT INTO goal_invitations (id, goal_id, from_user_id, to_user_id,
			invitation_type, status, message, pending_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		inv.ID, inv.GoalID, inv.FromUserID, inv.ToUserID,
		string(inv.Type), string(inv.Status), nullable(inv.Message),
		pendingKey(inv), inv.CreatedAt,
	)
	metrics.ObserveDBQuery("insert", "goal_invitations", time.Since(start), err)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("pending invitation for goal %s candidate %s: %w",
				inv.GoalID, inv.Candidate(), ErrDuplicateKey)
		}
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

// GetInvitation retrieves an invitation by ID, or nil when absent.
func (db *DB) GetInvitation(ctx context.Context, id string) (*models.GoalInvitation, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + invitationColumns + ` FROM goal_invitations WHERE id = ?`
	return scanInvitation(db.conn.QueryRowContext(ctx, query, id))
}

// RespondToInvitation atomically finalizes a pending invitation and, on
// accept, creates or reactivates the candidate's participant row. The
// status guard in the UPDATE makes a second response lose the race cleanly:
// zero rows affected surfaces as sql.ErrNoRows.
func (db *DB) RespondToInvitation(ctx context.Context, inv *models.GoalInvitation, status models.InvitationStatus, respondedAt time.Time) error {
	if status == models.InviteAccepted {
		unlock := db.lockParticipant(inv.GoalID, inv.Candidate())
		defer unlock()
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin respond tx: %w", err)
	}
	defer rollbackQuietly(tx)

	res, err := tx.ExecContext(ctx, `
		UPDATE goal_invitations
		SET status = ?, responded_at = ?, pending_key = NULL
		WHERE id = ? AND status = 'pending'
	`, string(status), respondedAt, inv.ID)
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}

	if status == models.InviteAccepted {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO goal_participants (goal_id, user_id, status, current_sticker_count, joined_at)
			VALUES (?, ?, 'active', 0, ?)
			ON CONFLICT (goal_id, user_id)
			DO UPDATE SET status = 'active', current_sticker_count = 0, joined_at = excluded.joined_at
		`, inv.GoalID, inv.Candidate(), respondedAt)
		if err != nil {
			return fmt.Errorf("create participant on accept: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit respond tx: %w", err)
	}
	return nil
}

// ListInvitationsForUser returns all invitations where the user is on
// either side, newest first. statusFilter narrows by status when non-empty.
func (db *DB) ListInvitationsForUser(ctx context.Context, userID string, statusFilter models.InvitationStatus) ([]models.GoalInvitation, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + invitationColumns + ` FROM goal_invitations WHERE (from_user_id = ? OR to_user_id = ?)`
	args := []interface{}{userID, userID}
	if statusFilter != "" {
		query += ` AND status = ?`
		args = append(args, string(statusFilter))
	}
	query += ` ORDER BY created_at DESC`

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.ObserveDBQuery("select", "goal_invitations", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query invitations: %w", err)
	}
	defer rows.Close()

	var invitations []models.GoalInvitation
	for rows.Next() {
		inv, err := scanInvitationRow(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, *inv)
	}
	return invitations, rows.Err()
}

func scanInvitation(row *sql.Row) (*models.GoalInvitation, error) {
	var inv models.GoalInvitation
	var invType, status string
	var message sql.NullString
	var respondedAt sql.NullTime
	err := row.Scan(&inv.ID, &inv.GoalID, &inv.FromUserID, &inv.ToUserID,
		&invType, &status, &message, &inv.CreatedAt, &respondedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan invitation: %w", err)
	}
	inv.Type = models.InvitationType(invType)
	inv.Status = models.InvitationStatus(status)
	inv.Message = message.String
	if respondedAt.Valid {
		t := respondedAt.Time
		inv.RespondedAt = &t
	}
	return &inv, nil
}

func scanInvitationRow(rows *sql.Rows) (*models.GoalInvitation, error) {
	var inv models.GoalInvitation
	var invType, status string
	var message sql.NullString
	var respondedAt sql.NullTime
	if err := rows.Scan(&inv.ID, &inv.GoalID, &inv.FromUserID, &inv.ToUserID,
		&invType, &status, &message, &inv.CreatedAt, &respondedAt); err != nil {
		return nil, fmt.Errorf("scan invitation: %w", err)
	}
	inv.Type = models.InvitationType(invType)
	inv.Status = models.InvitationStatus(status)
	inv.Message = message.String
	if respondedAt.Valid {
		t := respondedAt.Time
		inv.RespondedAt = &t
	}
	return &inv, nil
}
