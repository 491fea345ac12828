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

const goalColumns = `id, creator_id, title, description, sticker_target, mode, visibility, status, auto_approve, created_at, updated_at`

// visibilityFilter is the SQL predicate applied to every goal read for a
// given viewer: private goals only for the creator, followers goals only
// when an approved edge connects viewer and creator in either direction.
const visibilityFilter = `
	(g.creator_id = ?
	 OR g.visibility = 'public'
	 OR (g.visibility = 'followers' AND EXISTS (
		SELECT 1 FROM follow_edges f
		WHERE f.status = 'approved'
		  AND ((f.follower_id = ? AND f.following_id = g.creator_id)
		    OR (f.follower_id = g.creator_id AND f.following_id = ?))
	 )))
`

// InsertGoal inserts a new goal.
func (db *DB) InsertGoal(ctx context.Context, goal *models.Goal) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		INSERT INTO goals (id, creator_id, title, description, sticker_target,
			mode, visibility, status, auto_approve, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		goal.ID, goal.CreatorID, goal.Title, nullable(goal.Description),
		goal.StickerTarget, string(goal.Mode), string(goal.Visibility),
		string(goal.Status), goal.AutoApprove, goal.CreatedAt, goal.UpdatedAt,
	)
	metrics.ObserveDBQuery("insert", "goals", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	return nil
}

// GetGoal retrieves a goal by ID without a visibility check, or nil when
// absent. Services use this for authority decisions; viewer-facing reads go
// through GetGoalVisibleTo.
func (db *DB) GetGoal(ctx context.Context, id string) (*models.Goal, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = ?`
	return scanGoal(db.conn.QueryRowContext(ctx, query, id))
}

// GetGoalVisibleTo retrieves a goal applying the visibility filter for the
// viewer. Invisible goals read as absent.
func (db *DB) GetGoalVisibleTo(ctx context.Context, id, viewerID string) (*models.Goal, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + goalColumns + ` FROM goals g WHERE g.id = ? AND ` + visibilityFilter
	return scanGoal(db.conn.QueryRowContext(ctx, query, id, viewerID, viewerID, viewerID))
}

// UpdateGoalStatus transitions a goal's lifecycle status.
func (db *DB) UpdateGoalStatus(ctx context.Context, id string, status models.GoalStatus, updatedAt time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `UPDATE goals SET status = ?, updated_at = ? WHERE id = ?`
	start := time.Now()
	res, err := db.conn.ExecContext(ctx, query, string(status), updatedAt, id)
	metrics.ObserveDBQuery("update", "goals", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("update goal status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteGoalCascade deletes the goal together with its participants and
// invitations in one transaction. Ledger entries are cleaned up downstream
// by the sticker ledger service, which owns that table.
func (db *DB) DeleteGoalCascade(ctx context.Context, goalID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete goal tx: %w", err)
	}
	defer rollbackQuietly(tx)

	for _, q := range []string{
		`DELETE FROM goal_invitations WHERE goal_id = ?`,
		`DELETE FROM goal_participants WHERE goal_id = ?`,
		`DELETE FROM goals WHERE id = ?`,
	} {
		if _, err := tx.ExecContext(ctx, q, goalID); err != nil {
			return fmt.Errorf("cascade delete goal: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete goal tx: %w", err)
	}
	return nil
}

// ListGoalsByCreator returns the creator's goals visible to the viewer,
// newest first.
func (db *DB) ListGoalsByCreator(ctx context.Context, creatorID, viewerID string) ([]models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals g WHERE g.creator_id = ? AND ` + visibilityFilter + ` ORDER BY g.created_at DESC`
	return db.queryGoals(ctx, query, creatorID, viewerID, viewerID, viewerID)
}

// ListGoalsForFollowingFeed returns goals created by users the viewer has
// an approved follow with, visibility-filtered, newest first.
func (db *DB) ListGoalsForFollowingFeed(ctx context.Context, viewerID string) ([]models.Goal, error) {
	query := `
		SELECT ` + goalColumns + ` FROM goals g
		WHERE g.creator_id IN (
			SELECT CASE WHEN f.follower_id = ? THEN f.following_id ELSE f.follower_id END
			FROM follow_edges f
			WHERE f.status = 'approved' AND (f.follower_id = ? OR f.following_id = ?)
		) AND ` + visibilityFilter + `
		ORDER BY g.created_at DESC
	`
	return db.queryGoals(ctx, query, viewerID, viewerID, viewerID, viewerID, viewerID, viewerID)
}

// SearchGoalsByTitle returns goals whose title contains the query string
// (case-insensitive), visibility-filtered, newest first.
func (db *DB) SearchGoalsByTitle(ctx context.Context, title, viewerID string) ([]models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals g WHERE g.title ILIKE '%' || ? || '%' AND ` + visibilityFilter + ` ORDER BY g.created_at DESC`
	return db.queryGoals(ctx, query, title, viewerID, viewerID, viewerID)
}

func (db *DB) queryGoals(ctx context.Context, query string, args ...interface{}) ([]models.Goal, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, query, args...)
	metrics.ObserveDBQuery("select", "goals", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		g, err := scanGoalRow(rows)
		if err != nil {
			return nil, err
		}
		goals = append(goals, *g)
	}
	return goals, rows.Err()
}

func scanGoal(row *sql.Row) (*models.Goal, error) {
	var g models.Goal
	var description sql.NullString
	var mode, visibility, status string
	err := row.Scan(&g.ID, &g.CreatorID, &g.Title, &description, &g.StickerTarget,
		&mode, &visibility, &status, &g.AutoApprove, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan goal: %w", err)
	}
	g.Description = description.String
	g.Mode = models.GoalMode(mode)
	g.Visibility = models.GoalVisibility(visibility)
	g.Status = models.GoalStatus(status)
	return &g, nil
}

func scanGoalRow(rows *sql.Rows) (*models.Goal, error) {
	var g models.Goal
	var description sql.NullString
	var mode, visibility, status string
	if err := rows.Scan(&g.ID, &g.CreatorID, &g.Title, &description, &g.StickerTarget,
		&mode, &visibility, &status, &g.AutoApprove, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan goal: %w", err)
	}
	g.Description = description.String
	g.Mode = models.GoalMode(mode)
	g.Visibility = models.GoalVisibility(visibility)
	g.Status = models.GoalStatus(status)
	return &g, nil
}
