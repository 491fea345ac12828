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

const followColumns = `id, follower_id, following_id, status, created_at, approved_at`

// InsertFollowEdge inserts a new edge. The UNIQUE(follower_id, following_id)
// constraint is the dedup mechanism: concurrent duplicate requests surface
// as ErrDuplicateKey rather than racing a check-then-insert.
func (db *DB) InsertFollowEdge(ctx context.Context, edge *models.FollowEdge) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		INSERT INTO follow_edges (id, follower_id, following_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	start := time.Now()
	_, err := db.conn.ExecContext(ctx, query,
		edge.ID, edge.FollowerID, edge.FollowingID, string(edge.Status), edge.CreatedAt,
	)
	metrics.ObserveDBQuery("insert", "follow_edges", time.Since(start), err)
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("edge %s->%s: %w", edge.FollowerID, edge.FollowingID, ErrDuplicateKey)
		}
		return fmt.Errorf("insert follow edge: %w", err)
	}
	return nil
}

// GetFollowEdgeByID retrieves an edge by ID, or nil when absent.
func (db *DB) GetFollowEdgeByID(ctx context.Context, id string) (*models.FollowEdge, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + followColumns + ` FROM follow_edges WHERE id = ?`
	return scanFollowEdge(db.conn.QueryRowContext(ctx, query, id))
}

// GetFollowEdge retrieves the edge for a (follower, following) pair, or nil.
func (db *DB) GetFollowEdge(ctx context.Context, followerID, followingID string) (*models.FollowEdge, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + followColumns + ` FROM follow_edges WHERE follower_id = ? AND following_id = ?`
	return scanFollowEdge(db.conn.QueryRowContext(ctx, query, followerID, followingID))
}

// UpdateFollowStatus transitions an edge's status, setting approved_at when
// the new status is approved.
func (db *DB) UpdateFollowStatus(ctx context.Context, id string, status models.FollowStatus, approvedAt *time.Time) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `UPDATE follow_edges SET status = ?, approved_at = ? WHERE id = ?`
	start := time.Now()
	res, err := db.conn.ExecContext(ctx, query, string(status), approvedAt, id)
	metrics.ObserveDBQuery("update", "follow_edges", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("update follow status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteFollowEdge removes an edge. Returns sql.ErrNoRows when no edge
// matched.
func (db *DB) DeleteFollowEdge(ctx context.Context, followerID, followingID string) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `DELETE FROM follow_edges WHERE follower_id = ? AND following_id = ?`
	start := time.Now()
	res, err := db.conn.ExecContext(ctx, query, followerID, followingID)
	metrics.ObserveDBQuery("delete", "follow_edges", time.Since(start), err)
	if err != nil {
		return fmt.Errorf("delete follow edge: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListFollowEdges returns edges where the user is on either side, in
// insertion order. statusFilter narrows by status when non-empty.
func (db *DB) ListFollowEdges(ctx context.Context, userID string, statusFilter models.FollowStatus) ([]models.FollowEdge, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT ` + followColumns + ` FROM follow_edges WHERE (follower_id = ? OR following_id = ?)`
	args := []interface{}{userID, userID}
	if statusFilter != "" {
		query += ` AND status = ?`
		args = append(args, string(statusFilter))
	}
	query += ` ORDER BY created_at`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query follow edges: %w", err)
	}
	defer rows.Close()

	var edges []models.FollowEdge
	for rows.Next() {
		edge, err := scanFollowEdgeRow(rows)
		if err != nil {
			return nil, err
		}
		edges = append(edges, *edge)
	}
	return edges, rows.Err()
}

// HasApprovedFollowBetween reports whether an approved edge exists between
// the two users in either direction.
func (db *DB) HasApprovedFollowBetween(ctx context.Context, userA, userB string) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `
		SELECT count(*) FROM follow_edges
		WHERE status = 'approved'
		  AND ((follower_id = ? AND following_id = ?) OR (follower_id = ? AND following_id = ?))
	`
	var n int
	if err := db.conn.QueryRowContext(ctx, query, userA, userB, userB, userA).Scan(&n); err != nil {
		return false, fmt.Errorf("check approved follow: %w", err)
	}
	return n > 0, nil
}

func scanFollowEdge(row *sql.Row) (*models.FollowEdge, error) {
	var e models.FollowEdge
	var status string
	var approvedAt sql.NullTime
	err := row.Scan(&e.ID, &e.FollowerID, &e.FollowingID, &status, &e.CreatedAt, &approvedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan follow edge: %w", err)
	}
	e.Status = models.FollowStatus(status)
	if approvedAt.Valid {
		t := approvedAt.Time
		e.ApprovedAt = &t
	}
	return &e, nil
}

func scanFollowEdgeRow(rows *sql.Rows) (*models.FollowEdge, error) {
	var e models.FollowEdge
	var status string
	var approvedAt sql.NullTime
	if err := rows.Scan(&e.ID, &e.FollowerID, &e.FollowingID, &status, &e.CreatedAt, &approvedAt); err != nil {
		return nil, fmt.Errorf("scan follow edge: %w", err)
	}
	e.Status = models.FollowStatus(status)
	if approvedAt.Valid {
		t := approvedAt.Time
		e.ApprovedAt = &t
	}
	return &e, nil
}
