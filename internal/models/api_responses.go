// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package models

import "time"

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints, for both success and error outcomes.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {...},
//	  "metadata": {"timestamp": "2026-08-30T12:00:00Z"}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {"code": "PERMISSION_DENIED", "message": "only the goal creator may grant stickers"},
//	  "metadata": {"timestamp": "2026-08-30T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata contains response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError describes a failed request. Code carries the stable machine
// readable error kind; Message is human readable and safe to surface as-is.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// PendingFollows partitions a user's pending follow edges by direction.
type PendingFollows struct {
	Sent     []FollowEdge `json:"sent"`
	Received []FollowEdge `json:"received"`
}

// PendingInvitations partitions a user's pending invitations by direction.
type PendingInvitations struct {
	Sent     []GoalInvitation `json:"sent"`
	Received []GoalInvitation `json:"received"`
}

// PendingItems is the aggregated "pending items" view assembled by the
// notification aggregator. It is derived on every call and holds no state.
type PendingItems struct {
	Follows     PendingFollows     `json:"follows"`
	Invitations PendingInvitations `json:"invitations"`
}
