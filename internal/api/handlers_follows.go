// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mjseo/goalpost/internal/models"
)

// RequestFollow handles POST /api/v1/follows.
func (h *Handler) RequestFollow(w http.ResponseWriter, r *http.Request) {
	var in struct {
		FollowingID string `json:"following_id"`
	}
	if !decodeBody(w, r, &in) {
		return
	}

	edge, err := h.follows.RequestFollow(r.Context(), actor(r), in.FollowingID)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, edge)
}

// ApproveFollow handles POST /api/v1/follows/{followID}/approve.
func (h *Handler) ApproveFollow(w http.ResponseWriter, r *http.Request) {
	edge, err := h.follows.Approve(r.Context(), chi.URLParam(r, "followID"), actor(r))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, edge)
}

// BlockFollow handles POST /api/v1/follows/{followID}/block.
func (h *Handler) BlockFollow(w http.ResponseWriter, r *http.Request) {
	edge, err := h.follows.Block(r.Context(), chi.URLParam(r, "followID"), actor(r))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, edge)
}

// Unfollow handles DELETE /api/v1/follows/{followingID}.
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	if err := h.follows.Unfollow(r.Context(), actor(r), chi.URLParam(r, "followingID")); err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

// ListFollows handles GET /api/v1/follows?status=.
func (h *Handler) ListFollows(w http.ResponseWriter, r *http.Request) {
	filter := models.FollowStatus(r.URL.Query().Get("status"))
	edges, err := h.follows.ListEdges(r.Context(), actor(r), filter)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, edges)
}

// FollowStatus handles GET /api/v1/follows/status?follower_id=&following_id=.
// Either side may be omitted and defaults to the caller.
func (h *Handler) FollowStatus(w http.ResponseWriter, r *http.Request) {
	followerID := r.URL.Query().Get("follower_id")
	followingID := r.URL.Query().Get("following_id")
	if followerID == "" {
		followerID = actor(r)
	}
	if followingID == "" {
		followingID = actor(r)
	}

	result, err := h.follows.CheckStatus(r.Context(), followerID, followingID)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
