// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mjseo/goalpost/internal/membership"
)

// CreateGoal handles POST /api/v1/goals.
func (h *Handler) CreateGoal(w http.ResponseWriter, r *http.Request) {
	var in membership.CreateGoalInput
	if !decodeBody(w, r, &in) {
		return
	}

	goal, err := h.memberships.CreateGoal(r.Context(), actor(r), in)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, goal)
}

// GetGoal handles GET /api/v1/goals/{goalID}.
func (h *Handler) GetGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := h.memberships.GetGoal(r.Context(), chi.URLParam(r, "goalID"), actor(r))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

// ListGoals handles GET /api/v1/goals?creator_id= and ?q=. With a
// creator_id it lists that user's goals; with q it searches by title.
func (h *Handler) ListGoals(w http.ResponseWriter, r *http.Request) {
	if q := r.URL.Query().Get("q"); q != "" {
		goals, err := h.memberships.SearchGoalsByTitle(r.Context(), q, actor(r))
		if err != nil {
			respondFault(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, goals)
		return
	}

	creatorID := r.URL.Query().Get("creator_id")
	if creatorID == "" {
		creatorID = actor(r)
	}
	goals, err := h.memberships.ListGoalsByCreator(r.Context(), creatorID, actor(r))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, goals)
}

// GoalFeed handles GET /api/v1/goals/feed.
func (h *Handler) GoalFeed(w http.ResponseWriter, r *http.Request) {
	goals, err := h.memberships.ListGoalsForFollowingFeed(r.Context(), actor(r))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, goals)
}

// JoinGoal handles POST /api/v1/goals/{goalID}/join. The creator joins
// directly; anybody else goes through a join request.
func (h *Handler) JoinGoal(w http.ResponseWriter, r *http.Request) {
	goalID := chi.URLParam(r, "goalID")

	goal, err := h.memberships.GetGoal(r.Context(), goalID, actor(r))
	if err != nil {
		respondFault(w, r, err)
		return
	}

	if goal.CreatorID == actor(r) {
		participant, err := h.memberships.JoinOwnGoal(r.Context(), goalID, actor(r))
		if err != nil {
			respondFault(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, participant)
		return
	}

	inv, err := h.memberships.CreateJoinRequest(r.Context(), goalID, actor(r), "")
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, inv)
}

// CreateJoinRequest handles POST /api/v1/goals/{goalID}/requests.
func (h *Handler) CreateJoinRequest(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Message string `json:"message"`
	}
	// The body is optional for join requests.
	if r.ContentLength > 0 && !decodeBody(w, r, &in) {
		return
	}

	inv, err := h.memberships.CreateJoinRequest(r.Context(), chi.URLParam(r, "goalID"), actor(r), in.Message)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, inv)
}

// CreateInvite handles POST /api/v1/goals/{goalID}/invites.
func (h *Handler) CreateInvite(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ToUserID string `json:"to_user_id"`
		Message  string `json:"message"`
	}
	if !decodeBody(w, r, &in) {
		return
	}

	inv, err := h.memberships.CreateInvite(r.Context(), chi.URLParam(r, "goalID"), actor(r), in.ToUserID, in.Message)
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, inv)
}

// LeaveGoal handles POST /api/v1/goals/{goalID}/leave.
func (h *Handler) LeaveGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.memberships.LeaveGoal(r.Context(), chi.URLParam(r, "goalID"), actor(r)); err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

// DeleteGoal handles DELETE /api/v1/goals/{goalID}.
func (h *Handler) DeleteGoal(w http.ResponseWriter, r *http.Request) {
	if err := h.memberships.DeleteGoal(r.Context(), chi.URLParam(r, "goalID"), actor(r)); err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, nil)
}

// CompleteGoal handles POST /api/v1/goals/{goalID}/complete.
func (h *Handler) CompleteGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := h.memberships.CompleteGoal(r.Context(), chi.URLParam(r, "goalID"), actor(r))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

// CancelGoal handles POST /api/v1/goals/{goalID}/cancel.
func (h *Handler) CancelGoal(w http.ResponseWriter, r *http.Request) {
	goal, err := h.memberships.CancelGoal(r.Context(), chi.URLParam(r, "goalID"), actor(r))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, goal)
}

// ListParticipants handles GET /api/v1/goals/{goalID}/participants.
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.memberships.ListParticipants(r.Context(), chi.URLParam(r, "goalID"), actor(r))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, participants)
}
