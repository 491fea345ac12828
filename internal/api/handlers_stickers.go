// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mjseo/goalpost/internal/stickerledger"
)

// GrantSticker handles POST /api/v1/goals/{goalID}/stickers.
func (h *Handler) GrantSticker(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ToUserID       string `json:"to_user_id"`
		Delta          int    `json:"delta"`
		Reason         string `json:"reason"`
		IdempotencyKey string `json:"idempotency_key"`
	}
	if !decodeBody(w, r, &in) {
		return
	}

	result, err := h.stickers.GrantOrRevoke(r.Context(), stickerledger.GrantInput{
		GoalID:         chi.URLParam(r, "goalID"),
		GranterID:      actor(r),
		RecipientID:    in.ToUserID,
		Delta:          in.Delta,
		Reason:         in.Reason,
		IdempotencyKey: in.IdempotencyKey,
	})
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// StickerHistory handles GET /api/v1/goals/{goalID}/stickers/{userID}.
func (h *Handler) StickerHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.stickers.History(r.Context(), chi.URLParam(r, "goalID"), chi.URLParam(r, "userID"), actor(r))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
