// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package api

import (
	"net/http"

	"github.com/mjseo/goalpost/internal/logging"
)

// PendingNotifications handles GET /api/v1/notifications/pending.
func (h *Handler) PendingNotifications(w http.ResponseWriter, r *http.Request) {
	items, err := h.notifications.PendingItems(r.Context(), actor(r))
	if err != nil {
		respondFault(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// WebSocket handles GET /api/v1/ws, upgrading to the live nudge channel.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "live channel is disabled")
		return
	}
	if err := h.hub.Serve(w, r, actor(r)); err != nil {
		// The upgrader already answered the client.
		logging.Ctx(r.Context()).Debug().Err(err).Msg("websocket upgrade failed")
	}
}
