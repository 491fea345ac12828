// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mjseo/goalpost/internal/auth"
	"github.com/mjseo/goalpost/internal/config"
	"github.com/mjseo/goalpost/internal/middleware"
)

// Router assembles the HTTP surface.
type Router struct {
	handler *Handler
	jwt     *auth.JWTManager
	cfg     *config.ServerConfig
	login   *auth.RateLimiter
}

// NewRouter wires routes, middleware, and rate limits. loginLimiter
// throttles the credential endpoints; pass nil to disable (tests).
func NewRouter(handler *Handler, jwt *auth.JWTManager, cfg *config.ServerConfig, loginLimiter *auth.RateLimiter) *Router {
	return &Router{handler: handler, jwt: jwt, cfg: cfg, login: loginLimiter}
}

// Setup builds the chi handler tree.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/live", rt.handler.HealthLive)
		r.Get("/ready", rt.handler.HealthReady)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(rt.rateLimit(rt.cfg.AuthRateLimit))
		if rt.login != nil {
			r.Use(rt.login.Middleware)
		}
		r.Post("/register", rt.handler.Register)
		r.Post("/login", rt.handler.Login)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.rateLimit(rt.cfg.RateLimit))
		r.Use(middleware.Prometheus)
		r.Use(rt.jwt.Authenticate)

		r.Get("/me", rt.handler.Me)

		r.Route("/follows", func(r chi.Router) {
			r.Post("/", rt.handler.RequestFollow)
			r.Get("/", rt.handler.ListFollows)
			r.Get("/status", rt.handler.FollowStatus)
			r.Post("/{followID}/approve", rt.handler.ApproveFollow)
			r.Post("/{followID}/block", rt.handler.BlockFollow)
			r.Delete("/{followingID}", rt.handler.Unfollow)
		})

		r.Route("/goals", func(r chi.Router) {
			r.Post("/", rt.handler.CreateGoal)
			r.Get("/", rt.handler.ListGoals)
			r.Get("/feed", rt.handler.GoalFeed)
			r.Get("/{goalID}", rt.handler.GetGoal)
			r.Delete("/{goalID}", rt.handler.DeleteGoal)
			r.Post("/{goalID}/join", rt.handler.JoinGoal)
			r.Post("/{goalID}/requests", rt.handler.CreateJoinRequest)
			r.Post("/{goalID}/invites", rt.handler.CreateInvite)
			r.Post("/{goalID}/leave", rt.handler.LeaveGoal)
			r.Post("/{goalID}/complete", rt.handler.CompleteGoal)
			r.Post("/{goalID}/cancel", rt.handler.CancelGoal)
			r.Get("/{goalID}/participants", rt.handler.ListParticipants)
			r.Post("/{goalID}/stickers", rt.handler.GrantSticker)
			r.Get("/{goalID}/stickers/{userID}", rt.handler.StickerHistory)
		})

		r.Route("/invitations", func(r chi.Router) {
			r.Get("/", rt.handler.ListInvitations)
			r.Get("/{invitationID}", rt.handler.GetInvitation)
			r.Post("/{invitationID}/respond", rt.handler.RespondToInvitation)
		})

		r.Get("/notifications/pending", rt.handler.PendingNotifications)
		r.Get("/ws", rt.handler.WebSocket)
	})

	return r
}

// rateLimit builds a per-IP limiter; zero or negative disables it.
func (rt *Router) rateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
}
