// Goalpost - Social Goal-Participation Ledger
// Copyright 2026 Minji S. (mjseo)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/mjseo/goalpost

// Command server runs the Goalpost API: follow graph, goal membership,
// the sticker ledger, and the live notification channel.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/mjseo/goalpost/internal/api"
	"github.com/mjseo/goalpost/internal/auth"
	"github.com/mjseo/goalpost/internal/config"
	"github.com/mjseo/goalpost/internal/database"
	"github.com/mjseo/goalpost/internal/events"
	"github.com/mjseo/goalpost/internal/followgraph"
	"github.com/mjseo/goalpost/internal/logging"
	"github.com/mjseo/goalpost/internal/membership"
	"github.com/mjseo/goalpost/internal/notifications"
	"github.com/mjseo/goalpost/internal/stickerledger"
	"github.com/mjseo/goalpost/internal/supervisor"
	"github.com/mjseo/goalpost/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("server exited")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().Int("port", cfg.Server.Port).Msg("starting goalpost")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	replays, err := stickerledger.OpenReplayStore(cfg.Ledger.IdempotencyPath, cfg.Ledger.IdempotencyTTL)
	if err != nil {
		return fmt.Errorf("open replay store: %w", err)
	}
	defer replays.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Event plumbing. With eventing disabled the services publish to a
	// no-op sink and nudges simply never fire.
	var (
		pub events.Publisher
		sub message.Subscriber
	)
	hub := websocket.NewHub()
	defer hub.Close()

	if cfg.Events.Enabled {
		natsURL := cfg.Events.URL
		if cfg.Events.Embedded {
			embedded, err := events.NewEmbeddedServer(&cfg.Events)
			if err != nil {
				return fmt.Errorf("start embedded nats: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := embedded.Shutdown(shutdownCtx); err != nil {
					logging.Warn().Err(err).Msg("embedded nats shutdown")
				}
			}()
			natsURL = embedded.ClientURL()
		}

		wmLogger := events.NewLoggerAdapter(logging.WithComponent("watermill"))
		natsPub, err := events.NewNATSPublisher(natsURL, wmLogger)
		if err != nil {
			return fmt.Errorf("connect nats publisher: %w", err)
		}
		bus := events.NewBus(natsPub)
		defer bus.Close()
		pub = bus

		sub, err = events.NewNATSSubscriber(natsURL, wmLogger)
		if err != nil {
			return fmt.Errorf("connect nats subscriber: %w", err)
		}
	}

	stickers := stickerledger.New(db, replays, pub)

	var eventRtr *events.Router
	if sub != nil {
		eventRtr, err = events.NewRouter(sub, stickers, hub)
		if err != nil {
			return fmt.Errorf("build event router: %w", err)
		}
		defer func() { _ = eventRtr.Close() }()
	}

	secCfg := &cfg.Security
	jwt, err := auth.NewJWTManager(secCfg)
	if err != nil {
		return fmt.Errorf("init jwt: %w", err)
	}

	handler := api.NewHandler(
		auth.NewService(db, jwt, secCfg),
		followgraph.New(db, pub),
		membership.New(db, pub),
		stickers,
		notifications.New(db),
		hub,
		db,
	)

	loginLimiter := auth.NewRateLimiter(secCfg.LoginRatePerMinute, secCfg.LoginBurst)
	defer loginLimiter.Stop()

	router := api.NewRouter(handler, jwt, &cfg.Server, loginLimiter)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())
	tree.AddAPIService(supervisor.NewHTTPService(server, 10*time.Second))
	if eventRtr != nil {
		tree.AddMessagingService(supervisor.NewEventRouterService(eventRtr))
	}

	err = tree.Serve(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor: %w", err)
	}
	logging.Info().Msg("goalpost stopped")
	return nil
}
