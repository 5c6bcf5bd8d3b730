package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	_ "modernc.org/sqlite"

	"github.com/turnstile-labs/turnstile/internal/config"
	"github.com/turnstile-labs/turnstile/internal/db"
	"github.com/turnstile-labs/turnstile/internal/httpapi"
	"github.com/turnstile-labs/turnstile/internal/metrics"
	"github.com/turnstile-labs/turnstile/internal/turnstile/broadcast"
	"github.com/turnstile-labs/turnstile/internal/turnstile/counter"
	"github.com/turnstile-labs/turnstile/internal/turnstile/service"
	"github.com/turnstile-labs/turnstile/internal/turnstile/store/sqlite"
)

func main() {
	logger := log.New(os.Stdout, "turnstile-server ", log.LstdFlags|log.LUTC)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	conn, err := db.Open(ctx, db.Config{Path: cfg.DBPath, Env: cfg.Env})
	if err != nil {
		logger.Fatalf("open db: %v", err)
	}
	defer conn.Close()

	writer := db.NewWorker(conn)
	defer writer.Close()

	if cfg.Env == "dev" && cfg.SeedDev {
		if err := db.SeedDev(ctx, conn, db.SeedDevOptions{}); err != nil {
			logger.Fatalf("seed dev data: %v", err)
		}
		logger.Printf("seeded dev event and invites")
	}

	ledger := sqlite.NewInviteLedger(conn, writer)
	checkins := sqlite.NewCheckinStore(conn, writer)

	// Counter store: Redis primary unless disabled, in-memory fallback
	// either way.
	var backend counter.Backend
	if !cfg.RedisDisabled {
		rb := counter.NewRedisBackend(counter.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer rb.Close()
		backend = rb
	} else {
		logger.Printf("redis disabled, counter runs on in-memory fallback")
	}
	counts := counter.New(backend, cfg.CounterTimeout, logger)

	// Fan-out + services
	hub := broadcast.NewHub(logger)
	checkinSvc := service.NewCheckinService(ledger, checkins, counts, hub, logger)
	inviteSvc := service.NewInviteService(ledger)

	metrics.Register(prometheus.DefaultRegisterer)

	var auth *httpapi.Authenticator
	if cfg.JWTSecret != "" {
		auth = httpapi.NewAuthenticator(cfg.JWTSecret)
	} else {
		logger.Printf("no JWT secret configured, staff endpoints are unauthenticated")
	}

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:         logger,
		Addr:           cfg.HTTPAddr,
		CheckinService: checkinSvc,
		InviteService:  inviteSvc,
		Counter:        counts,
		Hub:            hub,
		Auth:           auth,
	})

	go func() {
		logger.Printf("listening on %s", cfg.HTTPAddr)
		if err := srv.Start(); err != nil {
			logger.Printf("server error: %v", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
