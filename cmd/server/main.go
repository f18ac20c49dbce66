package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/Spok95/fishfarm/internal/config"
	"github.com/Spok95/fishfarm/internal/domain/feeds"
	"github.com/Spok95/fishfarm/internal/domain/harvests"
	"github.com/Spok95/fishfarm/internal/domain/plantings"
	"github.com/Spok95/fishfarm/internal/domain/pools"
	"github.com/Spok95/fishfarm/internal/domain/sessions"
	"github.com/Spok95/fishfarm/internal/domain/transfers"
	"github.com/Spok95/fishfarm/internal/infra/audit"
	"github.com/Spok95/fishfarm/internal/infra/db"
	httpx "github.com/Spok95/fishfarm/internal/infra/http"
	"github.com/Spok95/fishfarm/internal/infra/logger"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/subosito/gotenv"
)

func runMigrations(dsn string, log *slog.Logger) error {
	sqlDB, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()
	return goose.Up(sqlDB, "migrations")
}

func main() {
	_ = gotenv.Load()

	cfg, err := config.Load("config/example.yaml")
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg.App.Env)

	if err := runMigrations(cfg.Postgres.DSN, log); err != nil {
		log.Error("migrations failed", "err", err)
		return
	}
	log.Info("migrations applied")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Error("db connect failed", "err", err)
		return
	}
	defer pool.Close()
	log.Info("db connected")

	transferSvc := transfers.NewService(
		transfers.NewRepo(pool),
		audit.NewPG(pool, log),
		log,
	)
	api := httpx.NewAPI(
		log,
		transferSvc,
		sessions.NewRepo(pool),
		pools.NewRepo(pool),
		plantings.NewRepo(pool),
		harvests.NewRepo(pool),
		feeds.NewRepo(pool),
	)

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, api)
	go func() {
		if err := srv.Start(); err != nil && err.Error() != "http: Server closed" {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
}
