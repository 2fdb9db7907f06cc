// Command sessionsweep deletes session records older than the retention window once and exits.
// It suits cron style deployments that set RETENTION_SWEEP_INTERVAL=0 on the API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tickhawk/helpdesk/internal/config"
	"github.com/tickhawk/helpdesk/internal/observability"
	"github.com/tickhawk/helpdesk/internal/persistence"
	"github.com/tickhawk/helpdesk/internal/repository"
	"github.com/tickhawk/helpdesk/internal/worker"
)

func main() {
	flagSet := pflag.NewFlagSet("sessionsweep", pflag.ExitOnError)
	envFile := flagSet.String("env-file", "", "dotenv file to load before reading the environment")
	configPath := flagSet.String("config", "", "optional YAML config file")
	maxAge := flagSet.Duration("max-age", 0, "override RETENTION_SESSION_MAX_AGE")
	_ = flagSet.Parse(os.Args[1:])

	cfg, err := config.Load(*envFile, *configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *maxAge > 0 {
		cfg.Retention.SessionMaxAge = *maxAge
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if pg.PoolHandle() == nil {
		logger.Fatal("POSTGRES_DSN is required")
	}

	sweeper := worker.NewSessionSweeper(repository.NewSessionRepository(pg.PoolHandle()), cfg.Retention, nil, logger)
	if _, err := sweeper.SweepOnce(ctx); err != nil {
		logger.Fatal("sweep failed", zap.Error(err))
	}
}
