package main

import (
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/spec-kit/employee-service/internal/config"
	"github.com/spec-kit/employee-service/internal/observability"
	"github.com/spec-kit/employee-service/internal/persistence"
)

func main() {
	dsn := flag.String("dsn", "", "postgres DSN (defaults to POSTGRES_DSN)")
	flag.Parse()

	action := persistence.MigrateUp
	if flag.NArg() > 0 {
		action = flag.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *dsn != "" {
		cfg.Postgres.DSN = *dsn
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.Postgres.DSN == "" {
		logger.Fatal("POSTGRES_DSN or -dsn is required")
	}

	if err := persistence.Migrate(action, cfg.Postgres.DSN, logger); err != nil {
		logger.Fatal("migration failed", zap.String("action", action), zap.Error(err))
	}
}
