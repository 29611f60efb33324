package main

import (
	"context"
	"log"

	"userdocs-backend/config"
	"userdocs-backend/database"
	"userdocs-backend/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logging.New(logging.Config{Level: cfg.Log.Level, Dev: cfg.Log.Dev})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	logger := zl.Sugar()

	ctx := context.Background()

	db, err := database.Connect(ctx, database.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
	})
	if err != nil {
		logger.Fatalw("failed to connect to database", "err", err)
	}
	defer db.Close()

	if err := database.InitSchema(ctx, db, logger); err != nil {
		logger.Fatalw("failed to apply schema", "err", err)
	}

	logger.Infow("schema is up to date", "driver", cfg.Database.Driver, "dsn", cfg.Database.DSN)
}
