package main

import (
	"context"
	"fmt"

	"trackapi/internal/config"
	"trackapi/internal/database"
	"trackapi/internal/logging"
)

func runMigrate(ctx context.Context) error {
	cfg := config.Load()
	logger := logging.New(cfg.Log, cfg.Location())

	// OpenLedger creates the schema when it is missing.
	db, err := database.OpenLedger(ctx, cfg.Database, logger)
	if err != nil {
		logger.Error().Err(err).Msg("migration_failed")
		return fmt.Errorf("migrate capture ledger: %w", err)
	}
	return db.Close()
}
