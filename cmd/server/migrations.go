package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/gallery-api/internal/config"
	"github.com/phrazzld/gallery-api/internal/platform/postgres"
)

var migrationCommands = map[string]bool{
	"up":      true,
	"down":    true,
	"status":  true,
	"version": true,
	"reset":   true,
}

// runMigrations executes a goose command against the configured database.
// Migrations only exist for the postgres store.
func runMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	if !migrationCommands[command] {
		return fmt.Errorf("unknown migration command %q", command)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url is required to run migrations")
	}

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Error closing database connection", slog.String("error", err.Error()))
		}
	}()

	logger.Info("Executing migrations", slog.String("command", command))
	if err := postgres.Migrate(ctx, db, command, logger); err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}
	logger.Info("Migrations completed", slog.String("command", command))
	return nil
}
