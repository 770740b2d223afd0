package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"documind-backend/internal/shared/config"
	"documind-backend/internal/shared/storage/db"
	"documind-backend/internal/shared/telemetry"
)

func main() {
	defer telemetry.Sync()

	cfg := config.Load()
	ctx := context.Background()

	opts := db.OptionsFromEnv(db.DefaultMigrateOptions())
	sqlDB, dialect, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err})
		telemetry.Sync()
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB, dialect); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"error": err, "dialect": string(dialect)})
		telemetry.Sync()
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"dialect": string(dialect)})
}
