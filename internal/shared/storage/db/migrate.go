package db

import (
	"context"
	"database/sql"
	"embed"
	"path"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFiles embed.FS

// RunMigrations applies the embedded migrations for dialect via goose.
// If database is nil, it's a no-op.
func RunMigrations(ctx context.Context, database *sql.DB, dialect Dialect) error {
	if database == nil {
		return nil
	}
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect(dialect.GooseDialect()); err != nil {
		return err
	}
	return goose.UpContext(ctx, database, path.Join("migrations", string(dialect)))
}
