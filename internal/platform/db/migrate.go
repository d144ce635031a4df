package db

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	// Register pgx with database/sql for goose.
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const migrationsDir = "migrations"

// OpenMigrator opens a database/sql handle configured for the embedded goose migrations.
func OpenMigrator(dsn string) (*sql.DB, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("platform/db: open: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("platform/db: ping: %w", err)
	}
	goose.SetBaseFS(embedMigrations)
	if err := goose.SetDialect("postgres"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("platform/db: set dialect: %w", err)
	}
	return sqlDB, nil
}

// MigrateUp applies every pending migration.
func MigrateUp(sqlDB *sql.DB) error {
	if err := goose.Up(sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("platform/db: migrate up: %w", err)
	}
	return nil
}

// MigrateDown rolls back the most recent migration.
func MigrateDown(sqlDB *sql.DB) error {
	if err := goose.Down(sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("platform/db: migrate down: %w", err)
	}
	return nil
}

// MigrateStatus prints applied and pending migrations through goose's logger.
func MigrateStatus(sqlDB *sql.DB) error {
	if err := goose.Status(sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("platform/db: migrate status: %w", err)
	}
	return nil
}
