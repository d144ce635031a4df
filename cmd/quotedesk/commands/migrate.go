package commands

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/quotedesk/quotedesk/internal/platform/db"
)

func newMigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Database migration commands",
		Flags: []cli.Flag{databaseURLFlag()},
		Commands: []*cli.Command{
			{
				Name:   "up",
				Usage:  "Run all pending migrations",
				Action: migrateAction(db.MigrateUp, "Migrations completed successfully"),
			},
			{
				Name:   "down",
				Usage:  "Roll back the last migration",
				Action: migrateAction(db.MigrateDown, "Migration rolled back successfully"),
			},
			{
				Name:   "status",
				Usage:  "Show migration status",
				Action: migrateAction(db.MigrateStatus, ""),
			},
		},
	}
}

func migrateAction(run func(*sql.DB) error, done string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		dsn := cmd.String("database-url")
		if dsn == "" {
			return errDatabaseURLRequired
		}
		sqlDB, err := db.OpenMigrator(dsn)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		if err := run(sqlDB); err != nil {
			return err
		}
		if done != "" {
			fmt.Fprintln(cmd.Root().Writer, done)
		}
		return nil
	}
}
