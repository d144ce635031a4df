package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/quotedesk/quotedesk/internal/auth"
	"github.com/quotedesk/quotedesk/internal/platform/db"
)

type operatorCreator interface {
	CreateOperator(ctx context.Context, in auth.CreateOperatorInput) (*auth.Operator, error)
}

// openOperators is swapped in tests.
var openOperators = func(ctx context.Context, dsn string) (operatorCreator, func(), error) {
	pool, err := db.New(ctx, dsn)
	if err != nil {
		return nil, nil, err
	}
	return auth.NewService(auth.NewRepository(pool)), pool.Close, nil
}

func newOperatorCommand() *cli.Command {
	return &cli.Command{
		Name:  "operator",
		Usage: "Manage back-office operators",
		Flags: []cli.Flag{databaseURLFlag()},
		Commands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an active operator account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Usage: "Login email", Required: true},
					&cli.StringFlag{Name: "password", Usage: "Login password (8-72 characters)", Required: true},
					&cli.StringFlag{Name: "name", Usage: "Display name"},
				},
				Action: createOperator,
			},
		},
	}
}

func createOperator(ctx context.Context, cmd *cli.Command) error {
	dsn := cmd.String("database-url")
	if dsn == "" {
		return errDatabaseURLRequired
	}
	creator, closeFn, err := openOperators(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer closeFn()

	op, err := creator.CreateOperator(ctx, auth.CreateOperatorInput{
		Email:    cmd.String("email"),
		Name:     cmd.String("name"),
		Password: cmd.String("password"),
	})
	if err != nil {
		return fmt.Errorf("create operator: %w", err)
	}
	fmt.Fprintf(cmd.Root().Writer, "Operator %s created (id %d)\n", op.Email, op.ID)
	return nil
}
