package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotedesk/quotedesk/internal/platform/db"
	"github.com/quotedesk/quotedesk/internal/platform/httpx"
)

// ErrOperatorExists is returned when the email is already registered.
var ErrOperatorExists = httpx.NewError(httpx.ErrDuplicate, "an operator with this email already exists")

// errOperatorNotFound never reaches clients; login failures map to ErrInvalidCredentials.
var errOperatorNotFound = errors.New("operator not found")

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*Operator, error)
	Create(ctx context.Context, op Operator) (*Operator, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const operatorColumns = `id, email, name, password_hash, is_active, created_at, updated_at`

func scanOperator(row pgx.Row) (*Operator, error) {
	var op Operator
	if err := row.Scan(&op.ID, &op.Email, &op.Name, &op.PasswordHash, &op.IsActive, &op.CreatedAt, &op.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errOperatorNotFound
		}
		return nil, err
	}
	return &op, nil
}

// FindByEmail fetches an operator by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*Operator, error) {
	return scanOperator(r.pool.QueryRow(ctx, `SELECT `+operatorColumns+` FROM operators WHERE email = $1`, email))
}

// Create inserts a new operator.
func (r *PGRepository) Create(ctx context.Context, op Operator) (*Operator, error) {
	created, err := scanOperator(r.pool.QueryRow(ctx, `INSERT INTO operators (email, name, password_hash, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING `+operatorColumns, op.Email, op.Name, op.PasswordHash, op.IsActive))
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, ErrOperatorExists
		}
		return nil, fmt.Errorf("auth: create operator: %w", err)
	}
	return created, nil
}

var _ Repository = (*PGRepository)(nil)
