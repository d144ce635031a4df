package auth

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Operator, error) {
	op, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !op.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return op, nil
}

// CreateOperatorInput carries the fields needed to seed an operator.
type CreateOperatorInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"max=120"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// CreateOperator hashes the password and stores an active operator.
func (s *Service) CreateOperator(ctx context.Context, in CreateOperatorInput) (*Operator, error) {
	in.Email = normalizeEmail(in.Email)
	if err := httpx.Validate(in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, Operator{
		Email:        in.Email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: string(hash),
		IsActive:     true,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
