package auth

import "time"

// Operator is a back-office user allowed to manage quote requests.
type Operator struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
