// Package numbering allocates sequential, human readable quotation numbers.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultPrefix is used when settings carry an empty prefix.
const DefaultPrefix = "QT"

// ErrSettingsMissing is returned when the settings row holding the counter does not exist.
var ErrSettingsMissing = errors.New("numbering: company settings row missing")

// Counter is a snapshot of the settings fields that drive numbering.
type Counter struct {
	Prefix  string
	Current int64
}

// Format renders PREFIX-YYYY-NNNN. Sequences wider than four digits print in full.
func Format(prefix string, year int, seq int64) string {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return fmt.Sprintf("%s-%04d-%04d", prefix, year, seq)
}

// Allocate computes the next number from a counter snapshot. It does not
// persist anything; the caller owns writing updated back.
func Allocate(c Counter, now time.Time) (number string, updated int64) {
	updated = c.Current + 1
	return Format(c.Prefix, now.Year(), updated), updated
}

// Store increments the persisted counter and returns the new value in one
// atomic step.
type Store interface {
	Increment(ctx context.Context) (prefix string, counter int64, err error)
}

// Allocator hands out quotation numbers backed by a Store.
type Allocator struct {
	store Store
	now   func() time.Time
}

// NewAllocator constructs an Allocator. A nil clock defaults to time.Now.
func NewAllocator(store Store, now func() time.Time) *Allocator {
	if now == nil {
		now = time.Now
	}
	return &Allocator{store: store, now: now}
}

// Next increments the counter and formats the resulting number. The year is
// taken in UTC, matching the stored quotation date.
func (a *Allocator) Next(ctx context.Context) (string, error) {
	prefix, counter, err := a.store.Increment(ctx)
	if err != nil {
		return "", fmt.Errorf("numbering: increment counter: %w", err)
	}
	return Format(prefix, a.now().UTC().Year(), counter), nil
}

type dbtx interface {
	QueryRow(context.Context, string, ...interface{}) pgx.Row
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
}

// PGStore increments company_settings.quotation_counter.
type PGStore struct {
	db dbtx
}

// NewPGStore wraps a pool or transaction.
func NewPGStore(db dbtx) *PGStore {
	return &PGStore{db: db}
}

// Increment performs the read, increment and write as a single UPDATE ... RETURNING.
func (s *PGStore) Increment(ctx context.Context) (string, int64, error) {
	var (
		prefix  string
		counter int64
	)
	err := s.db.QueryRow(ctx, `
		UPDATE company_settings
		SET quotation_counter = quotation_counter + 1, updated_at = NOW()
		WHERE id = 1
		RETURNING quotation_prefix, quotation_counter
	`).Scan(&prefix, &counter)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", 0, ErrSettingsMissing
		}
		return "", 0, err
	}
	return prefix, counter, nil
}
