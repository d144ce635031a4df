package quotes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quotedesk/quotedesk/internal/numbering"
	"github.com/quotedesk/quotedesk/internal/platform/db"
)

const referenceConstraint = "quote_requests_reference_no_key"

// errReferenceTaken signals a reference number collision on insert.
var errReferenceTaken = errors.New("quotes: reference number already used")

// Repository persists quote requests.
type Repository interface {
	Create(ctx context.Context, q *QuoteRequest) error
	Get(ctx context.Context, id string) (*QuoteRequest, error)
	FindByReference(ctx context.Context, referenceNo, email string) (*QuoteRequest, error)
	List(ctx context.Context, filter ListFilter) ([]QuoteRequest, int, error)
	Patch(ctx context.Context, id string, patch Patch) (*QuoteRequest, error)
	MarkSent(ctx context.Context, id string, at time.Time) (*QuoteRequest, error)
	Delete(ctx context.Context, id string) error
	WithQuotationTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the statements Generate runs in one transaction.
type TxRepository interface {
	LockQuote(ctx context.Context, id string) (*QuoteRequest, error)
	NumberStore() numbering.Store
	SaveQuotation(ctx context.Context, id string, u QuotationUpdate) (*QuoteRequest, error)
}

// PGRepository is the Postgres Repository.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const quoteColumns = `id::text, reference_no, name, email, phone, company, service, location, message,
	status, notes, admin_response, responded_at,
	quotation_number, quotation_date, valid_until, line_items,
	subtotal, tax_rate, tax, discount, total_amount, currency,
	terms_conditions, quotation_notes, pdf_generated, pdf_sent_at,
	created_at, updated_at`

func scanQuote(row pgx.Row) (*QuoteRequest, error) {
	var q QuoteRequest
	err := row.Scan(
		&q.ID, &q.ReferenceNo, &q.Name, &q.Email, &q.Phone, &q.Company, &q.Service, &q.Location, &q.Message,
		&q.Status, &q.Notes, &q.AdminResponse, &q.RespondedAt,
		&q.QuotationNumber, &q.QuotationDate, &q.ValidUntil, &q.LineItems,
		&q.Subtotal, &q.TaxRate, &q.Tax, &q.Discount, &q.TotalAmount, &q.Currency,
		&q.TermsConditions, &q.QuotationNotes, &q.PDFGenerated, &q.PDFSentAt,
		&q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuoteNotFound
		}
		return nil, err
	}
	return &q, nil
}

// Create inserts a new quote request.
func (r *PGRepository) Create(ctx context.Context, q *QuoteRequest) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO quote_requests (id, reference_no, name, email, phone, company, service, location, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
	`, q.ID, q.ReferenceNo, q.Name, q.Email, q.Phone, q.Company, q.Service, q.Location, q.Message, q.Status, q.CreatedAt)
	if db.IsUniqueViolation(err, referenceConstraint) {
		return errReferenceTaken
	}
	return err
}

// Get loads a quote request by id.
func (r *PGRepository) Get(ctx context.Context, id string) (*QuoteRequest, error) {
	return scanQuote(r.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quote_requests WHERE id = $1`, id))
}

// FindByReference matches both fields exactly; callers normalise them first.
func (r *PGRepository) FindByReference(ctx context.Context, referenceNo, email string) (*QuoteRequest, error) {
	return scanQuote(r.pool.QueryRow(ctx,
		`SELECT `+quoteColumns+` FROM quote_requests WHERE reference_no = $1 AND email = $2`,
		referenceNo, email))
}

// List returns one page of quote requests, newest first, plus the total match count.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]QuoteRequest, int, error) {
	var conditions []string
	var args []interface{}
	argPos := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, filter.Status)
		argPos++
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d OR reference_no ILIKE $%d)", argPos, argPos, argPos))
		args = append(args, "%"+filter.Search+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM quote_requests "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM quote_requests %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		quoteColumns, whereClause, argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]QuoteRequest, 0, filter.Limit)
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *q)
	}
	return items, total, rows.Err()
}

// Patch applies the non-nil fields of patch.
func (r *PGRepository) Patch(ctx context.Context, id string, patch Patch) (*QuoteRequest, error) {
	return scanQuote(r.pool.QueryRow(ctx, `
		UPDATE quote_requests
		SET status = COALESCE($2, status),
		    notes = COALESCE($3, notes),
		    admin_response = COALESCE($4, admin_response),
		    responded_at = COALESCE($5, responded_at),
		    updated_at = NOW()
		WHERE id = $1
		RETURNING `+quoteColumns,
		id, patch.Status, patch.Notes, patch.AdminResponse, patch.RespondedAt))
}

// MarkSent stamps pdf_sent_at and advances quoted requests to sent.
func (r *PGRepository) MarkSent(ctx context.Context, id string, at time.Time) (*QuoteRequest, error) {
	return scanQuote(r.pool.QueryRow(ctx, `
		UPDATE quote_requests
		SET pdf_sent_at = $2,
		    status = CASE WHEN status = 'quoted' THEN 'sent' ELSE status END,
		    updated_at = $2
		WHERE id = $1
		RETURNING `+quoteColumns,
		id, at))
}

// Delete removes a quote request.
func (r *PGRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quote_requests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuoteNotFound
	}
	return nil
}

// WithQuotationTx runs fn in a read-committed transaction. Row locks taken by
// LockQuote and the counter UPDATE serialise concurrent generates.
func (r *PGRepository) WithQuotationTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxIso(ctx, r.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

type txRepo struct {
	tx pgx.Tx
}

func (t *txRepo) LockQuote(ctx context.Context, id string) (*QuoteRequest, error) {
	return scanQuote(t.tx.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quote_requests WHERE id = $1 FOR UPDATE`, id))
}

func (t *txRepo) NumberStore() numbering.Store {
	return numbering.NewPGStore(t.tx)
}

func (t *txRepo) SaveQuotation(ctx context.Context, id string, u QuotationUpdate) (*QuoteRequest, error) {
	return scanQuote(t.tx.QueryRow(ctx, `
		UPDATE quote_requests
		SET quotation_number = $2,
		    quotation_date = $3,
		    valid_until = $4,
		    line_items = $5,
		    subtotal = $6,
		    tax_rate = $7,
		    tax = $8,
		    discount = $9,
		    total_amount = $10,
		    currency = $11,
		    terms_conditions = $12,
		    quotation_notes = $13,
		    pdf_generated = TRUE,
		    status = $14,
		    updated_at = $3
		WHERE id = $1
		RETURNING `+quoteColumns,
		id, u.Number, u.Date, u.ValidUntil, u.LineItems,
		u.Totals.Subtotal, u.Totals.TaxRate, u.Totals.Tax, u.Totals.Discount, u.Totals.TotalAmount,
		u.Currency, u.Terms, u.Notes, u.Status))
}
