package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for the settings singleton.
type Repository interface {
	Get(ctx context.Context) (CompanySettings, error)
	Update(ctx context.Context, in UpdateInput) (CompanySettings, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const settingsColumns = `company_name, address, phone, email, website, quotation_prefix,
	quotation_counter, default_currency, default_tax_rate, default_terms, quotation_validity_days,
	smtp_host, smtp_port, smtp_user, smtp_password, smtp_from, smtp_from_name,
	admin_notify_email, updated_at`

func scanSettings(row pgx.Row) (CompanySettings, error) {
	var s CompanySettings
	err := row.Scan(
		&s.CompanyName, &s.Address, &s.Phone, &s.Email, &s.Website, &s.QuotationPrefix,
		&s.QuotationCounter, &s.DefaultCurrency, &s.DefaultTaxRate, &s.DefaultTerms, &s.QuotationValidityDays,
		&s.SMTPHost, &s.SMTPPort, &s.SMTPUser, &s.SMTPPassword, &s.SMTPFrom, &s.SMTPFromName,
		&s.AdminNotifyEmail, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return CompanySettings{}, ErrNotFound
	}
	return s, err
}

// Get loads the singleton row.
func (r *PGRepository) Get(ctx context.Context) (CompanySettings, error) {
	return scanSettings(r.pool.QueryRow(ctx, `SELECT `+settingsColumns+` FROM company_settings WHERE id = 1`))
}

// Update writes every editable column. quotation_counter is owned by the
// number allocator and never written here.
func (r *PGRepository) Update(ctx context.Context, in UpdateInput) (CompanySettings, error) {
	return scanSettings(r.pool.QueryRow(ctx, `UPDATE company_settings SET
		company_name = $1, address = $2, phone = $3, email = $4, website = $5,
		quotation_prefix = $6, default_currency = $7, default_tax_rate = $8, default_terms = $9,
		quotation_validity_days = $10, smtp_host = $11, smtp_port = $12, smtp_user = $13,
		smtp_password = COALESCE($14, smtp_password), smtp_from = $15, smtp_from_name = $16,
		admin_notify_email = $17, updated_at = NOW()
		WHERE id = 1
		RETURNING `+settingsColumns,
		in.CompanyName, in.Address, in.Phone, in.Email, in.Website,
		in.QuotationPrefix, in.DefaultCurrency, in.DefaultTaxRate, in.DefaultTerms,
		in.QuotationValidityDays, in.SMTPHost, in.SMTPPort, in.SMTPUser,
		in.SMTPPassword, in.SMTPFrom, in.SMTPFromName,
		in.AdminNotifyEmail,
	))
}

var _ Repository = (*PGRepository)(nil)
