// Package settings owns the company settings singleton: branding printed on
// quotations, quotation defaults and the SMTP relay credentials.
package settings

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk/internal/mailer"
	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/pricing"
)

// ErrNotFound is returned when the singleton row is missing.
var ErrNotFound = httpx.NewError(httpx.ErrNotFound, "company settings have not been initialised")

// CompanySettings is the singleton configuration row. QuotationCounter is
// excluded from JSON so cached copies never carry a stale value.
type CompanySettings struct {
	CompanyName           string          `json:"companyName"`
	Address               string          `json:"address"`
	Phone                 string          `json:"phone"`
	Email                 string          `json:"email"`
	Website               string          `json:"website"`
	QuotationPrefix       string          `json:"quotationPrefix"`
	QuotationCounter      int64           `json:"-"`
	DefaultCurrency       string          `json:"defaultCurrency"`
	DefaultTaxRate        decimal.Decimal `json:"defaultTaxRate"`
	DefaultTerms          string          `json:"defaultTerms"`
	QuotationValidityDays int             `json:"quotationValidityDays"`
	SMTPHost              string          `json:"smtpHost"`
	SMTPPort              int             `json:"smtpPort"`
	SMTPUser              string          `json:"smtpUser"`
	SMTPPassword          string          `json:"smtpPassword"`
	SMTPFrom              string          `json:"smtpFrom"`
	SMTPFromName          string          `json:"smtpFromName"`
	AdminNotifyEmail      string          `json:"adminNotifyEmail"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

// MissingSMTP lists the relay fields that must be set before mail can be sent.
func (s CompanySettings) MissingSMTP() []string {
	var missing []string
	if s.SMTPHost == "" {
		missing = append(missing, "host")
	}
	if s.SMTPUser == "" {
		missing = append(missing, "user")
	}
	if s.SMTPPassword == "" {
		missing = append(missing, "password")
	}
	if s.SMTPFrom == "" {
		missing = append(missing, "from address")
	}
	return missing
}

// SMTPConfigured reports whether outbound mail can be attempted.
func (s CompanySettings) SMTPConfigured() bool {
	return len(s.MissingSMTP()) == 0
}

// SMTP returns the relay configuration for the mailer.
func (s CompanySettings) SMTP() mailer.SMTPConfig {
	fromName := s.SMTPFromName
	if fromName == "" {
		fromName = s.CompanyName
	}
	return mailer.SMTPConfig{
		Host:     s.SMTPHost,
		Port:     s.SMTPPort,
		Username: s.SMTPUser,
		Password: s.SMTPPassword,
		From:     s.SMTPFrom,
		FromName: fromName,
	}
}

// ValidUntil returns the validity end for a quotation issued at issued.
func (s CompanySettings) ValidUntil(issued time.Time) time.Time {
	days := s.QuotationValidityDays
	if days <= 0 {
		days = 30
	}
	return issued.AddDate(0, 0, days)
}

// UpdateInput replaces every editable field. A nil SMTPPassword keeps the
// stored password; an empty string clears it.
type UpdateInput struct {
	CompanyName           string          `json:"companyName" validate:"required,max=200"`
	Address               string          `json:"address" validate:"max=500"`
	Phone                 string          `json:"phone" validate:"max=50"`
	Email                 string          `json:"email" validate:"omitempty,email"`
	Website               string          `json:"website" validate:"omitempty,url"`
	QuotationPrefix       string          `json:"quotationPrefix" validate:"required,max=10,alphanum"`
	DefaultCurrency       string          `json:"defaultCurrency" validate:"required,iso4217"`
	DefaultTaxRate        decimal.Decimal `json:"defaultTaxRate"`
	DefaultTerms          string          `json:"defaultTerms" validate:"max=5000"`
	QuotationValidityDays int             `json:"quotationValidityDays" validate:"required,min=1,max=365"`
	SMTPHost              string          `json:"smtpHost" validate:"max=255"`
	SMTPPort              int             `json:"smtpPort" validate:"omitempty,min=1,max=65535"`
	SMTPUser              string          `json:"smtpUser" validate:"max=255"`
	SMTPPassword          *string         `json:"smtpPassword,omitempty"`
	SMTPFrom              string          `json:"smtpFrom" validate:"omitempty,email"`
	SMTPFromName          string          `json:"smtpFromName" validate:"max=200"`
	AdminNotifyEmail      string          `json:"adminNotifyEmail" validate:"omitempty,email"`
}

var errTaxRateRange = errors.New("defaultTaxRate must be between 0 and 100")

// Validate checks tags plus the decimal range the tags cannot express.
func (in UpdateInput) Validate() error {
	if err := httpx.Validate(in); err != nil {
		return err
	}
	if in.DefaultTaxRate.IsNegative() || in.DefaultTaxRate.GreaterThan(decimal.NewFromInt(100)) {
		return httpx.NewError(httpx.ErrValidation, errTaxRateRange.Error())
	}
	if !pricing.HasCents(in.DefaultTaxRate) {
		return httpx.NewError(httpx.ErrValidation, "defaultTaxRate must have at most 2 decimal places")
	}
	return nil
}
