package quotes

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk/internal/pricing"
	"github.com/quotedesk/quotedesk/internal/shared"
)

// SubmitRequest is the public quote form.
type SubmitRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Phone    string `json:"phone" validate:"max=50"`
	Company  string `json:"company" validate:"max=200"`
	Service  string `json:"service" validate:"max=200"`
	Location string `json:"location" validate:"max=200"`
	Message  string `json:"message" validate:"required,min=10,max=5000"`
}

func (r *SubmitRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Company = strings.TrimSpace(r.Company)
	r.Service = strings.TrimSpace(r.Service)
	r.Location = strings.TrimSpace(r.Location)
	r.Message = strings.TrimSpace(r.Message)
}

// SubmitResult acknowledges a submission.
type SubmitResult struct {
	ID          string `json:"id"`
	ReferenceNo string `json:"referenceNo"`
}

// TrackRequest is the public status lookup.
type TrackRequest struct {
	ReferenceNo string `json:"referenceNo"`
	Email       string `json:"email"`
}

// GenerateRequest carries the operator-built quotation. Line item totals are
// recomputed; a nil TaxRate falls back to the company default.
type GenerateRequest struct {
	LineItems       []pricing.LineItem `json:"lineItems"`
	TaxRate         *decimal.Decimal   `json:"taxRate"`
	Discount        decimal.Decimal    `json:"discount"`
	Currency        string             `json:"currency"`
	QuotationNotes  string             `json:"quotationNotes"`
	TermsConditions string             `json:"termsConditions"`
}

// GenerateResult returns the number, the rendered PDF (base64 in JSON) and totals.
type GenerateResult struct {
	QuotationNumber string         `json:"quotationNumber"`
	PDF             []byte         `json:"pdf"`
	Totals          pricing.Totals `json:"totals"`
	ValidUntil      time.Time      `json:"validUntil"`
}

// SendResult reports a delivered quotation.
type SendResult struct {
	Message   string `json:"message"`
	MessageID string `json:"messageId"`
}

// UpdateRequest is the operator PATCH body.
type UpdateRequest struct {
	Status        *Status `json:"status"`
	Notes         *string `json:"notes" validate:"omitempty,max=10000"`
	AdminResponse *string `json:"adminResponse" validate:"omitempty,max=10000"`
}

// ListResult is one page of quote requests.
type ListResult struct {
	Items      []QuoteRequest    `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

// Document is a rendered quotation ready for download.
type Document struct {
	Filename string
	Data     []byte
}
