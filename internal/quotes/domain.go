// Package quotes runs the quote request workflow: public submission and
// tracking, then operator driven quotation generation, delivery and download.
package quotes

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk/internal/pricing"
)

// Status is the lifecycle marker of a quote request. Operators may set any
// value at any time; only Generate and Send advance it automatically.
type Status string

const (
	StatusNew        Status = "new"
	StatusContacted  Status = "contacted"
	StatusQuoted     Status = "quoted"
	StatusSent       Status = "sent"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var statuses = []Status{
	StatusNew,
	StatusContacted,
	StatusQuoted,
	StatusSent,
	StatusInProgress,
	StatusCompleted,
	StatusCancelled,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, candidate := range statuses {
		if s == candidate {
			return true
		}
	}
	return false
}

func statusList() string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// QuoteRequest is a customer inquiry plus the quotation built for it.
type QuoteRequest struct {
	ID          string `json:"id"`
	ReferenceNo string `json:"referenceNo"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Company     string `json:"company"`
	Service     string `json:"service"`
	Location    string `json:"location"`
	Message     string `json:"message"`

	Status        Status     `json:"status"`
	Notes         string     `json:"notes"`
	AdminResponse string     `json:"adminResponse"`
	RespondedAt   *time.Time `json:"respondedAt"`

	QuotationNumber *string            `json:"quotationNumber"`
	QuotationDate   *time.Time         `json:"quotationDate"`
	ValidUntil      *time.Time         `json:"validUntil"`
	LineItems       []pricing.LineItem `json:"lineItems"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	TaxRate         decimal.Decimal    `json:"taxRate"`
	Tax             decimal.Decimal    `json:"tax"`
	Discount        decimal.Decimal    `json:"discount"`
	TotalAmount     decimal.Decimal    `json:"totalAmount"`
	Currency        string             `json:"currency"`
	TermsConditions string             `json:"termsConditions"`
	QuotationNotes  string             `json:"quotationNotes"`
	PDFGenerated    bool               `json:"pdfGenerated"`
	PDFSentAt       *time.Time         `json:"pdfSentAt"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Number returns the allocated quotation number or "".
func (q QuoteRequest) Number() string {
	if q.QuotationNumber == nil {
		return ""
	}
	return *q.QuotationNumber
}

// HasQuotation reports whether a quotation can be rendered from persisted fields.
func (q QuoteRequest) HasQuotation() bool {
	return q.Number() != "" && len(q.LineItems) > 0
}

// Totals rebuilds the persisted totals.
func (q QuoteRequest) Totals() pricing.Totals {
	return pricing.Totals{
		Subtotal:      q.Subtotal,
		Discount:      q.Discount,
		AfterDiscount: q.Subtotal.Sub(q.Discount),
		TaxRate:       q.TaxRate,
		Tax:           q.Tax,
		TotalAmount:   q.TotalAmount,
	}
}

// Tracking is the customer-facing projection returned by Track.
type Tracking struct {
	ReferenceNo   string     `json:"referenceNo"`
	Name          string     `json:"name"`
	Service       string     `json:"service"`
	Location      string     `json:"location"`
	Status        Status     `json:"status"`
	AdminResponse string     `json:"adminResponse"`
	RespondedAt   *time.Time `json:"respondedAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Tracking projects q without operator-only fields.
func (q QuoteRequest) Tracking() Tracking {
	return Tracking{
		ReferenceNo:   q.ReferenceNo,
		Name:          q.Name,
		Service:       q.Service,
		Location:      q.Location,
		Status:        q.Status,
		AdminResponse: q.AdminResponse,
		RespondedAt:   q.RespondedAt,
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
	}
}

// QuotationUpdate is everything Generate writes in one statement.
type QuotationUpdate struct {
	Number     string
	Date       time.Time
	ValidUntil time.Time
	LineItems  []pricing.LineItem
	Totals     pricing.Totals
	Currency   string
	Terms      string
	Notes      string
	Status     Status
}

// apply mirrors SaveQuotation on an in-memory copy.
func (q *QuoteRequest) apply(u QuotationUpdate) {
	number := u.Number
	date, validUntil := u.Date, u.ValidUntil
	q.QuotationNumber = &number
	q.QuotationDate = &date
	q.ValidUntil = &validUntil
	q.LineItems = u.LineItems
	q.Subtotal = u.Totals.Subtotal
	q.TaxRate = u.Totals.TaxRate
	q.Tax = u.Totals.Tax
	q.Discount = u.Totals.Discount
	q.TotalAmount = u.Totals.TotalAmount
	q.Currency = u.Currency
	q.TermsConditions = u.Terms
	q.QuotationNotes = u.Notes
	q.PDFGenerated = true
	q.Status = u.Status
}

// Patch is the operator partial update. Nil fields are left alone.
type Patch struct {
	Status        *Status
	Notes         *string
	AdminResponse *string
	RespondedAt   *time.Time
}

// ListFilter narrows the operator listing.
type ListFilter struct {
	Status Status
	Search string
	Limit  int
	Offset int
}
