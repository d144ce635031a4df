// Package quotepdf renders quotations as paginated A4 PDF documents.
package quotepdf

import (
	"time"

	"github.com/quotedesk/quotedesk/internal/pricing"
)

// Company identifies the issuing business.
type Company struct {
	Name    string
	Address string
	Phone   string
	Email   string
	Website string
}

// Client is the "Bill To" party.
type Client struct {
	Name    string
	Company string
	Address string
	Email   string
	Phone   string
}

// Data is the fully resolved record fed to the renderer.
type Data struct {
	Company         Company
	Client          Client
	QuotationNumber string
	QuotationDate   time.Time
	ValidUntil      time.Time
	Project         string
	Location        string
	Currency        string
	Items           []pricing.LineItem
	Totals          pricing.Totals
	Terms           string
	Notes           string
}
