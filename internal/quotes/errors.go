package quotes

import (
	"fmt"
	"strings"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
)

var (
	// ErrQuoteNotFound is returned for unknown or malformed quote ids.
	ErrQuoteNotFound = httpx.NewError(httpx.ErrNotFound, "quote request not found")
	// ErrTrackingNoMatch deliberately does not say which field mismatched.
	ErrTrackingNoMatch = httpx.NewError(httpx.ErrNotFound, "no quote request matches the supplied reference number and email")
	// ErrTrackingFieldsRequired rejects tracking lookups missing either field.
	ErrTrackingFieldsRequired = httpx.NewError(httpx.ErrValidation, "referenceNo and email are required")
	// ErrNoLineItems rejects quotations without rows.
	ErrNoLineItems = httpx.NewError(httpx.ErrValidation, "at least one line item is required")
	// ErrInvalidLineItem is the kind of every LineItemError.
	ErrInvalidLineItem = httpx.NewError(httpx.ErrValidation, "invalid line item")
	// ErrNoQuotation is returned by downloads before a quotation exists.
	ErrNoQuotation = httpx.NewError(httpx.ErrValidation, "no quotation has been generated for this quote request yet")
	// ErrQuotationMissing is the Send precondition for a generated quotation.
	ErrQuotationMissing = httpx.NewError(httpx.ErrPrecondition, "generate a quotation before sending it")
	// ErrSMTPNotConfigured is the kind of every missingSMTPError.
	ErrSMTPNotConfigured = httpx.NewError(httpx.ErrPrecondition, "SMTP settings are incomplete")
	// ErrQuoteBusy is returned while another generate or send holds the quote.
	ErrQuoteBusy = httpx.NewError(httpx.ErrDuplicate, "another quotation action is in progress for this quote request, retry shortly")
	// ErrMailTransport wraps relay failures. Clients only see a generic 502.
	ErrMailTransport = httpx.NewError(httpx.ErrUpstream, "the quotation email could not be delivered")
	// ErrNothingToUpdate rejects empty PATCH bodies.
	ErrNothingToUpdate = httpx.NewError(httpx.ErrValidation, "at least one of status, notes or adminResponse is required")
)

// LineItemError names the first invalid row of a Generate request.
type LineItemError struct {
	Index  int
	Reason string
}

func (e *LineItemError) Error() string {
	return fmt.Sprintf("lineItems[%d]: %s", e.Index, e.Reason)
}

func (e *LineItemError) Unwrap() error { return ErrInvalidLineItem }

type missingSMTPError struct {
	missing []string
}

func (e missingSMTPError) Error() string {
	return "SMTP settings are incomplete: set the " + strings.Join(e.missing, ", ") + " in company settings before sending"
}

func (e missingSMTPError) Unwrap() error { return ErrSMTPNotConfigured }

func validationError(msg string) error {
	return httpx.NewError(httpx.ErrValidation, msg)
}
