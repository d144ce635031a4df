// Package httpx provides HTTP response utilities.
package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for domain layer.
var (
	ErrNotFound     = errors.New("resource not found")
	ErrDuplicate    = errors.New("duplicate entry")
	ErrValidation   = errors.New("validation failed")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	// ErrPrecondition marks requests that are well formed but cannot proceed yet,
	// e.g. sending a quotation before SMTP is configured.
	ErrPrecondition = errors.New("precondition failed")
	// ErrUpstream marks failures of an outbound dependency such as the mail relay.
	ErrUpstream = errors.New("upstream failure")
)

var kinds = []struct {
	err    error
	status int
	title  string
	public bool
}{
	{ErrNotFound, http.StatusNotFound, "Not Found", true},
	{ErrDuplicate, http.StatusConflict, "Duplicate", true},
	{ErrValidation, http.StatusBadRequest, "Validation Failed", true},
	{ErrForbidden, http.StatusForbidden, "Forbidden", true},
	{ErrUnauthorized, http.StatusUnauthorized, "Unauthorized", true},
	{ErrPrecondition, http.StatusUnprocessableEntity, "Precondition Failed", true},
	{ErrUpstream, http.StatusBadGateway, "Upstream Failure", false},
}

// StatusFor returns the HTTP status RespondError would use for err.
func StatusFor(err error) int {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// RespondError maps domain errors to HTTP responses using RFC7807. Upstream
// and unknown errors never echo their message to the client.
func RespondError(w http.ResponseWriter, err error) {
	for _, k := range kinds {
		if !errors.Is(err, k.err) {
			continue
		}
		detail := ""
		if k.public {
			detail = err.Error()
		}
		Problem(w, k.status, k.title, detail)
		return
	}
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}

// Error carries a client-facing message while still matching its sentinel
// kind through errors.Is.
type Error struct {
	Kind    error
	Message string
}

// NewError constructs an Error of the given kind.
func NewError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }
