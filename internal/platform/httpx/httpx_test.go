package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string `json:"name" validate:"required,max=5"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"min=10"`
}

func TestValidateReportsFirstField(t *testing.T) {
	err := Validate(sample{Email: "a@b.co", Message: "long enough text"})
	require.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "name is required", err.Error())

	err = Validate(sample{Name: "toolongname", Email: "a@b.co", Message: "long enough text"})
	assert.Equal(t, "name must be at most 5 characters", err.Error())

	err = Validate(sample{Name: "ok", Email: "nope", Message: "long enough text"})
	assert.Equal(t, "email must be a valid email address", err.Error())

	err = Validate(sample{Name: "ok", Email: "a@b.co", Message: "short"})
	assert.Equal(t, "message must be at least 10 characters", err.Error())

	assert.NoError(t, Validate(sample{Name: "ok", Email: "a@b.co", Message: "long enough text"}))
}

func TestRespondErrorMapsSentinels(t *testing.T) {
	cases := []struct {
		err    error
		status int
		detail string
	}{
		{NewError(ErrValidation, "name is required"), http.StatusBadRequest, "name is required"},
		{fmt.Errorf("load: %w", ErrNotFound), http.StatusNotFound, "load: resource not found"},
		{NewError(ErrPrecondition, "SMTP is not configured"), http.StatusUnprocessableEntity, "SMTP is not configured"},
		{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{fmt.Errorf("dial: %w", ErrUpstream), http.StatusBadGateway, ""},
		{errors.New("pq: connection refused"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		assert.Equal(t, tc.status, rec.Code)
		assert.Equal(t, tc.status, StatusFor(tc.err))

		var body ProblemDetail
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, tc.detail, body.Detail)
	}
}

func TestDecodeJSON(t *testing.T) {
	var got sample
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Jane"}`+"\n"))
	require.NoError(t, DecodeJSON(req, &got))
	assert.Equal(t, "Jane", got.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Jane"}{"name":"Eve"}`))
	assert.ErrorIs(t, DecodeJSON(req, &got), errTrailingData)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("a", MaxBodyBytes)+`"}`))
	assert.Error(t, DecodeJSON(req, &got))
}

func TestProblemContentType(t *testing.T) {
	rec := httptest.NewRecorder()
	Problem(rec, http.StatusNotFound, "Not Found", "quote request not found")
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"type":"about:blank","title":"Not Found","status":404,"detail":"quote request not found"}`, rec.Body.String())
}
