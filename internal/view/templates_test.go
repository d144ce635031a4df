package view

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestRenderErrorPage(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	err = engine.Render(rec, http.StatusNotFound, "pages/download_error.html", TemplateData{
		Title: "Quotation not found",
		Data: ErrorPage{
			Status:  http.StatusNotFound,
			Heading: "Quotation not found",
			Message: "This link is invalid or the quotation <b>was removed</b>.",
			Contact: "hello@example.com",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Quotation not found</title>")
	assert.Contains(t, body, "mailto:hello@example.com")
	assert.Contains(t, body, "&lt;b&gt;was removed&lt;/b&gt;")
	assert.Contains(t, body, "Error 404")
}

func TestRenderUnknownTemplate(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	assert.Error(t, engine.Render(rec, http.StatusOK, "pages/missing.html", TemplateData{}))
	assert.Empty(t, rec.Body.String())
}
