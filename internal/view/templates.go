package view

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/quotedesk/quotedesk/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title string
	Data  any
}

// ErrorPage feeds pages/download_error.html.
type ErrorPage struct {
	Status  int
	Heading string
	Message string
	Contact string
}

// NewEngine parses the embedded page templates.
func NewEngine() (*Engine, error) {
	tpl, err := template.New("root").ParseFS(web.Templates, "templates/layouts/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData and writes it with status.
// Output is buffered so a template failure never leaves a half-written page.
func (e *Engine) Render(w http.ResponseWriter, status int, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
