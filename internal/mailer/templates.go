package mailer

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/quotedesk/quotedesk/web"
)

// QuotationEmail feeds the client-facing quotation mail.
type QuotationEmail struct {
	CompanyName     string
	ClientName      string
	QuotationNumber string
	Total           string
	ValidUntil      string
	DownloadURL     string
	Phone           string
	Email           string
	Website         string
}

// AdminNotificationEmail feeds the new-request alert sent to the business.
type AdminNotificationEmail struct {
	ReferenceNo string
	Name        string
	Email       string
	Phone       string
	Company     string
	Service     string
	Location    string
	Message     string
	SubmittedAt string
}

// Templates renders the embedded mail bodies.
type Templates struct {
	html *htmltemplate.Template
	text *texttemplate.Template
}

// LoadTemplates parses the embedded mail templates.
func LoadTemplates() (*Templates, error) {
	html, err := htmltemplate.ParseFS(web.Templates, "templates/mail/*.html.tmpl")
	if err != nil {
		return nil, err
	}
	text, err := texttemplate.ParseFS(web.Templates, "templates/mail/*.text.tmpl")
	if err != nil {
		return nil, err
	}
	return &Templates{html: html, text: text}, nil
}

// Quotation composes the quotation mail; the caller attaches the PDF.
func (t *Templates) Quotation(data QuotationEmail) (Message, error) {
	msg := Message{Subject: "Quotation " + data.QuotationNumber + " from " + data.CompanyName}
	return t.fill(msg, "quotation", data)
}

// AdminNotification composes the new-request alert.
func (t *Templates) AdminNotification(data AdminNotificationEmail) (Message, error) {
	subject := "New quote request " + data.ReferenceNo + " from " + data.Name
	if data.Service != "" {
		subject += " (" + data.Service + ")"
	}
	return t.fill(Message{Subject: subject}, "admin_notification", data)
}

func (t *Templates) fill(msg Message, name string, data any) (Message, error) {
	var html, text bytes.Buffer
	if err := t.html.ExecuteTemplate(&html, name+".html", data); err != nil {
		return Message{}, err
	}
	if err := t.text.ExecuteTemplate(&text, name+".text", data); err != nil {
		return Message{}, err
	}
	msg.HTML = html.String()
	msg.Text = strings.TrimSpace(text.String()) + "\n"
	return msg, nil
}
