// Package mailer delivers transactional mail through the SMTP relay
// configured in company settings.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

// SMTPConfig describes the relay. It is read from company settings on every
// send so credential changes apply without a restart.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Attachment is an in-memory file attached to a Message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is a multipart text + HTML mail.
type Message struct {
	To          string
	ToName      string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Sender dials the relay once per message.
type Sender struct {
	logger  *slog.Logger
	timeout time.Duration
}

// NewSender constructs a Sender. timeout bounds dialing and each SMTP command.
func NewSender(logger *slog.Logger, timeout time.Duration) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Sender{logger: logger, timeout: timeout}
}

// Send delivers msg and returns the Message-ID it was sent with.
func (s *Sender) Send(ctx context.Context, cfg SMTPConfig, msg Message) (string, error) {
	m, id, err := compose(cfg, msg)
	if err != nil {
		return "", err
	}

	port := cfg.Port
	if port == 0 {
		port = 587
	}
	opts := []mail.Option{
		mail.WithPort(port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTimeout(s.timeout),
	}
	if port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return "", fmt.Errorf("mailer: new client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return "", fmt.Errorf("mailer: send to %s via %s:%d: %w", msg.To, cfg.Host, port, err)
	}
	s.logger.Info("mail sent",
		slog.String("message_id", id),
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return id, nil
}

func compose(cfg SMTPConfig, msg Message) (*mail.Msg, string, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(cfg.FromName, cfg.From); err != nil {
		return nil, "", fmt.Errorf("mailer: from %q: %w", cfg.From, err)
	}
	if err := m.AddToFormat(msg.ToName, msg.To); err != nil {
		return nil, "", fmt.Errorf("mailer: to %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)

	id := messageID(cfg.From)
	m.SetMessageIDWithValue(id)
	m.SetDate()

	m.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	for _, a := range msg.Attachments {
		var fileOpts []mail.FileOption
		if a.ContentType != "" {
			fileOpts = append(fileOpts, mail.WithFileContentType(mail.ContentType(a.ContentType)))
		}
		if err := m.AttachReader(a.Name, bytes.NewReader(a.Data), fileOpts...); err != nil {
			return nil, "", fmt.Errorf("mailer: attach %s: %w", a.Name, err)
		}
	}
	return m, id, nil
}

func messageID(from string) string {
	domain := "quotedesk.local"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return uuid.NewString() + "@" + domain
}
