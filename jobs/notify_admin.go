package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/quotedesk/quotedesk/internal/jobs"
	"github.com/quotedesk/quotedesk/internal/mailer"
	"github.com/quotedesk/quotedesk/internal/settings"
)

// SettingsProvider exposes the current company settings.
type SettingsProvider interface {
	Current(ctx context.Context) (settings.CompanySettings, error)
}

// MailSender delivers a composed message through the configured relay.
type MailSender interface {
	Send(ctx context.Context, cfg mailer.SMTPConfig, msg mailer.Message) (string, error)
}

// AdminNotifier emails the business whenever a quote request is submitted.
type AdminNotifier struct {
	settings  SettingsProvider
	templates *mailer.Templates
	sender    MailSender
	logger    *slog.Logger
	metrics   *jobmetrics.Metrics
}

// NewAdminNotifier wires the admin notification handler.
func NewAdminNotifier(provider SettingsProvider, templates *mailer.Templates, sender MailSender, logger *slog.Logger, metrics *jobmetrics.Metrics) *AdminNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminNotifier{
		settings:  provider,
		templates: templates,
		sender:    sender,
		logger:    logger,
		metrics:   metrics,
	}
}

// TaskHandler registers the notifier with the worker mux.
func (n *AdminNotifier) TaskHandler() TaskHandler {
	return TaskHandler{Type: TaskQuoteAdminNotify, Handler: n.Handle}
}

// Handle processes TaskQuoteAdminNotify tasks.
func (n *AdminNotifier) Handle(ctx context.Context, t *asynq.Task) error {
	run := n.metrics.Track(ctx, TaskQuoteAdminNotify)
	payload, err := ParseAdminNotification(t)
	if err != nil {
		n.logger.Error("admin notification payload rejected", slog.Any("error", err))
		return run.End(fmt.Errorf("%w: %v", asynq.SkipRetry, err))
	}
	return run.End(n.notify(ctx, run, payload))
}

func (n *AdminNotifier) notify(ctx context.Context, run *jobmetrics.Run, payload AdminNotificationPayload) error {
	logger := n.logger.With(slog.String("reference_no", payload.ReferenceNo))

	current, err := n.settings.Current(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if current.AdminNotifyEmail == "" {
		logger.Info("admin notification skipped: no admin address configured")
		run.Skip()
		return nil
	}
	if missing := current.MissingSMTP(); len(missing) > 0 {
		logger.Info("admin notification skipped: smtp not configured", slog.Any("missing", missing))
		run.Skip()
		return nil
	}

	msg, err := n.templates.AdminNotification(mailer.AdminNotificationEmail{
		ReferenceNo: payload.ReferenceNo,
		Name:        payload.Name,
		Email:       payload.Email,
		Phone:       payload.Phone,
		Company:     payload.Company,
		Service:     payload.Service,
		Location:    payload.Location,
		Message:     payload.Message,
		SubmittedAt: payload.SubmittedAt.UTC().Format("02 Jan 2006 15:04 MST"),
	})
	if err != nil {
		return fmt.Errorf("compose admin notification: %w", err)
	}
	msg.To = current.AdminNotifyEmail
	msg.ToName = current.CompanyName

	id, err := n.sender.Send(ctx, current.SMTP(), msg)
	if err != nil {
		logger.Warn("admin notification failed", slog.Any("error", err))
		return err
	}
	logger.Info("admin notification sent", slog.String("message_id", id))
	return nil
}
