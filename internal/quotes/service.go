package quotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk/internal/mailer"
	"github.com/quotedesk/quotedesk/internal/numbering"
	"github.com/quotedesk/quotedesk/internal/observability"
	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/pricing"
	"github.com/quotedesk/quotedesk/internal/quotepdf"
	"github.com/quotedesk/quotedesk/internal/settings"
	"github.com/quotedesk/quotedesk/internal/shared"
	"github.com/quotedesk/quotedesk/jobs"
)

const (
	maxReferenceAttempts = 3
	defaultNotifyTimeout = 5 * time.Second
)

var (
	hundred      = decimal.NewFromInt(100)
	currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)
)

// Renderer turns quotation data into a PDF.
type Renderer interface {
	Render(d quotepdf.Data) ([]byte, error)
}

// Mailer delivers a composed message.
type Mailer interface {
	Send(ctx context.Context, cfg mailer.SMTPConfig, msg mailer.Message) (string, error)
}

// Notifier enqueues the admin alert for a new submission.
type Notifier interface {
	EnqueueAdminNotification(ctx context.Context, payload jobs.AdminNotificationPayload) (*asynq.TaskInfo, error)
}

// SettingsProvider exposes the company settings.
type SettingsProvider interface {
	Current(ctx context.Context) (settings.CompanySettings, error)
}

// Locker serialises generate and send on one quote.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// Deps collects Service collaborators. Notifier, Locker, Metrics and Logger
// are optional.
type Deps struct {
	Repo          Repository
	Settings      SettingsProvider
	Renderer      Renderer
	Templates     *mailer.Templates
	Mailer        Mailer
	Notifier      Notifier
	Locker        Locker
	Metrics       *observability.Metrics
	Logger        *slog.Logger
	PublicBaseURL string
	NotifyTimeout time.Duration
	Now           func() time.Time
}

// Service implements the quote request workflow.
type Service struct {
	repo          Repository
	settings      SettingsProvider
	renderer      Renderer
	templates     *mailer.Templates
	mailer        Mailer
	notifier      Notifier
	locker        Locker
	metrics       *observability.Metrics
	logger        *slog.Logger
	publicBaseURL string
	notifyTimeout time.Duration
	now           func() time.Time
	newReference  func(time.Time) string

	background sync.WaitGroup
}

// NewService constructs a Service.
func NewService(deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	notifyTimeout := deps.NotifyTimeout
	if notifyTimeout <= 0 {
		notifyTimeout = defaultNotifyTimeout
	}
	return &Service{
		repo:          deps.Repo,
		settings:      deps.Settings,
		renderer:      deps.Renderer,
		templates:     deps.Templates,
		mailer:        deps.Mailer,
		notifier:      deps.Notifier,
		locker:        deps.Locker,
		metrics:       deps.Metrics,
		logger:        logger,
		publicBaseURL: strings.TrimRight(deps.PublicBaseURL, "/"),
		notifyTimeout: notifyTimeout,
		now:           now,
		newReference:  NewReference,
	}
}

// Wait blocks until background notification dispatches have finished.
func (s *Service) Wait() {
	s.background.Wait()
}

// Submit stores a public quote request and dispatches the admin alert.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*SubmitResult, error) {
	req.normalize()
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	q := &QuoteRequest{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		Service:   req.Service,
		Location:  req.Location,
		Message:   req.Message,
		Status:    StatusNew,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var err error
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		q.ReferenceNo = s.newReference(now)
		if err = s.repo.Create(ctx, q); !errors.Is(err, errReferenceTaken) {
			break
		}
		s.logger.Warn("reference number collision", slog.String("reference_no", q.ReferenceNo))
	}
	if err != nil {
		return nil, fmt.Errorf("quotes: create quote request: %w", err)
	}

	s.metrics.QuoteSubmitted()
	s.logger.Info("quote request submitted", slog.String("quote_id", q.ID), slog.String("reference_no", q.ReferenceNo))
	s.notifyAdmin(*q)
	return &SubmitResult{ID: q.ID, ReferenceNo: q.ReferenceNo}, nil
}

// notifyAdmin enqueues off the request path. Failures are logged only.
func (s *Service) notifyAdmin(q QuoteRequest) {
	if s.notifier == nil {
		return
	}
	payload := notificationPayload(q)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if _, err := s.notifier.EnqueueAdminNotification(ctx, payload); err != nil {
			s.logger.Warn("enqueue admin notification", slog.String("reference_no", q.ReferenceNo), slog.Any("error", err))
		}
	}()
}

// Renotify enqueues the admin alert for an existing request again and waits
// for the broker to accept it.
func (s *Service) Renotify(ctx context.Context, id string) (*asynq.TaskInfo, error) {
	if s.notifier == nil {
		return nil, errors.New("quotes: notifier not configured")
	}
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	info, err := s.notifier.EnqueueAdminNotification(ctx, notificationPayload(*q))
	if err != nil {
		return nil, fmt.Errorf("quotes: enqueue admin notification: %w", err)
	}
	return info, nil
}

func notificationPayload(q QuoteRequest) jobs.AdminNotificationPayload {
	return jobs.AdminNotificationPayload{
		QuoteID:     q.ID,
		ReferenceNo: q.ReferenceNo,
		Name:        q.Name,
		Email:       q.Email,
		Phone:       q.Phone,
		Company:     q.Company,
		Service:     q.Service,
		Location:    q.Location,
		Message:     q.Message,
		SubmittedAt: q.CreatedAt,
	}
}

// Track returns the public projection for a reference and email pair.
func (s *Service) Track(ctx context.Context, req TrackRequest) (*Tracking, error) {
	ref := normalizeReference(req.ReferenceNo)
	email := normalizeEmail(req.Email)
	if ref == "" || email == "" {
		return nil, ErrTrackingFieldsRequired
	}
	q, err := s.repo.FindByReference(ctx, ref, email)
	if err != nil {
		if errors.Is(err, ErrQuoteNotFound) {
			return nil, ErrTrackingNoMatch
		}
		return nil, fmt.Errorf("quotes: track: %w", err)
	}
	tracking := q.Tracking()
	return &tracking, nil
}

// Get loads one quote request for operators.
func (s *Service) Get(ctx context.Context, id string) (*QuoteRequest, error) {
	if !validID(id) {
		return nil, ErrQuoteNotFound
	}
	return s.repo.Get(ctx, id)
}

// List returns a filtered page of quote requests.
func (s *Service) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, validationError("status must be one of: " + statusList())
	}
	filter.Search = strings.TrimSpace(filter.Search)
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("quotes: list: %w", err)
	}
	return &ListResult{Items: items, Pagination: shared.NewPagination(filter.Limit, filter.Offset, total)}, nil
}

// Update applies an operator patch. Writing adminResponse stamps respondedAt.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (*QuoteRequest, error) {
	if !validID(id) {
		return nil, ErrQuoteNotFound
	}
	if req.Status == nil && req.Notes == nil && req.AdminResponse == nil {
		return nil, ErrNothingToUpdate
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, validationError("status must be one of: " + statusList())
	}
	if err := httpx.Validate(req); err != nil {
		return nil, err
	}
	patch := Patch{Status: req.Status, Notes: req.Notes, AdminResponse: req.AdminResponse}
	if req.AdminResponse != nil {
		now := s.now().UTC()
		patch.RespondedAt = &now
	}
	return s.repo.Patch(ctx, id, patch)
}

// Delete removes a quote request.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return ErrQuoteNotFound
	}
	return s.repo.Delete(ctx, id)
}

type quotationInput struct {
	items    []pricing.LineItem
	taxRate  decimal.Decimal
	discount decimal.Decimal
	currency string
	terms    string
	notes    string
}

func (req GenerateRequest) resolve(cs settings.CompanySettings) (quotationInput, error) {
	if len(req.LineItems) == 0 {
		return quotationInput{}, ErrNoLineItems
	}
	items := pricing.Normalize(req.LineItems)
	for i := range items {
		items[i].Description = strings.TrimSpace(items[i].Description)
		items[i].Unit = strings.TrimSpace(items[i].Unit)
		switch {
		case items[i].Description == "":
			return quotationInput{}, &LineItemError{Index: i, Reason: "description is required"}
		case !items[i].Quantity.IsPositive():
			return quotationInput{}, &LineItemError{Index: i, Reason: "quantity must be greater than 0"}
		case !items[i].UnitPrice.IsPositive():
			return quotationInput{}, &LineItemError{Index: i, Reason: "unitPrice must be greater than 0"}
		}
	}

	taxRate := cs.DefaultTaxRate
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(hundred) {
		return quotationInput{}, validationError("taxRate must be between 0 and 100")
	}
	if !pricing.HasCents(taxRate) {
		return quotationInput{}, validationError("taxRate must have at most 2 decimal places")
	}
	if req.Discount.IsNegative() {
		return quotationInput{}, validationError("discount must not be negative")
	}
	if !pricing.HasCents(req.Discount) {
		return quotationInput{}, validationError("discount must have at most 2 decimal places")
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = cs.DefaultCurrency
	}
	if !currencyCode.MatchString(currency) {
		return quotationInput{}, validationError("currency must be a 3-letter code")
	}

	terms := strings.TrimSpace(req.TermsConditions)
	if terms == "" {
		terms = cs.DefaultTerms
	}
	return quotationInput{
		items:    items,
		taxRate:  taxRate,
		discount: req.Discount,
		currency: currency,
		terms:    terms,
		notes:    strings.TrimSpace(req.QuotationNotes),
	}, nil
}

// Generate prices, numbers, renders and persists a quotation. The number is
// allocated on the first call only; later calls re-price under the same number.
func (s *Service) Generate(ctx context.Context, id string, req GenerateRequest) (*GenerateResult, error) {
	if !validID(id) {
		return nil, ErrQuoteNotFound
	}
	cs, err := s.settings.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("quotes: load settings: %w", err)
	}
	in, err := req.resolve(cs)
	if err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	var result GenerateResult
	err = s.repo.WithQuotationTx(ctx, func(ctx context.Context, tx TxRepository) error {
		q, err := tx.LockQuote(ctx, id)
		if err != nil {
			return err
		}

		number := q.Number()
		if number == "" {
			number, err = numbering.NewAllocator(tx.NumberStore(), s.now).Next(ctx)
			if err != nil {
				return fmt.Errorf("quotes: allocate number: %w", err)
			}
		}

		issued := s.now().UTC()
		status := q.Status
		if status == StatusNew {
			status = StatusQuoted
		}
		update := QuotationUpdate{
			Number:     number,
			Date:       issued,
			ValidUntil: cs.ValidUntil(issued),
			LineItems:  in.items,
			Totals:     pricing.CalculateTotals(in.items, in.taxRate, in.discount),
			Currency:   in.currency,
			Terms:      in.terms,
			Notes:      in.notes,
			Status:     status,
		}
		q.apply(update)

		pdf, err := s.render(cs, *q)
		if err != nil {
			return err
		}
		if _, err := tx.SaveQuotation(ctx, id, update); err != nil {
			return fmt.Errorf("quotes: save quotation: %w", err)
		}
		result = GenerateResult{
			QuotationNumber: number,
			PDF:             pdf,
			Totals:          update.Totals,
			ValidUntil:      update.ValidUntil,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.QuotationGenerated()
	s.logger.Info("quotation generated",
		slog.String("quote_id", id),
		slog.String("quotation_number", result.QuotationNumber),
		slog.String("total", result.Totals.TotalAmount.StringFixed(2)),
	)
	return &result, nil
}

// Send emails the persisted quotation to the client with the PDF attached.
// Nothing is mutated unless the relay accepts the message.
func (s *Service) Send(ctx context.Context, id string) (*SendResult, error) {
	if !validID(id) {
		return nil, ErrQuoteNotFound
	}
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.HasQuotation() {
		return nil, ErrQuotationMissing
	}
	cs, err := s.settings.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("quotes: load settings: %w", err)
	}
	if missing := cs.MissingSMTP(); len(missing) > 0 {
		return nil, missingSMTPError{missing: missing}
	}

	pdf, err := s.render(cs, *q)
	if err != nil {
		return nil, err
	}
	msg, err := s.templates.Quotation(mailer.QuotationEmail{
		CompanyName:     cs.CompanyName,
		ClientName:      q.Name,
		QuotationNumber: q.Number(),
		Total:           quotepdf.FormatMoney(q.Currency, q.TotalAmount),
		ValidUntil:      formatDate(q.ValidUntil),
		DownloadURL:     s.downloadURL(q.ID),
		Phone:           cs.Phone,
		Email:           cs.Email,
		Website:         cs.Website,
	})
	if err != nil {
		return nil, fmt.Errorf("quotes: compose email: %w", err)
	}
	msg.To = q.Email
	msg.ToName = q.Name
	msg.Attachments = []mailer.Attachment{{
		Name:        q.Number() + ".pdf",
		ContentType: "application/pdf",
		Data:        pdf,
	}}

	messageID, err := s.mailer.Send(ctx, cs.SMTP(), msg)
	if err != nil {
		s.metrics.QuotationSent("failure")
		s.logger.Error("send quotation",
			slog.String("quote_id", id),
			slog.String("quotation_number", q.Number()),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%w: %v", ErrMailTransport, err)
	}
	s.metrics.QuotationSent("success")

	if _, err := s.repo.MarkSent(ctx, id, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("quotes: mark sent: %w", err)
	}
	return &SendResult{
		Message:   fmt.Sprintf("Quotation %s sent to %s", q.Number(), q.Email),
		MessageID: messageID,
	}, nil
}

// Download re-renders the persisted quotation.
func (s *Service) Download(ctx context.Context, id string) (*Document, error) {
	if !validID(id) {
		return nil, ErrQuoteNotFound
	}
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !q.HasQuotation() {
		return nil, ErrNoQuotation
	}
	cs, err := s.settings.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("quotes: load settings: %w", err)
	}
	pdf, err := s.render(cs, *q)
	if err != nil {
		return nil, err
	}
	return &Document{Filename: q.Number() + ".pdf", Data: pdf}, nil
}

// ContactEmail is shown on customer-facing error pages. Failures yield "".
func (s *Service) ContactEmail(ctx context.Context) string {
	cs, err := s.settings.Current(ctx)
	if err != nil {
		return ""
	}
	return cs.Email
}

func (s *Service) lock(ctx context.Context, id string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	release, err := s.locker.Acquire(ctx, shared.QuoteLockKey(id))
	if errors.Is(err, shared.ErrLockHeld) {
		return nil, ErrQuoteBusy
	}
	if err != nil {
		return nil, fmt.Errorf("quotes: lock: %w", err)
	}
	return release, nil
}

func (s *Service) render(cs settings.CompanySettings, q QuoteRequest) ([]byte, error) {
	started := time.Now()
	pdf, err := s.renderer.Render(documentData(cs, q))
	s.metrics.ObservePDFRender(time.Since(started))
	if err != nil {
		s.logger.Error("render quotation", slog.String("quote_id", q.ID), slog.Any("error", err))
		return nil, fmt.Errorf("quotes: render pdf: %w", err)
	}
	return pdf, nil
}

func (s *Service) downloadURL(id string) string {
	path := "/public/quotes/" + url.PathEscape(id) + "/download"
	return s.publicBaseURL + path
}

func documentData(cs settings.CompanySettings, q QuoteRequest) quotepdf.Data {
	d := quotepdf.Data{
		Company: quotepdf.Company{
			Name:    cs.CompanyName,
			Address: cs.Address,
			Phone:   cs.Phone,
			Email:   cs.Email,
			Website: cs.Website,
		},
		Client: quotepdf.Client{
			Name:    q.Name,
			Company: q.Company,
			Email:   q.Email,
			Phone:   q.Phone,
		},
		QuotationNumber: q.Number(),
		Project:         q.Service,
		Location:        q.Location,
		Currency:        q.Currency,
		Items:           q.LineItems,
		Totals:          q.Totals(),
		Terms:           q.TermsConditions,
		Notes:           q.QuotationNotes,
	}
	if q.QuotationDate != nil {
		d.QuotationDate = *q.QuotationDate
	}
	if q.ValidUntil != nil {
		d.ValidUntil = *q.ValidUntil
	}
	return d
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return quotepdf.FormatDate(*t)
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
