package quotes

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk/internal/mailer"
	"github.com/quotedesk/quotedesk/internal/numbering"
	"github.com/quotedesk/quotedesk/internal/pricing"
	"github.com/quotedesk/quotedesk/internal/quotepdf"
	"github.com/quotedesk/quotedesk/internal/settings"
	"github.com/quotedesk/quotedesk/jobs"
)

type memCounter struct {
	mu     sync.Mutex
	prefix string
	value  int64
}

func (c *memCounter) Increment(context.Context) (string, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value++
	return c.prefix, c.value, nil
}

func (c *memCounter) current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

type memRepo struct {
	mu         sync.Mutex
	quotes     map[string]*QuoteRequest
	rowLocks   map[string]*sync.Mutex
	counter    *memCounter
	createErrs []error
	creates    int
}

func newMemRepo() *memRepo {
	return &memRepo{
		quotes:   make(map[string]*QuoteRequest),
		rowLocks: make(map[string]*sync.Mutex),
		counter:  &memCounter{prefix: "QT"},
	}
}

func clone(q *QuoteRequest) *QuoteRequest {
	c := *q
	c.LineItems = append([]pricing.LineItem(nil), q.LineItems...)
	return &c
}

func (r *memRepo) put(q *QuoteRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotes[q.ID] = clone(q)
}

func (r *memRepo) snapshot(id string) *QuoteRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok {
		return nil
	}
	return clone(q)
}

func (r *memRepo) Create(_ context.Context, q *QuoteRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if len(r.createErrs) > 0 {
		err := r.createErrs[0]
		r.createErrs = r.createErrs[1:]
		return err
	}
	for _, existing := range r.quotes {
		if existing.ReferenceNo == q.ReferenceNo {
			return errReferenceTaken
		}
	}
	r.quotes[q.ID] = clone(q)
	return nil
}

func (r *memRepo) Get(_ context.Context, id string) (*QuoteRequest, error) {
	if q := r.snapshot(id); q != nil {
		return q, nil
	}
	return nil, ErrQuoteNotFound
}

func (r *memRepo) FindByReference(_ context.Context, referenceNo, email string) (*QuoteRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.quotes {
		if q.ReferenceNo == referenceNo && q.Email == email {
			return clone(q), nil
		}
	}
	return nil, ErrQuoteNotFound
}

func (r *memRepo) List(_ context.Context, filter ListFilter) ([]QuoteRequest, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []QuoteRequest
	for _, q := range r.quotes {
		if filter.Status != "" && q.Status != filter.Status {
			continue
		}
		out = append(out, *clone(q))
	}
	return out, len(out), nil
}

func (r *memRepo) Patch(_ context.Context, id string, p Patch) (*QuoteRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok {
		return nil, ErrQuoteNotFound
	}
	if p.Status != nil {
		q.Status = *p.Status
	}
	if p.Notes != nil {
		q.Notes = *p.Notes
	}
	if p.AdminResponse != nil {
		q.AdminResponse = *p.AdminResponse
	}
	if p.RespondedAt != nil {
		q.RespondedAt = p.RespondedAt
	}
	return clone(q), nil
}

func (r *memRepo) MarkSent(_ context.Context, id string, at time.Time) (*QuoteRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.quotes[id]
	if !ok {
		return nil, ErrQuoteNotFound
	}
	q.PDFSentAt = &at
	if q.Status == StatusQuoted {
		q.Status = StatusSent
	}
	return clone(q), nil
}

func (r *memRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.quotes[id]; !ok {
		return ErrQuoteNotFound
	}
	delete(r.quotes, id)
	return nil
}

func (r *memRepo) rowLock(id string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rowLocks[id]
	if !ok {
		l = &sync.Mutex{}
		r.rowLocks[id] = l
	}
	return l
}

func (r *memRepo) WithQuotationTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &memTx{repo: r}
	defer tx.unlock()
	return fn(ctx, tx)
}

type memTx struct {
	repo   *memRepo
	locked []*sync.Mutex
}

func (t *memTx) unlock() {
	for _, l := range t.locked {
		l.Unlock()
	}
}

func (t *memTx) LockQuote(ctx context.Context, id string) (*QuoteRequest, error) {
	l := t.repo.rowLock(id)
	l.Lock()
	t.locked = append(t.locked, l)
	return t.repo.Get(ctx, id)
}

func (t *memTx) NumberStore() numbering.Store {
	return t.repo.counter
}

func (t *memTx) SaveQuotation(_ context.Context, id string, u QuotationUpdate) (*QuoteRequest, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	q, ok := t.repo.quotes[id]
	if !ok {
		return nil, ErrQuoteNotFound
	}
	q.apply(u)
	return clone(q), nil
}

type stubSettings struct {
	current settings.CompanySettings
}

func (s *stubSettings) Current(context.Context) (settings.CompanySettings, error) {
	return s.current, nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, _ mailer.SMTPConfig, msg mailer.Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	m.sent = append(m.sent, msg)
	return "0d6c@acme.example", nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	payloads []jobs.AdminNotificationPayload
	err      error
}

func (n *recordingNotifier) EnqueueAdminNotification(_ context.Context, p jobs.AdminNotificationPayload) (*asynq.TaskInfo, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.payloads = append(n.payloads, p)
	if n.err != nil {
		return nil, n.err
	}
	return &asynq.TaskInfo{ID: "task-1"}, nil
}

type failingRenderer struct{}

func (failingRenderer) Render(quotepdf.Data) ([]byte, error) {
	return nil, errors.New("font table corrupt")
}

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func companySettings() settings.CompanySettings {
	return settings.CompanySettings{
		CompanyName:           "Acme Builders",
		Address:               "Plot 12, Great East Road, Lusaka",
		Phone:                 "+260 977 000000",
		Email:                 "hello@acme.example",
		Website:               "https://acme.example/",
		QuotationPrefix:       "QT",
		DefaultCurrency:       "ZMW",
		DefaultTaxRate:        decimal.NewFromInt(16),
		DefaultTerms:          "Payment due within 14 days.",
		QuotationValidityDays: 30,
		SMTPHost:              "smtp.acme.example",
		SMTPPort:              587,
		SMTPUser:              "mailer",
		SMTPPassword:          "secret",
		SMTPFrom:              "quotes@acme.example",
	}
}
