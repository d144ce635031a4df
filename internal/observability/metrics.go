package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application. All methods are
// safe on a nil receiver so tests can skip instrumentation.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	quoteRequests prometheus.Counter
	generated     prometheus.Counter
	sent          *prometheus.CounterVec
	pdfRender     prometheus.Histogram
}

// NewMetrics initialises the registry with HTTP and quotation metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotedesk_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "quotedesk_http_request_duration_seconds",
		Help:    "HTTP request latency by route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	quoteRequests := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotedesk_quote_requests_total",
		Help: "Quote requests submitted through the public form.",
	})
	generated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "quotedesk_quotations_generated_total",
		Help: "Quotations generated or regenerated by operators.",
	})
	sent := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quotedesk_quotations_sent_total",
		Help: "Quotation emails attempted, by result.",
	}, []string{"result"})
	pdfRender := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "quotedesk_pdf_render_seconds",
		Help:    "Time spent rendering quotation PDFs.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	})
	registry.MustRegister(requests, duration, quoteRequests, generated, sent, pdfRender)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		quoteRequests:   quoteRequests,
		generated:       generated,
		sent:            sent,
		pdfRender:       pdfRender,
	}
}

// Handler returns the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for additional collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// QuoteSubmitted counts a new public quote request.
func (m *Metrics) QuoteSubmitted() {
	if m == nil {
		return
	}
	m.quoteRequests.Inc()
}

// QuotationGenerated counts a successful generate.
func (m *Metrics) QuotationGenerated() {
	if m == nil {
		return
	}
	m.generated.Inc()
}

// QuotationSent counts a send attempt; result is "success" or "failure".
func (m *Metrics) QuotationSent(result string) {
	if m == nil {
		return
	}
	m.sent.WithLabelValues(result).Inc()
}

// ObservePDFRender records one render duration.
func (m *Metrics) ObservePDFRender(d time.Duration) {
	if m == nil {
		return
	}
	m.pdfRender.Observe(d.Seconds())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
