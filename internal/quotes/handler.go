package quotes

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/quotedesk/quotedesk/internal/auth"
	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/shared"
	"github.com/quotedesk/quotedesk/internal/view"
)

const (
	submitLimitPerMinute = 5
	trackLimitPerMinute  = 20
)

// Handler exposes the quote workflow over HTTP.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountRoutes registers /quotes routes: two public endpoints and the operator API.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(httprate.LimitByIP(submitLimitPerMinute, time.Minute)).Post("/", h.submit)
	r.With(httprate.LimitByIP(trackLimitPerMinute, time.Minute)).Post("/track", h.track)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireOperator, auth.VerifyCSRF(h.csrf, h.logger))
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
		r.Patch("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Post("/{id}/quotation", h.generate)
		r.Post("/{id}/send", h.send)
		r.Get("/{id}/download", h.download)
	})
}

// MountPublic registers the client-facing download under /public.
func (h *Handler) MountPublic(r chi.Router) {
	r.Get("/quotes/{id}/download", h.publicDownload)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.service.Submit(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, res)
}

func (h *Handler) track(w http.ResponseWriter, r *http.Request) {
	var req TrackRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.service.Track(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, offset := shared.PageParams(r)
	res, err := h.service.List(r.Context(), ListFilter{
		Status: Status(r.URL.Query().Get("status")),
		Search: r.URL.Query().Get("q"),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if !h.decode(w, r, &req) {
		return
	}
	q, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.service.Generate(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Send(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, res)
}

func (h *Handler) download(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Download(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writePDF(w, doc)
}

func (h *Handler) publicDownload(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Download(r.Context(), chi.URLParam(r, "id"))
	if err == nil {
		writePDF(w, doc)
		return
	}

	status := httpx.StatusFor(err)
	page := view.ErrorPage{Status: status, Contact: h.service.ContactEmail(r.Context())}
	switch status {
	case http.StatusNotFound:
		page.Heading = "Quotation not found"
		page.Message = "We could not find this quotation. Please check the link in your email."
	case http.StatusBadRequest:
		page.Heading = "Quotation not ready"
		page.Message = "This quotation has not been prepared yet. Please try again later."
	default:
		status = http.StatusInternalServerError
		page.Status = status
		page.Heading = "Something went wrong"
		page.Message = "We could not prepare your quotation right now. Please try again in a few minutes."
		h.logger.Error("public download", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	if err := h.templates.Render(w, status, "pages/download_error.html", view.TemplateData{Title: page.Heading, Data: page}); err != nil {
		h.logger.Error("render download error page", slog.Any("error", err))
		http.Error(w, http.StatusText(status), status)
	}
}

func writePDF(w http.ResponseWriter, doc *Document) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Data)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	if err := httpx.DecodeJSON(r, target); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "request body must be valid JSON")
		return false
	}
	return true
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if status := httpx.StatusFor(err); status >= http.StatusInternalServerError {
		h.logger.Error("quote request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Any("error", err),
		)
	} else if errors.Is(err, ErrQuoteBusy) {
		h.logger.Info("quote busy", slog.String("path", r.URL.Path))
	}
	httpx.RespondError(w, err)
}
