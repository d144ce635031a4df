package settings

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
)

// Handler exposes the operator settings endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers settings routes. Callers wrap r with operator auth.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.show)
	r.Put("/", h.update)
}

type settingsView struct {
	CompanyName           string          `json:"companyName"`
	Address               string          `json:"address"`
	Phone                 string          `json:"phone"`
	Email                 string          `json:"email"`
	Website               string          `json:"website"`
	QuotationPrefix       string          `json:"quotationPrefix"`
	QuotationCounter      int64           `json:"quotationCounter"`
	DefaultCurrency       string          `json:"defaultCurrency"`
	DefaultTaxRate        decimal.Decimal `json:"defaultTaxRate"`
	DefaultTerms          string          `json:"defaultTerms"`
	QuotationValidityDays int             `json:"quotationValidityDays"`
	SMTPHost              string          `json:"smtpHost"`
	SMTPPort              int             `json:"smtpPort"`
	SMTPUser              string          `json:"smtpUser"`
	SMTPPasswordSet       bool            `json:"smtpPasswordSet"`
	SMTPFrom              string          `json:"smtpFrom"`
	SMTPFromName          string          `json:"smtpFromName"`
	AdminNotifyEmail      string          `json:"adminNotifyEmail"`
	UpdatedAt             time.Time       `json:"updatedAt"`
}

func toView(s CompanySettings) settingsView {
	return settingsView{
		CompanyName:           s.CompanyName,
		Address:               s.Address,
		Phone:                 s.Phone,
		Email:                 s.Email,
		Website:               s.Website,
		QuotationPrefix:       s.QuotationPrefix,
		QuotationCounter:      s.QuotationCounter,
		DefaultCurrency:       s.DefaultCurrency,
		DefaultTaxRate:        s.DefaultTaxRate,
		DefaultTerms:          s.DefaultTerms,
		QuotationValidityDays: s.QuotationValidityDays,
		SMTPHost:              s.SMTPHost,
		SMTPPort:              s.SMTPPort,
		SMTPUser:              s.SMTPUser,
		SMTPPasswordSet:       s.SMTPPassword != "",
		SMTPFrom:              s.SMTPFrom,
		SMTPFromName:          s.SMTPFromName,
		AdminNotifyEmail:      s.AdminNotifyEmail,
		UpdatedAt:             s.UpdatedAt,
	}
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Fresh(r.Context())
	if err != nil {
		h.logger.Error("load settings", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(s))
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in UpdateInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "request body must be valid JSON")
		return
	}
	s, err := h.service.Update(r.Context(), in)
	if err != nil {
		if httpx.StatusFor(err) >= http.StatusInternalServerError {
			h.logger.Error("update settings", slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(s))
}
