package auth

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/shared"
)

const (
	sessionEmailKey = "operator_email"
	sessionNameKey  = "operator_name"
)

// Handler wires HTTP endpoints for operator authentication.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	loginLimit     int
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		loginLimit:     10,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.With(httprate.LimitByIP(h.loginLimit, time.Minute)).Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/session", h.handleSession)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	Authenticated bool   `json:"authenticated"`
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	CSRFToken     string `json:"csrfToken,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "request body must be valid JSON")
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := httpx.Validate(req); err != nil {
		httpx.RespondError(w, err)
		return
	}

	op, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Warn("operator login failed", slog.String("email", req.Email))
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.BindOperator(strconv.FormatInt(op.ID, 10))
	sess.Set(sessionEmailKey, op.Email)
	sess.Set(sessionNameKey, op.Name)
	token, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("issue csrf token", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	h.logger.Info("operator logged in", slog.Int64("operator_id", op.ID))
	httpx.JSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		Email:         op.Email,
		Name:          op.Name,
		CSRFToken:     token,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess.Operator() == "" {
		httpx.JSON(w, http.StatusOK, sessionResponse{Authenticated: false})
		return
	}
	token, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, sessionResponse{
		Authenticated: true,
		Email:         sess.Get(sessionEmailKey),
		Name:          sess.Get(sessionNameKey),
		CSRFToken:     token,
	})
}
