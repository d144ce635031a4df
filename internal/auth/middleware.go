package auth

import (
	"log/slog"
	"net/http"

	"github.com/quotedesk/quotedesk/internal/platform/httpx"
	"github.com/quotedesk/quotedesk/internal/shared"
)

// RequireOperator rejects requests whose session has no bound operator.
func RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.SessionFromContext(r.Context()).Operator() == "" {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "operator session required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// VerifyCSRF checks the X-CSRF-Token header on state-changing requests.
func VerifyCSRF(csrf *shared.CSRFManager, logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}
			sess := shared.SessionFromContext(r.Context())
			if err := csrf.VerifyToken(r.Context(), sess, r.Header.Get(shared.CSRFHeader)); err != nil {
				logger.Warn("csrf validation failed", slog.String("path", r.URL.Path), slog.Any("error", err))
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing or invalid CSRF token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
