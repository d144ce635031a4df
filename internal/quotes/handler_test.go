package quotes

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotedesk/quotedesk/internal/shared"
	"github.com/quotedesk/quotedesk/internal/view"
)

type harness struct {
	*fixture
	router http.Handler
	cookie *http.Cookie
	token  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	f := newFixture(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "qd_session", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	engine, err := view.NewEngine()
	require.NoError(t, err)
	handler := NewHandler(nil, f.svc, engine, csrf)

	r := chi.NewRouter()
	r.Use(sessions.Middleware(nil))
	r.Post("/test/login", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		sess.BindOperator("1")
		token, _ := csrf.EnsureToken(r.Context(), sess)
		_, _ = w.Write([]byte(token))
	})
	r.Route("/quotes", handler.MountRoutes)
	r.Route("/public", handler.MountPublic)

	h := &harness{fixture: f, router: r}
	res := h.do(http.MethodPost, "/test/login", "", false)
	require.Equal(t, http.StatusOK, res.Code)
	h.token = res.Body.String()
	for _, c := range res.Result().Cookies() {
		if c.Name == "qd_session" {
			h.cookie = c
		}
	}
	require.NotNil(t, h.cookie)
	return h
}

func (h *harness) do(method, path, body string, operator bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if operator {
		req.AddCookie(h.cookie)
		req.Header.Set(shared.CSRFHeader, h.token)
	}
	res := httptest.NewRecorder()
	h.router.ServeHTTP(res, req)
	return res
}

func problemDetail(t *testing.T, res *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &body))
	return body.Detail
}

func TestSubmitEndpoint(t *testing.T) {
	h := newHarness(t)

	res := h.do(http.MethodPost, "/quotes", `{"name":"Jane","email":"jane@example.com","message":"short"}`, false)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "message must be at least 10 characters", problemDetail(t, res))

	res = h.do(http.MethodPost, "/quotes", `{"name":"Jane","email":"jane@example.com","message":"Please quote for fencing."}`, false)
	require.Equal(t, http.StatusCreated, res.Code, res.Body.String())
	var created SubmitResult
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &created))
	assert.True(t, ValidReference(created.ReferenceNo))

	res = h.do(http.MethodPost, "/quotes/track", `{"referenceNo":"`+created.ReferenceNo+`","email":"JANE@example.com"}`, false)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"status":"new"`)
	assert.NotContains(t, res.Body.String(), "notes")

	res = h.do(http.MethodPost, "/quotes/track", `{"referenceNo":"`+created.ReferenceNo+`","email":"other@example.com"}`, false)
	require.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, ErrTrackingNoMatch.Error(), problemDetail(t, res))
	h.svc.Wait()
}

func TestOperatorRoutesRequireSession(t *testing.T) {
	h := newHarness(t)
	q := h.seed(t)

	for _, path := range []string{"/quotes", "/quotes/" + q.ID, "/quotes/" + q.ID + "/download"} {
		res := h.do(http.MethodGet, path, "", false)
		assert.Equal(t, http.StatusUnauthorized, res.Code, path)
	}
	res := h.do(http.MethodPost, "/quotes/"+q.ID+"/send", "", false)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	req := httptest.NewRequest(http.MethodPost, "/quotes/"+q.ID+"/send", nil)
	req.AddCookie(h.cookie)
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGenerateSendDownloadEndpoints(t *testing.T) {
	h := newHarness(t)
	q := h.seed(t)

	res := h.do(http.MethodPost, "/quotes/"+q.ID+"/send", "", true)
	require.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Equal(t, ErrQuotationMissing.Error(), problemDetail(t, res))

	res = h.do(http.MethodGet, "/quotes/"+q.ID+"/download", "", true)
	assert.Equal(t, http.StatusBadRequest, res.Code)

	body := `{"lineItems":[{"description":"Solar Pump 2kW","quantity":2,"unit":"unit","unitPrice":"1500.00","total":1}],"taxRate":16,"discount":0,"currency":"ZMW"}`
	res = h.do(http.MethodPost, "/quotes/"+q.ID+"/quotation", body, true)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	var gen struct {
		QuotationNumber string `json:"quotationNumber"`
		PDF             string `json:"pdf"`
		Totals          struct {
			TotalAmount string `json:"totalAmount"`
		} `json:"totals"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &gen))
	assert.Equal(t, "QT-2026-0001", gen.QuotationNumber)
	assert.Equal(t, "3480", gen.Totals.TotalAmount)
	pdf, err := base64.StdEncoding.DecodeString(gen.PDF)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))

	res = h.do(http.MethodGet, "/quotes/"+q.ID+"/download", "", true)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "application/pdf", res.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="QT-2026-0001.pdf"`, res.Header().Get("Content-Disposition"))

	res = h.do(http.MethodPost, "/quotes/"+q.ID+"/send", "", true)
	require.Equal(t, http.StatusOK, res.Code, res.Body.String())
	assert.Contains(t, res.Body.String(), `"messageId":"0d6c@acme.example"`)

	res = h.do(http.MethodPatch, "/quotes/"+q.ID, `{"status":"in-progress","adminResponse":"Scheduled for Monday."}`, true)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Contains(t, res.Body.String(), `"status":"in-progress"`)

	res = h.do(http.MethodPatch, "/quotes/"+q.ID, `{"status":"archived"}`, true)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestPublicDownload(t *testing.T) {
	h := newHarness(t)

	res := h.do(http.MethodGet, "/public/quotes/"+uuid.NewString()+"/download", "", false)
	require.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "text/html; charset=utf-8", res.Header().Get("Content-Type"))
	assert.Contains(t, res.Body.String(), "Quotation not found")
	assert.Contains(t, res.Body.String(), "mailto:hello@acme.example")

	q := h.seed(t)
	res = h.do(http.MethodGet, "/public/quotes/"+q.ID+"/download", "", false)
	require.Equal(t, http.StatusBadRequest, res.Code)
	assert.Contains(t, res.Body.String(), "Quotation not ready")

	_, err := h.svc.Generate(context.Background(), q.ID, scenarioRequest())
	require.NoError(t, err)
	res = h.do(http.MethodGet, "/public/quotes/"+q.ID+"/download", "", false)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "application/pdf", res.Header().Get("Content-Type"))
}
