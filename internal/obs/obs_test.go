package obs

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "json", "warn")
	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)

	buf.Reset()
	newLogger(&buf, "json", "bogus").Info().Msg("fallback")
	assert.Contains(t, buf.String(), "fallback", "unknown level falls back to info")
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics("test", reg)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/quotes/{id}", func(w http.ResponseWriter, r *http.Request) {
		SetUserID(r.Context(), 7)
		zerolog.Ctx(r.Context()).Info().Msg("inside")
		w.WriteHeader(http.StatusTeapot)
	})
	h := RequestLogger{Logger: newLogger(&buf, "json", "info"), Metrics: metrics}.Middleware(mux)

	req := httptest.NewRequest(http.MethodGet, "/api/quotes/12", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"request_id":"abc-123"`, "handler logger carries the request id")

	var access map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &access))
	assert.Equal(t, "http_request", access["message"])
	assert.Equal(t, "GET /api/quotes/{id}", access["route"])
	assert.Equal(t, float64(418), access["status"])
	assert.Equal(t, float64(7), access["user_id"])

	total := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "GET /api/quotes/{id}", "418"))
	assert.Equal(t, float64(1), total)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.InFlight))
}

func TestRequestLogger_GeneratesRequestID(t *testing.T) {
	h := RequestLogger{Logger: zerolog.Nop()}.Middleware(http.NotFoundHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
}

func TestDomainMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegisterDomainMetrics(reg)

	before := testutil.ToFloat64(QuotesSavedTotal.WithLabelValues("create"))
	QuoteSaved("create")
	assert.Equal(t, before+1, testutil.ToFloat64(QuotesSavedTotal.WithLabelValues("create")))

	okBefore := testutil.ToFloat64(QuotePDFRenderedTotal.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(QuotePDFRenderedTotal.WithLabelValues("error"))
	PDFRendered(nil)
	PDFRendered(errors.New("boom"))
	assert.Equal(t, okBefore+1, testutil.ToFloat64(QuotePDFRenderedTotal.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(QuotePDFRenderedTotal.WithLabelValues("error")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "quotes_saved_total")
}
