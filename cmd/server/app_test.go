package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/internal/config"
	"github.com/diewo77/go-quotes/internal/db"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/policy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Users seeded by newTestApp.
const (
	salesUser   uint = 1
	viewerUser  uint = 2
	adminUser   uint = 3
	noProfileID uint = 4
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	gdb, err := db.Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()),
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, db.Seed(gdb))

	profileID := func(name string) *uint {
		var p models.Profile
		require.NoError(t, gdb.Where("name = ?", name).First(&p).Error)
		return &p.ID
	}
	require.NoError(t, gdb.Create(&[]models.User{
		{ID: salesUser, Email: "sales@example.com", ProfileID: profileID(db.ProfileSales)},
		{ID: viewerUser, Email: "viewer@example.com", ProfileID: profileID(db.ProfileViewer)},
		{ID: adminUser, Email: "admin@example.com", ProfileID: profileID(db.ProfileAdmin)},
		{ID: noProfileID, Email: "nobody@example.com"},
	}).Error)

	cfg := &config.Config{
		App:   config.AppConfig{AuthCacheTTL: 60},
		Quote: config.QuoteDefaults{Currency: "EUR", Locale: "fr", VATRate: decimal.NewFromInt(20), ValidityDays: 30},
	}
	return NewApp(gdb, policy.NewRouterConfig(gdb, cfg), zerolog.Nop(), prometheus.NewRegistry())
}

func call(app *App, uid uint, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, rd)
	if uid != 0 {
		r.Header.Set("Authorization", "Bearer "+auth.Token(uid))
	}
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	app.ServeHTTP(w, r)
	return w
}

func body(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestApp_Permissions(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		uid    uint
		method string
		path   string
		body   string
		want   int
	}{
		{"health is public", 0, http.MethodGet, "/healthz", "", http.StatusOK},
		{"anonymous", 0, http.MethodGet, "/api/quotes", "", http.StatusUnauthorized},
		{"no profile", noProfileID, http.MethodGet, "/api/quotes", "", http.StatusForbidden},
		{"viewer lists", viewerUser, http.MethodGet, "/api/quotes", "", http.StatusOK},
		{"viewer cannot create", viewerUser, http.MethodPost, "/api/quotes", `{"client_id": 1}`, http.StatusForbidden},
		{"viewer cannot edit catalog", viewerUser, http.MethodPost, "/api/products", `{}`, http.StatusForbidden},
		{"sales reads company", salesUser, http.MethodGet, "/api/company", "", http.StatusOK},
		{"sales cannot edit company", salesUser, http.MethodPut, "/api/company", `{}`, http.StatusForbidden},
		{"sales is not admin", salesUser, http.MethodGet, "/api/admin/profiles", "", http.StatusForbidden},
		{"admin", adminUser, http.MethodGet, "/api/admin/profiles", "", http.StatusOK},
		{"unknown route", salesUser, http.MethodGet, "/api/invoices", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := call(app, tt.uid, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestApp_ForgedToken(t *testing.T) {
	app := newTestApp(t)
	w := call(app, 0, http.MethodGet, "/api/quotes", "", "Authorization", "Bearer 1.forged")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestApp_QuoteOwnership(t *testing.T) {
	app := newTestApp(t)

	w := call(app, salesUser, http.MethodPost, "/api/clients", `{"name": "ACME"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	clientID := body(t, w)["id"]

	w = call(app, salesUser, http.MethodPost, "/api/quotes",
		fmt.Sprintf(`{"client_id": %v, "items": [{"title": "Audit", "quantity": "1", "unit_price": "500"}]}`, clientID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	path := w.Header().Get("Location")

	assert.Equal(t, http.StatusOK, call(app, salesUser, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, call(app, viewerUser, http.MethodGet, path, "").Code)

	w = call(app, adminUser, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code, "admins read any quote by id")
	assert.Equal(t, "600.00", body(t, w)["totals"].(map[string]any)["grand_total"])

	w = call(app, adminUser, http.MethodGet, "/api/quotes", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, body(t, w)["total"], "lists stay scoped to the caller")
}

func TestApp_Language(t *testing.T) {
	app := newTestApp(t)

	w := call(app, salesUser, http.MethodPost, "/api/quotes", `{}`, "Accept-Language", "en-GB,en;q=0.8")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Required", body(t, w)["details"].(map[string]any)["client_id"])

	w = call(app, salesUser, http.MethodPost, "/api/quotes?lang=fr", `{}`, "Accept-Language", "en")
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Requis", body(t, w)["details"].(map[string]any)["client_id"])
	assert.Contains(t, w.Header().Get("Set-Cookie"), "lang=fr")
}

func TestApp_Metrics(t *testing.T) {
	app := newTestApp(t)
	call(app, viewerUser, http.MethodGet, "/api/quotes", "")

	w := call(app, 0, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `quotes_http_requests_total{method="GET",route="GET /api/quotes",status="200"} 1`)
}
