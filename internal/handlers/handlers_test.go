package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/internal/config"
	"github.com/diewo77/go-quotes/internal/db"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/money"
	"github.com/diewo77/go-quotes/internal/services"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type env struct {
	t   *testing.T
	db  *gorm.DB
	mux *http.ServeMux
}

// newEnv wires every handler on a mux, with users 1 and 2, client 1 and
// product 1 owned by user 1.
func newEnv(t *testing.T) *env {
	t.Helper()
	gdb, err := db.Open(config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	require.NoError(t, gdb.Create(&[]models.User{{ID: 1, Email: "one@example.com"}, {ID: 2, Email: "two@example.com"}}).Error)
	require.NoError(t, gdb.Create(&models.Client{ID: 1, UserID: 1, Name: "ACME"}).Error)
	require.NoError(t, gdb.Create(&models.Product{
		ID: 1, UserID: 1, Code: "AUDIT", Name: "Audit",
		UnitPrice: money.MustParse("120.00"), DefaultQuantity: decimal.NewFromInt(1),
	}).Error)

	svc := services.NewQuoteService(gdb, nil, config.QuoteDefaults{
		Currency: "EUR", Locale: "fr", VATRate: decimal.NewFromInt(20), ValidityDays: 30,
	})
	qh := NewQuoteHandler(svc)
	ch := NewClientHandler(gdb)
	ph := NewProductHandler(gdb)
	co := NewCompanyHandler(gdb, svc)
	dh := NewDashboardHandler(svc)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/quotes", qh.List)
	mux.HandleFunc("POST /api/quotes", qh.Create)
	mux.HandleFunc("GET /api/quotes/export.xlsx", qh.Export)
	mux.HandleFunc("GET /api/quotes/{id}", qh.Get)
	mux.HandleFunc("PUT /api/quotes/{id}", qh.Update)
	mux.HandleFunc("DELETE /api/quotes/{id}", qh.Delete)
	mux.HandleFunc("GET /api/quotes/{id}/totals", qh.Totals)
	mux.HandleFunc("GET /api/quotes/{id}/pdf", qh.PDF)
	mux.HandleFunc("POST /api/quotes/{id}/duplicate", qh.Duplicate)
	mux.HandleFunc("POST /api/quotes/{id}/items", qh.AddItem)
	mux.HandleFunc("PATCH /api/quotes/{id}/items/{index}", qh.UpdateItem)
	mux.HandleFunc("DELETE /api/quotes/{id}/items/{index}", qh.RemoveItem)
	mux.HandleFunc("POST /api/quotes/{id}/items/{index}/move", qh.MoveItem)
	mux.HandleFunc("PUT /api/quotes/{id}/financials", qh.SetFinancials)
	mux.HandleFunc("PUT /api/quotes/{id}/status", qh.SetStatus)
	mux.HandleFunc("GET /api/clients", ch.List)
	mux.HandleFunc("POST /api/clients", ch.Create)
	mux.HandleFunc("GET /api/clients/{id}", ch.Get)
	mux.HandleFunc("PUT /api/clients/{id}", ch.Update)
	mux.HandleFunc("DELETE /api/clients/{id}", ch.Delete)
	mux.HandleFunc("GET /api/products", ph.List)
	mux.HandleFunc("POST /api/products", ph.Create)
	mux.HandleFunc("GET /api/products/{id}", ph.Get)
	mux.HandleFunc("PUT /api/products/{id}", ph.Update)
	mux.HandleFunc("DELETE /api/products/{id}", ph.Delete)
	mux.HandleFunc("GET /api/company", co.Get)
	mux.HandleFunc("PUT /api/company", co.Update)
	mux.HandleFunc("GET /api/dashboard", dh.Get)
	mux.HandleFunc("GET /healthz", Health(gdb))
	return &env{t: t, db: gdb, mux: mux}
}

// do sends a request as uid in lang. Extra headers come in pairs.
func (e *env) do(uid uint, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	e.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, rd)
	ctx := i18n.WithLang(context.Background(), i18n.FR)
	if uid != 0 {
		ctx = auth.WithUserID(ctx, uid)
	}
	r = r.WithContext(ctx)
	for i := 0; i+1 < len(headers); i += 2 {
		r.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (e *env) createQuote() map[string]any {
	e.t.Helper()
	w := e.do(1, http.MethodPost, "/api/quotes", `{
		"title": "Site",
		"client_id": 1,
		"issue_date": "2026-03-15",
		"items": [
			{"title": "Design", "quantity": "2", "unit_price": "100.00"},
			{"product_id": 1}
		]
	}`)
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	return decode(e.t, w)
}
