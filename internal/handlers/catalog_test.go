package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/diewo77/go-quotes/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonID(m map[string]any) string { return fmt.Sprint(m["id"]) }

func TestClient_CRUD(t *testing.T) {
	e := newEnv(t)

	w := e.do(1, http.MethodPost, "/api/clients", `{"name": " Jeanne Martin ", "company": "Atelier", "email": "jeanne@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "Jeanne Martin", created["name"])
	path := "/api/clients/" + jsonID(created)

	w = e.do(1, http.MethodGet, "/api/clients?q=atel", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = e.do(1, http.MethodGet, "/api/clients?q=%25", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["total"], "percent sign matches literally")

	w = e.do(1, http.MethodPut, path, `{"name": "Jeanne M.", "city": "Lyon"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Lyon", decode(t, w)["city"])

	assert.Equal(t, http.StatusNotFound, e.do(2, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(2, http.MethodDelete, path, "").Code)

	w = e.do(2, http.MethodGet, "/api/clients", "")
	assert.EqualValues(t, 0, decode(t, w)["total"])

	assert.Equal(t, http.StatusNoContent, e.do(1, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(1, http.MethodGet, path, "").Code)
}

func TestClient_Validation(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"name required", `{"name": "  "}`, "name", "Requis"},
		{"email", `{"name": "x", "email": "nope"}`, "email", "Email invalide"},
		{"siret too long", `{"name": "x", "siret": "123456789012345"}`, "siret", "Trop long"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(1, http.MethodPost, "/api/clients", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
			assert.Equal(t, tt.msg, decode(t, w)["details"].(map[string]any)[tt.field])
		})
	}
}

func TestClient_DeleteInUse(t *testing.T) {
	e := newEnv(t)
	e.createQuote()

	w := e.do(1, http.MethodDelete, "/api/clients/1", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "client_in_use", decode(t, w)["error"])
}

func TestProduct_CRUD(t *testing.T) {
	e := newEnv(t)

	w := e.do(1, http.MethodPost, "/api/products", `{"code": "dev-day", "name": "Journée de développement", "unit_price": "650,00", "default_quantity": "0.5", "unit": "day"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	p := decode(t, w)
	assert.Equal(t, "DEV-DAY", p["code"])
	assert.Equal(t, "650.00", p["unit_price"])
	assert.Equal(t, true, p["is_active"])
	path := "/api/products/" + jsonID(p)

	w = e.do(1, http.MethodPost, "/api/products", `{"code": "DEV-DAY", "name": "Autre", "unit_price": "1"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Existe déjà", decode(t, w)["details"].(map[string]any)["code"])

	w = e.do(1, http.MethodPost, "/api/products", `{"code": "HOST", "name": "Hébergement", "unit_price": "12", "is_active": false}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, false, decode(t, w)["is_active"])

	w = e.do(1, http.MethodGet, "/api/products?active=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["total"], "AUDIT and DEV-DAY")

	w = e.do(1, http.MethodPut, path, `{"code": "DEV-DAY", "name": "Journée", "unit_price": "700"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "700.00", decode(t, w)["unit_price"])

	assert.Equal(t, http.StatusNotFound, e.do(2, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNoContent, e.do(1, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(1, http.MethodGet, path, "").Code)
}

func TestProduct_Validation(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name  string
		body  string
		field string
		msg   string
	}{
		{"code required", `{"name": "x", "unit_price": "1"}`, "code", "Requis"},
		{"negative price", `{"code": "X", "name": "x", "unit_price": "-1"}`, "unit_price", "Montant invalide"},
		{"quantity", `{"code": "X", "name": "x", "unit_price": "1", "default_quantity": "deux"}`, "default_quantity", "Quantité invalide"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(1, http.MethodPost, "/api/products", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
			assert.Equal(t, tt.msg, decode(t, w)["details"].(map[string]any)[tt.field])
		})
	}
}

func TestCompany_GetAndUpdate(t *testing.T) {
	e := newEnv(t)

	w := e.do(1, http.MethodGet, "/api/company", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "EUR", body["currency"])
	assert.Equal(t, "20", body["default_vat_rate"])

	w = e.do(1, http.MethodPut, "/api/company", `{"name": "Studio", "siret": "12345678900012", "default_vat_rate": "5,5", "quote_validity_days": 15, "locale": "en"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stored models.CompanySettings
	require.NoError(t, e.db.Where("user_id = ?", 1).First(&stored).Error)
	assert.Equal(t, "Studio", stored.Name)
	assert.Equal(t, "5.5", stored.DefaultVATRate.String())
	assert.Equal(t, 15, stored.QuoteValidityDays)
	assert.Equal(t, "en", stored.Locale)

	w = e.do(1, http.MethodPost, "/api/quotes", `{"client_id": 1, "issue_date": "2026-03-01"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	q := decode(t, w)
	assert.Equal(t, "5.5", q["vat_rate"])
	assert.Contains(t, q["valid_until"], "2026-03-16")
}

func TestCompany_Validation(t *testing.T) {
	e := newEnv(t)
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"name", `{}`, "name"},
		{"siret", `{"name": "S", "siret": "123"}`, "siret"},
		{"rate", `{"name": "S", "default_vat_rate": "101"}`, "default_vat_rate"},
		{"locale", `{"name": "S", "locale": "de"}`, "locale"},
		{"validity", `{"name": "S", "quote_validity_days": 400}`, "quote_validity_days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(1, http.MethodPut, "/api/company", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
			assert.Contains(t, decode(t, w)["details"], tt.field)
		})
	}
}

func TestDashboard(t *testing.T) {
	e := newEnv(t)
	q := e.createQuote()
	require.Equal(t, http.StatusOK, e.do(1, http.MethodPut, quotePath(q, "/status"), `{"status": "accepted"}`).Code)

	w := e.do(1, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.EqualValues(t, 1, body["clients"])
	assert.EqualValues(t, 1, body["quotes"])
	assert.Equal(t, "384.00", body["revenue"])
	assert.Equal(t, "384,00\u00a0€", body["revenue_formatted"])
	assert.Equal(t, "EUR", body["currency"])

	assert.Equal(t, http.StatusUnauthorized, e.do(0, http.MethodGet, "/api/dashboard", "").Code)
}

func TestHealth(t *testing.T) {
	e := newEnv(t)
	w := e.do(0, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}
