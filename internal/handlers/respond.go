// Package handlers exposes the JSON API. Handlers parse and validate the
// request, call the models or services and map errors to status codes.
package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/internal/gate"
	"github.com/diewo77/go-quotes/internal/money"
	"github.com/diewo77/go-quotes/internal/quote"
	"github.com/diewo77/go-quotes/internal/services"
	"github.com/diewo77/go-quotes/validation"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// page is the paging envelope shared by every list endpoint.
type page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func paging(r *http.Request) (pg, limit int) {
	pg, _ = strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	if pg < 1 {
		pg = 1
	}
	if limit < 1 {
		limit = services.DefaultLimit
	}
	if limit > services.MaxLimit {
		limit = services.MaxLimit
	}
	return pg, limit
}

func pathUint(r *http.Request, name string) (uint, bool) {
	v, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

func pathIndex(r *http.Request) (int, bool) {
	v, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// ifMatch reads the expected version from If-Match; 0 when absent.
func ifMatch(r *http.Request) (int, bool) {
	h := r.Header.Get("If-Match")
	if h == "" {
		return 0, true
	}
	if len(h) >= 2 && h[0] == '"' && h[len(h)-1] == '"' {
		h = h[1 : len(h)-1]
	}
	v, err := strconv.Atoi(h)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}

func parseDate(field, s string, v validation.Violations) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		v.Add(field, "invalid_date")
		return time.Time{}
	}
	return t
}

func invalid(w http.ResponseWriter, r *http.Request, v validation.Violations) {
	httpx.JSONError(w, http.StatusUnprocessableEntity, "validation_failed", v.Translate(i18n.LangFrom(r.Context())))
}

func badJSON(w http.ResponseWriter) {
	httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
}

func notFound(w http.ResponseWriter) {
	httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
}

// fail maps a service or domain error to a response.
func fail(w http.ResponseWriter, r *http.Request, err error) {
	var fe *quote.FieldError
	switch {
	case errors.As(err, &fe):
		v := make(validation.Violations)
		v.Add(fe.Field, violationCode(fe))
		invalid(w, r, v)
	case errors.Is(err, gate.ErrUnauthorized):
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, services.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		notFound(w)
	case errors.Is(err, quote.ErrIndexOutOfRange):
		httpx.JSONError(w, http.StatusNotFound, "index_out_of_range", nil)
	case errors.Is(err, services.ErrConflict):
		httpx.JSONError(w, http.StatusConflict, "conflict", nil)
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// violationCode picks the catalog code for a field error.
func violationCode(fe *quote.FieldError) string {
	switch {
	case errors.Is(fe.Err, services.ErrUnknownReference):
		return "unknown_reference"
	case errors.Is(fe.Err, services.ErrDateOrder):
		return "date_order"
	case errors.Is(fe.Err, quote.ErrInvalidRate):
		return "invalid_rate"
	case errors.Is(fe.Err, quote.ErrInvalidDiscount):
		return "invalid_discount"
	case errors.Is(fe.Err, quote.ErrInvalidStatus):
		return "invalid_status"
	case errors.Is(fe.Err, money.ErrInvalidAmount):
		return "invalid_amount"
	}
	switch lastSegment(fe.Field) {
	case "title":
		return "required"
	case "quantity":
		return "invalid_quantity"
	case "unit_price", "discount":
		return "invalid_amount"
	}
	return "invalid"
}

func lastSegment(field string) string {
	for i := len(field) - 1; i >= 0; i-- {
		if field[i] == '.' {
			return field[i+1:]
		}
	}
	return field
}

func currentUID(r *http.Request) uint {
	uid, _ := auth.UserIDFromContext(r.Context())
	return uid
}
