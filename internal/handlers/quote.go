package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/diewo77/go-quotes/httpx"
	"github.com/diewo77/go-quotes/i18n"
	"github.com/diewo77/go-quotes/internal/export"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/money"
	"github.com/diewo77/go-quotes/internal/pdf"
	"github.com/diewo77/go-quotes/internal/quote"
	"github.com/diewo77/go-quotes/internal/services"
	"github.com/diewo77/go-quotes/validation"
	"github.com/shopspring/decimal"
)

type QuoteHandler struct {
	svc *services.QuoteService
}

func NewQuoteHandler(svc *services.QuoteService) *QuoteHandler {
	return &QuoteHandler{svc: svc}
}

// Request bodies. Amounts, quantities and rates travel as strings so they
// stay exact; "12,50" is accepted too.

type metaReq struct {
	Title      string `json:"title" validate:"max=255"`
	ClientID   uint   `json:"client_id" validate:"required"`
	IssueDate  string `json:"issue_date" validate:"omitempty,datetime=2006-01-02"`
	ValidUntil string `json:"valid_until" validate:"omitempty,datetime=2006-01-02"`
	Currency   string `json:"currency" validate:"omitempty,len=3,alpha"`
	Terms      string `json:"terms"`
	Notes      string `json:"notes"`
}

type itemReq struct {
	ProductID *uint   `json:"product_id"`
	Title     string  `json:"title" validate:"max=255"`
	Subtitle  string  `json:"subtitle" validate:"max=500"`
	Quantity  *string `json:"quantity"`
	UnitPrice *string `json:"unit_price"`
}

type createReq struct {
	metaReq
	VATRate  *string   `json:"vat_rate"`
	Discount string    `json:"discount"`
	Items    []itemReq `json:"items"`
}

type patchItemReq struct {
	Field string `json:"field" validate:"required,oneof=title subtitle quantity unit_price"`
	Value string `json:"value"`
}

type moveReq struct {
	To *int `json:"to" validate:"required,min=0"`
}

type financialsReq struct {
	VATRate  string `json:"vat_rate" validate:"required"`
	Discount string `json:"discount"`
}

type statusReq struct {
	Status string `json:"status" validate:"required"`
}

// Responses

type itemView struct {
	models.QuoteItem
	Total money.Money `json:"total"`
}

type totalsView struct {
	quote.Totals
	Formatted map[string]string `json:"formatted"`
}

type quoteView struct {
	*models.Quote
	Items  []itemView `json:"items"`
	Totals totalsView `json:"totals"`
}

type listItem struct {
	ID                  uint         `json:"id"`
	Number              string       `json:"number"`
	Title               string       `json:"title,omitempty"`
	Status              quote.Status `json:"status"`
	ClientID            uint         `json:"client_id"`
	ClientName          string       `json:"client_name,omitempty"`
	IssueDate           string       `json:"issue_date"`
	ValidUntil          string       `json:"valid_until"`
	Currency            string       `json:"currency"`
	Version             int          `json:"version"`
	GrandTotal          money.Money  `json:"grand_total"`
	GrandTotalFormatted string       `json:"grand_total_formatted"`
}

func formatTotals(t quote.Totals, lang, currency string) totalsView {
	return totalsView{Totals: t, Formatted: map[string]string{
		"subtotal":     money.Format(t.Subtotal, lang, currency),
		"discount":     money.Format(t.Discount, lang, currency),
		"taxable_base": money.Format(t.TaxableBase, lang, currency),
		"tax_amount":   money.Format(t.TaxAmount, lang, currency),
		"grand_total":  money.Format(t.GrandTotal, lang, currency),
	}}
}

func viewOf(l *services.Loaded, lang string) quoteView {
	lines := l.Quote.Items()
	items := make([]itemView, len(l.Row.Items))
	for i, it := range l.Row.Items {
		items[i] = itemView{QuoteItem: it, Total: lines[i].Total()}
	}
	return quoteView{
		Quote:  l.Row,
		Items:  items,
		Totals: formatTotals(l.Totals(), lang, l.Row.Currency),
	}
}

func (h *QuoteHandler) respond(w http.ResponseWriter, r *http.Request, status int, l *services.Loaded) {
	w.Header().Set("ETag", strconv.Quote(strconv.Itoa(l.Row.Version)))
	if status == http.StatusCreated {
		w.Header().Set("Location", fmt.Sprintf("/api/quotes/%d", l.Row.ID))
	}
	httpx.JSON(w, status, viewOf(l, i18n.LangFrom(r.Context())))
}

// target reads the quote id and the If-Match version.
func target(w http.ResponseWriter, r *http.Request) (uint, int, bool) {
	id, ok := pathUint(r, "id")
	if !ok {
		notFound(w)
		return 0, 0, false
	}
	version, ok := ifMatch(r)
	if !ok {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_if_match", nil)
		return 0, 0, false
	}
	return id, version, true
}

func (m metaReq) input(v validation.Violations) services.QuoteInput {
	for f, code := range validation.Struct(m) {
		v.Add(f, code)
	}
	return services.QuoteInput{
		Title:      m.Title,
		ClientID:   m.ClientID,
		IssueDate:  parseDate("issue_date", m.IssueDate, v),
		ValidUntil: parseDate("valid_until", m.ValidUntil, v),
		Currency:   m.Currency,
		Terms:      m.Terms,
		Notes:      m.Notes,
	}
}

func (it itemReq) input(prefix string, v validation.Violations) services.ItemInput {
	for f, code := range validation.Struct(it) {
		v.Add(prefix+f, code)
	}
	in := services.ItemInput{ProductID: it.ProductID, Title: it.Title, Subtitle: it.Subtitle}
	if it.Quantity != nil {
		q, err := quote.ParseQuantity(*it.Quantity)
		if err != nil {
			v.Add(prefix+"quantity", "invalid_quantity")
		}
		in.Quantity = &q
	}
	if it.UnitPrice != nil {
		p, err := money.Parse(*it.UnitPrice)
		if err != nil {
			v.Add(prefix+"unit_price", "invalid_amount")
		}
		in.UnitPrice = &p
	}
	return in
}

func parseAmount(field, s string, v validation.Violations) money.Money {
	if s == "" {
		return money.Zero
	}
	m, err := money.Parse(s)
	if err != nil {
		v.Add(field, "invalid_amount")
	}
	return m
}

func parseRate(field, s string, v validation.Violations) decimal.Decimal {
	r, err := quote.ParseRate(s)
	if err != nil {
		v.Add(field, "invalid_rate")
	}
	return r
}

// List returns the caller's quotes, filtered and paginated.
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
	f, ok := listFilter(w, r)
	if !ok {
		return
	}
	res, err := h.svc.List(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	lang := i18n.LangFrom(r.Context())
	out := page[listItem]{Items: make([]listItem, 0, len(res.Rows)), Total: res.Total, Page: res.Page, Limit: res.Limit}
	for _, row := range res.Rows {
		q := row.Quote
		item := listItem{
			ID:                  q.ID,
			Number:              q.Number,
			Title:               q.Title,
			Status:              q.Status,
			ClientID:            q.ClientID,
			IssueDate:           q.IssueDate.Format(dateLayout),
			ValidUntil:          q.ValidUntil.Format(dateLayout),
			Currency:            q.Currency,
			Version:             q.Version,
			GrandTotal:          row.Totals.GrandTotal,
			GrandTotalFormatted: money.Format(row.Totals.GrandTotal, lang, q.Currency),
		}
		if q.Client != nil {
			item.ClientName = q.Client.DisplayName()
		}
		out.Items = append(out.Items, item)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func listFilter(w http.ResponseWriter, r *http.Request) (services.ListFilter, bool) {
	q := r.URL.Query()
	v := make(validation.Violations)
	f := services.ListFilter{Query: q.Get("q")}
	f.Page, f.Limit = paging(r)
	if s := q.Get("status"); s != "" {
		st, err := quote.ParseStatus(s)
		if err != nil {
			v.Add("status", "invalid_status")
		}
		f.Status = st
	}
	if s := q.Get("client_id"); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			v.Add("client_id", "invalid")
		}
		f.ClientID = uint(id)
	}
	f.From = parseDate("from", q.Get("from"), v)
	f.To = parseDate("to", q.Get("to"), v)
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		v.Add("to", "date_order")
	}
	if !v.Empty() {
		invalid(w, r, v)
		return f, false
	}
	return f, true
}

func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		notFound(w)
		return
	}
	l, err := h.svc.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, l)
}

// Totals returns the breakdown only.
func (h *QuoteHandler) Totals(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		notFound(w)
		return
	}
	l, err := h.svc.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, formatTotals(l.Totals(), i18n.LangFrom(r.Context()), l.Row.Currency))
}

func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}
	v := make(validation.Violations)
	in := services.CreateInput{QuoteInput: req.metaReq.input(v)}
	if req.VATRate != nil {
		rate := parseRate("vat_rate", *req.VATRate, v)
		in.VATRate = &rate
	}
	in.Discount = parseAmount("discount", req.Discount, v)
	for i, it := range req.Items {
		in.Items = append(in.Items, it.input(fmt.Sprintf("items.%d.", i), v))
	}
	if !v.Empty() {
		invalid(w, r, v)
		return
	}
	l, err := h.svc.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, l)
}

// Update replaces the header fields.
func (h *QuoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, version, ok := target(w, r)
	if !ok {
		return
	}
	var req metaReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}
	v := make(validation.Violations)
	in := req.input(v)
	if !v.Empty() {
		invalid(w, r, v)
		return
	}
	l, err := h.svc.UpdateMeta(r.Context(), id, version, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, l)
}

func (h *QuoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		notFound(w)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *QuoteHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		notFound(w)
		return
	}
	l, err := h.svc.Duplicate(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, l)
}

// AddItem appends a row. Fields left out are filled from the catalog entry
// named by product_id.
func (h *QuoteHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, version, ok := target(w, r)
	if !ok {
		return
	}
	var req itemReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}
	v := make(validation.Violations)
	in := req.input("", v)
	if !v.Empty() {
		invalid(w, r, v)
		return
	}
	l, err := h.svc.AddItem(r.Context(), id, version, in)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusCreated, l)
}

// UpdateItem sets one field of a row: {"field": "quantity", "value": "2,5"}.
func (h *QuoteHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, version, ok := target(w, r)
	if !ok {
		return
	}
	index, ok := pathIndex(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "index_out_of_range", nil)
		return
	}
	var req patchItemReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}
	if v := validation.Struct(req); !v.Empty() {
		invalid(w, r, v)
		return
	}
	l, err := h.svc.UpdateItem(r.Context(), id, version, index, quote.LineField(req.Field), req.Value)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, l)
}

func (h *QuoteHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, version, ok := target(w, r)
	if !ok {
		return
	}
	index, ok := pathIndex(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "index_out_of_range", nil)
		return
	}
	l, err := h.svc.RemoveItem(r.Context(), id, version, index)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, l)
}

func (h *QuoteHandler) MoveItem(w http.ResponseWriter, r *http.Request) {
	id, version, ok := target(w, r)
	if !ok {
		return
	}
	index, ok := pathIndex(r)
	if !ok {
		httpx.JSONError(w, http.StatusNotFound, "index_out_of_range", nil)
		return
	}
	var req moveReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}
	if v := validation.Struct(req); !v.Empty() {
		invalid(w, r, v)
		return
	}
	l, err := h.svc.MoveItem(r.Context(), id, version, index, *req.To)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, l)
}

func (h *QuoteHandler) SetFinancials(w http.ResponseWriter, r *http.Request) {
	id, version, ok := target(w, r)
	if !ok {
		return
	}
	var req financialsReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}
	v := validation.Struct(req)
	rate := parseRate("vat_rate", req.VATRate, v)
	discount := parseAmount("discount", req.Discount, v)
	if !v.Empty() {
		invalid(w, r, v)
		return
	}
	l, err := h.svc.SetFinancials(r.Context(), id, version, rate, discount)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, l)
}

// SetStatus records a status change decided by the caller.
func (h *QuoteHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, version, ok := target(w, r)
	if !ok {
		return
	}
	var req statusReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		badJSON(w)
		return
	}
	st, err := quote.ParseStatus(req.Status)
	if err != nil {
		v := make(validation.Violations)
		v.Add("status", "invalid_status")
		invalid(w, r, v)
		return
	}
	l, err := h.svc.SetStatus(r.Context(), id, version, st)
	if err != nil {
		fail(w, r, err)
		return
	}
	h.respond(w, r, http.StatusOK, l)
}

// PDF renders the quote document in the request language.
func (h *QuoteHandler) PDF(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUint(r, "id")
	if !ok {
		notFound(w)
		return
	}
	l, err := h.svc.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	issuer, err := h.svc.Issuer(r.Context(), l)
	if err != nil {
		fail(w, r, err)
		return
	}
	body, err := pdf.Render(pdf.Document{
		Quote:   l.Row,
		Lines:   l.Quote.Items(),
		Totals:  l.Totals(),
		Company: issuer,
		Lang:    i18n.LangFrom(r.Context()),
	})
	if err != nil {
		fail(w, r, err)
		return
	}
	httpx.Attachment(w, "application/pdf", l.Row.Number+".pdf", body)
}

// Export writes the filtered list as a spreadsheet.
func (h *QuoteHandler) Export(w http.ResponseWriter, r *http.Request) {
	f, ok := listFilter(w, r)
	if !ok {
		return
	}
	rows, err := h.svc.All(r.Context(), f)
	if err != nil {
		fail(w, r, err)
		return
	}
	body, err := export.Quotes(rows, i18n.LangFrom(r.Context()))
	if err != nil {
		fail(w, r, err)
		return
	}
	name := "devis-" + time.Now().Format("20060102") + ".xlsx"
	httpx.Attachment(w, export.ContentType, name, body)
}
