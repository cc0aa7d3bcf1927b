// Package services holds the persistence side of quotes: every write loads
// the stored row into the quote aggregate, applies one validated change and
// saves header and rows back in a single transaction.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/go-quotes/auth"
	"github.com/diewo77/go-quotes/internal/config"
	"github.com/diewo77/go-quotes/internal/gate"
	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/money"
	"github.com/diewo77/go-quotes/internal/obs"
	"github.com/diewo77/go-quotes/internal/quote"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrCorrupt wraps a stored quote that no longer passes the aggregate rules.
var ErrCorrupt = errors.New("stored quote is invalid")

// numberAttempts bounds retries when a concurrent create took the same number.
const numberAttempts = 3

// Authorizer decides whether the caller in ctx may act on a loaded resource.
// policy.AuthGate implements it.
type Authorizer interface {
	Authorize(ctx context.Context, action gate.Action, resourceType string, resource any) error
}

type QuoteService struct {
	db       *gorm.DB
	authz    Authorizer
	defaults config.QuoteDefaults
	now      func() time.Time
}

// NewQuoteService builds the service. With a nil authz only the owner may
// touch a quote.
func NewQuoteService(db *gorm.DB, authz Authorizer, defaults config.QuoteDefaults) *QuoteService {
	return &QuoteService{db: db, authz: authz, defaults: defaults, now: time.Now}
}

// Loaded pairs a stored quote with its validated aggregate.
type Loaded struct {
	Row   *models.Quote
	Quote *quote.Quote
}

// Totals recomputes the breakdown; it is never read from storage.
func (l *Loaded) Totals() quote.Totals { return l.Quote.ComputeTotals() }

// QuoteInput is the editable header of a quote. Zero dates and empty
// currency or terms fall back to the company defaults.
type QuoteInput struct {
	Title      string
	ClientID   uint
	IssueDate  time.Time
	ValidUntil time.Time
	Currency   string
	Terms      string
	Notes      string
}

type CreateInput struct {
	QuoteInput
	// VATRate nil means the company default rate.
	VATRate  *decimal.Decimal
	Discount money.Money
	Items    []ItemInput
}

// ItemInput describes a new row. With ProductID set, missing fields are
// taken from the catalog entry.
type ItemInput struct {
	ProductID *uint
	Title     string
	Subtitle  string
	Quantity  *decimal.Decimal
	UnitPrice *money.Money
}

func (s *QuoteService) today() time.Time {
	return s.now().UTC().Truncate(24 * time.Hour)
}

func currentUser(ctx context.Context) (uint, error) {
	uid, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return 0, gate.ErrUnauthorized
	}
	return uid, nil
}

// Settings returns the caller's company settings, or unsaved defaults from
// the configuration when none are stored yet.
func (s *QuoteService) Settings(ctx context.Context) (models.CompanySettings, error) {
	uid, err := currentUser(ctx)
	if err != nil {
		return models.CompanySettings{}, err
	}
	return s.settings(s.db.WithContext(ctx), uid)
}

func (s *QuoteService) settings(tx *gorm.DB, uid uint) (models.CompanySettings, error) {
	var cs models.CompanySettings
	err := tx.Where("user_id = ?", uid).First(&cs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CompanySettings{
			UserID:            uid,
			Currency:          s.defaults.Currency,
			Locale:            s.defaults.Locale,
			DefaultVATRate:    s.defaults.VATRate,
			QuoteValidityDays: s.defaults.ValidityDays,
		}, nil
	}
	return cs, err
}

// Issuer returns the settings of the company that owns l, for printing.
func (s *QuoteService) Issuer(ctx context.Context, l *Loaded) (models.CompanySettings, error) {
	return s.settings(s.db.WithContext(ctx), l.Row.UserID)
}

func (s *QuoteService) authorize(ctx context.Context, action gate.Action, row *models.Quote) error {
	if s.authz != nil {
		if err := s.authz.Authorize(ctx, action, models.ResourceQuote, row); err != nil {
			return ErrNotFound
		}
		return nil
	}
	if uid, ok := auth.UserIDFromContext(ctx); !ok || uid != row.UserID {
		return ErrNotFound
	}
	return nil
}

func (s *QuoteService) load(ctx context.Context, tx *gorm.DB, id uint, action gate.Action) (*Loaded, error) {
	var row models.Quote
	err := tx.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Client").
		First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, action, &row); err != nil {
		return nil, err
	}
	agg, err := row.ToAggregate()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &Loaded{Row: &row, Quote: agg}, nil
}

// Get loads one quote with its rows and client.
func (s *QuoteService) Get(ctx context.Context, id uint) (*Loaded, error) {
	return s.load(ctx, s.db, id, gate.ActionView)
}

// Create stores a new DRAFT quote numbered DEV-YYYY-NNNN.
func (s *QuoteService) Create(ctx context.Context, in CreateInput) (*Loaded, error) {
	uid, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	cs, err := s.settings(db, uid)
	if err != nil {
		return nil, err
	}
	row := &models.Quote{UserID: uid}
	if err := s.applyMeta(db, uid, row, in.QuoteInput, cs); err != nil {
		return nil, err
	}

	vat := cs.DefaultVATRate
	if in.VATRate != nil {
		vat = *in.VATRate
	}
	fin, err := quote.NewFinancials(vat, in.Discount)
	if err != nil {
		return nil, err
	}
	lines := make([]quote.LineItem, 0, len(in.Items))
	ids := make([]*uint, 0, len(in.Items))
	for i, it := range in.Items {
		li, pid, err := s.lineFrom(db, uid, it)
		if err != nil {
			return nil, itemErr(i, err)
		}
		lines = append(lines, li)
		ids = append(ids, pid)
	}

	draft := quote.New("", fin)
	for i, li := range lines {
		if err := draft.AddLineItem(li); err != nil {
			return nil, itemErr(i, err)
		}
	}
	l, err := s.insert(ctx, row, ids, draft.Duplicate)
	if err != nil {
		return nil, err
	}
	obs.QuoteSaved("create")
	return l, nil
}

// Duplicate starts a new DRAFT from an existing quote: same client, rows
// and financials, fresh number and dates.
func (s *QuoteService) Duplicate(ctx context.Context, id uint) (*Loaded, error) {
	src, err := s.load(ctx, s.db, id, gate.ActionView)
	if err != nil {
		return nil, err
	}
	// the copy stays with the tenant that owns the client
	uid := src.Row.UserID
	cs, err := s.settings(s.db.WithContext(ctx), uid)
	if err != nil {
		return nil, err
	}
	issue := s.today()
	row := &models.Quote{
		UserID:     uid,
		Title:      src.Row.Title,
		ClientID:   src.Row.ClientID,
		IssueDate:  issue,
		ValidUntil: issue.AddDate(0, 0, cs.QuoteValidityDays),
		Currency:   src.Row.Currency,
		Terms:      src.Row.Terms,
		Notes:      src.Row.Notes,
	}
	l, err := s.insert(ctx, row, src.Row.ProductIDs(), src.Quote.Duplicate)
	if err != nil {
		return nil, err
	}
	obs.QuoteSaved("duplicate")
	return l, nil
}

// insert numbers and stores row. build turns the allotted number into the
// aggregate; it runs again when a concurrent insert took the number.
func (s *QuoteService) insert(ctx context.Context, row *models.Quote, ids []*uint, build func(number string) *quote.Quote) (*Loaded, error) {
	var err error
	for attempt := 0; attempt < numberAttempts; attempt++ {
		var agg *quote.Quote
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			number, err := models.NextQuoteNumber(tx, row.UserID, row.IssueDate.Year())
			if err != nil {
				return err
			}
			agg = build(number)
			row.ID = 0
			row.Version = 1
			row.ApplyAggregate(agg, ids)
			return tx.Omit("Client", "User").Create(row).Error
		})
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return s.load(ctx, s.db, row.ID, gate.ActionView)
	}
	return nil, fmt.Errorf("allocate quote number: %w", err)
}

// applyMeta validates in and copies it onto row.
func (s *QuoteService) applyMeta(tx *gorm.DB, uid uint, row *models.Quote, in QuoteInput, cs models.CompanySettings) error {
	if in.ClientID == 0 {
		return fieldErr("client_id", ErrUnknownReference)
	}
	if in.ClientID != row.ClientID {
		var n int64
		if err := tx.Model(&models.Client{}).Where("id = ? AND user_id = ?", in.ClientID, uid).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fieldErr("client_id", ErrUnknownReference)
		}
	}

	issue := in.IssueDate
	if issue.IsZero() {
		issue = row.IssueDate
	}
	if issue.IsZero() {
		issue = s.today()
	}
	until := in.ValidUntil
	if until.IsZero() {
		until = row.ValidUntil
	}
	if until.IsZero() {
		until = issue.AddDate(0, 0, cs.QuoteValidityDays)
	}
	if until.Before(issue) {
		return fieldErr("valid_until", ErrDateOrder)
	}

	row.Title = strings.TrimSpace(in.Title)
	row.ClientID = in.ClientID
	row.Client = nil
	row.IssueDate = issue
	row.ValidUntil = until
	row.Notes = in.Notes
	row.Terms = in.Terms
	if row.Terms == "" && row.ID == 0 {
		row.Terms = cs.DefaultTerms
	}
	switch {
	case in.Currency != "":
		row.Currency = strings.ToUpper(in.Currency)
	case row.Currency == "":
		row.Currency = cs.Currency
	}
	return nil
}

// lineFrom builds a row from in, filling gaps from the catalog entry.
func (s *QuoteService) lineFrom(tx *gorm.DB, uid uint, in ItemInput) (quote.LineItem, *uint, error) {
	title, subtitle := in.Title, in.Subtitle
	qty := decimal.NewFromInt(1)
	price := money.Zero
	var pid *uint
	if in.ProductID != nil {
		var p models.Product
		err := tx.Where("id = ? AND user_id = ?", *in.ProductID, uid).First(&p).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return quote.LineItem{}, nil, fieldErr("product_id", ErrUnknownReference)
		}
		if err != nil {
			return quote.LineItem{}, nil, err
		}
		id := p.ID
		pid = &id
		if strings.TrimSpace(title) == "" {
			title = p.Name
		}
		if subtitle == "" {
			subtitle = p.Description
		}
		qty = p.RowQuantity()
		price = p.UnitPrice
	}
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	if in.UnitPrice != nil {
		price = *in.UnitPrice
	}
	li, err := quote.NewLineItem(title, subtitle, qty, price)
	return li, pid, err
}

func itemErr(i int, err error) error {
	var fe *quote.FieldError
	if errors.As(err, &fe) {
		return &quote.FieldError{Field: fmt.Sprintf("items.%d.%s", i, fe.Field), Err: fe.Err}
	}
	return err
}

// mutate runs fn on the loaded aggregate and saves the result. A non-zero
// version must match the stored one.
func (s *QuoteService) mutate(ctx context.Context, id uint, version int, op string, fn func(tx *gorm.DB, l *Loaded, ids *[]*uint) error) (*Loaded, error) {
	var out *Loaded
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		l, err := s.load(ctx, tx, id, gate.ActionUpdate)
		if err != nil {
			return err
		}
		if version != 0 && version != l.Row.Version {
			return ErrConflict
		}
		ids := l.Row.ProductIDs()
		if err := fn(tx, l, &ids); err != nil {
			return err
		}
		if err := save(tx, l, ids); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	obs.QuoteSaved(op)
	return out, nil
}

// save writes header and rows. The header update is conditional on the
// version read by load; rows are replaced in position order.
func save(tx *gorm.DB, l *Loaded, ids []*uint) error {
	row := l.Row
	row.ApplyAggregate(l.Quote, ids)
	res := tx.Model(&models.Quote{}).
		Where("id = ? AND version = ?", row.ID, row.Version).
		Updates(map[string]any{
			"number":      row.Number,
			"title":       row.Title,
			"client_id":   row.ClientID,
			"status":      row.Status,
			"issue_date":  row.IssueDate,
			"valid_until": row.ValidUntil,
			"currency":    row.Currency,
			"vat_rate":    row.VATRate,
			"discount":    row.Discount,
			"terms":       row.Terms,
			"notes":       row.Notes,
			"version":     row.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	row.Version++
	if err := tx.Where("quote_id = ?", row.ID).Delete(&models.QuoteItem{}).Error; err != nil {
		return err
	}
	if len(row.Items) == 0 {
		return nil
	}
	return tx.Create(&row.Items).Error
}

// UpdateMeta replaces the header fields (title, client, dates, terms, notes).
func (s *QuoteService) UpdateMeta(ctx context.Context, id uint, version int, in QuoteInput) (*Loaded, error) {
	_, err := s.mutate(ctx, id, version, "update", func(tx *gorm.DB, l *Loaded, _ *[]*uint) error {
		cs, err := s.settings(tx, l.Row.UserID)
		if err != nil {
			return err
		}
		return s.applyMeta(tx, l.Row.UserID, l.Row, in, cs)
	})
	if err != nil {
		return nil, err
	}
	// reload for the new client
	return s.Get(ctx, id)
}

// AddItem appends a row, optionally filled from the catalog.
func (s *QuoteService) AddItem(ctx context.Context, id uint, version int, in ItemInput) (*Loaded, error) {
	return s.mutate(ctx, id, version, "items", func(tx *gorm.DB, l *Loaded, ids *[]*uint) error {
		li, pid, err := s.lineFrom(tx, l.Row.UserID, in)
		if err != nil {
			return err
		}
		if err := l.Quote.AddLineItem(li); err != nil {
			return err
		}
		*ids = append(*ids, pid)
		return nil
	})
}

// UpdateItem sets one field of the row at index from its text form.
func (s *QuoteService) UpdateItem(ctx context.Context, id uint, version, index int, field quote.LineField, value string) (*Loaded, error) {
	return s.mutate(ctx, id, version, "items", func(_ *gorm.DB, l *Loaded, _ *[]*uint) error {
		return l.Quote.UpdateLineItem(index, field, value)
	})
}

// RemoveItem deletes the row at index.
func (s *QuoteService) RemoveItem(ctx context.Context, id uint, version, index int) (*Loaded, error) {
	return s.mutate(ctx, id, version, "items", func(_ *gorm.DB, l *Loaded, ids *[]*uint) error {
		if err := l.Quote.RemoveLineItem(index); err != nil {
			return err
		}
		*ids = append((*ids)[:index], (*ids)[index+1:]...)
		return nil
	})
}

// MoveItem moves the row at from to position to.
func (s *QuoteService) MoveItem(ctx context.Context, id uint, version, from, to int) (*Loaded, error) {
	return s.mutate(ctx, id, version, "items", func(_ *gorm.DB, l *Loaded, ids *[]*uint) error {
		if err := l.Quote.MoveLineItem(from, to); err != nil {
			return err
		}
		*ids = moveID(*ids, from, to)
		return nil
	})
}

func moveID(ids []*uint, from, to int) []*uint {
	if from == to {
		return ids
	}
	id := ids[from]
	ids = append(ids[:from], ids[from+1:]...)
	return append(ids[:to], append([]*uint{id}, ids[to:]...)...)
}

// SetFinancials replaces the VAT rate and the discount.
func (s *QuoteService) SetFinancials(ctx context.Context, id uint, version int, vatRate decimal.Decimal, discount money.Money) (*Loaded, error) {
	return s.mutate(ctx, id, version, "financials", func(_ *gorm.DB, l *Loaded, _ *[]*uint) error {
		return l.Quote.SetFinancials(vatRate, discount)
	})
}

// SetStatus records a status decided outside the service. Any valid status
// may follow any other.
func (s *QuoteService) SetStatus(ctx context.Context, id uint, version int, status quote.Status) (*Loaded, error) {
	return s.mutate(ctx, id, version, "status", func(_ *gorm.DB, l *Loaded, _ *[]*uint) error {
		return l.Quote.SetStatus(status)
	})
}

// Delete soft-deletes the quote; its number stays taken.
func (s *QuoteService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row models.Quote
		err := tx.First(&row, id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := s.authorize(ctx, gate.ActionDelete, &row); err != nil {
			return err
		}
		return tx.Delete(&row).Error
	})
	if err != nil {
		return err
	}
	obs.QuoteSaved("delete")
	return nil
}
