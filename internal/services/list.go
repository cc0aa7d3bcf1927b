package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/go-quotes/internal/models"
	"github.com/diewo77/go-quotes/internal/money"
	"github.com/diewo77/go-quotes/internal/quote"
	"gorm.io/gorm"
)

// Pagination defaults, as for every list endpoint.
const (
	DefaultLimit  = 20
	MaxLimit      = 100
	MaxExportRows = 5000
)

// ListFilter narrows the caller's quotes. Zero fields do not filter.
type ListFilter struct {
	Status   quote.Status
	ClientID uint
	// Query matches number or title, case-insensitively.
	Query string
	// From and To bound the issue date, inclusive.
	From, To time.Time
	Page     int
	Limit    int
}

// Normalize clamps page and limit.
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
}

// ListRow is one quote of a listing with its recomputed totals.
type ListRow struct {
	Quote  *models.Quote
	Totals quote.Totals
}

type ListResult struct {
	Rows  []ListRow
	Total int64
	Page  int
	Limit int
}

func (s *QuoteService) scoped(ctx context.Context, uid uint, f ListFilter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&models.Quote{}).Where("user_id = ?", uid)
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.ClientID != 0 {
		q = q.Where("client_id = ?", f.ClientID)
	}
	if term := strings.TrimSpace(f.Query); term != "" {
		like := models.Contains(strings.ToLower(term))
		q = q.Where(`LOWER(number) LIKE ? ESCAPE '\' OR LOWER(title) LIKE ? ESCAPE '\'`, like, like)
	}
	if !f.From.IsZero() {
		q = q.Where("issue_date >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("issue_date < ?", f.To.AddDate(0, 0, 1))
	}
	return q
}

// List returns one page of the caller's quotes, newest first. Grand totals
// come from the totals engine, as on the detail view.
func (s *QuoteService) List(ctx context.Context, f ListFilter) (ListResult, error) {
	uid, err := currentUser(ctx)
	if err != nil {
		return ListResult{}, err
	}
	f.Normalize()
	res := ListResult{Page: f.Page, Limit: f.Limit}
	if err := s.scoped(ctx, uid, f).Count(&res.Total).Error; err != nil {
		return ListResult{}, err
	}
	res.Rows, err = s.rows(s.scoped(ctx, uid, f).Limit(f.Limit).Offset((f.Page - 1) * f.Limit))
	if err != nil {
		return ListResult{}, err
	}
	return res, nil
}

// All returns every matching quote up to MaxExportRows, for exports.
func (s *QuoteService) All(ctx context.Context, f ListFilter) ([]ListRow, error) {
	uid, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.rows(s.scoped(ctx, uid, f).Limit(MaxExportRows))
}

func (s *QuoteService) rows(q *gorm.DB) ([]ListRow, error) {
	var quotes []models.Quote
	err := q.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Preload("Client").
		Order("issue_date DESC, id DESC").
		Find(&quotes).Error
	if err != nil {
		return nil, err
	}
	out := make([]ListRow, 0, len(quotes))
	for i := range quotes {
		agg, err := quotes[i].ToAggregate()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		out = append(out, ListRow{Quote: &quotes[i], Totals: agg.ComputeTotals()})
	}
	return out, nil
}

// Revenue sums the grand totals of the caller's ACCEPTED and PAID quotes,
// one total per currency.
func (s *QuoteService) Revenue(ctx context.Context) (map[string]money.Money, error) {
	uid, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.rows(s.db.WithContext(ctx).Model(&models.Quote{}).
		Where("user_id = ? AND status IN ?", uid, []string{string(quote.StatusAccepted), string(quote.StatusPaid)}))
	if err != nil {
		return nil, err
	}
	return sumByCurrency(rows), nil
}

// sumByCurrency adds grand totals; amounts in different currencies never mix.
func sumByCurrency(rows []ListRow) map[string]money.Money {
	out := make(map[string]money.Money)
	for _, r := range rows {
		out[r.Quote.Currency] = out[r.Quote.Currency].Add(r.Totals.GrandTotal)
	}
	return out
}
