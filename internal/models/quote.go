package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/go-quotes/internal/money"
	"github.com/diewo77/go-quotes/internal/quote"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// QuoteNumberPrefix starts every quote number: DEV-2026-0001.
const QuoteNumberPrefix = "DEV"

// Quote is the stored form of a quote. Totals are not stored; load the
// aggregate with ToAggregate and call ComputeTotals.
// Implements the Ownable interface for ownership-based authorization.
type Quote struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// UserID is the owner of this quote (for multi-tenant isolation)
	UserID uint `gorm:"not null;uniqueIndex:idx_quote_user_number" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	// Number is unique per owner, soft-deleted quotes included.
	Number string `gorm:"size:50;not null;uniqueIndex:idx_quote_user_number" json:"number"`
	Title  string `gorm:"size:255" json:"title,omitempty"`

	ClientID uint    `gorm:"index;not null" json:"client_id"`
	Client   *Client `gorm:"foreignKey:ClientID" json:"client,omitempty"`

	Status     quote.Status `gorm:"size:20;not null;default:'DRAFT';index" json:"status"`
	IssueDate  time.Time    `gorm:"not null;index" json:"issue_date"`
	ValidUntil time.Time    `gorm:"not null" json:"valid_until"`
	Currency   string       `gorm:"size:3;not null;default:'EUR'" json:"currency"`

	VATRate  decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"vat_rate"`
	Discount money.Money     `gorm:"type:decimal(12,2);not null;default:0" json:"discount"`

	Terms string `gorm:"type:text" json:"terms,omitempty"`
	Notes string `gorm:"type:text" json:"notes,omitempty"`

	// Version is bumped by every save; writers must present the version they read.
	Version int `gorm:"not null;default:1" json:"version"`

	Items []QuoteItem `gorm:"foreignKey:QuoteID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// GetUserID implements the Ownable interface for authorization.
func (q *Quote) GetUserID() uint {
	return q.UserID
}

// QuoteItem is one stored row; Position is its printed index.
type QuoteItem struct {
	ID      uint `gorm:"primaryKey" json:"-"`
	QuoteID uint `gorm:"index;not null" json:"-"`

	Position int `gorm:"not null;default:0" json:"position"`

	// Catalog entry the row was filled from, if any
	ProductID *uint `gorm:"index" json:"product_id,omitempty"`

	Title     string          `gorm:"size:255;not null" json:"title"`
	Subtitle  string          `gorm:"size:500" json:"subtitle,omitempty"`
	Quantity  decimal.Decimal `gorm:"type:decimal(12,3);not null;default:1" json:"quantity"`
	UnitPrice money.Money     `gorm:"type:decimal(12,2);not null;default:0" json:"unit_price"`
}

// ToAggregate validates the stored state and rebuilds the domain quote.
// Items must be loaded ordered by position.
func (q *Quote) ToAggregate() (*quote.Quote, error) {
	fin, err := quote.NewFinancials(q.VATRate, q.Discount)
	if err != nil {
		return nil, fmt.Errorf("quote %d: %w", q.ID, err)
	}
	items := make([]quote.LineItem, 0, len(q.Items))
	for _, it := range q.Items {
		li, err := quote.NewLineItem(it.Title, it.Subtitle, it.Quantity, it.UnitPrice)
		if err != nil {
			return nil, fmt.Errorf("quote %d item %d: %w", q.ID, it.Position, err)
		}
		items = append(items, li)
	}
	return quote.Restore(q.Number, q.Status, items, fin)
}

// ApplyAggregate copies the aggregate state back onto the row. productIDs
// holds the catalog reference per position; it may be shorter than the
// item list.
func (q *Quote) ApplyAggregate(a *quote.Quote, productIDs []*uint) {
	q.Number = a.Number()
	q.Status = a.Status()
	q.VATRate = a.Financials().VATRate()
	q.Discount = a.Financials().Discount()
	items := a.Items()
	q.Items = make([]QuoteItem, len(items))
	for i, li := range items {
		q.Items[i] = QuoteItem{
			QuoteID:   q.ID,
			Position:  i,
			Title:     li.Title(),
			Subtitle:  li.Subtitle(),
			Quantity:  li.Quantity(),
			UnitPrice: li.UnitPrice(),
		}
		if i < len(productIDs) {
			q.Items[i].ProductID = productIDs[i]
		}
	}
}

// ProductIDs lists the catalog reference of each row in position order.
func (q *Quote) ProductIDs() []*uint {
	out := make([]*uint, len(q.Items))
	for i := range q.Items {
		out[i] = q.Items[i].ProductID
	}
	return out
}

// NextQuoteNumber returns the next free number for userID in year.
// Format: DEV-YYYY-NNNN (e.g., DEV-2026-0001). Soft-deleted quotes keep
// their number, so they are counted too. Call it inside the transaction
// that inserts the quote; the unique index rejects a concurrent duplicate.
func NextQuoteNumber(db *gorm.DB, userID uint, year int) (string, error) {
	prefix := fmt.Sprintf("%s-%d-", QuoteNumberPrefix, year)
	var numbers []string
	err := db.Unscoped().Model(&Quote{}).
		Where("user_id = ? AND number LIKE ?", userID, prefix+"%").
		Order("LENGTH(number) DESC, number DESC").
		Limit(1).
		Pluck("number", &numbers).Error
	if err != nil {
		return "", err
	}
	seq := 0
	if len(numbers) > 0 {
		seq, _ = strconv.Atoi(strings.TrimPrefix(numbers[0], prefix))
	}
	return fmt.Sprintf("%s%04d", prefix, seq+1), nil
}
