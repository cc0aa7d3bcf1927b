// Package quote holds the quote aggregate and the single totals computation
// every other layer (persistence, listing, PDF, export) goes through.
package quote

import (
	"fmt"
	"strings"

	"github.com/diewo77/go-quotes/internal/money"
	"github.com/shopspring/decimal"
)

// Status of a quote. Transitions are driven from outside; the totals rules
// do not depend on it.
type Status string

const (
	StatusDraft    Status = "DRAFT"
	StatusSent     Status = "SENT"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
	StatusPaid     Status = "PAID"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusDraft, StatusSent, StatusAccepted, StatusRejected, StatusPaid}

// ParseStatus accepts any casing ("sent", "Sent").
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fieldErr("status", fmt.Errorf("%w: %q", ErrInvalidStatus, s))
	}
	return st, nil
}

func (s Status) Valid() bool {
	for _, st := range Statuses {
		if s == st {
			return true
		}
	}
	return false
}

// Field names accepted by UpdateLineItem.
type LineField string

const (
	FieldTitle     LineField = "title"
	FieldSubtitle  LineField = "subtitle"
	FieldQuantity  LineField = "quantity"
	FieldUnitPrice LineField = "unit_price"
)

// Quote is the aggregate: an ordered list of line items, the financials and
// the identity fields. State is unexported and only changes through the
// validated methods below, so ComputeTotals cannot fail.
type Quote struct {
	number     string
	status     Status
	items      []LineItem
	financials Financials
}

// New returns an empty DRAFT quote.
func New(number string, fin Financials) *Quote {
	return &Quote{number: number, status: StatusDraft, financials: fin}
}

// Restore rebuilds a quote from stored state.
func Restore(number string, status Status, items []LineItem, fin Financials) (*Quote, error) {
	if !status.Valid() {
		return nil, fieldErr("status", fmt.Errorf("%w: %q", ErrInvalidStatus, status))
	}
	q := &Quote{number: number, status: status, financials: fin}
	for _, li := range items {
		if err := q.AddLineItem(li); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// Duplicate starts a new DRAFT quote from q, as a template.
func (q *Quote) Duplicate(number string) *Quote {
	d := New(number, q.financials)
	d.items = append(d.items, q.items...)
	return d
}

func (q *Quote) Number() string         { return q.number }
func (q *Quote) Status() Status         { return q.status }
func (q *Quote) Financials() Financials { return q.financials }
func (q *Quote) Len() int               { return len(q.items) }

// Items returns a copy of the rows in printed order.
func (q *Quote) Items() []LineItem {
	out := make([]LineItem, len(q.items))
	copy(out, q.items)
	return out
}

// Item returns the row at index.
func (q *Quote) Item(index int) (LineItem, error) {
	if err := q.checkIndex(index); err != nil {
		return LineItem{}, err
	}
	return q.items[index], nil
}

// AddLineItem appends a row built by NewLineItem.
func (q *Quote) AddLineItem(item LineItem) error {
	if item.IsZero() {
		return fieldErr("title", fmt.Errorf("%w: title is required", ErrInvalidLineItem))
	}
	q.items = append(q.items, item)
	return nil
}

// RemoveLineItem deletes the row at index; later rows shift down by one.
func (q *Quote) RemoveLineItem(index int) error {
	if err := q.checkIndex(index); err != nil {
		return err
	}
	q.items = append(q.items[:index], q.items[index+1:]...)
	return nil
}

// UpdateLineItem sets one field of the row at index from its text form.
// The row is rebuilt through NewLineItem so the row rules still hold.
func (q *Quote) UpdateLineItem(index int, field LineField, value string) error {
	if err := q.checkIndex(index); err != nil {
		return err
	}
	cur := q.items[index]
	title, subtitle, qty, price := cur.title, cur.subtitle, cur.quantity, cur.unitPrice
	switch field {
	case FieldTitle:
		title = value
	case FieldSubtitle:
		subtitle = value
	case FieldQuantity:
		v, err := ParseQuantity(value)
		if err != nil {
			return err
		}
		qty = v
	case FieldUnitPrice:
		v, err := money.Parse(value)
		if err != nil {
			return fieldErr("unit_price", fmt.Errorf("%w: %w", ErrInvalidLineItem, err))
		}
		price = v
	default:
		return fieldErr("field", fmt.Errorf("%w: unknown field %q", ErrInvalidLineItem, field))
	}
	next, err := NewLineItem(title, subtitle, qty, price)
	if err != nil {
		return err
	}
	q.items[index] = next
	return nil
}

// MoveLineItem moves the row at from so it ends up at to.
func (q *Quote) MoveLineItem(from, to int) error {
	if err := q.checkIndex(from); err != nil {
		return err
	}
	if err := q.checkIndex(to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	item := q.items[from]
	q.items = append(q.items[:from], q.items[from+1:]...)
	q.items = append(q.items[:to], append([]LineItem{item}, q.items[to:]...)...)
	return nil
}

// SetFinancials replaces the VAT rate and discount.
func (q *Quote) SetFinancials(vatRate decimal.Decimal, discount money.Money) error {
	fin, err := NewFinancials(vatRate, discount)
	if err != nil {
		return err
	}
	q.financials = fin
	return nil
}

// SetStatus records an externally decided status change.
func (q *Quote) SetStatus(s Status) error {
	if !s.Valid() {
		return fieldErr("status", fmt.Errorf("%w: %q", ErrInvalidStatus, s))
	}
	q.status = s
	return nil
}

// ComputeTotals runs Compute over the current state.
func (q *Quote) ComputeTotals() Totals {
	return Compute(q.items, q.financials)
}

func (q *Quote) checkIndex(i int) error {
	if i < 0 || i >= len(q.items) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(q.items))
	}
	return nil
}
