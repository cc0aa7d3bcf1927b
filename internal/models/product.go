package models

import (
	"time"

	"github.com/diewo77/go-quotes/internal/money"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry (service or good) used to pre-fill quote rows.
// Implements the Ownable interface for ownership-based authorization.
type Product struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// UserID is the owner of this product (for multi-tenant isolation)
	UserID uint `gorm:"index;not null;uniqueIndex:idx_product_user_code" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Code        string      `gorm:"size:50;not null;uniqueIndex:idx_product_user_code" json:"code"`
	Name        string      `gorm:"size:255;not null" json:"name"`
	Description string      `gorm:"type:text" json:"description,omitempty"`
	UnitPrice   money.Money `gorm:"type:decimal(12,2);not null;default:0" json:"unit_price"`
	Unit        string      `gorm:"size:50;default:'unit'" json:"unit"` // unit, hour, day, ...

	// DefaultQuantity pre-fills the quantity of a row added from the catalog.
	DefaultQuantity decimal.Decimal `gorm:"type:decimal(12,3);not null;default:1" json:"default_quantity"`

	Category string `gorm:"size:100" json:"category,omitempty"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}

// GetUserID implements the Ownable interface for authorization.
func (p *Product) GetUserID() uint {
	return p.UserID
}

// RowQuantity is the quantity a new quote row starts with.
func (p *Product) RowQuantity() decimal.Decimal {
	if p.DefaultQuantity.IsPositive() {
		return p.DefaultQuantity
	}
	return decimal.NewFromInt(1)
}
