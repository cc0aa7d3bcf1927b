package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CompanySettings is the issuing company printed on quotes, plus the
// defaults new quotes start from.
type CompanySettings struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// UserID is the owner of these settings
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	// Company information
	Name    string `gorm:"size:255;not null" json:"name"`
	Email   string `gorm:"size:255" json:"email,omitempty"`
	Phone   string `gorm:"size:50" json:"phone,omitempty"`
	Website string `gorm:"size:255" json:"website,omitempty"`

	// Address
	Address    string `gorm:"size:500" json:"address,omitempty"`
	City       string `gorm:"size:100" json:"city,omitempty"`
	PostalCode string `gorm:"size:20" json:"postal_code,omitempty"`
	Country    string `gorm:"size:100" json:"country,omitempty"`

	// Tax & Legal information
	SIRET     string `gorm:"size:14" json:"siret,omitempty"`
	VATNumber string `gorm:"size:20" json:"vat_number,omitempty"`
	RCS       string `gorm:"size:100" json:"rcs,omitempty"`
	Capital   string `gorm:"size:100" json:"capital,omitempty"`

	// Quote defaults
	Currency          string          `gorm:"size:3;not null;default:'EUR'" json:"currency"`
	Locale            string          `gorm:"size:5;not null;default:'fr'" json:"locale"`
	DefaultVATRate    decimal.Decimal `gorm:"type:decimal(5,2);not null;default:20" json:"default_vat_rate"`
	QuoteValidityDays int             `gorm:"not null;default:30" json:"quote_validity_days"`
	DefaultTerms      string          `gorm:"type:text" json:"default_terms,omitempty"`
	FooterText        string          `gorm:"type:text" json:"footer_text,omitempty"`
}

// GetUserID implements the Ownable interface.
func (c *CompanySettings) GetUserID() uint {
	return c.UserID
}

// AddressLines returns the postal address, one line per entry.
func (c *CompanySettings) AddressLines() []string {
	cl := Client{Address: c.Address, PostalCode: c.PostalCode, City: c.City, Country: c.Country}
	return cl.AddressLines()
}
