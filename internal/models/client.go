package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Client is a customer quotes are addressed to.
// Implements the Ownable interface for ownership-based authorization.
type Client struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// UserID is the owner of this client (for multi-tenant isolation)
	UserID uint `gorm:"index;not null" json:"user_id"`
	User   User `gorm:"foreignKey:UserID" json:"-"`

	Name    string `gorm:"size:255;not null" json:"name" validate:"required,max=255"`
	Email   string `gorm:"size:255" json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone   string `gorm:"size:50" json:"phone,omitempty" validate:"max=50"`
	Company string `gorm:"size:255" json:"company,omitempty" validate:"max=255"`

	Address    string `gorm:"size:500" json:"address,omitempty" validate:"max=500"`
	City       string `gorm:"size:100" json:"city,omitempty" validate:"max=100"`
	PostalCode string `gorm:"size:20" json:"postal_code,omitempty" validate:"max=20"`
	Country    string `gorm:"size:100" json:"country,omitempty" validate:"max=100"`

	SIRET     string `gorm:"size:14" json:"siret,omitempty" validate:"max=14"`
	VATNumber string `gorm:"size:20" json:"vat_number,omitempty" validate:"max=20"`
}

// GetUserID implements the Ownable interface for authorization.
func (c *Client) GetUserID() uint {
	return c.UserID
}

// DisplayName prefers the company name, as printed on documents.
func (c *Client) DisplayName() string {
	if c.Company != "" {
		return c.Company
	}
	return c.Name
}

// AddressLines returns the postal address, one line per entry, skipping
// empty parts.
func (c *Client) AddressLines() []string {
	var lines []string
	if c.Address != "" {
		lines = append(lines, c.Address)
	}
	if city := strings.TrimSpace(c.PostalCode + " " + c.City); city != "" {
		lines = append(lines, city)
	}
	if c.Country != "" {
		lines = append(lines, c.Country)
	}
	return lines
}
