package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Country is the root of the geography hierarchy.
type Country struct {
	ID      int64  `json:"id"`
	Name    string `json:"name" validate:"required,max=200"`
	Version int64  `json:"version"`
}

// City belongs to one Country and is referenced by customers and suppliers.
type City struct {
	ID        int64  `json:"id"`
	Name      string `json:"name" validate:"required,max=200"`
	CountryID int64  `json:"country_id" validate:"required"`
	Version   int64  `json:"version"`

	// CountryName is resolved on reads and ignored on writes.
	CountryName string `json:"country_name,omitempty"`
}

// Customer places orders and lives in one City.
type Customer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	CityID    int64  `json:"city_id" validate:"required"`
	Phone     string `json:"phone" validate:"max=50"`
	Version   int64  `json:"version"`

	CityName string `json:"city_name,omitempty"`
}

// DisplayName is how a customer appears in option lists and order details.
func (c *Customer) DisplayName() string {
	return CustomerDisplayName(c.FirstName, c.LastName)
}

// CustomerDisplayName joins first and last name, skipping empty parts.
func CustomerDisplayName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}

// Supplier provides products and is located in one City.
type Supplier struct {
	ID           int64  `json:"id"`
	CompanyName  string `json:"company_name" validate:"required,max=200"`
	ContactName  string `json:"contact_name" validate:"max=200"`
	ContactTitle string `json:"contact_title" validate:"max=100"`
	CityID       int64  `json:"city_id" validate:"required"`
	Phone        string `json:"phone" validate:"max=50"`
	Fax          string `json:"fax" validate:"max=50"`
	Version      int64  `json:"version"`

	CityName string `json:"city_name,omitempty"`
}

// Product is sold by one Supplier at its current UnitPrice.
type Product struct {
	ID             int64           `json:"id"`
	Name           string          `json:"product_name" validate:"required,max=200"`
	SupplierID     int64           `json:"supplier_id" validate:"required"`
	UnitPrice      decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Package        string          `json:"package" validate:"max=100"`
	IsDiscontinued bool            `json:"is_discontinued"`
	Version        int64           `json:"version"`

	SupplierName string `json:"supplier_name,omitempty"`
}
