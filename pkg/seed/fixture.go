package seed

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture is the YAML form of a starting data set. Geography nests, and
// orders refer to customers and products by display name.
type Fixture struct {
	Countries []CountryFixture `yaml:"countries"`
	Orders    []OrderFixture   `yaml:"orders"`
}

type CountryFixture struct {
	Name   string        `yaml:"name"`
	Cities []CityFixture `yaml:"cities"`
}

type CityFixture struct {
	Name      string            `yaml:"name"`
	Customers []CustomerFixture `yaml:"customers"`
	Suppliers []SupplierFixture `yaml:"suppliers"`
}

type CustomerFixture struct {
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
	Phone     string `yaml:"phone"`
}

type SupplierFixture struct {
	CompanyName  string           `yaml:"company_name"`
	ContactName  string           `yaml:"contact_name"`
	ContactTitle string           `yaml:"contact_title"`
	Phone        string           `yaml:"phone"`
	Fax          string           `yaml:"fax"`
	Products     []ProductFixture `yaml:"products"`
}

// ProductFixture keeps the price as text so it is parsed exactly.
type ProductFixture struct {
	Name           string `yaml:"product_name"`
	UnitPrice      string `yaml:"unit_price"`
	Package        string `yaml:"package"`
	IsDiscontinued bool   `yaml:"is_discontinued"`
}

type OrderFixture struct {
	OrderNumber string             `yaml:"order_number"`
	OrderDate   string             `yaml:"order_date"`
	Customer    string             `yaml:"customer"`
	Items       []OrderItemFixture `yaml:"items"`
}

// OrderItemFixture omits UnitPrice to take the product's current price.
type OrderItemFixture struct {
	Product   string `yaml:"product"`
	Quantity  int64  `yaml:"quantity"`
	UnitPrice string `yaml:"unit_price"`
}

// LoadFile reads and parses a fixture file.
func LoadFile(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes fixture YAML.
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}
	return &f, nil
}
