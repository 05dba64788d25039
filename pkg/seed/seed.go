// Package seed loads a starting data set through the services, so seeded rows
// pass the same validation and integrity checks as any other write.
package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/services"
)

// Services are the write paths the seeder drives.
type Services struct {
	Countries services.CountryService
	Cities    services.CityService
	Customers services.CustomerService
	Suppliers services.SupplierService
	Products  services.ProductService
	Orders    services.OrderService
}

// Result counts the rows created by one Apply.
type Result struct {
	Skipped   bool
	Countries int
	Cities    int
	Customers int
	Suppliers int
	Products  int
	Orders    int
	Items     int
}

// Seeder applies fixtures to an empty database.
type Seeder struct {
	tx     database.Transactor
	svc    Services
	logger *zap.Logger
}

// NewSeeder creates a Seeder. The services must run their writes through tx
// so the whole fixture commits or rolls back together.
func NewSeeder(tx database.Transactor, svc Services, logger *zap.Logger) *Seeder {
	return &Seeder{tx: tx, svc: svc, logger: logger.Named("seed")}
}

// ApplyFile loads path and applies it.
func (s *Seeder) ApplyFile(ctx context.Context, path string) (*Result, error) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return s.Apply(ctx, f)
}

// Apply creates every record in f inside one transaction. It does nothing
// when any country already exists. A failure rolls back every row, so the
// next run starts from an empty database again.
func (s *Seeder) Apply(ctx context.Context, f *Fixture) (*Result, error) {
	var res *Result
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		res, err = s.apply(ctx, f)
		return err
	})
	if err != nil {
		return nil, err
	}

	if res.Skipped {
		return res, nil
	}
	s.logger.Info("Seeded database",
		zap.Int("countries", res.Countries),
		zap.Int("cities", res.Cities),
		zap.Int("customers", res.Customers),
		zap.Int("suppliers", res.Suppliers),
		zap.Int("products", res.Products),
		zap.Int("orders", res.Orders),
		zap.Int("order_items", res.Items))
	return res, nil
}

func (s *Seeder) apply(ctx context.Context, f *Fixture) (*Result, error) {
	existing, err := s.svc.Countries.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing data: %w", err)
	}
	if len(existing) > 0 {
		s.logger.Info("Database already has data, skipping seed", zap.Int("countries", len(existing)))
		return &Result{Skipped: true}, nil
	}

	res := &Result{}
	customers := map[string]int64{}
	products := map[string]int64{}

	for _, cf := range f.Countries {
		countryID, err := s.svc.Countries.Create(ctx, &models.Country{Name: cf.Name})
		if err != nil {
			return nil, fmt.Errorf("country %q: %w", cf.Name, err)
		}
		res.Countries++

		for _, cityF := range cf.Cities {
			cityID, err := s.svc.Cities.Create(ctx, &models.City{Name: cityF.Name, CountryID: countryID})
			if err != nil {
				return nil, fmt.Errorf("city %q: %w", cityF.Name, err)
			}
			res.Cities++

			if err := s.seedCity(ctx, cityID, cityF, res, customers, products); err != nil {
				return nil, err
			}
		}
	}

	for _, of := range f.Orders {
		if err := s.seedOrder(ctx, of, customers, products); err != nil {
			return nil, fmt.Errorf("order %q: %w", of.OrderNumber, err)
		}
		res.Orders++
		res.Items += len(of.Items)
	}
	return res, nil
}

func (s *Seeder) seedCity(ctx context.Context, cityID int64, cf CityFixture, res *Result, customers, products map[string]int64) error {
	for _, c := range cf.Customers {
		id, err := s.svc.Customers.Create(ctx, &models.Customer{
			FirstName: c.FirstName,
			LastName:  c.LastName,
			CityID:    cityID,
			Phone:     c.Phone,
		})
		if err != nil {
			return fmt.Errorf("customer %q: %w", models.CustomerDisplayName(c.FirstName, c.LastName), err)
		}
		customers[models.CustomerDisplayName(c.FirstName, c.LastName)] = id
		res.Customers++
	}

	for _, sf := range cf.Suppliers {
		supplierID, err := s.svc.Suppliers.Create(ctx, &models.Supplier{
			CompanyName:  sf.CompanyName,
			ContactName:  sf.ContactName,
			ContactTitle: sf.ContactTitle,
			CityID:       cityID,
			Phone:        sf.Phone,
			Fax:          sf.Fax,
		})
		if err != nil {
			return fmt.Errorf("supplier %q: %w", sf.CompanyName, err)
		}
		res.Suppliers++

		for _, pf := range sf.Products {
			price, err := parsePrice(pf.UnitPrice)
			if err != nil {
				return fmt.Errorf("product %q: %w", pf.Name, err)
			}
			id, err := s.svc.Products.Create(ctx, &models.Product{
				Name:           pf.Name,
				SupplierID:     supplierID,
				UnitPrice:      price,
				Package:        pf.Package,
				IsDiscontinued: pf.IsDiscontinued,
			})
			if err != nil {
				return fmt.Errorf("product %q: %w", pf.Name, err)
			}
			products[pf.Name] = id
			res.Products++
		}
	}
	return nil
}

func (s *Seeder) seedOrder(ctx context.Context, of OrderFixture, customers, products map[string]int64) error {
	customerID, ok := customers[of.Customer]
	if !ok {
		return fmt.Errorf("unknown customer %q", of.Customer)
	}
	date, err := models.ParseDate(of.OrderDate)
	if err != nil {
		return err
	}

	draft := models.NewOrderDraft(date, of.OrderNumber, customerID)
	for _, item := range of.Items {
		productID, ok := products[item.Product]
		if !ok {
			return fmt.Errorf("unknown product %q", item.Product)
		}
		line := models.DraftLine{ProductID: productID, Quantity: item.Quantity}
		if item.UnitPrice != "" {
			price, err := decimal.NewFromString(item.UnitPrice)
			if err != nil {
				return fmt.Errorf("invalid unit_price %q for %q: %w", item.UnitPrice, item.Product, err)
			}
			line.UnitPrice = &price
		}
		if err := draft.AddLine(line); err != nil {
			return err
		}
	}

	_, err = s.svc.Orders.Create(ctx, draft)
	return err
}

// parsePrice reads an optional price; empty means zero.
func parsePrice(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid unit_price %q: %w", s, err)
	}
	return d, nil
}
