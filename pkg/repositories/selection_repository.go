package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
)

// SelectionRepository runs the read-only queries behind selection lists.
type SelectionRepository interface {
	// CitiesOf returns the cities of a country ordered by name. An unknown
	// country yields an empty slice.
	CitiesOf(ctx context.Context, countryID int64) ([]models.Option, error)
	// UnitPriceOf returns a product's current price.
	UnitPriceOf(ctx context.Context, productID int64) (decimal.Decimal, error)
	// Options returns the selection list for a kind ordered by display name.
	Options(ctx context.Context, kind integrity.Kind) ([]models.Option, error)
}

type selectionRepository struct{}

// NewSelectionRepository creates a new SelectionRepository.
func NewSelectionRepository() SelectionRepository {
	return &selectionRepository{}
}

var _ SelectionRepository = (*selectionRepository)(nil)

// optionQueries select (id, name, group) for each kind's selection list.
var optionQueries = map[integrity.Kind]string{
	integrity.KindCountry: `
		SELECT id, name, '' FROM countries ORDER BY name, id`,
	integrity.KindCity: `
		SELECT c.id, c.name, co.name FROM cities c JOIN countries co ON co.id = c.country_id
		ORDER BY co.name, c.name, c.id`,
	integrity.KindCustomer: `
		SELECT id, TRIM(first_name || ' ' || last_name) AS display, '' FROM customers
		ORDER BY display, id`,
	integrity.KindSupplier: `
		SELECT id, company_name, '' FROM suppliers ORDER BY company_name, id`,
	integrity.KindProduct: `
		SELECT id, product_name, '' FROM products ORDER BY product_name, id`,
	integrity.KindOrder: `
		SELECT id, order_number, '' FROM orders ORDER BY order_number, id`,
}

func collectOptions(rows pgx.Rows) ([]models.Option, error) {
	defer rows.Close()

	options := []models.Option{}
	for rows.Next() {
		var o models.Option
		if err := rows.Scan(&o.ID, &o.Name, &o.Group); err != nil {
			return nil, fmt.Errorf("failed to scan option: %w", err)
		}
		options = append(options, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating options: %w", database.ClassifyError(err))
	}
	return options, nil
}

func (r *selectionRepository) CitiesOf(ctx context.Context, countryID int64) ([]models.Option, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `
		SELECT c.id, c.name, co.name
		FROM cities c
		JOIN countries co ON co.id = c.country_id
		WHERE c.country_id = $1
		ORDER BY c.name, c.id`, countryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cities of country: %w", database.ClassifyError(err))
	}
	return collectOptions(rows)
}

func (r *selectionRepository) UnitPriceOf(ctx context.Context, productID int64) (decimal.Decimal, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return decimal.Zero, err
	}

	var price decimal.Decimal
	err = q.QueryRow(ctx, `SELECT unit_price FROM products WHERE id = $1`, productID).Scan(&price)
	if errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, notFound(integrity.KindProduct, productID)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get unit price: %w", database.ClassifyError(err))
	}
	return price, nil
}

func (r *selectionRepository) Options(ctx context.Context, kind integrity.Kind) ([]models.Option, error) {
	query, ok := optionQueries[kind]
	if !ok {
		return nil, fmt.Errorf("no option list for %s", kind)
	}

	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s options: %w", kind, database.ClassifyError(err))
	}
	return collectOptions(rows)
}
