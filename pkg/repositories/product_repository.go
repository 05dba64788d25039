package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
)

// ProductRepository provides data access for products.
type ProductRepository interface {
	List(ctx context.Context) ([]*models.Product, error)
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product, version int64) error
}

type productRepository struct{}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository() ProductRepository {
	return &productRepository{}
}

var _ ProductRepository = (*productRepository)(nil)

const productSelect = `
	SELECT p.id, p.product_name, p.supplier_id, p.unit_price, p.package,
	       p.is_discontinued, p.version, s.company_name
	FROM products p
	JOIN suppliers s ON s.id = p.supplier_id`

func scanProduct(row scanner) (*models.Product, error) {
	p := &models.Product{}
	err := row.Scan(&p.ID, &p.Name, &p.SupplierID, &p.UnitPrice, &p.Package,
		&p.IsDiscontinued, &p.Version, &p.SupplierName)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *productRepository) List(ctx context.Context) ([]*models.Product, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, productSelect+` ORDER BY p.product_name, p.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", database.ClassifyError(err))
	}
	defer rows.Close()

	var products []*models.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", database.ClassifyError(err))
	}
	return products, nil
}

func (r *productRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	p, err := scanProduct(q.QueryRow(ctx, productSelect+` WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(integrity.KindProduct, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", database.ClassifyError(err))
	}
	return p, nil
}

func (r *productRepository) Create(ctx context.Context, p *models.Product) error {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	err = q.QueryRow(ctx, `
		INSERT INTO products (product_name, supplier_id, unit_price, package, is_discontinued)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, version`,
		p.Name, p.SupplierID, p.UnitPrice, p.Package, p.IsDiscontinued,
	).Scan(&p.ID, &p.Version)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", database.ClassifyError(err))
	}
	return nil
}

// Update changes the product only. Order items keep the price they were written with.
func (r *productRepository) Update(ctx context.Context, p *models.Product, version int64) error {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	err = q.QueryRow(ctx, `
		UPDATE products
		SET product_name = $2, supplier_id = $3, unit_price = $4, package = $5,
		    is_discontinued = $6, version = version + 1
		WHERE id = $1 AND version = $7
		RETURNING version`,
		p.ID, p.Name, p.SupplierID, p.UnitPrice, p.Package, p.IsDiscontinued, version,
	).Scan(&p.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return staleOrMissing(ctx, q, integrity.KindProduct, p.ID, version)
	}
	if err != nil {
		return fmt.Errorf("failed to update product: %w", database.ClassifyError(err))
	}
	return nil
}
