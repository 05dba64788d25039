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

// SupplierRepository provides data access for suppliers.
type SupplierRepository interface {
	List(ctx context.Context) ([]*models.Supplier, error)
	GetByID(ctx context.Context, id int64) (*models.Supplier, error)
	Create(ctx context.Context, s *models.Supplier) error
	Update(ctx context.Context, s *models.Supplier, version int64) error
}

type supplierRepository struct{}

// NewSupplierRepository creates a new SupplierRepository.
func NewSupplierRepository() SupplierRepository {
	return &supplierRepository{}
}

var _ SupplierRepository = (*supplierRepository)(nil)

const supplierSelect = `
	SELECT s.id, s.company_name, s.contact_name, s.contact_title, s.city_id,
	       s.phone, s.fax, s.version, ci.name
	FROM suppliers s
	JOIN cities ci ON ci.id = s.city_id`

func scanSupplier(row scanner) (*models.Supplier, error) {
	s := &models.Supplier{}
	err := row.Scan(&s.ID, &s.CompanyName, &s.ContactName, &s.ContactTitle, &s.CityID,
		&s.Phone, &s.Fax, &s.Version, &s.CityName)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *supplierRepository) List(ctx context.Context) ([]*models.Supplier, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, supplierSelect+` ORDER BY s.company_name, s.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query suppliers: %w", database.ClassifyError(err))
	}
	defer rows.Close()

	var suppliers []*models.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan supplier: %w", err)
		}
		suppliers = append(suppliers, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating suppliers: %w", database.ClassifyError(err))
	}
	return suppliers, nil
}

func (r *supplierRepository) GetByID(ctx context.Context, id int64) (*models.Supplier, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	s, err := scanSupplier(q.QueryRow(ctx, supplierSelect+` WHERE s.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(integrity.KindSupplier, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get supplier: %w", database.ClassifyError(err))
	}
	return s, nil
}

func (r *supplierRepository) Create(ctx context.Context, s *models.Supplier) error {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	err = q.QueryRow(ctx, `
		INSERT INTO suppliers (company_name, contact_name, contact_title, city_id, phone, fax)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, version`,
		s.CompanyName, s.ContactName, s.ContactTitle, s.CityID, s.Phone, s.Fax,
	).Scan(&s.ID, &s.Version)
	if err != nil {
		return fmt.Errorf("failed to create supplier: %w", database.ClassifyError(err))
	}
	return nil
}

func (r *supplierRepository) Update(ctx context.Context, s *models.Supplier, version int64) error {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	err = q.QueryRow(ctx, `
		UPDATE suppliers
		SET company_name = $2, contact_name = $3, contact_title = $4, city_id = $5,
		    phone = $6, fax = $7, version = version + 1
		WHERE id = $1 AND version = $8
		RETURNING version`,
		s.ID, s.CompanyName, s.ContactName, s.ContactTitle, s.CityID, s.Phone, s.Fax, version,
	).Scan(&s.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return staleOrMissing(ctx, q, integrity.KindSupplier, s.ID, version)
	}
	if err != nil {
		return fmt.Errorf("failed to update supplier: %w", database.ClassifyError(err))
	}
	return nil
}
