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

// CustomerRepository provides data access for customers.
type CustomerRepository interface {
	List(ctx context.Context) ([]*models.Customer, error)
	GetByID(ctx context.Context, id int64) (*models.Customer, error)
	Create(ctx context.Context, c *models.Customer) error
	Update(ctx context.Context, c *models.Customer, version int64) error
}

type customerRepository struct{}

// NewCustomerRepository creates a new CustomerRepository.
func NewCustomerRepository() CustomerRepository {
	return &customerRepository{}
}

var _ CustomerRepository = (*customerRepository)(nil)

const customerSelect = `
	SELECT cu.id, cu.first_name, cu.last_name, cu.city_id, cu.phone, cu.version, ci.name
	FROM customers cu
	JOIN cities ci ON ci.id = cu.city_id`

func scanCustomer(row scanner) (*models.Customer, error) {
	c := &models.Customer{}
	if err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.CityID, &c.Phone, &c.Version, &c.CityName); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *customerRepository) List(ctx context.Context) ([]*models.Customer, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, customerSelect+` ORDER BY cu.last_name, cu.first_name, cu.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", database.ClassifyError(err))
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		customers = append(customers, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customers: %w", database.ClassifyError(err))
	}
	return customers, nil
}

func (r *customerRepository) GetByID(ctx context.Context, id int64) (*models.Customer, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	c, err := scanCustomer(q.QueryRow(ctx, customerSelect+` WHERE cu.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(integrity.KindCustomer, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", database.ClassifyError(err))
	}
	return c, nil
}

func (r *customerRepository) Create(ctx context.Context, c *models.Customer) error {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	err = q.QueryRow(ctx, `
		INSERT INTO customers (first_name, last_name, city_id, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id, version`,
		c.FirstName, c.LastName, c.CityID, c.Phone,
	).Scan(&c.ID, &c.Version)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", database.ClassifyError(err))
	}
	return nil
}

func (r *customerRepository) Update(ctx context.Context, c *models.Customer, version int64) error {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	err = q.QueryRow(ctx, `
		UPDATE customers
		SET first_name = $2, last_name = $3, city_id = $4, phone = $5, version = version + 1
		WHERE id = $1 AND version = $6
		RETURNING version`,
		c.ID, c.FirstName, c.LastName, c.CityID, c.Phone, version,
	).Scan(&c.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return staleOrMissing(ctx, q, integrity.KindCustomer, c.ID, version)
	}
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", database.ClassifyError(err))
	}
	return nil
}
