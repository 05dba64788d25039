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

// CountryRepository provides data access for countries.
// Deletes go through the integrity store.
type CountryRepository interface {
	List(ctx context.Context) ([]*models.Country, error)
	GetByID(ctx context.Context, id int64) (*models.Country, error)
	Create(ctx context.Context, c *models.Country) error
	Update(ctx context.Context, c *models.Country, version int64) error
}

type countryRepository struct{}

// NewCountryRepository creates a new CountryRepository.
func NewCountryRepository() CountryRepository {
	return &countryRepository{}
}

var _ CountryRepository = (*countryRepository)(nil)

func (r *countryRepository) List(ctx context.Context) ([]*models.Country, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `SELECT id, name, version FROM countries ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query countries: %w", database.ClassifyError(err))
	}
	defer rows.Close()

	var countries []*models.Country
	for rows.Next() {
		c := &models.Country{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Version); err != nil {
			return nil, fmt.Errorf("failed to scan country: %w", err)
		}
		countries = append(countries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating countries: %w", database.ClassifyError(err))
	}
	return countries, nil
}

func (r *countryRepository) GetByID(ctx context.Context, id int64) (*models.Country, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	c := &models.Country{}
	err = q.QueryRow(ctx, `SELECT id, name, version FROM countries WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(integrity.KindCountry, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get country: %w", database.ClassifyError(err))
	}
	return c, nil
}

func (r *countryRepository) Create(ctx context.Context, c *models.Country) error {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	err = q.QueryRow(ctx, `INSERT INTO countries (name) VALUES ($1) RETURNING id, version`, c.Name).
		Scan(&c.ID, &c.Version)
	if err != nil {
		return fmt.Errorf("failed to create country: %w", database.ClassifyError(err))
	}
	return nil
}

func (r *countryRepository) Update(ctx context.Context, c *models.Country, version int64) error {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	err = q.QueryRow(ctx, `
		UPDATE countries SET name = $2, version = version + 1
		WHERE id = $1 AND version = $3
		RETURNING version`, c.ID, c.Name, version).Scan(&c.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return staleOrMissing(ctx, q, integrity.KindCountry, c.ID, version)
	}
	if err != nil {
		return fmt.Errorf("failed to update country: %w", database.ClassifyError(err))
	}
	return nil
}
