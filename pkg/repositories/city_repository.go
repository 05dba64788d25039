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

// CityRepository provides data access for cities.
type CityRepository interface {
	List(ctx context.Context) ([]*models.City, error)
	GetByID(ctx context.Context, id int64) (*models.City, error)
	Create(ctx context.Context, c *models.City) error
	Update(ctx context.Context, c *models.City, version int64) error
}

type cityRepository struct{}

// NewCityRepository creates a new CityRepository.
func NewCityRepository() CityRepository {
	return &cityRepository{}
}

var _ CityRepository = (*cityRepository)(nil)

const citySelect = `
	SELECT c.id, c.name, c.country_id, c.version, co.name
	FROM cities c
	JOIN countries co ON co.id = c.country_id`

func scanCity(row scanner) (*models.City, error) {
	c := &models.City{}
	if err := row.Scan(&c.ID, &c.Name, &c.CountryID, &c.Version, &c.CountryName); err != nil {
		return nil, err
	}
	return c, nil
}

func (r *cityRepository) List(ctx context.Context) ([]*models.City, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, citySelect+` ORDER BY co.name, c.name, c.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query cities: %w", database.ClassifyError(err))
	}
	defer rows.Close()

	var cities []*models.City
	for rows.Next() {
		c, err := scanCity(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		cities = append(cities, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cities: %w", database.ClassifyError(err))
	}
	return cities, nil
}

func (r *cityRepository) GetByID(ctx context.Context, id int64) (*models.City, error) {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return nil, err
	}

	c, err := scanCity(q.QueryRow(ctx, citySelect+` WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(integrity.KindCity, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get city: %w", database.ClassifyError(err))
	}
	return c, nil
}

func (r *cityRepository) Create(ctx context.Context, c *models.City) error {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	err = q.QueryRow(ctx, `
		INSERT INTO cities (name, country_id) VALUES ($1, $2)
		RETURNING id, version`, c.Name, c.CountryID).Scan(&c.ID, &c.Version)
	if err != nil {
		return fmt.Errorf("failed to create city: %w", database.ClassifyError(err))
	}
	return nil
}

func (r *cityRepository) Update(ctx context.Context, c *models.City, version int64) error {
	q, err := database.QuerierFrom(ctx)
	if err != nil {
		return err
	}

	err = q.QueryRow(ctx, `
		UPDATE cities SET name = $2, country_id = $3, version = version + 1
		WHERE id = $1 AND version = $4
		RETURNING version`, c.ID, c.Name, c.CountryID, version).Scan(&c.Version)
	if errors.Is(err, pgx.ErrNoRows) {
		return staleOrMissing(ctx, q, integrity.KindCity, c.ID, version)
	}
	if err != nil {
		return fmt.Errorf("failed to update city: %w", database.ClassifyError(err))
	}
	return nil
}
