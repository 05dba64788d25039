package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/repositories"
)

// CountryService manages countries. Deleting a country removes its cities
// and everything below them.
type CountryService interface {
	List(ctx context.Context) ([]*models.Country, error)
	Get(ctx context.Context, id int64) (*models.Country, error)
	Create(ctx context.Context, c *models.Country) (int64, error)
	// Update replaces the record if version still matches the stored one.
	Update(ctx context.Context, id int64, c *models.Country, version int64) error
	Delete(ctx context.Context, id int64) error
}

type countryService struct {
	tx       database.Transactor
	repo     repositories.CountryRepository
	enforcer *integrity.Enforcer
	cache    SelectionCache
	logger   *zap.Logger
}

// NewCountryService creates a new CountryService.
func NewCountryService(
	tx database.Transactor,
	repo repositories.CountryRepository,
	enforcer *integrity.Enforcer,
	cache SelectionCache,
	logger *zap.Logger,
) CountryService {
	return &countryService{
		tx:       tx,
		repo:     repo,
		enforcer: enforcer,
		cache:    cache,
		logger:   logger.Named("country-service"),
	}
}

var _ CountryService = (*countryService)(nil)

func (s *countryService) List(ctx context.Context) ([]*models.Country, error) {
	var countries []*models.Country
	err := s.tx.Scoped(ctx, func(ctx context.Context) error {
		var err error
		countries, err = s.repo.List(ctx)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to list countries", err)
		return nil, err
	}
	return countries, nil
}

func (s *countryService) Get(ctx context.Context, id int64) (*models.Country, error) {
	var c *models.Country
	err := s.tx.Scoped(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to get country", err, zap.Int64("country_id", id))
		return nil, err
	}
	return c, nil
}

func (s *countryService) Create(ctx context.Context, c *models.Country) (int64, error) {
	if err := models.Validate(c); err != nil {
		return 0, err
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.repo.Create(ctx, c)
	})
	if err != nil {
		logOutcome(s.logger, "Failed to create country", err, zap.String("name", c.Name))
		return 0, err
	}
	return c.ID, nil
}

func (s *countryService) Update(ctx context.Context, id int64, c *models.Country, version int64) error {
	if err := models.Validate(c); err != nil {
		return err
	}
	c.ID = id
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, c, version)
	})
	if err != nil {
		logOutcome(s.logger, "Failed to update country", err, zap.Int64("country_id", id))
		return err
	}
	// City options are grouped under the country name.
	s.cache.InvalidateCities(ctx, id)
	return nil
}

func (s *countryService) Delete(ctx context.Context, id int64) error {
	plan, err := deleteEntity(ctx, s.tx, s.enforcer, integrity.KindCountry, id, nil)
	if err != nil {
		logOutcome(s.logger, "Failed to delete country", err, zap.Int64("country_id", id))
		return err
	}
	s.cache.InvalidateCities(ctx, id)
	s.logger.Info("Deleted country", zap.Int64("country_id", id), zap.Any("removed", plan.Counts()))
	return nil
}
