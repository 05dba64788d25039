package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/repositories"
)

// CityService manages cities. Every write invalidates the cached city list of
// the countries it touches.
type CityService interface {
	List(ctx context.Context) ([]*models.City, error)
	Get(ctx context.Context, id int64) (*models.City, error)
	Create(ctx context.Context, c *models.City) (int64, error)
	Update(ctx context.Context, id int64, c *models.City, version int64) error
	Delete(ctx context.Context, id int64) error
}

type cityService struct {
	tx       database.Transactor
	repo     repositories.CityRepository
	enforcer *integrity.Enforcer
	cache    SelectionCache
	logger   *zap.Logger
}

// NewCityService creates a new CityService.
func NewCityService(
	tx database.Transactor,
	repo repositories.CityRepository,
	enforcer *integrity.Enforcer,
	cache SelectionCache,
	logger *zap.Logger,
) CityService {
	return &cityService{
		tx:       tx,
		repo:     repo,
		enforcer: enforcer,
		cache:    cache,
		logger:   logger.Named("city-service"),
	}
}

var _ CityService = (*cityService)(nil)

func (s *cityService) List(ctx context.Context) ([]*models.City, error) {
	var cities []*models.City
	err := s.tx.Scoped(ctx, func(ctx context.Context) error {
		var err error
		cities, err = s.repo.List(ctx)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to list cities", err)
		return nil, err
	}
	return cities, nil
}

func (s *cityService) Get(ctx context.Context, id int64) (*models.City, error) {
	var c *models.City
	err := s.tx.Scoped(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to get city", err, zap.Int64("city_id", id))
		return nil, err
	}
	return c, nil
}

func (s *cityService) Create(ctx context.Context, c *models.City) (int64, error) {
	if err := models.Validate(c); err != nil {
		return 0, err
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.enforcer.CheckReferences(ctx,
			integrity.Ref("country_id", integrity.KindCountry, c.CountryID)); err != nil {
			return err
		}
		return s.repo.Create(ctx, c)
	})
	if err != nil {
		logOutcome(s.logger, "Failed to create city", err, zap.Int64("country_id", c.CountryID))
		return 0, err
	}
	s.cache.InvalidateCities(ctx, c.CountryID)
	return c.ID, nil
}

func (s *cityService) Update(ctx context.Context, id int64, c *models.City, version int64) error {
	if err := models.Validate(c); err != nil {
		return err
	}
	c.ID = id
	var previousCountry int64
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.enforcer.CheckReferences(ctx,
			integrity.Ref("country_id", integrity.KindCountry, c.CountryID)); err != nil {
			return err
		}
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		previousCountry = current.CountryID
		return s.repo.Update(ctx, c, version)
	})
	if err != nil {
		logOutcome(s.logger, "Failed to update city", err, zap.Int64("city_id", id))
		return err
	}
	s.cache.InvalidateCities(ctx, previousCountry, c.CountryID)
	return nil
}

func (s *cityService) Delete(ctx context.Context, id int64) error {
	var countryID int64
	_, err := deleteEntity(ctx, s.tx, s.enforcer, integrity.KindCity, id, func(ctx context.Context) error {
		c, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		countryID = c.CountryID
		return nil
	})
	if err != nil {
		logOutcome(s.logger, "Failed to delete city", err, zap.Int64("city_id", id))
		return err
	}
	s.cache.InvalidateCities(ctx, countryID)
	return nil
}
