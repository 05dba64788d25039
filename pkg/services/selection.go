package services

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/repositories"
)

// SelectionService resolves the choices a form offers once a parent is
// picked, and the option lists for every foreign-key field.
type SelectionService interface {
	// CitiesOf lists a country's cities by name. A country with no cities,
	// or no country at all, yields an empty list.
	CitiesOf(ctx context.Context, countryID int64) ([]models.Option, error)
	// UnitPriceOf returns the product's current price, or a not-found error.
	UnitPriceOf(ctx context.Context, productID int64) (decimal.Decimal, error)
	// Options returns the selection list of any kind except order items.
	Options(ctx context.Context, kind integrity.Kind) ([]models.Option, error)

	CountryOptions(ctx context.Context) ([]models.Option, error)
	CustomerOptions(ctx context.Context) ([]models.Option, error)
	SupplierOptions(ctx context.Context) ([]models.Option, error)
	ProductOptions(ctx context.Context) ([]models.Option, error)
	OrderOptions(ctx context.Context) ([]models.Option, error)
}

type selectionService struct {
	tx     database.Transactor
	repo   repositories.SelectionRepository
	cache  SelectionCache
	logger *zap.Logger
}

// NewSelectionService creates a new SelectionService. Pass
// NewNoopSelectionCache() to always read through.
func NewSelectionService(
	tx database.Transactor,
	repo repositories.SelectionRepository,
	cache SelectionCache,
	logger *zap.Logger,
) SelectionService {
	return &selectionService{
		tx:     tx,
		repo:   repo,
		cache:  cache,
		logger: logger.Named("selection-service"),
	}
}

var _ SelectionService = (*selectionService)(nil)

func (s *selectionService) CitiesOf(ctx context.Context, countryID int64) ([]models.Option, error) {
	cities, token, ok := s.cache.GetCities(ctx, countryID)
	if ok {
		return cities, nil
	}

	err := s.tx.Scoped(ctx, func(ctx context.Context) error {
		var err error
		cities, err = s.repo.CitiesOf(ctx, countryID)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to resolve cities of country", err, zap.Int64("country_id", countryID))
		return nil, err
	}

	s.cache.SetCities(ctx, countryID, token, cities)
	return cities, nil
}

func (s *selectionService) UnitPriceOf(ctx context.Context, productID int64) (decimal.Decimal, error) {
	var price decimal.Decimal
	err := s.tx.Scoped(ctx, func(ctx context.Context) error {
		var err error
		price, err = s.repo.UnitPriceOf(ctx, productID)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to resolve unit price", err, zap.Int64("product_id", productID))
		return decimal.Zero, err
	}
	return price, nil
}

func (s *selectionService) Options(ctx context.Context, kind integrity.Kind) ([]models.Option, error) {
	if kind == integrity.KindOrderItem {
		return nil, apperrors.NewValidationError("kind", "order items have no option list")
	}

	var options []models.Option
	err := s.tx.Scoped(ctx, func(ctx context.Context) error {
		var err error
		options, err = s.repo.Options(ctx, kind)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to list options", err, zap.String("kind", string(kind)))
		return nil, err
	}
	return options, nil
}

func (s *selectionService) CountryOptions(ctx context.Context) ([]models.Option, error) {
	return s.Options(ctx, integrity.KindCountry)
}

func (s *selectionService) CustomerOptions(ctx context.Context) ([]models.Option, error) {
	return s.Options(ctx, integrity.KindCustomer)
}

func (s *selectionService) SupplierOptions(ctx context.Context) ([]models.Option, error) {
	return s.Options(ctx, integrity.KindSupplier)
}

func (s *selectionService) ProductOptions(ctx context.Context) ([]models.Option, error) {
	return s.Options(ctx, integrity.KindProduct)
}

func (s *selectionService) OrderOptions(ctx context.Context) ([]models.Option, error) {
	return s.Options(ctx, integrity.KindOrder)
}
