package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/repositories"
)

// SupplierService manages suppliers. A supplier whose products appear on
// orders cannot be deleted.
type SupplierService interface {
	List(ctx context.Context) ([]*models.Supplier, error)
	Get(ctx context.Context, id int64) (*models.Supplier, error)
	Create(ctx context.Context, sup *models.Supplier) (int64, error)
	Update(ctx context.Context, id int64, sup *models.Supplier, version int64) error
	Delete(ctx context.Context, id int64) error
}

type supplierService struct {
	tx       database.Transactor
	repo     repositories.SupplierRepository
	enforcer *integrity.Enforcer
	logger   *zap.Logger
}

// NewSupplierService creates a new SupplierService.
func NewSupplierService(
	tx database.Transactor,
	repo repositories.SupplierRepository,
	enforcer *integrity.Enforcer,
	logger *zap.Logger,
) SupplierService {
	return &supplierService{
		tx:       tx,
		repo:     repo,
		enforcer: enforcer,
		logger:   logger.Named("supplier-service"),
	}
}

var _ SupplierService = (*supplierService)(nil)

func (s *supplierService) List(ctx context.Context) ([]*models.Supplier, error) {
	var suppliers []*models.Supplier
	err := s.tx.Scoped(ctx, func(ctx context.Context) error {
		var err error
		suppliers, err = s.repo.List(ctx)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to list suppliers", err)
		return nil, err
	}
	return suppliers, nil
}

func (s *supplierService) Get(ctx context.Context, id int64) (*models.Supplier, error) {
	var sup *models.Supplier
	err := s.tx.Scoped(ctx, func(ctx context.Context) error {
		var err error
		sup, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to get supplier", err, zap.Int64("supplier_id", id))
		return nil, err
	}
	return sup, nil
}

func (s *supplierService) Create(ctx context.Context, sup *models.Supplier) (int64, error) {
	if err := models.Validate(sup); err != nil {
		return 0, err
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.enforcer.CheckReferences(ctx,
			integrity.Ref("city_id", integrity.KindCity, sup.CityID)); err != nil {
			return err
		}
		return s.repo.Create(ctx, sup)
	})
	if err != nil {
		logOutcome(s.logger, "Failed to create supplier", err, zap.String("company_name", sup.CompanyName))
		return 0, err
	}
	return sup.ID, nil
}

func (s *supplierService) Update(ctx context.Context, id int64, sup *models.Supplier, version int64) error {
	if err := models.Validate(sup); err != nil {
		return err
	}
	sup.ID = id
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.enforcer.CheckReferences(ctx,
			integrity.Ref("city_id", integrity.KindCity, sup.CityID)); err != nil {
			return err
		}
		return s.repo.Update(ctx, sup, version)
	})
	if err != nil {
		logOutcome(s.logger, "Failed to update supplier", err, zap.Int64("supplier_id", id))
		return err
	}
	return nil
}

func (s *supplierService) Delete(ctx context.Context, id int64) error {
	plan, err := deleteEntity(ctx, s.tx, s.enforcer, integrity.KindSupplier, id, nil)
	if err != nil {
		logOutcome(s.logger, "Failed to delete supplier", err, zap.Int64("supplier_id", id))
		return err
	}
	s.logger.Info("Deleted supplier", zap.Int64("supplier_id", id), zap.Any("removed", plan.Counts()))
	return nil
}
