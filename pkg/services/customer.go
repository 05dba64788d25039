package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/repositories"
)

// CustomerService manages customers. Deleting a customer removes their
// orders together with the orders' items.
type CustomerService interface {
	List(ctx context.Context) ([]*models.Customer, error)
	Get(ctx context.Context, id int64) (*models.Customer, error)
	Create(ctx context.Context, c *models.Customer) (int64, error)
	Update(ctx context.Context, id int64, c *models.Customer, version int64) error
	Delete(ctx context.Context, id int64) error
}

type customerService struct {
	tx       database.Transactor
	repo     repositories.CustomerRepository
	enforcer *integrity.Enforcer
	logger   *zap.Logger
}

// NewCustomerService creates a new CustomerService.
func NewCustomerService(
	tx database.Transactor,
	repo repositories.CustomerRepository,
	enforcer *integrity.Enforcer,
	logger *zap.Logger,
) CustomerService {
	return &customerService{
		tx:       tx,
		repo:     repo,
		enforcer: enforcer,
		logger:   logger.Named("customer-service"),
	}
}

var _ CustomerService = (*customerService)(nil)

func (s *customerService) List(ctx context.Context) ([]*models.Customer, error) {
	var customers []*models.Customer
	err := s.tx.Scoped(ctx, func(ctx context.Context) error {
		var err error
		customers, err = s.repo.List(ctx)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to list customers", err)
		return nil, err
	}
	return customers, nil
}

func (s *customerService) Get(ctx context.Context, id int64) (*models.Customer, error) {
	var c *models.Customer
	err := s.tx.Scoped(ctx, func(ctx context.Context) error {
		var err error
		c, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to get customer", err, zap.Int64("customer_id", id))
		return nil, err
	}
	return c, nil
}

func (s *customerService) Create(ctx context.Context, c *models.Customer) (int64, error) {
	if err := models.Validate(c); err != nil {
		return 0, err
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.enforcer.CheckReferences(ctx,
			integrity.Ref("city_id", integrity.KindCity, c.CityID)); err != nil {
			return err
		}
		return s.repo.Create(ctx, c)
	})
	if err != nil {
		logOutcome(s.logger, "Failed to create customer", err, zap.Int64("city_id", c.CityID))
		return 0, err
	}
	return c.ID, nil
}

func (s *customerService) Update(ctx context.Context, id int64, c *models.Customer, version int64) error {
	if err := models.Validate(c); err != nil {
		return err
	}
	c.ID = id
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.enforcer.CheckReferences(ctx,
			integrity.Ref("city_id", integrity.KindCity, c.CityID)); err != nil {
			return err
		}
		return s.repo.Update(ctx, c, version)
	})
	if err != nil {
		logOutcome(s.logger, "Failed to update customer", err, zap.Int64("customer_id", id))
		return err
	}
	return nil
}

func (s *customerService) Delete(ctx context.Context, id int64) error {
	plan, err := deleteEntity(ctx, s.tx, s.enforcer, integrity.KindCustomer, id, nil)
	if err != nil {
		logOutcome(s.logger, "Failed to delete customer", err, zap.Int64("customer_id", id))
		return err
	}
	s.logger.Info("Deleted customer", zap.Int64("customer_id", id), zap.Any("removed", plan.Counts()))
	return nil
}
