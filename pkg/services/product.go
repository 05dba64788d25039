package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/repositories"
)

// ProductService manages products. Price changes apply to future order lines
// only; existing lines keep their snapshotted price.
type ProductService interface {
	List(ctx context.Context) ([]*models.Product, error)
	Get(ctx context.Context, id int64) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) (int64, error)
	Update(ctx context.Context, id int64, p *models.Product, version int64) error
	// Delete fails with a conflict while any order line references the product.
	Delete(ctx context.Context, id int64) error
}

type productService struct {
	tx       database.Transactor
	repo     repositories.ProductRepository
	enforcer *integrity.Enforcer
	logger   *zap.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(
	tx database.Transactor,
	repo repositories.ProductRepository,
	enforcer *integrity.Enforcer,
	logger *zap.Logger,
) ProductService {
	return &productService{
		tx:       tx,
		repo:     repo,
		enforcer: enforcer,
		logger:   logger.Named("product-service"),
	}
}

var _ ProductService = (*productService)(nil)

func (s *productService) List(ctx context.Context) ([]*models.Product, error) {
	var products []*models.Product
	err := s.tx.Scoped(ctx, func(ctx context.Context) error {
		var err error
		products, err = s.repo.List(ctx)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to list products", err)
		return nil, err
	}
	return products, nil
}

func (s *productService) Get(ctx context.Context, id int64) (*models.Product, error) {
	var p *models.Product
	err := s.tx.Scoped(ctx, func(ctx context.Context) error {
		var err error
		p, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to get product", err, zap.Int64("product_id", id))
		return nil, err
	}
	return p, nil
}

func (s *productService) Create(ctx context.Context, p *models.Product) (int64, error) {
	if err := models.Validate(p); err != nil {
		return 0, err
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.enforcer.CheckReferences(ctx,
			integrity.Ref("supplier_id", integrity.KindSupplier, p.SupplierID)); err != nil {
			return err
		}
		return s.repo.Create(ctx, p)
	})
	if err != nil {
		logOutcome(s.logger, "Failed to create product", err, zap.String("product_name", p.Name))
		return 0, err
	}
	return p.ID, nil
}

func (s *productService) Update(ctx context.Context, id int64, p *models.Product, version int64) error {
	if err := models.Validate(p); err != nil {
		return err
	}
	p.ID = id
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.enforcer.CheckReferences(ctx,
			integrity.Ref("supplier_id", integrity.KindSupplier, p.SupplierID)); err != nil {
			return err
		}
		return s.repo.Update(ctx, p, version)
	})
	if err != nil {
		logOutcome(s.logger, "Failed to update product", err, zap.Int64("product_id", id))
		return err
	}
	return nil
}

func (s *productService) Delete(ctx context.Context, id int64) error {
	_, err := deleteEntity(ctx, s.tx, s.enforcer, integrity.KindProduct, id, nil)
	if err != nil {
		logOutcome(s.logger, "Failed to delete product", err, zap.Int64("product_id", id))
		return err
	}
	return nil
}
