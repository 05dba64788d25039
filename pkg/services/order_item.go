package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/repositories"
)

// OrderItemService edits single order lines. Each write recomputes the total
// of every order it touches and bumps that order's version in the same
// transaction.
type OrderItemService interface {
	List(ctx context.Context) ([]*models.OrderItem, error)
	Get(ctx context.Context, id int64) (*models.OrderItem, error)
	// Create adds a line to orderID. A nil price takes the product's current price.
	Create(ctx context.Context, orderID int64, line models.DraftLine) (*models.OrderItem, error)
	// Update replaces the line, possibly moving it to another order.
	Update(ctx context.Context, id, orderID int64, line models.DraftLine, version int64) (*models.OrderItem, error)
	Delete(ctx context.Context, id int64) error
}

type orderItemService struct {
	tx        database.Transactor
	items     repositories.OrderItemRepository
	aggregate *orderAggregate
	enforcer  *integrity.Enforcer
	logger    *zap.Logger
}

// NewOrderItemService creates a new OrderItemService.
func NewOrderItemService(
	tx database.Transactor,
	orders repositories.OrderRepository,
	items repositories.OrderItemRepository,
	selection repositories.SelectionRepository,
	enforcer *integrity.Enforcer,
	logger *zap.Logger,
) OrderItemService {
	return &orderItemService{
		tx:    tx,
		items: items,
		aggregate: &orderAggregate{
			orders:    orders,
			items:     items,
			selection: selection,
			enforcer:  enforcer,
		},
		enforcer: enforcer,
		logger:   logger.Named("order-item-service"),
	}
}

var _ OrderItemService = (*orderItemService)(nil)

func (s *orderItemService) List(ctx context.Context) ([]*models.OrderItem, error) {
	var items []*models.OrderItem
	err := s.tx.Scoped(ctx, func(ctx context.Context) error {
		var err error
		items, err = s.items.List(ctx)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to list order items", err)
		return nil, err
	}
	return items, nil
}

func (s *orderItemService) Get(ctx context.Context, id int64) (*models.OrderItem, error) {
	var item *models.OrderItem
	err := s.tx.Scoped(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.items.GetByID(ctx, id)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to get order item", err, zap.Int64("order_item_id", id))
		return nil, err
	}
	return item, nil
}

func (s *orderItemService) Create(ctx context.Context, orderID int64, line models.DraftLine) (*models.OrderItem, error) {
	if err := models.Validate(&line); err != nil {
		return nil, err
	}

	var item *models.OrderItem
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.aggregate.lockOrder(ctx, orderID); err != nil {
			return err
		}
		lines := []models.DraftLine{line}
		if err := s.aggregate.snapshotPrices(ctx, lines); err != nil {
			return err
		}
		items, err := models.LineItems(orderID, lines)
		if err != nil {
			return err
		}
		item = items[0]
		if err := s.items.Create(ctx, item); err != nil {
			return err
		}
		_, err = s.aggregate.recompute(ctx, orderID)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to create order item", err, zap.Int64("order_id", orderID))
		return nil, err
	}
	return item, nil
}

func (s *orderItemService) Update(ctx context.Context, id, orderID int64, line models.DraftLine, version int64) (*models.OrderItem, error) {
	if err := models.Validate(&line); err != nil {
		return nil, err
	}

	var item *models.OrderItem
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		current, err := s.items.GetByID(ctx, id)
		if err != nil {
			return err
		}

		// Lock both orders in id order so two moves in opposite directions
		// cannot deadlock.
		touched := []int64{current.OrderID}
		if orderID != current.OrderID {
			touched = append(touched, orderID)
			if orderID < current.OrderID {
				touched[0], touched[1] = touched[1], touched[0]
			}
		}
		for _, oid := range touched {
			if err := s.aggregate.lockOrder(ctx, oid); err != nil {
				return err
			}
		}

		lines := []models.DraftLine{line}
		if err := s.aggregate.snapshotPrices(ctx, lines); err != nil {
			return err
		}
		items, err := models.LineItems(orderID, lines)
		if err != nil {
			return err
		}
		item = items[0]
		item.ID = id
		if err := s.items.Update(ctx, item, version); err != nil {
			return err
		}
		for _, oid := range touched {
			if _, err := s.aggregate.recompute(ctx, oid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		logOutcome(s.logger, "Failed to update order item", err,
			zap.Int64("order_item_id", id), zap.Int64("version", version))
		return nil, err
	}
	return item, nil
}

func (s *orderItemService) Delete(ctx context.Context, id int64) error {
	var orderID int64
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		current, err := s.items.GetByID(ctx, id)
		if err != nil {
			return err
		}
		orderID = current.OrderID
		if err := s.aggregate.lockOrder(ctx, orderID); err != nil {
			return err
		}
		if _, err := s.enforcer.Delete(ctx, integrity.KindOrderItem, id); err != nil {
			return err
		}
		_, err = s.aggregate.recompute(ctx, orderID)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to delete order item", err, zap.Int64("order_item_id", id))
		return err
	}
	return nil
}
