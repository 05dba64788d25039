package services

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
	"github.com/ekaya-inc/orderdesk/pkg/database"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/repositories"
)

// OrderService manages orders as aggregates of a header and its lines.
// Create and Update take the full set of lines; the stored total is always
// computed from them.
type OrderService interface {
	// List returns order headers without lines.
	List(ctx context.Context) ([]*models.Order, error)
	// Get returns the order with its lines and resolved display names.
	Get(ctx context.Context, id int64) (*models.Order, error)
	// Create commits an open draft and returns the new order id. Lines without
	// a price get the product's current price.
	Create(ctx context.Context, draft *models.OrderDraft) (int64, error)
	// Edit reopens a committed order as a draft carrying its current version.
	Edit(ctx context.Context, id int64) (*models.OrderDraft, error)
	// Update replaces header and lines if version still matches.
	Update(ctx context.Context, id int64, draft *models.OrderDraft, version int64) error
	// Delete removes the order and its lines.
	Delete(ctx context.Context, id int64) error
}

type orderService struct {
	tx        database.Transactor
	orders    repositories.OrderRepository
	items     repositories.OrderItemRepository
	aggregate *orderAggregate
	enforcer  *integrity.Enforcer
	logger    *zap.Logger
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	tx database.Transactor,
	orders repositories.OrderRepository,
	items repositories.OrderItemRepository,
	selection repositories.SelectionRepository,
	enforcer *integrity.Enforcer,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		tx:     tx,
		orders: orders,
		items:  items,
		aggregate: &orderAggregate{
			orders:    orders,
			items:     items,
			selection: selection,
			enforcer:  enforcer,
		},
		enforcer: enforcer,
		logger:   logger.Named("order-service"),
	}
}

var _ OrderService = (*orderService)(nil)

func (s *orderService) List(ctx context.Context) ([]*models.Order, error) {
	var orders []*models.Order
	err := s.tx.Scoped(ctx, func(ctx context.Context) error {
		var err error
		orders, err = s.orders.List(ctx)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to list orders", err)
		return nil, err
	}
	return orders, nil
}

func (s *orderService) Get(ctx context.Context, id int64) (*models.Order, error) {
	var order *models.Order
	// One transaction so header and lines come from the same snapshot.
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		if order, err = s.orders.GetByID(ctx, id); err != nil {
			return err
		}
		order.Items, err = s.items.ListByOrder(ctx, id)
		return err
	})
	if err != nil {
		logOutcome(s.logger, "Failed to get order", err, zap.Int64("order_id", id))
		return nil, err
	}
	return order, nil
}

func (s *orderService) Create(ctx context.Context, draft *models.OrderDraft) (int64, error) {
	if draft.State() != models.DraftOpen {
		return 0, apperrors.NewValidationError("", "order draft is already committed")
	}
	if err := models.Validate(draft); err != nil {
		return 0, err
	}

	// Prices are snapshotted into a copy so a failed commit leaves the draft as submitted.
	lines := slices.Clone(draft.Lines)
	order := &models.Order{
		OrderDate:   draft.OrderDate,
		OrderNumber: draft.OrderNumber,
		CustomerID:  draft.CustomerID,
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.enforcer.CheckReferences(ctx,
			integrity.Ref("customer_id", integrity.KindCustomer, draft.CustomerID)); err != nil {
			return err
		}
		if err := s.aggregate.snapshotPrices(ctx, lines); err != nil {
			return err
		}
		items, err := models.LineItems(0, lines)
		if err != nil {
			return err
		}
		order.TotalAmount = models.OrderTotal(items)

		if err := s.orders.Create(ctx, order); err != nil {
			return err
		}
		for _, item := range items {
			item.OrderID = order.ID
		}
		return s.items.CreateBatch(ctx, items)
	})
	if err != nil {
		logOutcome(s.logger, "Failed to create order", err, zap.Int64("customer_id", draft.CustomerID))
		return 0, err
	}

	draft.Lines = lines
	draft.MarkCommitted(order.Version)
	s.logger.Debug("Created order",
		zap.Int64("order_id", order.ID),
		zap.Int("lines", len(draft.Lines)),
		zap.String("total", order.TotalAmount.String()))
	return order.ID, nil
}

func (s *orderService) Edit(ctx context.Context, id int64) (*models.OrderDraft, error) {
	order, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return models.DraftFromOrder(order), nil
}

func (s *orderService) Update(ctx context.Context, id int64, draft *models.OrderDraft, version int64) error {
	if draft.State() != models.DraftOpen {
		return apperrors.NewValidationError("", "order draft is already committed")
	}
	if err := models.Validate(draft); err != nil {
		return err
	}

	lines := slices.Clone(draft.Lines)
	order := &models.Order{
		ID:          id,
		OrderDate:   draft.OrderDate,
		OrderNumber: draft.OrderNumber,
		CustomerID:  draft.CustomerID,
	}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.enforcer.CheckReferences(ctx,
			integrity.Ref("customer_id", integrity.KindCustomer, draft.CustomerID)); err != nil {
			return err
		}
		if err := s.aggregate.snapshotPrices(ctx, lines); err != nil {
			return err
		}
		items, err := models.LineItems(id, lines)
		if err != nil {
			return err
		}
		order.TotalAmount = models.OrderTotal(items)

		// The versioned header update locks the order before its lines change.
		if err := s.orders.Update(ctx, order, version); err != nil {
			return err
		}
		if _, err := s.items.DeleteByOrder(ctx, id); err != nil {
			return err
		}
		return s.items.CreateBatch(ctx, items)
	})
	if err != nil {
		logOutcome(s.logger, "Failed to update order", err, zap.Int64("order_id", id), zap.Int64("version", version))
		return err
	}

	draft.Lines = lines
	draft.MarkCommitted(order.Version)
	return nil
}

func (s *orderService) Delete(ctx context.Context, id int64) error {
	plan, err := deleteEntity(ctx, s.tx, s.enforcer, integrity.KindOrder, id, nil)
	if err != nil {
		logOutcome(s.logger, "Failed to delete order", err, zap.Int64("order_id", id))
		return err
	}
	s.logger.Debug("Deleted order", zap.Int64("order_id", id), zap.Int("lines", len(plan.Rows[integrity.KindOrderItem])))
	return nil
}
