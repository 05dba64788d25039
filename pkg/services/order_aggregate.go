package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/repositories"
)

// orderAggregate keeps an order's total equal to the sum of its lines. Every
// method must run inside the transaction of the write it belongs to.
type orderAggregate struct {
	orders    repositories.OrderRepository
	items     repositories.OrderItemRepository
	selection repositories.SelectionRepository
	enforcer  *integrity.Enforcer
}

// snapshotPrices checks every line's product and fills missing prices from the
// product's current price. Explicit prices are kept.
func (a *orderAggregate) snapshotPrices(ctx context.Context, lines []models.DraftLine) error {
	for i := range lines {
		field := fmt.Sprintf("items[%d].product_id", i)
		if err := a.enforcer.CheckReferences(ctx,
			integrity.Ref(field, integrity.KindProduct, lines[i].ProductID)); err != nil {
			return err
		}
		if lines[i].UnitPrice != nil {
			continue
		}
		price, err := a.selection.UnitPriceOf(ctx, lines[i].ProductID)
		if err != nil {
			return err
		}
		lines[i].UnitPrice = &price
	}
	return nil
}

// lockOrder locks an order a line is about to reference, reporting a missing
// one as a bad reference.
func (a *orderAggregate) lockOrder(ctx context.Context, orderID int64) error {
	err := a.orders.Lock(ctx, orderID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &apperrors.ReferenceError{Field: "order_id", Kind: string(integrity.KindOrder), ID: orderID}
	}
	return err
}

// recompute reloads an order's lines and stores their sum, bumping the
// order's version. The order must already be locked.
func (a *orderAggregate) recompute(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	items, err := a.items.ListByOrder(ctx, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	total := models.OrderTotal(items)
	if _, err := a.orders.SetTotal(ctx, orderID, total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}
