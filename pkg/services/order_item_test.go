package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
)

func assertTotal(t *testing.T, f *orderFixture, orderID int64, want string) {
	t.Helper()
	got := f.db.orders[orderID].TotalAmount
	assert.True(t, decimal.RequireFromString(want).Equal(got), "order %d total: got %s, want %s", orderID, got, want)
}

func TestOrderItemService_CreateRecomputesTotal(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	orderID, err := f.orders.Create(ctx, f.draft())
	require.NoError(t, err)
	before := f.db.orders[orderID].Version

	item, err := f.items.Create(ctx, orderID, models.DraftLine{ProductID: f.cheese, Quantity: 3})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.True(t, decimal.RequireFromString("9.99").Equal(item.UnitPrice))

	assertTotal(t, f, orderID, "29.97")
	assert.Greater(t, f.db.orders[orderID].Version, before, "line write must bump the order version")
}

func TestOrderItemService_CreateMissingOrder(t *testing.T) {
	f := newOrderFixture(t)

	_, err := f.items.Create(context.Background(), 9999, models.DraftLine{ProductID: f.cheese, Quantity: 1})
	require.Error(t, err)
	var ref *apperrors.ReferenceError
	require.ErrorAs(t, err, &ref)
	assert.Equal(t, "order_id", ref.Field)
	assert.Empty(t, f.db.items)
}

func TestOrderItemService_RejectsPriceFinerThanStorageScale(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	orderID, err := f.orders.Create(ctx, f.draft())
	require.NoError(t, err)

	_, err = f.items.Create(ctx, orderID, models.DraftLine{ProductID: f.cheese, UnitPrice: price("0.00005"), Quantity: 3})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "unit_price", verr.Field)
	assert.Empty(t, f.db.items)
	assertTotal(t, f, orderID, "0")
}

func TestOrderItemService_DeleteRecomputesTotal(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	orderID, err := f.orders.Create(ctx, f.draft(
		models.DraftLine{ProductID: f.cheese, Quantity: 1},
		models.DraftLine{ProductID: f.bread, Quantity: 2},
	))
	require.NoError(t, err)
	assertTotal(t, f, orderID, "14.99")

	order, err := f.orders.Get(ctx, orderID)
	require.NoError(t, err)
	require.NoError(t, f.items.Delete(ctx, order.Items[0].ID))

	assertTotal(t, f, orderID, "5.00")
	assert.Len(t, f.db.itemsOf(orderID), 1)
}

func TestOrderItemService_MoveRecomputesBothOrders(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	from, err := f.orders.Create(ctx, f.draft(
		models.DraftLine{ProductID: f.cheese, Quantity: 1},
		models.DraftLine{ProductID: f.bread, Quantity: 2},
	))
	require.NoError(t, err)
	to, err := f.orders.Create(ctx, f.draft())
	require.NoError(t, err)

	line := f.db.itemsOf(from)[1]
	moved, err := f.items.Update(ctx, line.ID, to, models.DraftLine{
		ProductID: line.ProductID,
		UnitPrice: &line.UnitPrice,
		Quantity:  line.Quantity,
	}, line.Version)
	require.NoError(t, err)
	assert.Equal(t, to, moved.OrderID)

	assertTotal(t, f, from, "9.99")
	assertTotal(t, f, to, "5.00")
}

func TestOrderItemService_UpdateStaleVersion(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	orderID, err := f.orders.Create(ctx, f.draft(models.DraftLine{ProductID: f.cheese, Quantity: 1}))
	require.NoError(t, err)
	line := f.db.itemsOf(orderID)[0]

	_, err = f.items.Update(ctx, line.ID, orderID, models.DraftLine{ProductID: f.cheese, Quantity: 5}, line.Version+1)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestOrderItemService_ProductWithLinesCannotBeDeleted(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	_, err := f.orders.Create(ctx, f.draft(models.DraftLine{ProductID: f.cheese, Quantity: 1}))
	require.NoError(t, err)

	enforcer := newTestEnforcer(t, f.db)
	_, err = enforcer.Delete(ctx, integrity.KindProduct, f.cheese)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Contains(t, f.db.products, f.cheese)
}
