package handlers

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/services"
)

// passthroughScope stands in for database.WithScope.
func passthroughScope(next http.HandlerFunc) http.HandlerFunc { return next }

// mockEntityService records calls and returns canned results.
type mockEntityService[M any] struct {
	records map[int64]*M
	nextID  int64
	err     error

	updatedID      int64
	updatedVersion int64
	deletedID      int64
}

func newMockEntityService[M any]() *mockEntityService[M] {
	return &mockEntityService[M]{records: map[int64]*M{}}
}

func (m *mockEntityService[M]) List(context.Context) ([]*M, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*M
	for _, r := range m.records {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockEntityService[M]) Get(_ context.Context, id int64) (*M, error) {
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.records[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return r, nil
}

func (m *mockEntityService[M]) Create(_ context.Context, record *M) (int64, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.nextID++
	m.records[m.nextID] = record
	return m.nextID, nil
}

func (m *mockEntityService[M]) Update(_ context.Context, id int64, record *M, version int64) error {
	m.updatedID, m.updatedVersion = id, version
	if m.err != nil {
		return m.err
	}
	m.records[id] = record
	return nil
}

func (m *mockEntityService[M]) Delete(_ context.Context, id int64) error {
	m.deletedID = id
	return m.err
}

// mockOrderService implements services.OrderService.
type mockOrderService struct {
	order *models.Order
	err   error

	created        *models.OrderDraft
	updatedVersion int64
}

var _ services.OrderService = (*mockOrderService)(nil)

func (m *mockOrderService) List(context.Context) ([]*models.Order, error) {
	if m.order == nil {
		return nil, m.err
	}
	return []*models.Order{m.order}, m.err
}

func (m *mockOrderService) Get(context.Context, int64) (*models.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderService) Create(_ context.Context, draft *models.OrderDraft) (int64, error) {
	m.created = draft
	if m.err != nil {
		return 0, m.err
	}
	return 7, nil
}

func (m *mockOrderService) Edit(_ context.Context, _ int64) (*models.OrderDraft, error) {
	if m.err != nil {
		return nil, m.err
	}
	return models.DraftFromOrder(m.order), nil
}

func (m *mockOrderService) Update(_ context.Context, _ int64, _ *models.OrderDraft, version int64) error {
	m.updatedVersion = version
	return m.err
}

func (m *mockOrderService) Delete(context.Context, int64) error {
	return m.err
}

// mockOrderItemService implements services.OrderItemService.
type mockOrderItemService struct {
	err error

	orderID int64
	line    models.DraftLine
	version int64
}

var _ services.OrderItemService = (*mockOrderItemService)(nil)

func (m *mockOrderItemService) List(context.Context) ([]*models.OrderItem, error) {
	return nil, m.err
}

func (m *mockOrderItemService) Get(_ context.Context, id int64) (*models.OrderItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.OrderItem{ID: id}, nil
}

func (m *mockOrderItemService) Create(_ context.Context, orderID int64, line models.DraftLine) (*models.OrderItem, error) {
	m.orderID, m.line = orderID, line
	if m.err != nil {
		return nil, m.err
	}
	return &models.OrderItem{ID: 11, OrderID: orderID}, nil
}

func (m *mockOrderItemService) Update(_ context.Context, id, orderID int64, line models.DraftLine, version int64) (*models.OrderItem, error) {
	m.orderID, m.line, m.version = orderID, line, version
	if m.err != nil {
		return nil, m.err
	}
	return &models.OrderItem{ID: id, OrderID: orderID, Version: version + 1}, nil
}

func (m *mockOrderItemService) Delete(context.Context, int64) error {
	return m.err
}

// mockSelectionService implements services.SelectionService.
type mockSelectionService struct {
	cities []models.Option
	price  decimal.Decimal
	err    error

	optionsKind integrity.Kind
}

var _ services.SelectionService = (*mockSelectionService)(nil)

func (m *mockSelectionService) CitiesOf(context.Context, int64) ([]models.Option, error) {
	return m.cities, m.err
}

func (m *mockSelectionService) UnitPriceOf(context.Context, int64) (decimal.Decimal, error) {
	return m.price, m.err
}

func (m *mockSelectionService) Options(_ context.Context, kind integrity.Kind) ([]models.Option, error) {
	m.optionsKind = kind
	if kind == integrity.KindOrderItem {
		return nil, apperrors.NewValidationError("kind", "order items have no option list")
	}
	return []models.Option{}, m.err
}

func (m *mockSelectionService) CountryOptions(ctx context.Context) ([]models.Option, error) {
	return m.Options(ctx, integrity.KindCountry)
}

func (m *mockSelectionService) CustomerOptions(ctx context.Context) ([]models.Option, error) {
	return m.Options(ctx, integrity.KindCustomer)
}

func (m *mockSelectionService) SupplierOptions(ctx context.Context) ([]models.Option, error) {
	return m.Options(ctx, integrity.KindSupplier)
}

func (m *mockSelectionService) ProductOptions(ctx context.Context) ([]models.Option, error) {
	return m.Options(ctx, integrity.KindProduct)
}

func (m *mockSelectionService) OrderOptions(ctx context.Context) ([]models.Option, error) {
	return m.Options(ctx, integrity.KindOrder)
}

// mockIntegrityService implements services.IntegrityService.
type mockIntegrityService struct {
	plan *integrity.DeletePlan
	err  error
}

var _ services.IntegrityService = (*mockIntegrityService)(nil)

func (m *mockIntegrityService) Edges() []integrity.Edge {
	return integrity.Default().Edges()
}

func (m *mockIntegrityService) Preview(context.Context, integrity.Kind, int64) (*integrity.DeletePlan, error) {
	return m.plan, m.err
}
