package tools

import (
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
)

func registerOrders(orders *mockOrderService, integ *mockIntegrityService) *server.MCPServer {
	s := newTestServer()
	RegisterOrderTools(s, &OrderToolDeps{OrderService: orders, IntegrityService: integ, Logger: zap.NewNop()})
	return s
}

func TestOrderSummaryTool(t *testing.T) {
	orders := &mockOrderService{orders: map[int64]*models.Order{
		1: {
			ID:           1,
			OrderNumber:  "A-1",
			OrderDate:    models.NewDate(2024, time.March, 1),
			CustomerName: "Maria Anders",
			CountryName:  "Germany",
			TotalAmount:  decimal.RequireFromString("29.97"),
			Version:      3,
			Items: []*models.OrderItem{
				{ProductID: 7, ProductName: "Cheese", UnitPrice: decimal.RequireFromString("9.99"), Quantity: 3},
			},
		},
	}}
	s := registerOrders(orders, &mockIntegrityService{})

	var summary orderSummary
	decodeText(t, callTool(t, s, "order_summary", map[string]any{"order_id": 1}), &summary)

	assert.Equal(t, "2024-03-01", summary.OrderDate)
	assert.Equal(t, "29.97", summary.TotalAmount)
	assert.Equal(t, "Maria Anders", summary.Customer)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, "29.97", summary.Lines[0].LineTotal)
	assert.True(t, summary.TotalMatches)
}

func TestOrderSummaryTool_KeepsFourDecimalAmounts(t *testing.T) {
	orders := &mockOrderService{orders: map[int64]*models.Order{
		1: {
			ID:          1,
			TotalAmount: decimal.RequireFromString("0.0003"),
			Items:       []*models.OrderItem{{ProductID: 7, UnitPrice: decimal.RequireFromString("0.0001"), Quantity: 3}},
		},
	}}

	var summary orderSummary
	decodeText(t, callTool(t, registerOrders(orders, &mockIntegrityService{}), "order_summary", map[string]any{"order_id": 1}), &summary)

	assert.Equal(t, "0.0003", summary.TotalAmount)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, "0.0001", summary.Lines[0].UnitPrice)
	assert.Equal(t, "0.0003", summary.Lines[0].LineTotal)
	assert.True(t, summary.TotalMatches)
}

func TestOrderSummaryTool_DetectsDrift(t *testing.T) {
	orders := &mockOrderService{orders: map[int64]*models.Order{
		1: {
			ID:          1,
			TotalAmount: decimal.RequireFromString("10"),
			Items:       []*models.OrderItem{{UnitPrice: decimal.RequireFromString("2"), Quantity: 4}},
		},
	}}

	var summary orderSummary
	decodeText(t, callTool(t, registerOrders(orders, &mockIntegrityService{}), "order_summary", map[string]any{"order_id": 1}), &summary)
	assert.False(t, summary.TotalMatches)
}

func TestOrderSummaryTool_Errors(t *testing.T) {
	s := registerOrders(&mockOrderService{}, &mockIntegrityService{})

	resp := callTool(t, s, "order_summary", map[string]any{"order_id": 5})
	require.True(t, resp.Result.IsError)
	var errResp ErrorResponse
	decodeText(t, resp, &errResp)
	assert.Equal(t, "not_found", errResp.Code)

	s = registerOrders(&mockOrderService{err: assert.AnError}, &mockIntegrityService{})
	resp = callTool(t, s, "order_summary", map[string]any{"order_id": 5})
	assert.NotNil(t, resp.Error, "unexpected failures surface as protocol errors")
}

func TestDeleteImpactTool(t *testing.T) {
	plan := &integrity.DeletePlan{
		Kind: integrity.KindProduct,
		ID:   7,
		Rows: map[integrity.Kind][]int64{integrity.KindProduct: {7}},
		Blockers: []integrity.Blocker{{
			Edge:     integrity.Edge{Parent: integrity.KindProduct, Child: integrity.KindOrderItem, Column: "product_id"},
			ParentID: 7,
			Count:    2,
		}},
	}
	s := registerOrders(&mockOrderService{}, &mockIntegrityService{plan: plan})

	var result struct {
		Kind     string         `json:"kind"`
		Removes  map[string]int `json:"removes"`
		Blocked  bool           `json:"blocked"`
		Blockers []struct {
			Count int64 `json:"count"`
		} `json:"blockers"`
	}
	decodeText(t, callTool(t, s, "delete_impact", map[string]any{"kind": "products", "id": 7}), &result)

	assert.Equal(t, "product", result.Kind)
	assert.True(t, result.Blocked)
	assert.Equal(t, 1, result.Removes["product"])
	require.Len(t, result.Blockers, 1)
	assert.Equal(t, int64(2), result.Blockers[0].Count)
}

func TestDeleteImpactTool_Missing(t *testing.T) {
	s := registerOrders(&mockOrderService{}, &mockIntegrityService{err: apperrors.ErrNotFound})

	resp := callTool(t, s, "delete_impact", map[string]any{"kind": "country", "id": 3})
	assert.True(t, resp.Result.IsError)

	resp = callTool(t, s, "delete_impact", map[string]any{"kind": "galaxy", "id": 3})
	assert.True(t, resp.Result.IsError)
}
