package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/services"
)

// toolResponse is the JSON-RPC envelope of a tools/call.
type toolResponse struct {
	Result struct {
		IsError bool `json:"isError"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"result"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// callTool invokes a tool through the server and returns the decoded envelope.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) toolResponse {
	t.Helper()
	params, err := json.Marshal(map[string]any{"name": name, "arguments": args})
	require.NoError(t, err)
	request := fmt.Sprintf(`{"jsonrpc":"2.0","method":"tools/call","params":%s,"id":1}`, params)

	resultBytes, err := json.Marshal(s.HandleMessage(context.Background(), []byte(request)))
	require.NoError(t, err)

	var resp toolResponse
	require.NoError(t, json.Unmarshal(resultBytes, &resp))
	return resp
}

// decodeText unmarshals the first text content of a tool result.
func decodeText(t *testing.T, resp toolResponse, dst any) {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected protocol error")
	require.NotEmpty(t, resp.Result.Content)
	require.NoError(t, json.Unmarshal([]byte(resp.Result.Content[0].Text), dst))
}

func newTestServer() *server.MCPServer {
	return server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
}

// mockSelectionService implements services.SelectionService.
type mockSelectionService struct {
	cities map[int64][]models.Option
	prices map[int64]decimal.Decimal
}

var _ services.SelectionService = (*mockSelectionService)(nil)

func (m *mockSelectionService) CitiesOf(_ context.Context, countryID int64) ([]models.Option, error) {
	if c, ok := m.cities[countryID]; ok {
		return c, nil
	}
	return []models.Option{}, nil
}

func (m *mockSelectionService) UnitPriceOf(_ context.Context, productID int64) (decimal.Decimal, error) {
	p, ok := m.prices[productID]
	if !ok {
		return decimal.Zero, fmt.Errorf("product %d: %w", productID, apperrors.ErrNotFound)
	}
	return p, nil
}

func (m *mockSelectionService) Options(_ context.Context, kind integrity.Kind) ([]models.Option, error) {
	if kind == integrity.KindOrderItem {
		return nil, apperrors.NewValidationError("kind", "order items have no option list")
	}
	return []models.Option{{ID: 1, Name: string(kind) + " one"}}, nil
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

// mockOrderService implements services.OrderService; only Get is exercised.
type mockOrderService struct {
	services.OrderService
	orders map[int64]*models.Order
	err    error
}

func (m *mockOrderService) Get(_ context.Context, id int64) (*models.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	o, ok := m.orders[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return o, nil
}

// mockIntegrityService implements services.IntegrityService.
type mockIntegrityService struct {
	plan *integrity.DeletePlan
	err  error
}

func (m *mockIntegrityService) Edges() []integrity.Edge { return integrity.Default().Edges() }

func (m *mockIntegrityService) Preview(context.Context, integrity.Kind, int64) (*integrity.DeletePlan, error) {
	return m.plan, m.err
}
