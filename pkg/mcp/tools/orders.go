package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/services"
)

// OrderToolDeps contains dependencies for the order and integrity tools.
type OrderToolDeps struct {
	OrderService     services.OrderService
	IntegrityService services.IntegrityService
	Logger           *zap.Logger
}

// RegisterOrderTools registers read-only order inspection tools.
func RegisterOrderTools(s *server.MCPServer, deps *OrderToolDeps) {
	registerOrderSummaryTool(s, deps)
	registerDeleteImpactTool(s, deps)
}

type orderLineSummary struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	UnitPrice   string `json:"unit_price"`
	Quantity    int64  `json:"quantity"`
	LineTotal   string `json:"line_total"`
}

type orderSummary struct {
	OrderID      int64              `json:"order_id"`
	OrderNumber  string             `json:"order_number"`
	OrderDate    string             `json:"order_date"`
	Customer     string             `json:"customer,omitempty"`
	City         string             `json:"city,omitempty"`
	Country      string             `json:"country,omitempty"`
	TotalAmount  string             `json:"total_amount"`
	Version      int64              `json:"version"`
	Lines        []orderLineSummary `json:"lines"`
	TotalMatches bool               `json:"total_matches_lines"`
}

func registerOrderSummaryTool(s *server.MCPServer, deps *OrderToolDeps) {
	tool := readOnly("order_summary",
		"Show an order with its customer, lines and total. "+
			"total_matches_lines confirms the stored total equals the sum of the lines.",
		mcp.WithNumber("order_id", mcp.Required(), mcp.Description("Order id")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		orderID, errResult := requireID(req, "order_id")
		if errResult != nil {
			return errResult, nil
		}
		order, err := deps.OrderService.Get(ctx, orderID)
		if err != nil {
			return serviceErrorResult(err)
		}

		summary := orderSummary{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			OrderDate:   order.OrderDate.String(),
			Customer:    order.CustomerName,
			City:        order.CityName,
			Country:     order.CountryName,
			TotalAmount: order.TotalAmount.String(),
			Version:     order.Version,
			Lines:       make([]orderLineSummary, 0, len(order.Items)),
		}
		for _, item := range order.Items {
			summary.Lines = append(summary.Lines, orderLineSummary{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				UnitPrice:   item.UnitPrice.String(),
				Quantity:    item.Quantity,
				LineTotal:   item.LineTotal().String(),
			})
		}
		summary.TotalMatches = order.TotalAmount.Equal(models.OrderTotal(order.Items))
		return jsonResult(summary)
	})
}

func registerDeleteImpactTool(s *server.MCPServer, deps *OrderToolDeps) {
	tool := readOnly("delete_impact",
		"Preview what deleting a record would remove through cascades, "+
			"and which dependents would block it. Nothing is deleted.",
		mcp.WithString("kind", mcp.Required(), mcp.Description("Entity kind, singular or plural")),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Record id")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("kind")
		if err != nil {
			return nil, err
		}
		kind, ok := integrity.ParseKind(trimString(raw))
		if !ok {
			return NewErrorResult("invalid_parameters", "unknown kind "+raw), nil
		}
		id, errResult := requireID(req, "id")
		if errResult != nil {
			return errResult, nil
		}

		plan, err := deps.IntegrityService.Preview(ctx, kind, id)
		if err != nil {
			return serviceErrorResult(err)
		}
		return jsonResult(struct {
			Kind     integrity.Kind         `json:"kind"`
			ID       int64                  `json:"id"`
			Removes  map[integrity.Kind]int `json:"removes"`
			Blocked  bool                   `json:"blocked"`
			Blockers []integrity.Blocker    `json:"blockers,omitempty"`
		}{kind, id, plan.Counts(), plan.Blocked(), plan.Blockers})
	})
}
