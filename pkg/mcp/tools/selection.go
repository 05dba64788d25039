package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/services"
)

// SelectionToolDeps contains dependencies for the selection tools.
type SelectionToolDeps struct {
	SelectionService services.SelectionService
	Logger           *zap.Logger
}

// RegisterSelectionTools registers the dependent-selection lookups.
func RegisterSelectionTools(s *server.MCPServer, deps *SelectionToolDeps) {
	registerCitiesOfTool(s, deps)
	registerUnitPriceOfTool(s, deps)
	registerListOptionsTool(s, deps)
}

func readOnly(name, description string, opts ...mcp.ToolOption) mcp.Tool {
	opts = append([]mcp.ToolOption{
		mcp.WithDescription(description),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	}, opts...)
	return mcp.NewTool(name, opts...)
}

func registerCitiesOfTool(s *server.MCPServer, deps *SelectionToolDeps) {
	tool := readOnly("cities_of",
		"List the cities of a country, ordered by name. "+
			"Use it to pick a city_id for a customer or supplier once the country is known. "+
			"An unknown country returns an empty list.",
		mcp.WithNumber("country_id", mcp.Required(), mcp.Description("Country id")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		countryID, errResult := requireID(req, "country_id")
		if errResult != nil {
			return errResult, nil
		}
		cities, err := deps.SelectionService.CitiesOf(ctx, countryID)
		if err != nil {
			return serviceErrorResult(err)
		}
		return jsonResult(struct {
			CountryID int64           `json:"country_id"`
			Cities    []models.Option `json:"cities"`
			Count     int             `json:"count"`
		}{countryID, cities, len(cities)})
	})
}

func registerUnitPriceOfTool(s *server.MCPServer, deps *SelectionToolDeps) {
	tool := readOnly("unit_price_of",
		"Return a product's current unit price. New order lines without an explicit price take this value.",
		mcp.WithNumber("product_id", mcp.Required(), mcp.Description("Product id")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		productID, errResult := requireID(req, "product_id")
		if errResult != nil {
			return errResult, nil
		}
		price, err := deps.SelectionService.UnitPriceOf(ctx, productID)
		if err != nil {
			return serviceErrorResult(err)
		}
		return jsonResult(map[string]any{
			"product_id": productID,
			"unit_price": price.String(),
		})
	})
}

func registerListOptionsTool(s *server.MCPServer, deps *SelectionToolDeps) {
	tool := readOnly("list_options",
		"List id and display name of every record of a kind, for filling a foreign-key field. "+
			"Kinds: country, city, customer, supplier, product, order.",
		mcp.WithString("kind", mcp.Required(), mcp.Description("Entity kind, singular or plural")),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("kind")
		if err != nil {
			return nil, err
		}
		kind, ok := integrity.ParseKind(trimString(raw))
		if !ok {
			return NewErrorResult("invalid_parameters", fmt.Sprintf("unknown kind %q", raw)), nil
		}
		options, err := deps.SelectionService.Options(ctx, kind)
		if err != nil {
			return serviceErrorResult(err)
		}
		return jsonResult(struct {
			Kind    integrity.Kind  `json:"kind"`
			Options []models.Option `json:"options"`
			Count   int             `json:"count"`
		}{kind, options, len(options)})
	})
}
