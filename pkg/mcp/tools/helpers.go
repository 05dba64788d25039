package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// trimString removes leading and trailing whitespace from a string.
func trimString(s string) string {
	return strings.TrimSpace(s)
}

// getOptionalFloat extracts an optional number argument from the request.
func getOptionalFloat(req mcp.CallToolRequest, key string) (float64, bool) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return 0, false
	}
	val, ok := args[key].(float64)
	return val, ok
}

// requireID extracts a positive integer id argument. JSON numbers arrive as
// float64, so fractional values are rejected explicitly.
func requireID(req mcp.CallToolRequest, key string) (int64, *mcp.CallToolResult) {
	val, ok := getOptionalFloat(req, key)
	if !ok {
		return 0, NewErrorResult("invalid_parameters", fmt.Sprintf("%s is required and must be a number", key))
	}
	if val <= 0 || val != math.Trunc(val) || val > math.MaxInt64 {
		return 0, NewErrorResult("invalid_parameters", fmt.Sprintf("%s must be a positive integer", key))
	}
	return int64(val), nil
}

// jsonResult marshals v into a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
