package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// Returning it as a tool result keeps the details visible to the client
// instead of being swallowed as a protocol error.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for errors the caller can act on (bad parameters, missing
// records, conflicts). System failures should still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// serviceErrorResult turns an expected service outcome into an error result.
// Anything else is returned as a Go error.
func serviceErrorResult(err error) (*mcp.CallToolResult, error) {
	var validation *apperrors.ValidationError
	switch {
	case errors.As(err, &validation):
		return NewErrorResultWithDetails("validation_error", validation.Message,
			map[string]string{"field": validation.Field}), nil
	case errors.Is(err, apperrors.ErrValidation):
		return NewErrorResult("validation_error", err.Error()), nil
	case errors.Is(err, apperrors.ErrNotFound):
		return NewErrorResult("not_found", err.Error()), nil
	case errors.Is(err, apperrors.ErrConflict):
		return NewErrorResult("conflict", err.Error()), nil
	case errors.Is(err, apperrors.ErrUnavailable):
		return NewErrorResult("unavailable", "storage is temporarily unavailable, retry later"), nil
	default:
		return nil, err
	}
}
