package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/apperrors"
)

// maxBodyBytes caps request bodies. The largest payload is an order with its lines.
const maxBodyBytes = 1 << 20

// ApiResponse is the standard envelope for successful responses.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// CreatedResponse is the data of a successful create.
type CreatedResponse struct {
	ID int64 `json:"id"`
}

// ScopeMiddleware wraps a handler with per-request database scope.
type ScopeMiddleware func(http.HandlerFunc) http.HandlerFunc

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	return writeErrorBody(w, statusCode, errorBody{Error: errorCode, Message: message})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeErrorBody(w http.ResponseWriter, statusCode int, body errorBody) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(body)
}

// classify maps a service error onto a status code and response body.
func classify(err error) (int, errorBody) {
	var (
		validation *apperrors.ValidationError
		reference  *apperrors.ReferenceError
		dependents *apperrors.DependentsError
		stale      *apperrors.VersionConflictError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, errorBody{Error: "validation_error", Message: validation.Error(), Field: validation.Field}
	case errors.As(err, &reference):
		return http.StatusNotFound, errorBody{Error: "reference_not_found", Message: reference.Error(), Field: reference.Field}
	case errors.As(err, &dependents):
		return http.StatusConflict, errorBody{Error: "has_dependents", Message: dependents.Error()}
	case errors.As(err, &stale):
		return http.StatusConflict, errorBody{Error: "version_conflict", Message: stale.Error()}
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, errorBody{Error: "validation_error", Message: err.Error()}
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: "not_found", Message: err.Error()}
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, errorBody{Error: "conflict", Message: err.Error()}
	case errors.Is(err, apperrors.ErrUnavailable):
		return http.StatusServiceUnavailable, errorBody{Error: "unavailable", Message: "Storage is temporarily unavailable"}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal_error", Message: "Internal server error"}
	}
}

// writeServiceError writes the response for an error returned by a service.
// Internal errors are logged; the services already logged expected outcomes.
func writeServiceError(w http.ResponseWriter, err error, logger *zap.Logger, msg string) {
	status, body := classify(err)
	if status == http.StatusInternalServerError {
		logger.Error(msg, zap.Error(err))
	}
	if err := writeErrorBody(w, status, body); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// writeData writes data in the success envelope.
func writeData(w http.ResponseWriter, statusCode int, data any, logger *zap.Logger) {
	if err := WriteJSON(w, statusCode, ApiResponse{Success: true, Data: data}); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}

// decodeBody decodes a JSON request body into dst, writing a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any, logger *zap.Logger) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err == nil {
		err = json.Unmarshal(data, dst)
	}
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return false
	}
	return true
}
