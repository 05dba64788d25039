package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/integrity"
)

// ParseID extracts and validates the record id from the request path.
// Returns the id and true on success, or 0 and false after writing a 400.
// Expects path parameter: id
func ParseID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseInt64(w, r, "id", "invalid_id", "Invalid id format", logger)
}

// ParseKind extracts an entity kind, singular or plural, from the request path.
// Expects path parameter: kind
func ParseKind(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (integrity.Kind, bool) {
	kind, ok := integrity.ParseKind(r.PathValue("kind"))
	if !ok {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_kind", "Unknown entity kind"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return "", false
	}
	return kind, true
}

// parseInt64 requires a positive integer path parameter.
func parseInt64(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(pathParam), 10, 64)
	if err != nil || id <= 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return id, true
}
