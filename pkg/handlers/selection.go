package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/services"
)

// UnitPriceResponse is the current price of a product.
type UnitPriceResponse struct {
	ProductID int64           `json:"product_id"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// SelectionHandler serves the dependent-selection lookups a data-entry form
// uses once a parent field is chosen.
type SelectionHandler struct {
	selectionService services.SelectionService
	logger           *zap.Logger
}

// NewSelectionHandler creates a new selection handler.
func NewSelectionHandler(selectionService services.SelectionService, logger *zap.Logger) *SelectionHandler {
	return &SelectionHandler{
		selectionService: selectionService,
		logger:           logger.Named("selection-handler"),
	}
}

// RegisterRoutes registers the selection handler's routes on the given mux.
func (h *SelectionHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/countries/{id}/cities", scope(h.CitiesOf))
	mux.HandleFunc("GET /api/products/{id}/unit_price", scope(h.UnitPriceOf))
	mux.HandleFunc("GET /api/options/{kind}", scope(h.Options))
}

// CitiesOf handles GET /api/countries/{id}/cities
// An unknown country yields an empty list, not an error.
func (h *SelectionHandler) CitiesOf(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	cities, err := h.selectionService.CitiesOf(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to resolve cities")
		return
	}
	writeData(w, http.StatusOK, cities, h.logger)
}

// UnitPriceOf handles GET /api/products/{id}/unit_price
func (h *SelectionHandler) UnitPriceOf(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	price, err := h.selectionService.UnitPriceOf(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to resolve unit price")
		return
	}
	writeData(w, http.StatusOK, UnitPriceResponse{ProductID: id, UnitPrice: price}, h.logger)
}

// Options handles GET /api/options/{kind}
// kind may be singular or plural.
func (h *SelectionHandler) Options(w http.ResponseWriter, r *http.Request) {
	kind, ok := ParseKind(w, r, h.logger)
	if !ok {
		return
	}
	options, err := h.selectionService.Options(r.Context(), kind)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to list options")
		return
	}
	writeData(w, http.StatusOK, options, h.logger)
}
