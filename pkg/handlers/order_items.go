package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/services"
)

// OrderItemRequest is the body of a single-line write.
type OrderItemRequest struct {
	OrderID   int64            `json:"order_id"`
	ProductID int64            `json:"product_id"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	Quantity  int64            `json:"quantity"`
	Version   int64            `json:"version"`
}

func (req *OrderItemRequest) line() models.DraftLine {
	return models.DraftLine{ProductID: req.ProductID, UnitPrice: req.UnitPrice, Quantity: req.Quantity}
}

// OrderItemsHandler serves single order lines. Every write updates the
// owning order's total.
type OrderItemsHandler struct {
	itemService services.OrderItemService
	logger      *zap.Logger
}

// NewOrderItemsHandler creates a new order items handler.
func NewOrderItemsHandler(itemService services.OrderItemService, logger *zap.Logger) *OrderItemsHandler {
	return &OrderItemsHandler{
		itemService: itemService,
		logger:      logger.Named("order-item-handler"),
	}
}

// RegisterRoutes registers the order items handler's routes on the given mux.
func (h *OrderItemsHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/order_items", scope(h.List))
	mux.HandleFunc("POST /api/order_items", scope(h.Create))
	mux.HandleFunc("GET /api/order_items/{id}", scope(h.Get))
	mux.HandleFunc("PUT /api/order_items/{id}", scope(h.Update))
	mux.HandleFunc("DELETE /api/order_items/{id}", scope(h.Delete))
}

// List handles GET /api/order_items
func (h *OrderItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.itemService.List(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to list order items")
		return
	}
	if items == nil {
		items = []*models.OrderItem{}
	}
	writeData(w, http.StatusOK, items, h.logger)
}

// Get handles GET /api/order_items/{id}
func (h *OrderItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	item, err := h.itemService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to get order item")
		return
	}
	writeData(w, http.StatusOK, item, h.logger)
}

// Create handles POST /api/order_items
func (h *OrderItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req OrderItemRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	item, err := h.itemService.Create(r.Context(), req.OrderID, req.line())
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to create order item")
		return
	}
	writeData(w, http.StatusCreated, CreatedResponse{ID: item.ID}, h.logger)
}

// Update handles PUT /api/order_items/{id}
// A different order_id moves the line; both orders' totals are recomputed.
func (h *OrderItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var req OrderItemRequest
	if !decodeBody(w, r, &req, h.logger) {
		return
	}
	if req.Version == 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_version", "version is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	item, err := h.itemService.Update(r.Context(), id, req.OrderID, req.line(), req.Version)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to update order item")
		return
	}
	writeData(w, http.StatusOK, item, h.logger)
}

// Delete handles DELETE /api/order_items/{id}
func (h *OrderItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.itemService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger, "Failed to delete order item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
