package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/services"
)

// OrdersHandler serves orders as header-plus-lines aggregates.
type OrdersHandler struct {
	orderService services.OrderService
	logger       *zap.Logger
}

// NewOrdersHandler creates a new orders handler.
func NewOrdersHandler(orderService services.OrderService, logger *zap.Logger) *OrdersHandler {
	return &OrdersHandler{
		orderService: orderService,
		logger:       logger.Named("order-handler"),
	}
}

// RegisterRoutes registers the orders handler's routes on the given mux.
func (h *OrdersHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/orders", scope(h.List))
	mux.HandleFunc("POST /api/orders", scope(h.Create))
	mux.HandleFunc("GET /api/orders/{id}", scope(h.Get))
	mux.HandleFunc("GET /api/orders/{id}/draft", scope(h.Edit))
	mux.HandleFunc("PUT /api/orders/{id}", scope(h.Update))
	mux.HandleFunc("DELETE /api/orders/{id}", scope(h.Delete))
}

// List handles GET /api/orders
// Returns order headers without lines.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.List(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to list orders")
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}
	writeData(w, http.StatusOK, orders, h.logger)
}

// Get handles GET /api/orders/{id}
// Returns the order with its lines.
func (h *OrdersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	order, err := h.orderService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to get order")
		return
	}
	writeData(w, http.StatusOK, order, h.logger)
}

// Edit handles GET /api/orders/{id}/draft
// Returns the order as an editable draft carrying its current version.
func (h *OrdersHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	draft, err := h.orderService.Edit(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to open order draft")
		return
	}
	writeData(w, http.StatusOK, draft, h.logger)
}

// Create handles POST /api/orders
// The body is a draft: header fields plus items. Items without unit_price
// take the product's current price.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft models.OrderDraft
	if !decodeBody(w, r, &draft, h.logger) {
		return
	}
	id, err := h.orderService.Create(r.Context(), &draft)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to create order")
		return
	}
	writeData(w, http.StatusCreated, CreatedResponse{ID: id}, h.logger)
}

// Update handles PUT /api/orders/{id}
// Replaces header and all lines if the draft's version is still current.
func (h *OrdersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var draft models.OrderDraft
	if !decodeBody(w, r, &draft, h.logger) {
		return
	}
	if draft.Version == 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_version", "version is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.orderService.Update(r.Context(), id, &draft, draft.Version); err != nil {
		writeServiceError(w, err, h.logger, "Failed to update order")
		return
	}
	order, err := h.orderService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to reload order")
		return
	}
	writeData(w, http.StatusOK, order, h.logger)
}

// Delete handles DELETE /api/orders/{id}
// Removes the order together with its lines.
func (h *OrdersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.orderService.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger, "Failed to delete order")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
