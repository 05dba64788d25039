package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/models"
	"github.com/ekaya-inc/orderdesk/pkg/services"
)

// EntityService is the CRUD surface shared by the plain entity services.
type EntityService[M any] interface {
	List(ctx context.Context) ([]*M, error)
	Get(ctx context.Context, id int64) (*M, error)
	Create(ctx context.Context, record *M) (int64, error)
	Update(ctx context.Context, id int64, record *M, version int64) error
	Delete(ctx context.Context, id int64) error
}

// versionToken is the concurrency token every update body carries.
type versionToken struct {
	Version *int64 `json:"version"`
}

// EntityHandler serves /api/<plural> for one entity kind.
type EntityHandler[M any] struct {
	kind    integrity.Kind
	service EntityService[M]
	logger  *zap.Logger
}

// NewEntityHandler creates a handler for kind backed by service.
func NewEntityHandler[M any](kind integrity.Kind, service EntityService[M], logger *zap.Logger) *EntityHandler[M] {
	return &EntityHandler[M]{
		kind:    kind,
		service: service,
		logger:  logger.Named(string(kind) + "-handler"),
	}
}

func NewCountryHandler(svc services.CountryService, logger *zap.Logger) *EntityHandler[models.Country] {
	return NewEntityHandler[models.Country](integrity.KindCountry, svc, logger)
}

func NewCityHandler(svc services.CityService, logger *zap.Logger) *EntityHandler[models.City] {
	return NewEntityHandler[models.City](integrity.KindCity, svc, logger)
}

func NewCustomerHandler(svc services.CustomerService, logger *zap.Logger) *EntityHandler[models.Customer] {
	return NewEntityHandler[models.Customer](integrity.KindCustomer, svc, logger)
}

func NewSupplierHandler(svc services.SupplierService, logger *zap.Logger) *EntityHandler[models.Supplier] {
	return NewEntityHandler[models.Supplier](integrity.KindSupplier, svc, logger)
}

func NewProductHandler(svc services.ProductService, logger *zap.Logger) *EntityHandler[models.Product] {
	return NewEntityHandler[models.Product](integrity.KindProduct, svc, logger)
}

// RegisterRoutes registers the handler's routes on the given mux.
func (h *EntityHandler[M]) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	base := "/api/" + h.kind.Table()
	mux.HandleFunc("GET "+base, scope(h.List))
	mux.HandleFunc("POST "+base, scope(h.Create))
	mux.HandleFunc("GET "+base+"/{id}", scope(h.Get))
	mux.HandleFunc("PUT "+base+"/{id}", scope(h.Update))
	mux.HandleFunc("DELETE "+base+"/{id}", scope(h.Delete))
}

// List handles GET /api/<plural>
func (h *EntityHandler[M]) List(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to list "+h.kind.Table())
		return
	}
	if records == nil {
		records = []*M{}
	}
	writeData(w, http.StatusOK, records, h.logger)
}

// Get handles GET /api/<plural>/{id}
func (h *EntityHandler[M]) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	record, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to get "+string(h.kind))
		return
	}
	writeData(w, http.StatusOK, record, h.logger)
}

// Create handles POST /api/<plural>
// Returns 201 with the new id.
func (h *EntityHandler[M]) Create(w http.ResponseWriter, r *http.Request) {
	record := new(M)
	if !decodeBody(w, r, record, h.logger) {
		return
	}
	id, err := h.service.Create(r.Context(), record)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to create "+string(h.kind))
		return
	}
	writeData(w, http.StatusCreated, CreatedResponse{ID: id}, h.logger)
}

// Update handles PUT /api/<plural>/{id}
// The body is the full record including the version it was read at.
func (h *EntityHandler[M]) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	var raw json.RawMessage
	if !decodeBody(w, r, &raw, h.logger) {
		return
	}
	record := new(M)
	var token versionToken
	if err := json.Unmarshal(raw, record); err != nil {
		h.badRequest(w, "invalid_request", "Invalid request body")
		return
	}
	if err := json.Unmarshal(raw, &token); err != nil || token.Version == nil {
		h.badRequest(w, "missing_version", "version is required")
		return
	}

	if err := h.service.Update(r.Context(), id, record, *token.Version); err != nil {
		writeServiceError(w, err, h.logger, "Failed to update "+string(h.kind))
		return
	}
	updated, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to reload "+string(h.kind))
		return
	}
	writeData(w, http.StatusOK, updated, h.logger)
}

// Delete handles DELETE /api/<plural>/{id}
func (h *EntityHandler[M]) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err, h.logger, "Failed to delete "+string(h.kind))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EntityHandler[M]) badRequest(w http.ResponseWriter, code, msg string) {
	if err := ErrorResponse(w, http.StatusBadRequest, code, msg); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}
