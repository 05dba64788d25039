package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/orderdesk/pkg/integrity"
	"github.com/ekaya-inc/orderdesk/pkg/services"
)

// GraphResponse describes the delete rules between entity kinds.
type GraphResponse struct {
	Edges []integrity.Edge `json:"edges"`
}

// GraphHandler exposes the integrity graph and delete previews.
type GraphHandler struct {
	integrityService services.IntegrityService
	logger           *zap.Logger
}

// NewGraphHandler creates a new graph handler.
func NewGraphHandler(integrityService services.IntegrityService, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		integrityService: integrityService,
		logger:           logger.Named("graph-handler"),
	}
}

// RegisterRoutes registers the graph handler's routes on the given mux.
func (h *GraphHandler) RegisterRoutes(mux *http.ServeMux, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/graph", h.Edges)
	mux.HandleFunc("GET /api/graph/{kind}/{id}", scope(h.Preview))
}

// Edges handles GET /api/graph
func (h *GraphHandler) Edges(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, GraphResponse{Edges: h.integrityService.Edges()}, h.logger)
}

// Preview handles GET /api/graph/{kind}/{id}
// Returns the rows deleting the record would remove and any blockers.
func (h *GraphHandler) Preview(w http.ResponseWriter, r *http.Request) {
	kind, ok := ParseKind(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}
	plan, err := h.integrityService.Preview(r.Context(), kind, id)
	if err != nil {
		writeServiceError(w, err, h.logger, "Failed to preview delete")
		return
	}
	writeData(w, http.StatusOK, plan, h.logger)
}
