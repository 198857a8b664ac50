package transport

import (
	"context"
	"net/http"

	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// HealthChecker reports store connectivity as served by the health probe.
type HealthChecker interface {
	Health(ctx context.Context) map[string]string
}

// HealthHandler serves the liveness and store connectivity probes
type HealthHandler struct {
	checker HealthChecker
	logger  *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(checker HealthChecker, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		logger:  logger,
	}
}

// RegisterRoutes registers the probe routes
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Root)
	r.Get("/health", h.Health)
}

// Root is a plain liveness message
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": "storefront API is running",
	})
}

// Health probes the document store. Both outcomes are 200; the body carries
// the healthy/unhealthy status.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.checker.Health(r.Context())
	if status["status"] != "healthy" {
		h.logger.Warn("Health probe found store unreachable")
	}

	middleware.RespondWithJSON(w, http.StatusOK, status)
}
