package http

import (
	"context"
	"net/http"

	"github.com/go-chi/render"

	"solarcli/internal/services"
)

// HealthServiceInterface is the probe surface for the health handler.
type HealthServiceInterface interface {
	Liveness(ctx context.Context) services.HealthStatus
	Readiness(ctx context.Context) services.HealthStatus
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	service HealthServiceInterface
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(service HealthServiceInterface) *HealthHandler {
	return &HealthHandler{service: service}
}

// Liveness handles GET /healthz.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Liveness(r.Context()))
}

// Readiness handles GET /readyz. A degraded service answers 503 so load
// balancers stop routing to it.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	status := h.service.Readiness(r.Context())
	if status.Status != "ok" {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}
