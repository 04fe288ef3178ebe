package handlers

import (
	"net/http"
	"time"

	wire "github.com/broseidonlordofthebrocean/hedge/internal/interfaces/http"
)

// Health handles GET /health: database connectivity plus configured
// vendor circuit/budget status.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := "healthy"
	dbStatus := "disabled"
	if h.dbHealth != nil {
		check := h.dbHealth.Health(ctx)
		if check.Healthy {
			dbStatus = "healthy"
		} else {
			dbStatus = "unhealthy"
			status = "degraded"
		}
	}

	var providers map[string]wire.ProviderHealth
	if h.vendors != nil {
		summary := h.vendors.Health()
		providers = make(map[string]wire.ProviderHealth, summary.Total)
		for _, name := range summary.Healthy {
			providers[name] = wire.ProviderHealth{Name: name, Status: "healthy"}
		}
		for _, name := range summary.Warnings {
			providers[name] = wire.ProviderHealth{Name: name, Status: "warning"}
			if status == "healthy" {
				status = "degraded"
			}
		}
		for _, name := range summary.Unhealthy {
			providers[name] = wire.ProviderHealth{Name: name, Status: "unhealthy"}
			status = "degraded"
		}
	}

	h.writeJSON(w, http.StatusOK, wire.HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC(),
		Database:  dbStatus,
		Providers: providers,
	})
}
