package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/chartpilot/chartpilot/internal/models"
)

// Pinger is implemented by the data source services.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles GET /health
type HealthHandler struct {
	version string
	checks  map[string]Pinger
}

func NewHealthHandler(version string, checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{version: version, checks: checks}
}

// Health reports service liveness plus the state of each configured
// data source. A failing check degrades the status but still returns 200
// so load balancers keep routing to a partially healthy instance.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	checks := make(map[string]string, len(h.checks))

	for name, p := range h.checks {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		if err := p.Ping(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			status = "degraded"
		} else {
			checks[name] = "healthy"
		}
		cancel()
	}

	models.WriteJSON(w, http.StatusOK, models.HealthResponse{
		Status:  status,
		Version: h.version,
		Checks:  checks,
	})
}
