package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/artfolio/engagement-service/internal/transport/http/response"
)

// Pinger checks one downstream dependency.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	deps map[string]Pinger
}

func NewHealthHandler(deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{deps: deps}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	response.Data(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Readyz pings every dependency with a short deadline and reports
// per-dependency status; any failure flips the response to 503.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	overall := "ready"
	deps := make(map[string]string, len(h.deps))
	for name, ping := range h.deps {
		if err := ping(ctx); err != nil {
			deps[name] = "down"
			status = http.StatusServiceUnavailable
			overall = "degraded"
			continue
		}
		deps[name] = "up"
	}

	response.JSON(w, status, map[string]any{"status": overall, "deps": deps})
}
