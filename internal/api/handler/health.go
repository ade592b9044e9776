package handler

import (
	"context"
	"net/http"
	"time"
)

type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health is the liveness probe.
func Health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
	})
}

// Ready builds the readiness probe from named dependency checks. Any
// failing check flips the status to 503 with per-dependency attribution.
func Ready(checks map[string]func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK

		for name, check := range checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}

		JSON(w, status, resp)
	}
}
