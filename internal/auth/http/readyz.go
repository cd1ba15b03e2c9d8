package http

import (
	"net/http"

	"github.com/brightclass/brightclass/internal/auth/service"
	"github.com/brightclass/brightclass/pkg/httpx"
)

// ReadyzHandler runs the dependency probes. Degraded still answers 200 so
// the instance keeps taking traffic while operators look at the failing
// check; only unhealthy takes it out of rotation.
func ReadyzHandler(health *service.HealthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := health.Check(r.Context())

		status := http.StatusOK
		if report.Status == service.HealthUnhealthy {
			status = http.StatusServiceUnavailable
		}
		httpx.WriteJSON(w, status, report)
	}
}
