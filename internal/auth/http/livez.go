package http

import (
	"net/http"
	"time"

	"github.com/brightclass/brightclass/pkg/httpx"
)

type livenessResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Version string `json:"version"`
}

// LivezHandler answers 200 whenever the process is up. Readiness is the
// deeper probe; this one exists so orchestrators can tell a hung process
// from a slow dependency.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, livenessResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
