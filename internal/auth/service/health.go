package service

import (
	"context"
	"fmt"

	"github.com/brightclass/brightclass/internal/auth/store"
	"github.com/brightclass/brightclass/pkg/jwtx"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// HealthReport is the aggregate probe result. Checks holds one line per
// subsystem so operators can see which dependency failed.
type HealthReport struct {
	Status HealthStatus      `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthService probes the store connection and the token signer.
type HealthService struct {
	Store store.Store
	Codec *jwtx.Codec
}

func NewHealthService(st store.Store, codec *jwtx.Codec) *HealthService {
	return &HealthService{Store: st, Codec: codec}
}

// Check runs all probes and folds them into a single status. A dead
// database or unconfigured signer is unhealthy; a reachable database that
// fails the user-count query degrades the service without taking it down.
func (s *HealthService) Check(ctx context.Context) HealthReport {
	report := HealthReport{
		Status: HealthHealthy,
		Checks: map[string]string{
			"database": "ok",
			"signer":   "ok",
			"users":    "ok",
		},
	}

	if !s.Codec.Ready() {
		report.Checks["signer"] = "error: signing secrets not configured"
		report.Status = HealthUnhealthy
	}

	if err := s.Store.Ping(ctx); err != nil {
		report.Checks["database"] = fmt.Sprintf("error: %v", err)
		report.Checks["users"] = "skipped"
		report.Status = HealthUnhealthy
		return report
	}

	if n, err := s.Store.Users().CountUsers(ctx); err != nil {
		report.Checks["users"] = fmt.Sprintf("error: %v", err)
		if report.Status == HealthHealthy {
			report.Status = HealthDegraded
		}
	} else {
		report.Checks["users"] = fmt.Sprintf("ok: %d registered", n)
	}

	return report
}
