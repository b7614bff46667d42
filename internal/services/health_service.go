package services

import (
	"context"
	"os"
	"time"

	"solarcli/internal/config"
)

// HealthStatus is the liveness/readiness report.
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime"`
	Datasets int    `json:"datasets,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// HealthService answers liveness and readiness probes.
type HealthService struct {
	cfg     *config.Config
	data    *DataService
	version string
	started time.Time
}

// NewHealthService creates a health service.
func NewHealthService(cfg *config.Config, data *DataService, version string) *HealthService {
	return &HealthService{
		cfg:     cfg,
		data:    data,
		version: version,
		started: time.Now(),
	}
}

// Liveness reports that the process is running.
func (hs *HealthService) Liveness(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:  "ok",
		Version: hs.version,
		Uptime:  time.Since(hs.started).Round(time.Second).String(),
	}
}

// Readiness reports whether the service can serve data: the clean
// directory must be accessible. Zero loaded datasets is still ready;
// the dashboard accepts uploads.
func (hs *HealthService) Readiness(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:   "ok",
		Version:  hs.version,
		Uptime:   time.Since(hs.started).Round(time.Second).String(),
		Datasets: len(hs.data.Infos()),
	}
	if _, err := os.Stat(hs.cfg.GetPaths().CleanDir); err != nil {
		status.Status = "degraded"
		status.Detail = err.Error()
	}
	return status
}
