package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarcli/internal/config"
	"solarcli/pkg/contracts/domain"
)

func TestLiveness(t *testing.T) {
	cfg := testConfig(t)
	svc := NewHealthService(cfg, NewDataService(cfg, nil), "1.2.3")

	status := svc.Liveness(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.NotEmpty(t, status.Uptime)
}

func TestReadiness(t *testing.T) {
	t.Run("ready with zero datasets", func(t *testing.T) {
		cfg := testConfig(t)
		svc := NewHealthService(cfg, NewDataService(cfg, nil), "dev")

		status := svc.Readiness(context.Background())
		assert.Equal(t, "ok", status.Status)
		assert.Zero(t, status.Datasets)
	})

	t.Run("counts loaded datasets", func(t *testing.T) {
		cfg := testConfig(t)
		data := NewDataService(cfg, nil)
		data.Put("benin", buildDataset(t, "benin", map[string][]float64{domain.MetricGHI: {1}}), "x")
		svc := NewHealthService(cfg, data, "dev")

		status := svc.Readiness(context.Background())
		assert.Equal(t, 1, status.Datasets)
	})

	t.Run("degraded when clean dir missing", func(t *testing.T) {
		cfg := config.Default()
		cfg.Paths.BaseDir = filepath.Join(t.TempDir(), "missing")
		svc := NewHealthService(&cfg, NewDataService(&cfg, nil), "dev")

		status := svc.Readiness(context.Background())
		assert.Equal(t, "degraded", status.Status)
		require.NotEmpty(t, status.Detail)
	})
}
