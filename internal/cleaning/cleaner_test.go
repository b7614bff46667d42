package cleaning

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarcli/internal/dataset"
	"solarcli/pkg/contracts/domain"
)

func hourly(n int) []time.Time {
	base := time.Date(2021, 8, 9, 0, 0, 0, 0, time.UTC)
	out := make([]time.Time, n)
	for i := range out {
		out[i] = base.Add(time.Duration(i) * time.Hour)
	}
	return out
}

func buildDataset(t *testing.T, n int, cols map[string][]float64) *dataset.Dataset {
	t.Helper()
	ds := dataset.New("benin")
	ds.Timestamps = hourly(n)
	for name, vals := range cols {
		require.NoError(t, ds.SetColumn(name, vals))
	}
	return ds
}

func TestRunEmptyDataset(t *testing.T) {
	c := New(nil, DefaultConfig())
	_, err := c.Run(context.Background(), dataset.New("benin"))
	assert.ErrorContains(t, err, "dataset is empty")
}

func TestClipRanges(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name        string
		column      string
		in          []float64
		want        []float64
		wantClipped int
	}{
		{
			name:        "negative irradiance floored at zero",
			column:      domain.MetricGHI,
			in:          []float64{-5, 0, 120, nan},
			want:        []float64{0, 0, 120, nan},
			wantClipped: 1,
		},
		{
			name:        "humidity clamped to unit range",
			column:      domain.MetricRH,
			in:          []float64{-3, 50, 104.2, nan},
			want:        []float64{0, 50, 100, nan},
			wantClipped: 2,
		},
		{
			name:        "wind direction wrapped into compass range",
			column:      domain.MetricWD,
			in:          []float64{-90, 360, 370, 180},
			want:        []float64{270, 0, 10, 180},
			wantClipped: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := buildDataset(t, len(tt.in), map[string][]float64{tt.column: tt.in})
			c := New(nil, DefaultConfig())
			report := &Report{}

			c.ClipRanges(ds, report)

			got := ds.Column(tt.column)
			for i := range tt.want {
				if math.IsNaN(tt.want[i]) {
					assert.True(t, math.IsNaN(got[i]), "index %d should stay missing", i)
				} else {
					assert.InDelta(t, tt.want[i], got[i], 1e-9, "index %d", i)
				}
			}
			assert.Equal(t, tt.wantClipped, report.CellsClipped)
		})
	}
}

func TestEnforceTypes(t *testing.T) {
	nan := math.NaN()
	ds := buildDataset(t, 4, map[string][]float64{
		domain.ColumnCleaning: {0, 1, 2.5, nan},
	})
	c := New(nil, DefaultConfig())

	c.EnforceTypes(ds, &Report{})

	assert.Equal(t, []float64{0, 1, 0, 0}, ds.Column(domain.ColumnCleaning))
}

func TestDropSparseRows(t *testing.T) {
	nan := math.NaN()
	ds := buildDataset(t, 3, map[string][]float64{
		domain.MetricGHI: {1, nan, nan},
		domain.MetricDNI: {2, 5, nan},
	})
	c := New(nil, DefaultConfig())
	report := &Report{}

	c.DropSparseRows(ds, report)

	// Row 1 is half missing (allowed), row 2 fully missing (dropped).
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, 1, report.RowsDropped)
}

func TestInterpolateGaps(t *testing.T) {
	nan := math.NaN()

	t.Run("short gap filled time-weighted", func(t *testing.T) {
		ds := buildDataset(t, 5, map[string][]float64{
			domain.MetricGHI: {0, nan, nan, nan, 40},
		})
		c := New(nil, DefaultConfig())
		report := &Report{}

		c.InterpolateGaps(ds, report)

		got := ds.Column(domain.MetricGHI)
		assert.InDelta(t, 10, got[1], 1e-9)
		assert.InDelta(t, 20, got[2], 1e-9)
		assert.InDelta(t, 30, got[3], 1e-9)
		assert.Equal(t, 3, report.CellsInterpolated)
	})

	t.Run("long gap filled up to the limit", func(t *testing.T) {
		ds := buildDataset(t, 6, map[string][]float64{
			domain.MetricGHI: {0, nan, nan, nan, nan, 50},
		})
		c := New(nil, DefaultConfig())
		report := &Report{}

		c.InterpolateGaps(ds, report)

		got := ds.Column(domain.MetricGHI)
		assert.InDelta(t, 10, got[1], 1e-9)
		assert.InDelta(t, 20, got[2], 1e-9)
		assert.InDelta(t, 30, got[3], 1e-9)
		assert.True(t, math.IsNaN(got[4]), "cells past the limit stay missing")
		assert.Equal(t, 3, report.CellsInterpolated)
	})

	t.Run("leading and trailing gaps left missing", func(t *testing.T) {
		ds := buildDataset(t, 4, map[string][]float64{
			domain.MetricGHI: {nan, 10, 20, nan},
		})
		c := New(nil, DefaultConfig())
		report := &Report{}

		c.InterpolateGaps(ds, report)

		got := ds.Column(domain.MetricGHI)
		assert.True(t, math.IsNaN(got[0]))
		assert.True(t, math.IsNaN(got[3]))
	})
}

func TestImputeMedians(t *testing.T) {
	nan := math.NaN()
	ds := buildDataset(t, 4, map[string][]float64{
		domain.MetricGHI:  {10, 20, 30, nan},
		domain.MetricTamb: {nan, nan, nan, nan},
	})
	c := New(nil, DefaultConfig())
	report := &Report{}

	c.ImputeMedians(ds, report)

	assert.InDelta(t, 20, ds.Column(domain.MetricGHI)[3], 1e-9)
	assert.True(t, math.IsNaN(ds.Column(domain.MetricTamb)[0]), "all-missing column stays missing")
	assert.Equal(t, 1, report.CellsImputed)
}

func TestRunFullPipeline(t *testing.T) {
	nan := math.NaN()
	stamps := hourly(5)
	stamps = append(stamps, time.Time{}) // unparseable row

	ds := dataset.New("togo")
	ds.Timestamps = stamps
	require.NoError(t, ds.SetColumn(domain.MetricGHI, []float64{-3, nan, 40, 60, 80, 120}))
	require.NoError(t, ds.SetColumn(domain.MetricRH, []float64{110, 50, 60, 70, 80, 90}))
	require.NoError(t, ds.SetColumn(domain.ColumnCleaning, []float64{0, 0, 1, 0, 0, 0}))

	var steps []string
	c := New(nil, DefaultConfig())
	report, err := c.RunWithProgress(context.Background(), ds, func(step string, percent int) {
		steps = append(steps, step)
		assert.LessOrEqual(t, percent, 100)
	})
	require.NoError(t, err)

	assert.Equal(t, 6, report.RowsIn)
	assert.Equal(t, 5, report.RowsOut)
	assert.Equal(t, 1, report.RowsDropped)
	assert.Equal(t, []string{
		"normalize_timestamps", "enforce_types", "drop_sparse_rows",
		"clip_ranges", "interpolate_gaps", "impute_medians",
	}, steps)

	ghi := ds.Column(domain.MetricGHI)
	assert.Equal(t, 0.0, ghi[0], "negative GHI clipped to zero")
	assert.InDelta(t, 20, ghi[1], 1e-9, "single gap interpolated between 0 and 40")
	assert.Equal(t, 100.0, ds.Column(domain.MetricRH)[0], "RH clamped to 100")

	for _, v := range ghi {
		assert.False(t, math.IsNaN(v), "no missing cells after the pipeline")
	}
}

func TestRunNoTimestampColumn(t *testing.T) {
	// A file without a timestamp column parses every row to the zero
	// time. The pipeline keeps those rows and skips interpolation.
	nan := math.NaN()
	ds := dataset.New("benin")
	ds.Timestamps = make([]time.Time, 3)
	require.NoError(t, ds.SetColumn(domain.MetricGHI, []float64{-2, nan, 40}))
	require.NoError(t, ds.SetColumn(domain.MetricDNI, []float64{5, 6, 7}))

	report, err := New(nil, DefaultConfig()).Run(context.Background(), ds)
	require.NoError(t, err)

	assert.Equal(t, 3, report.RowsIn)
	assert.Equal(t, 3, report.RowsOut)
	assert.Zero(t, report.RowsDropped)
	assert.Zero(t, report.CellsInterpolated)

	ghi := ds.Column(domain.MetricGHI)
	assert.Equal(t, 0.0, ghi[0], "negative GHI still clipped")
	assert.InDelta(t, 20, ghi[1], 1e-9, "missing cell median-imputed, not interpolated")
}

func TestRunCancelledContext(t *testing.T) {
	ds := buildDataset(t, 2, map[string][]float64{domain.MetricGHI: {1, 2}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil, DefaultConfig()).Run(ctx, ds)
	assert.ErrorIs(t, err, context.Canceled)
}
