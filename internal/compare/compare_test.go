package compare

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarcli/internal/dataset"
	"solarcli/pkg/contracts/domain"
)

func buildDataset(t *testing.T, country string, cols map[string][]float64) *dataset.Dataset {
	t.Helper()
	n := 0
	for _, vals := range cols {
		n = len(vals)
		break
	}
	ds := dataset.New(country)
	base := time.Date(2021, 8, 9, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		ds.Timestamps = append(ds.Timestamps, base.Add(time.Duration(i)*time.Hour))
	}
	for name, vals := range cols {
		require.NoError(t, ds.SetColumn(name, vals))
	}
	return ds
}

func TestCountries(t *testing.T) {
	datasets := map[string]*dataset.Dataset{
		"togo": buildDataset(t, "togo", map[string][]float64{
			domain.MetricGHI:           {10, 20, 30},
			domain.MetricWS:            {1, 2, 3},
			domain.MetricPrecipitation: {0, 0, 6},
		}),
		"benin": buildDataset(t, "benin", map[string][]float64{
			domain.MetricGHI: {100, 200},
		}),
	}

	rows := Countries(datasets)
	require.Len(t, rows, 2)

	// Sorted by country name.
	assert.Equal(t, "benin", rows[0].Country)
	assert.Equal(t, "togo", rows[1].Country)

	benin := rows[0]
	assert.InDelta(t, 150, float64(benin.GHIMean), 1e-9)
	assert.InDelta(t, 150, float64(benin.GHIMedian), 1e-9)
	assert.True(t, benin.WSMean.IsNaN(), "missing column reports NaN, not zero")
	assert.Equal(t, 2, benin.Observations)

	togo := rows[1]
	assert.InDelta(t, 20, float64(togo.GHIMean), 1e-9)
	assert.InDelta(t, 2, float64(togo.WSMean), 1e-9)
	assert.InDelta(t, 2, float64(togo.PrecipMean), 1e-9)
	assert.Equal(t, 3, togo.Observations)
}

func TestSummarizeAlias(t *testing.T) {
	datasets := map[string]*dataset.Dataset{
		"benin": buildDataset(t, "benin", map[string][]float64{
			domain.MetricGHI:           {1, 2, 3},
			domain.MetricWS:            {4, 5, 6},
			domain.MetricPrecipitation: {0, 0, 3},
		}),
	}
	assert.Equal(t, Countries(datasets), Summarize(datasets))
}

func TestStatisticsTable(t *testing.T) {
	datasets := map[string]*dataset.Dataset{
		"benin": buildDataset(t, "benin", map[string][]float64{domain.MetricGHI: {10, 20, 30}}),
	}

	rows := StatisticsTable(datasets, []string{domain.MetricGHI, domain.MetricDNI})
	require.Len(t, rows, 2)

	ghi := rows[0]
	assert.Equal(t, domain.MetricGHI, ghi.Metric)
	assert.InDelta(t, 20, float64(ghi.Mean), 1e-9)
	assert.InDelta(t, 20, float64(ghi.Median), 1e-9)
	assert.InDelta(t, 10, float64(ghi.Std), 1e-9)

	assert.True(t, rows[1].Mean.IsNaN(), "absent metric reports NaN stats")
}

func TestGlobalKPIs(t *testing.T) {
	datasets := map[string]*dataset.Dataset{
		"benin": buildDataset(t, "benin", map[string][]float64{
			domain.MetricGHI: {10, 20},
			domain.MetricDNI: {5, 15},
		}),
		"togo": buildDataset(t, "togo", map[string][]float64{
			domain.MetricGHI: {30, math.NaN()},
		}),
	}

	kpis := GlobalKPIs(datasets)
	assert.InDelta(t, 20, float64(kpis.GHIMean), 1e-9, "pooled over all countries, NaN excluded")
	assert.InDelta(t, 10, float64(kpis.DNIMean), 1e-9)
	assert.True(t, kpis.DHIMean.IsNaN())
}

func TestTopRegions(t *testing.T) {
	ds := buildDataset(t, "benin", map[string][]float64{
		domain.MetricGHI: {10, 30, 20, math.NaN()},
	})
	require.NoError(t, ds.SetRegions([]string{"malanville", "parakou", "malanville", "parakou"}))

	noRegions := buildDataset(t, "togo", map[string][]float64{domain.MetricGHI: {99}})

	datasets := map[string]*dataset.Dataset{"benin": ds, "togo": noRegions}

	t.Run("ranked descending", func(t *testing.T) {
		ranks := TopRegions(datasets, domain.MetricGHI, 10)
		require.Len(t, ranks, 2)
		assert.Equal(t, "parakou", ranks[0].Region)
		assert.InDelta(t, 30, float64(ranks[0].Mean), 1e-9, "NaN samples excluded from the region mean")
		assert.Equal(t, "malanville", ranks[1].Region)
		assert.InDelta(t, 15, float64(ranks[1].Mean), 1e-9)
	})

	t.Run("truncated to n", func(t *testing.T) {
		ranks := TopRegions(datasets, domain.MetricGHI, 1)
		require.Len(t, ranks, 1)
		assert.Equal(t, "parakou", ranks[0].Region)
	})
}

func TestCountryWithHighestMean(t *testing.T) {
	datasets := map[string]*dataset.Dataset{
		"benin": buildDataset(t, "benin", map[string][]float64{domain.MetricGHI: {100}}),
		"togo":  buildDataset(t, "togo", map[string][]float64{domain.MetricGHI: {50}}),
	}

	country, value, ok := CountryWithHighestMean(datasets, domain.MetricGHI)
	require.True(t, ok)
	assert.Equal(t, "benin", country)
	assert.InDelta(t, 100, value, 1e-9)

	_, _, ok = CountryWithHighestMean(datasets, domain.MetricDNI)
	assert.False(t, ok)
}

func TestDistributions(t *testing.T) {
	datasets := map[string]*dataset.Dataset{
		"benin": buildDataset(t, "benin", map[string][]float64{
			domain.MetricGHI: {1, 2, 3, 4, 5, 6, 7, 8},
		}),
		"togo": buildDataset(t, "togo", map[string][]float64{domain.MetricDNI: {1}}),
	}

	dists := Distributions(datasets, domain.MetricGHI)
	require.Len(t, dists, 1, "countries without the metric are skipped")

	d := dists[0]
	assert.Equal(t, "benin", d.Country)
	assert.Equal(t, 1.0, float64(d.Min))
	assert.Equal(t, 8.0, float64(d.Max))
	assert.InDelta(t, 4.5, float64(d.Median), 1e-9)
	assert.Equal(t, 8, d.Count)
	assert.LessOrEqual(t, float64(d.Q1), float64(d.Median))
	assert.LessOrEqual(t, float64(d.Median), float64(d.Q3))
}
