// Package compare computes cross-country summary statistics over
// cleaned datasets: the compact comparison table used by notebooks, the
// dashboard statistics table, headline KPIs, region rankings and
// distribution summaries for boxplots.
//
// Metrics whose column is absent from a dataset come back as NaN rather
// than an error, so partial uploads still render.
package compare

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"

	"solarcli/internal/dataset"
	"solarcli/pkg/contracts/domain"
)

// Countries computes the per-country comparison rows: mean and median
// GHI, mean wind speed, mean precipitation and observation counts.
// Rows are sorted by country name for stable output.
func Countries(datasets map[string]*dataset.Dataset) []domain.CountrySummary {
	out := make([]domain.CountrySummary, 0, len(datasets))
	for _, country := range sortedKeys(datasets) {
		ds := datasets[country]
		out = append(out, domain.CountrySummary{
			Country:      country,
			GHIMean:      domain.Float64(mean(ds.NonMissing(domain.MetricGHI))),
			GHIMedian:    domain.Float64(median(ds.NonMissing(domain.MetricGHI))),
			WSMean:       domain.Float64(mean(ds.NonMissing(domain.MetricWS))),
			PrecipMean:   domain.Float64(mean(ds.NonMissing(domain.MetricPrecipitation))),
			Observations: ds.Len(),
		})
	}
	return out
}

// Summarize is an alias of Countries kept for script compatibility.
func Summarize(datasets map[string]*dataset.Dataset) []domain.CountrySummary {
	return Countries(datasets)
}

// StatisticsTable computes mean/median/std for each requested metric in
// each country, in country-then-metric order.
func StatisticsTable(datasets map[string]*dataset.Dataset, metrics []string) []domain.MetricStats {
	var out []domain.MetricStats
	for _, country := range sortedKeys(datasets) {
		ds := datasets[country]
		for _, metric := range metrics {
			vals := ds.NonMissing(metric)
			out = append(out, domain.MetricStats{
				Country: country,
				Metric:  metric,
				Mean:    domain.Float64(mean(vals)),
				Median:  domain.Float64(median(vals)),
				Std:     domain.Float64(stddev(vals)),
			})
		}
	}
	return out
}

// GlobalKPIs pools every dataset's GHI/DNI/DHI samples and returns the
// overall means shown on the dashboard home page.
func GlobalKPIs(datasets map[string]*dataset.Dataset) domain.KPISet {
	pool := func(metric string) []float64 {
		var all []float64
		for _, ds := range datasets {
			all = append(all, ds.NonMissing(metric)...)
		}
		return all
	}
	return domain.KPISet{
		GHIMean: domain.Float64(mean(pool(domain.MetricGHI))),
		DNIMean: domain.Float64(mean(pool(domain.MetricDNI))),
		DHIMean: domain.Float64(mean(pool(domain.MetricDHI))),
	}
}

// PerCountryMean returns each country's mean for one metric. Countries
// without the column are skipped.
func PerCountryMean(datasets map[string]*dataset.Dataset, metric string) map[string]float64 {
	out := make(map[string]float64, len(datasets))
	for country, ds := range datasets {
		if !ds.HasColumn(metric) {
			continue
		}
		out[country] = mean(ds.NonMissing(metric))
	}
	return out
}

// TopRegions groups rows by region label and ranks regions by mean of
// the metric, descending, returning at most n rows. Datasets without
// region labels contribute nothing.
func TopRegions(datasets map[string]*dataset.Dataset, metric string, n int) []domain.RegionRank {
	var ranks []domain.RegionRank
	for _, country := range sortedKeys(datasets) {
		ds := datasets[country]
		regions := ds.Regions()
		if regions == nil || !ds.HasColumn(metric) {
			continue
		}
		sums := make(map[string]float64)
		counts := make(map[string]int)
		vals := ds.Column(metric)
		for i, region := range regions {
			if region == "" || math.IsNaN(vals[i]) {
				continue
			}
			sums[region] += vals[i]
			counts[region]++
		}
		for region, count := range counts {
			ranks = append(ranks, domain.RegionRank{
				Country: country,
				Region:  region,
				Mean:    domain.Float64(sums[region] / float64(count)),
			})
		}
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Mean != ranks[j].Mean {
			return ranks[i].Mean > ranks[j].Mean
		}
		return ranks[i].Region < ranks[j].Region
	})
	if n > 0 && len(ranks) > n {
		ranks = ranks[:n]
	}
	return ranks
}

// CountryWithHighestMean returns the country with the highest mean for
// a metric. ok is false when no dataset carries the column.
func CountryWithHighestMean(datasets map[string]*dataset.Dataset, metric string) (country string, value float64, ok bool) {
	best := math.Inf(-1)
	for _, name := range sortedKeys(datasets) {
		ds := datasets[name]
		if !ds.HasColumn(metric) {
			continue
		}
		v := mean(ds.NonMissing(metric))
		if math.IsNaN(v) {
			continue
		}
		if v > best {
			best = v
			country = name
			ok = true
		}
	}
	if !ok {
		return "", math.NaN(), false
	}
	return country, best, true
}

// Distributions computes the five-number summary of a metric for every
// country that has it, in country order.
func Distributions(datasets map[string]*dataset.Dataset, metric string) []domain.Distribution {
	var out []domain.Distribution
	for _, country := range sortedKeys(datasets) {
		ds := datasets[country]
		vals := ds.NonMissing(metric)
		if len(vals) == 0 {
			continue
		}
		quartiles, err := stats.Quartile(vals)
		if err != nil {
			continue
		}
		minV, _ := stats.Min(vals)
		maxV, _ := stats.Max(vals)
		out = append(out, domain.Distribution{
			Country: country,
			Metric:  metric,
			Min:     domain.Float64(minV),
			Q1:      domain.Float64(quartiles.Q1),
			Median:  domain.Float64(quartiles.Q2),
			Q3:      domain.Float64(quartiles.Q3),
			Max:     domain.Float64(maxV),
			Count:   len(vals),
		})
	}
	return out
}

func mean(vals []float64) float64 {
	v, err := stats.Mean(vals)
	if err != nil {
		return math.NaN()
	}
	return v
}

func median(vals []float64) float64 {
	v, err := stats.Median(vals)
	if err != nil {
		return math.NaN()
	}
	return v
}

// stddev is the sample standard deviation, matching how the notebooks
// report spread.
func stddev(vals []float64) float64 {
	if len(vals) < 2 {
		return math.NaN()
	}
	v, err := stats.StandardDeviationSample(vals)
	if err != nil {
		return math.NaN()
	}
	return v
}

func sortedKeys(datasets map[string]*dataset.Dataset) []string {
	keys := make([]string, 0, len(datasets))
	for k := range datasets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
