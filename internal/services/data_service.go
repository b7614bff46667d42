package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"solarcli/internal/compare"
	"solarcli/internal/config"
	"solarcli/internal/dataset"
	"solarcli/internal/files"
	"solarcli/pkg/contracts/domain"
)

// Sentinel errors the transport layer maps onto problem responses.
var (
	ErrDatasetNotFound = errors.New("dataset not found")
	ErrMetricNotFound  = errors.New("metric not found")
)

// DataService loads cleaned datasets from the data directory and
// answers the dashboard's query endpoints over them.
type DataService struct {
	cfg    *config.Config
	paths  *config.Paths
	logger *slog.Logger

	mu    sync.RWMutex
	cache map[string]*cachedDataset
}

type cachedDataset struct {
	ds      *dataset.Dataset
	path    string
	modTime time.Time
}

// NewDataService creates a data service.
func NewDataService(cfg *config.Config, logger *slog.Logger) *DataService {
	if logger == nil {
		logger = slog.Default()
	}
	paths := cfg.GetPaths()
	logger = logger.With(slog.String("component", "data_service"))
	logger.Info("data service initialized",
		slog.String("clean_dir", paths.CleanDir))
	return &DataService{
		cfg:    cfg,
		paths:  paths,
		logger: logger,
		cache:  make(map[string]*cachedDataset),
	}
}

// LoadAll discovers cleaned files and loads them concurrently. Files
// already cached with an unchanged mtime are skipped.
func (ds *DataService) LoadAll(ctx context.Context) error {
	discovery := files.NewDiscovery(ds.paths.DataDir)
	found, err := discovery.FindCleanedFiles(ds.paths.CleanDir)
	if err != nil {
		return fmt.Errorf("failed to discover cleaned files: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, file := range found {
		file := file
		ds.mu.RLock()
		cached, ok := ds.cache[file.Country]
		ds.mu.RUnlock()
		if ok && cached.path == file.Path && cached.modTime.Equal(file.ModTime) {
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			parsed, err := dataset.ReadCSV(file.Path, file.Country)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", file.Name, err)
			}
			parsed.Normalize()
			ds.put(file.Country, parsed, file.Path, file.ModTime)
			ds.logger.InfoContext(ctx, "dataset loaded",
				slog.String("country", file.Country),
				slog.Int("rows", parsed.Len()))
			return nil
		})
	}
	return g.Wait()
}

// Put stores a freshly cleaned dataset in the cache.
func (ds *DataService) Put(country string, d *dataset.Dataset, path string) {
	ds.put(country, d, path, time.Now())
}

func (ds *DataService) put(country string, d *dataset.Dataset, path string, modTime time.Time) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	ds.cache[country] = &cachedDataset{ds: d, path: path, modTime: modTime}
}

// Get returns a loaded dataset.
func (ds *DataService) Get(country string) (*dataset.Dataset, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	cached, ok := ds.cache[country]
	if !ok {
		return nil, false
	}
	return cached.ds, true
}

// Datasets returns a snapshot of all loaded datasets, optionally
// restricted to the named countries.
func (ds *DataService) Datasets(countries ...string) map[string]*dataset.Dataset {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	out := make(map[string]*dataset.Dataset, len(ds.cache))
	if len(countries) == 0 {
		for country, cached := range ds.cache {
			out[country] = cached.ds
		}
		return out
	}
	for _, country := range countries {
		if cached, ok := ds.cache[country]; ok {
			out[country] = cached.ds
		}
	}
	return out
}

// Infos describes every loaded dataset for the dataset listing.
func (ds *DataService) Infos() []domain.DatasetInfo {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	out := make([]domain.DatasetInfo, 0, len(ds.cache))
	for country, cached := range ds.cache {
		info := domain.DatasetInfo{
			Country: country,
			Rows:    cached.ds.Len(),
			Columns: len(cached.ds.Columns()),
			Source:  cached.path,
		}
		if from, to, ok := cached.ds.TimeRange(); ok {
			info.From = from.Format(time.RFC3339)
			info.To = to.Format(time.RFC3339)
		}
		out = append(out, info)
	}
	return out
}

// Series returns a downsampled time series of one metric for charting.
// maxPoints caps the number of points; 0 means no downsampling.
func (ds *DataService) Series(ctx context.Context, country, metric string, from, to time.Time, maxPoints int) ([]domain.SeriesPoint, error) {
	d, ok := ds.Get(country)
	if !ok {
		return nil, fmt.Errorf("no cleaned dataset loaded for %s: %w", country, ErrDatasetNotFound)
	}
	if !d.HasColumn(metric) {
		return nil, fmt.Errorf("metric %s not in %s dataset: %w", metric, country, ErrMetricNotFound)
	}

	window := d.Slice(from, to)
	vals := window.Column(metric)

	bucket := 1
	if maxPoints > 0 && window.Len() > maxPoints {
		bucket = (window.Len() + maxPoints - 1) / maxPoints
	}

	points := make([]domain.SeriesPoint, 0, window.Len()/bucket+1)
	for start := 0; start < window.Len(); start += bucket {
		end := start + bucket
		if end > window.Len() {
			end = window.Len()
		}
		sum, count := 0.0, 0
		for i := start; i < end; i++ {
			if !math.IsNaN(vals[i]) {
				sum += vals[i]
				count++
			}
		}
		v := math.NaN()
		if count > 0 {
			v = sum / float64(count)
		}
		points = append(points, domain.SeriesPoint{
			Timestamp: window.Timestamps[start].Format(time.RFC3339),
			Value:     domain.Float64(v),
		})
	}

	ds.logger.DebugContext(ctx, "series computed",
		slog.String("country", country),
		slog.String("metric", metric),
		slog.Int("points", len(points)))
	return points, nil
}

// ResolveDownload maps a requested cleaned-file name onto its on-disk
// path under the clean directory, rejecting traversal attempts and
// anything the cleaning pipeline did not produce.
func (ds *DataService) ResolveDownload(name string) (string, error) {
	if !files.IsCleanedName(name) {
		return "", fmt.Errorf("%s is not a cleaned dataset file", name)
	}
	path, err := files.ResolveUnder(ds.paths.CleanDir, name)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%s: %w", name, ErrDatasetNotFound)
	}
	return path, nil
}

// KPIs returns the pooled headline irradiance means.
func (ds *DataService) KPIs() domain.KPISet {
	return compare.GlobalKPIs(ds.Datasets())
}

// Summary computes the statistics table for requested metrics and
// countries. Empty metrics defaults to GHI/DNI/DHI.
func (ds *DataService) Summary(metrics, countries []string) []domain.MetricStats {
	if len(metrics) == 0 {
		metrics = []string{domain.MetricGHI, domain.MetricDNI, domain.MetricDHI}
	}
	return compare.StatisticsTable(ds.Datasets(countries...), metrics)
}

// Compare returns the cross-country comparison rows.
func (ds *DataService) Compare(countries ...string) []domain.CountrySummary {
	return compare.Countries(ds.Datasets(countries...))
}

// TopRegions returns the region ranking for a metric.
func (ds *DataService) TopRegions(metric string, n int) []domain.RegionRank {
	return compare.TopRegions(ds.Datasets(), metric, n)
}

// Distributions returns per-country boxplot summaries for a metric.
func (ds *DataService) Distributions(metric string) []domain.Distribution {
	return compare.Distributions(ds.Datasets(), metric)
}

// Insights computes the highlight rows for the insights page.
func (ds *DataService) Insights() []domain.Insight {
	var out []domain.Insight
	datasets := ds.Datasets()
	for _, metric := range []string{domain.MetricGHI, domain.MetricDNI, domain.MetricDHI} {
		if country, value, ok := compare.CountryWithHighestMean(datasets, metric); ok {
			out = append(out, domain.Insight{
				Label:   fmt.Sprintf("Highest mean %s", metric),
				Country: country,
				Value:   domain.Float64(value),
				Metric:  metric,
			})
		}
	}
	return out
}
