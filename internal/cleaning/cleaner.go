package cleaning

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/montanaflynn/stats"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"solarcli/internal/dataset"
	"solarcli/pkg/contracts/domain"
)

// Config holds cleaning pipeline options.
type Config struct {
	// GapLimit is the maximum run of consecutive missing samples that
	// interpolation will fill.
	GapLimit int
	// MaxMissingFrac drops rows whose missing-cell fraction exceeds it.
	MaxMissingFrac float64
	// FloatColumns are the columns coerced and cleaned as measurements.
	// Defaults to domain.FloatColumns.
	FloatColumns []string
}

// DefaultConfig returns the pipeline defaults used by the CLI and the
// upload endpoint.
func DefaultConfig() Config {
	return Config{
		GapLimit:       3,
		MaxMissingFrac: 0.5,
	}
}

// Report records what a cleaning run did to a dataset.
type Report struct {
	Country           string        `json:"country"`
	RowsIn            int           `json:"rows_in"`
	RowsOut           int           `json:"rows_out"`
	RowsDropped       int           `json:"rows_dropped"`
	CellsClipped      int           `json:"cells_clipped"`
	CellsInterpolated int           `json:"cells_interpolated"`
	CellsImputed      int           `json:"cells_imputed"`
	Duration          time.Duration `json:"duration_ns"`
}

// Cleaner runs the standard cleaning pipeline over station datasets:
// timestamp normalization, type enforcement, sparse-row dropping,
// physical-range clipping, short-gap interpolation and median
// imputation of whatever is still missing.
type Cleaner struct {
	logger *slog.Logger
	cfg    Config
}

// New creates a cleaner. A nil logger falls back to slog.Default.
func New(logger *slog.Logger, cfg Config) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.GapLimit <= 0 {
		cfg.GapLimit = 3
	}
	if cfg.MaxMissingFrac <= 0 || cfg.MaxMissingFrac > 1 {
		cfg.MaxMissingFrac = 0.5
	}
	if len(cfg.FloatColumns) == 0 {
		cfg.FloatColumns = domain.FloatColumns
	}
	return &Cleaner{
		logger: logger.With(slog.String("component", "cleaner")),
		cfg:    cfg,
	}
}

// ProgressFunc receives step-level progress during a cleaning run.
type ProgressFunc func(step string, percent int)

// Run executes the full pipeline in place and returns a report.
func (c *Cleaner) Run(ctx context.Context, ds *dataset.Dataset) (*Report, error) {
	return c.RunWithProgress(ctx, ds, nil)
}

// RunWithProgress executes the full pipeline, reporting each step.
func (c *Cleaner) RunWithProgress(ctx context.Context, ds *dataset.Dataset, progress ProgressFunc) (*Report, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("dataset is empty")
	}

	ctx, span := otel.Tracer("solarcli/cleaning").Start(ctx, "cleaning.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("country", ds.Country),
		attribute.Int("rows_in", ds.Len()),
	)

	start := time.Now()
	report := &Report{
		Country: ds.Country,
		RowsIn:  ds.Len(),
	}

	steps := []struct {
		name string
		run  func(*dataset.Dataset, *Report)
	}{
		{"normalize_timestamps", c.NormalizeTimestamps},
		{"enforce_types", c.EnforceTypes},
		{"drop_sparse_rows", c.DropSparseRows},
		{"clip_ranges", c.ClipRanges},
		{"interpolate_gaps", c.InterpolateGaps},
		{"impute_medians", c.ImputeMedians},
	}
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step.run(ds, report)
		if progress != nil {
			progress(step.name, (i+1)*100/len(steps))
		}
	}

	report.RowsOut = ds.Len()
	report.Duration = time.Since(start)

	c.logger.InfoContext(ctx, "cleaning run complete",
		slog.String("country", ds.Country),
		slog.Int("rows_in", report.RowsIn),
		slog.Int("rows_out", report.RowsOut),
		slog.Int("rows_dropped", report.RowsDropped),
		slog.Int("cells_clipped", report.CellsClipped),
		slog.Int("cells_interpolated", report.CellsInterpolated),
		slog.Int("cells_imputed", report.CellsImputed),
		slog.Duration("duration", report.Duration))

	span.SetAttributes(attribute.Int("rows_out", report.RowsOut))
	return report, nil
}

// NormalizeTimestamps drops rows with unparseable timestamps, removes
// duplicates and sorts the dataset chronologically.
func (c *Cleaner) NormalizeTimestamps(ds *dataset.Dataset, report *Report) {
	dropped := ds.Normalize()
	report.RowsDropped += dropped
}

// EnforceTypes normalizes the sensor-cleaning flag column to 0/1.
// Numeric coercion of measurement cells already happens at parse time;
// here the flag column is forced onto {0, 1} with missing treated as 0.
func (c *Cleaner) EnforceTypes(ds *dataset.Dataset, _ *Report) {
	flags := ds.Column(domain.ColumnCleaning)
	for i, v := range flags {
		if v == 1 {
			flags[i] = 1
		} else {
			flags[i] = 0
		}
	}
}

// DropSparseRows removes rows whose missing fraction exceeds the
// configured threshold. Runs before imputation so that imputed cells do
// not mask genuinely sparse rows.
func (c *Cleaner) DropSparseRows(ds *dataset.Dataset, report *Report) {
	keep := make([]bool, ds.Len())
	kept := 0
	for i := range keep {
		if ds.MissingFraction(i) <= c.cfg.MaxMissingFrac {
			keep[i] = true
			kept++
		}
	}
	if kept == ds.Len() {
		return
	}
	report.RowsDropped += ds.Len() - kept
	*ds = *ds.Filter(keep)
}

// ClipRanges applies physical bounds: irradiance and module readings
// are floored at zero, relative humidity is clamped to [0, 100] and
// wind direction is wrapped into [0, 360).
func (c *Cleaner) ClipRanges(ds *dataset.Dataset, report *Report) {
	for _, name := range []string{domain.MetricGHI, domain.MetricDNI, domain.MetricDHI, domain.MetricModA, domain.MetricModB} {
		for i, v := range ds.Column(name) {
			if !math.IsNaN(v) && v < 0 {
				ds.Column(name)[i] = 0
				report.CellsClipped++
			}
		}
	}

	for i, v := range ds.Column(domain.MetricRH) {
		switch {
		case math.IsNaN(v):
		case v < 0:
			ds.Column(domain.MetricRH)[i] = 0
			report.CellsClipped++
		case v > 100:
			ds.Column(domain.MetricRH)[i] = 100
			report.CellsClipped++
		}
	}

	for i, v := range ds.Column(domain.MetricWD) {
		if !math.IsNaN(v) && (v < 0 || v >= 360) {
			ds.Column(domain.MetricWD)[i] = math.Mod(math.Mod(v, 360)+360, 360)
			report.CellsClipped++
		}
	}
}

// InterpolateGaps fills missing samples with time-weighted linear
// interpolation between the valid neighbours. GapLimit caps how many
// consecutive cells of a run get filled; a longer run is filled from
// its left edge and the remainder stays missing. Requires parsed
// timestamps; without them the step is a no-op, matching how the
// notebooks only interpolate on a time index.
func (c *Cleaner) InterpolateGaps(ds *dataset.Dataset, report *Report) {
	if ds.Len() == 0 {
		return
	}
	for _, ts := range ds.Timestamps {
		if ts.IsZero() {
			return
		}
	}

	for _, name := range c.metricColumns(ds) {
		vals := ds.Column(name)
		i := 0
		for i < len(vals) {
			if !math.IsNaN(vals[i]) {
				i++
				continue
			}
			start := i
			for i < len(vals) && math.IsNaN(vals[i]) {
				i++
			}
			if start == 0 || i == len(vals) {
				continue
			}
			fill := i - start
			if fill > c.cfg.GapLimit {
				fill = c.cfg.GapLimit
			}
			t0 := ds.Timestamps[start-1]
			t1 := ds.Timestamps[i]
			v0 := vals[start-1]
			v1 := vals[i]
			span := t1.Sub(t0).Seconds()
			if span <= 0 {
				continue
			}
			for j := start; j < start+fill; j++ {
				frac := ds.Timestamps[j].Sub(t0).Seconds() / span
				vals[j] = v0 + (v1-v0)*frac
				report.CellsInterpolated++
			}
		}
	}
}

// ImputeMedians fills remaining missing cells in measurement columns
// with the column median. An all-missing column is left untouched.
func (c *Cleaner) ImputeMedians(ds *dataset.Dataset, report *Report) {
	for _, name := range c.metricColumns(ds) {
		present := ds.NonMissing(name)
		if len(present) == 0 {
			continue
		}
		median, err := stats.Median(present)
		if err != nil {
			continue
		}
		vals := ds.Column(name)
		for i, v := range vals {
			if math.IsNaN(v) {
				vals[i] = median
				report.CellsImputed++
			}
		}
	}
}

// metricColumns returns the configured measurement columns present in
// the dataset. The cleaning flag is never imputed or interpolated.
func (c *Cleaner) metricColumns(ds *dataset.Dataset) []string {
	var out []string
	for _, name := range c.cfg.FloatColumns {
		if ds.HasColumn(name) {
			out = append(out, name)
		}
	}
	return out
}
