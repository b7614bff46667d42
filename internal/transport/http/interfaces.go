package http

import (
	"context"
	"io"
	"math"
	"strconv"
	"time"

	"solarcli/internal/cleaning"
	"solarcli/pkg/contracts/domain"
)

// DataServiceInterface is the query surface the data handler needs.
// Kept as an interface so handler tests can supply fakes.
type DataServiceInterface interface {
	Infos() []domain.DatasetInfo
	KPIs() domain.KPISet
	Summary(metrics, countries []string) []domain.MetricStats
	Compare(countries ...string) []domain.CountrySummary
	TopRegions(metric string, n int) []domain.RegionRank
	Distributions(metric string) []domain.Distribution
	Insights() []domain.Insight
	Series(ctx context.Context, country, metric string, from, to time.Time, maxPoints int) ([]domain.SeriesPoint, error)
	ResolveDownload(name string) (string, error)
}

// CleanServiceInterface is the upload-cleaning surface of the handler.
type CleanServiceInterface interface {
	CleanUpload(ctx context.Context, country string, r io.Reader) (*cleaning.Report, error)
}

// csvFloat renders a float for CSV download output. NaN becomes empty.
func csvFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
