// Package domain defines the shared data contracts for solar resource
// measurements and the summary structures exchanged between services,
// exporters and the HTTP transport layer.
package domain

import (
	"encoding/json"
	"math"
)

// Metric names commonly present in station exports. Presence is
// dataset-dependent; consumers must tolerate missing columns.
const (
	MetricGHI           = "GHI"
	MetricDNI           = "DNI"
	MetricDHI           = "DHI"
	MetricModA          = "ModA"
	MetricModB          = "ModB"
	MetricTamb          = "Tamb"
	MetricRH            = "RH"
	MetricWS            = "WS"
	MetricWSGust        = "WSgust"
	MetricWSStdev       = "WSstdev"
	MetricWD            = "WD"
	MetricWDStdev       = "WDstdev"
	MetricBP            = "BP"
	MetricPrecipitation = "Precipitation"
	MetricTModA         = "TModA"
	MetricTModB         = "TModB"
)

// ColumnCleaning is the sensor-cleaning event flag column (0 or 1).
const ColumnCleaning = "Cleaning"

// ColumnRegion is the optional station region label column.
const ColumnRegion = "Region"

// FloatColumns lists the numeric measurement columns the cleaning
// pipeline coerces to floats when present.
var FloatColumns = []string{
	MetricGHI, MetricDNI, MetricDHI,
	MetricModA, MetricModB,
	MetricTamb, MetricRH,
	MetricWS, MetricWSGust, MetricWSStdev,
	MetricWD, MetricWDStdev,
	MetricBP, MetricPrecipitation,
	MetricTModA, MetricTModB,
}

// Float64 is a float64 that marshals NaN as JSON null. Summary metrics
// over datasets missing a column are NaN, and encoding/json rejects NaN.
type Float64 float64

// IsNaN reports whether the value is missing.
func (f Float64) IsNaN() bool { return math.IsNaN(float64(f)) }

// MarshalJSON implements json.Marshaler.
func (f Float64) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

// UnmarshalJSON implements json.Unmarshaler. JSON null becomes NaN.
func (f *Float64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = Float64(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Float64(v)
	return nil
}

// CountrySummary is the per-country comparison row: the metrics used for
// solar siting decisions plus the observation count.
type CountrySummary struct {
	Country      string  `json:"country" csv:"Country"`
	GHIMean      Float64 `json:"ghi_mean" csv:"GHIMean"`
	GHIMedian    Float64 `json:"ghi_median" csv:"GHIMedian"`
	WSMean       Float64 `json:"ws_mean" csv:"WSMean"`
	PrecipMean   Float64 `json:"precip_mean" csv:"PrecipMean"`
	Observations int     `json:"observations" csv:"Observations"`
}

// MetricStats holds mean/median/std for one metric in one country.
type MetricStats struct {
	Country string  `json:"country"`
	Metric  string  `json:"metric"`
	Mean    Float64 `json:"mean"`
	Median  Float64 `json:"median"`
	Std     Float64 `json:"std"`
}

// KPISet holds the pooled headline irradiance means across all loaded
// datasets, shown on the dashboard home page.
type KPISet struct {
	GHIMean Float64 `json:"ghi_mean"`
	DNIMean Float64 `json:"dni_mean"`
	DHIMean Float64 `json:"dhi_mean"`
}

// RegionRank is one row of the top-regions ranking.
type RegionRank struct {
	Country string  `json:"country"`
	Region  string  `json:"region"`
	Mean    Float64 `json:"mean"`
}

// Distribution is the five-number summary of a metric for one country,
// enough to draw a boxplot without shipping raw samples.
type Distribution struct {
	Country string  `json:"country"`
	Metric  string  `json:"metric"`
	Min     Float64 `json:"min"`
	Q1      Float64 `json:"q1"`
	Median  Float64 `json:"median"`
	Q3      Float64 `json:"q3"`
	Max     Float64 `json:"max"`
	Count   int     `json:"count"`
}

// DatasetInfo describes one loaded country dataset.
type DatasetInfo struct {
	Country string `json:"country"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Source  string `json:"source,omitempty"`
}

// SeriesPoint is one downsampled chart point.
type SeriesPoint struct {
	Timestamp string  `json:"t"`
	Value     Float64 `json:"v"`
}

// Insight is a computed highlight for the insights page.
type Insight struct {
	Label   string  `json:"label"`
	Country string  `json:"country"`
	Value   Float64 `json:"value"`
	Metric  string  `json:"metric"`
}
