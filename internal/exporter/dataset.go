package exporter

import (
	"fmt"
	"strconv"
	"time"

	"solarcli/internal/dataset"
	"solarcli/pkg/contracts/domain"
)

// timestampFormat is the layout used for exported timestamps. It round
// trips through the dataset reader.
const timestampFormat = "2006-01-02 15:04:05"

// WriteDataset writes a cleaned dataset to a CSV file. Columns appear
// in their original order after the Timestamp column; the Region column
// is appended last when present.
func (w *CSVWriter) WriteDataset(filePath string, ds *dataset.Dataset) error {
	if ds == nil || ds.Len() == 0 {
		return fmt.Errorf("dataset is empty")
	}

	columns := ds.Columns()
	headers := append([]string{"Timestamp"}, columns...)
	hasRegions := ds.Regions() != nil
	if hasRegions {
		headers = append(headers, domain.ColumnRegion)
	}

	sw, err := w.CreateStreamWriter(filePath, headers)
	if err != nil {
		return err
	}

	for i := 0; i < ds.Len(); i++ {
		record := make([]string, 0, len(headers))
		record = append(record, formatTimestamp(ds.Timestamps[i]))
		for _, name := range columns {
			record = append(record, formatFloat(ds.Column(name)[i]))
		}
		if hasRegions {
			record = append(record, ds.Regions()[i])
		}
		if err := sw.WriteRecord(record); err != nil {
			sw.Close()
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	return sw.Close()
}

// WriteSummaries writes cross-country comparison rows to a CSV file.
func (w *CSVWriter) WriteSummaries(filePath string, summaries []domain.CountrySummary) error {
	headers := []string{"Country", "GHIMean", "GHIMedian", "WSMean", "PrecipMean", "Observations"}
	records := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		records = append(records, []string{
			s.Country,
			formatFloat(float64(s.GHIMean)),
			formatFloat(float64(s.GHIMedian)),
			formatFloat(float64(s.WSMean)),
			formatFloat(float64(s.PrecipMean)),
			strconv.Itoa(s.Observations),
		})
	}
	return w.WriteSimpleCSV(filePath, headers, records)
}

// WriteStatisticsTable writes a mean/median/std statistics table.
func (w *CSVWriter) WriteStatisticsTable(filePath string, table []domain.MetricStats) error {
	headers := []string{"Country", "Metric", "Mean", "Median", "Std"}
	records := make([][]string, 0, len(table))
	for _, row := range table {
		records = append(records, []string{
			row.Country,
			row.Metric,
			formatFloat(float64(row.Mean)),
			formatFloat(float64(row.Median)),
			formatFloat(float64(row.Std)),
		})
	}
	return w.WriteSimpleCSV(filePath, headers, records)
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(timestampFormat)
}
