package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/pgzip"

	"solarcli/pkg/contracts/domain"
)

// TimestampColumns are the header names recognised as the timestamp
// column, checked in order.
var TimestampColumns = []string{"Timestamp", "timestamp", "Datetime", "datetime", "time"}

// timestampLayouts are tried in order when parsing timestamp cells.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04",
}

// ReadCSV reads a station CSV file into a dataset. Files ending in .gz
// are decompressed transparently.
func ReadCSV(path, country string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(strings.ToLower(path), ".gz") {
		gz, err := pgzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	ds, err := Read(r, country)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return ds, nil
}

// Read parses CSV content into a dataset. The first record is the
// header. Cells in numeric columns that fail to parse become NaN, and
// timestamp cells that fail to parse become the zero time so that
// cleaning can drop them later.
func Read(r io.Reader, country string) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV input")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	stripBOM(header)

	tsCol := -1
	for _, name := range TimestampColumns {
		for i, h := range header {
			if strings.TrimSpace(h) == name {
				tsCol = i
				break
			}
		}
		if tsCol >= 0 {
			break
		}
	}

	regionCol := -1
	for i, h := range header {
		if strings.TrimSpace(h) == domain.ColumnRegion {
			regionCol = i
		}
	}

	type numericColumn struct {
		name string
		idx  int
	}
	var numeric []numericColumn
	for i, h := range header {
		if i == tsCol || i == regionCol {
			continue
		}
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("col%d", i)
		}
		numeric = append(numeric, numericColumn{name: name, idx: i})
	}

	ds := New(country)
	cols := make([][]float64, len(numeric))
	var regions []string

	rows := 0
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", rows+2, err)
		}

		var ts time.Time
		if tsCol >= 0 && tsCol < len(record) {
			ts = parseTimestamp(record[tsCol])
		}
		ds.Timestamps = append(ds.Timestamps, ts)

		for ci, col := range numeric {
			v := math.NaN()
			if col.idx < len(record) {
				v = parseCell(record[col.idx])
			}
			cols[ci] = append(cols[ci], v)
		}

		if regionCol >= 0 {
			label := ""
			if regionCol < len(record) {
				label = strings.TrimSpace(record[regionCol])
			}
			regions = append(regions, label)
		}
		rows++
	}

	if rows == 0 {
		return nil, fmt.Errorf("CSV contains no data rows")
	}

	for ci, col := range numeric {
		if err := ds.SetColumn(col.name, cols[ci]); err != nil {
			return nil, err
		}
	}
	if regions != nil {
		if err := ds.SetRegions(regions); err != nil {
			return nil, err
		}
	}

	slog.Debug("parsed CSV dataset",
		slog.String("country", country),
		slog.Int("rows", rows),
		slog.Int("columns", len(numeric)),
		slog.Bool("has_timestamp", tsCol >= 0))

	return ds, nil
}

func parseTimestamp(cell string) time.Time {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, cell); err == nil {
			return ts
		}
	}
	return time.Time{}
}

func parseCell(cell string) float64 {
	cell = strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cell == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func stripBOM(header []string) {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
}
