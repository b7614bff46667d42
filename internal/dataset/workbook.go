package dataset

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"solarcli/pkg/contracts/domain"
)

// ReadWorkbook reads a station export workbook (.xlsx) into a dataset.
// Station exports vary between providers, so the sheet and header row
// are discovered dynamically: the first sheet containing a row with a
// timestamp header and at least one known metric header wins.
func ReadWorkbook(path, country string) (*Dataset, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var rows [][]string
	var sheetName string
	for _, name := range f.GetSheetList() {
		candidate, err := f.GetRows(name)
		if err != nil || len(candidate) < 2 {
			continue
		}
		if findHeaderRow(candidate) >= 0 {
			rows = candidate
			sheetName = name
			break
		}
	}
	if rows == nil {
		return nil, fmt.Errorf("no sheet with measurement data found in workbook")
	}

	headerRow := findHeaderRow(rows)
	header := rows[headerRow]

	slog.Debug("found measurement sheet",
		slog.String("sheet", sheetName),
		slog.Int("header_row", headerRow),
		slog.Int("total_rows", len(rows)))

	tsCol := -1
	regionCol := -1
	type numericColumn struct {
		name string
		idx  int
	}
	var numeric []numericColumn
	for i, h := range header {
		name := strings.TrimSpace(h)
		switch {
		case isTimestampHeader(name):
			if tsCol < 0 {
				tsCol = i
			}
		case name == domain.ColumnRegion:
			regionCol = i
		case name != "":
			numeric = append(numeric, numericColumn{name: name, idx: i})
		}
	}
	if tsCol < 0 {
		return nil, fmt.Errorf("no timestamp column in sheet %s", sheetName)
	}

	ds := New(country)
	cols := make([][]float64, len(numeric))
	var regions []string

	for _, row := range rows[headerRow+1:] {
		if isEmptyRow(row) {
			continue
		}
		ts := parseTimestamp(cellAt(row, tsCol))
		ds.Timestamps = append(ds.Timestamps, ts)
		for ci, col := range numeric {
			v := math.NaN()
			if cell := cellAt(row, col.idx); cell != "" {
				v = parseCell(cell)
			}
			cols[ci] = append(cols[ci], v)
		}
		if regionCol >= 0 {
			regions = append(regions, strings.TrimSpace(cellAt(row, regionCol)))
		}
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("sheet %s contains no data rows", sheetName)
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
	return ds, nil
}

// findHeaderRow scans the first rows of a sheet for one that looks like
// a measurement header: a timestamp column plus a known metric name.
func findHeaderRow(rows [][]string) int {
	limit := len(rows)
	if limit > 10 {
		limit = 10
	}
	for i := 0; i < limit; i++ {
		hasTimestamp := false
		hasMetric := false
		for _, cell := range rows[i] {
			name := strings.TrimSpace(cell)
			if isTimestampHeader(name) {
				hasTimestamp = true
			}
			for _, metric := range domain.FloatColumns {
				if name == metric {
					hasMetric = true
					break
				}
			}
		}
		if hasTimestamp && hasMetric {
			return i
		}
	}
	return -1
}

func isTimestampHeader(name string) bool {
	for _, candidate := range TimestampColumns {
		if name == candidate {
			return true
		}
	}
	return false
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
