package exporter

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

	"github.com/klauspost/pgzip"
)

// CSVWriter writes CSV files under a base directory. Relative paths are
// resolved against it; absolute paths are used as given. Targets ending
// in .gz are written gzip-compressed.
type CSVWriter struct {
	baseDir string
}

// NewCSVWriter creates a CSV writer rooted at baseDir.
func NewCSVWriter(baseDir string) *CSVWriter {
	return &CSVWriter{baseDir: baseDir}
}

// WriteOptions configures CSV writing behavior.
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	Append    bool
	BOMPrefix bool // add UTF-8 BOM so spreadsheet tools recognise the encoding
}

// WriteCSV writes data to a CSV file with the given options.
func (w *CSVWriter) WriteCSV(filePath string, options WriteOptions) error {
	fullPath := w.resolvePath(filePath)

	slog.Info("writing CSV file",
		slog.String("path", fullPath),
		slog.Int("record_count", len(options.Records)))

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	flags := os.O_CREATE | os.O_WRONLY
	if options.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	file, err := os.OpenFile(fullPath, flags, 0644)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var out io.Writer = file
	var gz *pgzip.Writer
	if strings.HasSuffix(strings.ToLower(fullPath), ".gz") {
		gz = pgzip.NewWriter(file)
		defer gz.Close()
		out = gz
	}

	if options.BOMPrefix && !options.Append && gz == nil {
		if _, err := file.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	defer writer.Flush()

	if !options.Append && len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	if gz != nil {
		return gz.Close()
	}
	return nil
}

// WriteSimpleCSV writes a CSV file with headers and records.
func (w *CSVWriter) WriteSimpleCSV(filePath string, headers []string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Headers:   headers,
		Records:   records,
		BOMPrefix: true,
	})
}

// AppendToCSV appends records to an existing CSV file.
func (w *CSVWriter) AppendToCSV(filePath string, records [][]string) error {
	return w.WriteCSV(filePath, WriteOptions{
		Records: records,
		Append:  true,
	})
}

func (w *CSVWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.baseDir == "" {
		return filePath
	}
	return filepath.Join(w.baseDir, filePath)
}

// StreamWriter writes large CSV outputs row by row.
type StreamWriter struct {
	file   *os.File
	gz     *pgzip.Writer
	writer *csv.Writer
}

// CreateStreamWriter opens a streaming CSV writer and writes headers.
func (w *CSVWriter) CreateStreamWriter(filePath string, headers []string) (*StreamWriter, error) {
	fullPath := w.resolvePath(filePath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	sw := &StreamWriter{file: file}
	var out io.Writer = file
	if strings.HasSuffix(strings.ToLower(fullPath), ".gz") {
		sw.gz = pgzip.NewWriter(file)
		out = sw.gz
	}
	sw.writer = csv.NewWriter(out)

	if len(headers) > 0 {
		if err := sw.writer.Write(headers); err != nil {
			sw.Close()
			return nil, fmt.Errorf("failed to write headers: %w", err)
		}
	}
	return sw, nil
}

// WriteRecord writes a single record.
func (s *StreamWriter) WriteRecord(record []string) error {
	return s.writer.Write(record)
}

// Close flushes and closes the underlying file.
func (s *StreamWriter) Close() error {
	s.writer.Flush()
	err := s.writer.Error()
	if s.gz != nil {
		if gzErr := s.gz.Close(); err == nil {
			err = gzErr
		}
	}
	if closeErr := s.file.Close(); err == nil {
		err = closeErr
	}
	return err
}

// formatFloat renders a measurement cell. NaN becomes an empty cell.
func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
