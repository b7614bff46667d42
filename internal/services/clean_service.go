package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"solarcli/internal/cleaning"
	"solarcli/internal/config"
	"solarcli/internal/dataset"
	"solarcli/internal/exporter"
	"solarcli/internal/files"
)

// Broadcaster pushes live updates to dashboard clients. Satisfied by
// the websocket hub; tests supply a recording fake.
type Broadcaster interface {
	BroadcastProgress(country, step string, percent int)
	BroadcastDataUpdate(country string, rows int)
}

// noopBroadcaster is used when no hub is attached (CLI runs).
type noopBroadcaster struct{}

func (noopBroadcaster) BroadcastProgress(string, string, int) {}
func (noopBroadcaster) BroadcastDataUpdate(string, int)       {}

// CleanService runs the cleaning pipeline on uploads and raw files,
// persists the cleaned output and keeps the data service up to date.
type CleanService struct {
	cleaner *cleaning.Cleaner
	writer  *exporter.CSVWriter
	paths   *config.Paths
	data    *DataService
	hub     Broadcaster
	logger  *slog.Logger
}

// NewCleanService creates a clean service. hub may be nil.
func NewCleanService(cfg *config.Config, data *DataService, hub Broadcaster, logger *slog.Logger) *CleanService {
	if logger == nil {
		logger = slog.Default()
	}
	if hub == nil {
		hub = noopBroadcaster{}
	}
	paths := cfg.GetPaths()
	return &CleanService{
		cleaner: cleaning.New(logger, cleaning.Config{
			GapLimit:       cfg.Cleaning.GapLimit,
			MaxMissingFrac: cfg.Cleaning.MaxMissingFrac,
		}),
		writer: exporter.NewCSVWriter(paths.CleanDir),
		paths:  paths,
		data:   data,
		hub:    hub,
		logger: logger.With(slog.String("component", "clean_service")),
	}
}

// CleanUpload reads a raw CSV stream, cleans it and persists the result
// as the country's cleaned dataset. Progress is broadcast per step.
func (cs *CleanService) CleanUpload(ctx context.Context, country string, r io.Reader) (*cleaning.Report, error) {
	parsed, err := dataset.Read(r, country)
	if err != nil {
		return nil, fmt.Errorf("failed to parse upload for %s: %w", country, err)
	}
	return cs.clean(ctx, parsed)
}

// CleanRawFile cleans one raw file from disk (CSV, .csv.gz or xlsx).
func (cs *CleanService) CleanRawFile(ctx context.Context, path string) (*cleaning.Report, error) {
	country := files.CountryFromFilename(filepath.Base(path))
	parsed, err := ReadRawFile(path, country)
	if err != nil {
		return nil, err
	}
	return cs.clean(ctx, parsed)
}

func (cs *CleanService) clean(ctx context.Context, parsed *dataset.Dataset) (*cleaning.Report, error) {
	country := parsed.Country
	report, err := cs.cleaner.RunWithProgress(ctx, parsed, func(step string, percent int) {
		cs.hub.BroadcastProgress(country, step, percent)
	})
	if err != nil {
		return nil, fmt.Errorf("cleaning failed for %s: %w", country, err)
	}

	outName := files.CleanedName(country)
	if err := cs.writer.WriteDataset(outName, parsed); err != nil {
		return nil, fmt.Errorf("failed to write cleaned dataset: %w", err)
	}

	outPath := filepath.Join(cs.paths.CleanDir, outName)
	cs.data.Put(country, parsed, outPath)
	cs.hub.BroadcastDataUpdate(country, parsed.Len())

	cs.logger.InfoContext(ctx, "dataset cleaned and persisted",
		slog.String("country", country),
		slog.String("path", outPath),
		slog.Int("rows", parsed.Len()))
	return report, nil
}

// ReadRawFile parses a raw station export by extension.
func ReadRawFile(path, country string) (*dataset.Dataset, error) {
	switch ext := filepath.Ext(path); ext {
	case ".xlsx", ".xls":
		return dataset.ReadWorkbook(path, country)
	default:
		return dataset.ReadCSV(path, country)
	}
}
