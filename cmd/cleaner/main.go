// Command cleaner runs the cleaning pipeline over raw station exports:
// a single file, or every raw file in a directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"solarcli/internal/cleaning"
	"solarcli/internal/config"
	"solarcli/internal/dataset"
	"solarcli/internal/exporter"
	"solarcli/internal/files"
	"solarcli/internal/infrastructure"
)

func main() {
	in := flag.String("in", "", "raw CSV/xlsx file, or a directory of raw files")
	out := flag.String("out", "", "output file (single input) or directory (defaults to <data>/clean)")
	gapLimit := flag.Int("gap-limit", 3, "maximum gap length to interpolate")
	maxMissing := flag.Float64("max-missing", 0.5, "drop rows with a higher missing fraction")
	workers := flag.Int("workers", 4, "parallel cleaning workers for directory input")
	flag.Parse()

	if *in == "" {
		fmt.Fprintln(os.Stderr, "usage: cleaner -in <file-or-dir> [-out <file-or-dir>]")
		os.Exit(2)
	}

	logger, err := infrastructure.InitializeLogger(config.LoggingConfig{
		Level:  "info",
		Format: "text",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cleaner := cleaning.New(logger, cleaning.Config{
		GapLimit:       *gapLimit,
		MaxMissingFrac: *maxMissing,
	})

	info, err := os.Stat(*in)
	if err != nil {
		logger.Error("cannot read input", slog.String("path", *in), slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()
	if info.IsDir() {
		if err := cleanDirectory(ctx, cleaner, *in, *out, *workers); err != nil {
			logger.Error("cleaning failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}
	if err := cleanOne(ctx, cleaner, *in, *out); err != nil {
		logger.Error("cleaning failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func cleanOne(ctx context.Context, cleaner *cleaning.Cleaner, inPath, outPath string) error {
	country := files.CountryFromFilename(filepath.Base(inPath))

	ds, err := readRaw(inPath, country)
	if err != nil {
		return err
	}

	report, err := cleaner.Run(ctx, ds)
	if err != nil {
		return fmt.Errorf("cleaning %s: %w", inPath, err)
	}

	if outPath == "" {
		outPath = filepath.Join(filepath.Dir(inPath), files.CleanedName(country))
	}
	writer := exporter.NewCSVWriter("")
	if err := writer.WriteDataset(outPath, ds); err != nil {
		return err
	}

	printReport(report, outPath)
	return nil
}

func cleanDirectory(ctx context.Context, cleaner *cleaning.Cleaner, inDir, outDir string, workers int) error {
	if outDir == "" {
		outDir = filepath.Join(inDir, "clean")
	}
	discovery := files.NewDiscovery(inDir)
	raw, err := discovery.FindRawFiles(".")
	if err != nil {
		return err
	}
	if len(raw) == 0 {
		return fmt.Errorf("no raw dataset files found in %s", inDir)
	}

	writer := exporter.NewCSVWriter(outDir)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, file := range raw {
		file := file
		g.Go(func() error {
			ds, err := readRaw(file.Path, file.Country)
			if err != nil {
				return err
			}
			report, err := cleaner.Run(ctx, ds)
			if err != nil {
				return fmt.Errorf("cleaning %s: %w", file.Name, err)
			}
			outName := files.CleanedName(file.Country)
			if err := writer.WriteDataset(outName, ds); err != nil {
				return err
			}
			printReport(report, filepath.Join(outDir, outName))
			return nil
		})
	}
	return g.Wait()
}

func readRaw(path, country string) (*dataset.Dataset, error) {
	switch filepath.Ext(path) {
	case ".xlsx", ".xls":
		return dataset.ReadWorkbook(path, country)
	default:
		return dataset.ReadCSV(path, country)
	}
}

func printReport(report *cleaning.Report, outPath string) {
	fmt.Printf("%s: %d -> %d rows (dropped %d), clipped %d, interpolated %d, imputed %d -> %s\n",
		report.Country,
		report.RowsIn, report.RowsOut, report.RowsDropped,
		report.CellsClipped, report.CellsInterpolated, report.CellsImputed,
		outPath)
}
