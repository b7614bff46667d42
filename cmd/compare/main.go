// Command compare loads cleaned country datasets and writes the
// cross-country comparison summary.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"solarcli/internal/compare"
	"solarcli/internal/config"
	"solarcli/internal/dataset"
	"solarcli/internal/exporter"
	"solarcli/internal/files"
	"solarcli/internal/infrastructure"
)

func main() {
	dataDir := flag.String("data", "data/clean", "directory containing *_clean.csv files")
	out := flag.String("out", "", "optional output CSV for the summary table")
	flag.Parse()

	logger, err := infrastructure.InitializeLogger(config.LoggingConfig{
		Level:  "warn",
		Format: "text",
		Output: "stdout",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	discovery := files.NewDiscovery(*dataDir)
	cleaned, err := discovery.FindCleanedFiles(".")
	if err != nil {
		logger.Error("failed to list cleaned files", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if len(cleaned) == 0 {
		fmt.Fprintf(os.Stderr, "no cleaned CSVs found in %s, run the cleaner first\n", *dataDir)
		os.Exit(1)
	}

	datasets := make(map[string]*dataset.Dataset, len(cleaned))
	for _, file := range cleaned {
		ds, err := dataset.ReadCSV(file.Path, file.Country)
		if err != nil {
			logger.Error("failed to load dataset",
				slog.String("file", file.Name),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		ds.Normalize()
		datasets[file.Country] = ds
	}

	summaries := compare.Countries(datasets)

	fmt.Printf("%-16s %10s %10s %8s %8s %12s\n", "country", "ghi_mean", "ghi_med", "ws_mean", "precip", "observations")
	for _, s := range summaries {
		fmt.Printf("%-16s %10.2f %10.2f %8.2f %8.2f %12d\n",
			s.Country,
			float64(s.GHIMean), float64(s.GHIMedian),
			float64(s.WSMean), float64(s.PrecipMean),
			s.Observations)
	}

	if *out != "" {
		writer := exporter.NewCSVWriter("")
		if err := writer.WriteSummaries(*out, summaries); err != nil {
			logger.Error("failed to write summary CSV", slog.String("error", err.Error()))
			os.Exit(1)
		}
		fmt.Printf("summary written to %s\n", *out)
	}
}
