// Package exporter writes cleaned datasets and comparison summaries to
// CSV files, with optional gzip compression and UTF-8 BOM prefixing for
// spreadsheet compatibility.
package exporter
