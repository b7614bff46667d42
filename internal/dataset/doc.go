// Package dataset provides the column-oriented in-memory table used
// throughout the toolkit, along with readers for station CSV files
// (plain or gzip-compressed) and xlsx workbook exports.
//
// Missing numeric cells are represented as NaN. Timestamps that fail to
// parse are stored as the zero time; cleaning drops such rows during
// normalization.
package dataset
