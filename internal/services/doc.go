// Package services contains the application services behind the HTTP
// transport: dataset loading and querying, cleaning orchestration and
// health probes.
package services
