// Package http contains the chi HTTP handlers for the dashboard API:
// dataset listing and upload, chart series, comparison statistics,
// region rankings, insights, summary download and health probes.
// Errors are rendered as RFC 7807 problem details.
package http
