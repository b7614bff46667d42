// Package infrastructure wires cross-cutting concerns: the global slog
// logger, trace-ID context propagation and OpenTelemetry tracing setup.
package infrastructure
