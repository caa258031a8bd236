// Package instrumentation provides OpenTelemetry metrics and tracing for
// mailminder.
//
// A Provider owns the meter and tracer providers and their exporters.
// Metrics can be exported via Prometheus (scraped from the dedicated
// metrics port), OTLP over HTTP, or stdout (development only); traces via
// OTLP, stdout, or not at all.
//
// The Metrics recorder covers the domains that matter here:
//
//   - HTTP API requests (count, duration)
//   - Provider (LLM) calls, retries and pacer wait time
//   - Mail source fetches
//   - Batch processing outcomes per category
//
// All recorder methods are safe to call on a nil or uninitialized
// Metrics, so instrumentation can be disabled without guarding every
// call site.
package instrumentation
