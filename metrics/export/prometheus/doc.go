// Package prometheus provides Prometheus collectors for issueguard metrics.
//
// [NewPrometheusExporter] accepts an [issueguard.Engine] and exposes an
// [http.Handler] that renders all issueguard counters and histograms in
// Prometheus text exposition format. Counter names are prefixed
// issueguard_*_total; the single histogram is
// issueguard_verify_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
