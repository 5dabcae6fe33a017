// Package observability wires OpenTelemetry metrics and tracing.
//
// Metrics are exported over OTLP/HTTP or exposed for Prometheus scraping;
// traces go to an OTLP/HTTP collector. Setup builds both from Config and
// returns a handler for /metrics when the Prometheus exporter is selected.
//
//	tel, err := observability.Setup(ctx, cfg, observability.ServiceInfo{Name: "transcribot"})
//	defer tel.Shutdown(ctx)
//
//	metrics, err := observability.NewMetrics(observability.Meter("transcribot"))
//	metrics.RecordPollRound(ctx, 3, time.Since(start))
package observability
