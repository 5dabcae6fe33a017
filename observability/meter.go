package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/transcribot/logger"
)

// MeterResult is an initialized meter provider plus, for the Prometheus
// exporter, the scrape handler.
type MeterResult struct {
	Provider *sdkmetric.MeterProvider
	Handler  http.Handler
}

// InitMeter builds a meter provider for cfg.MetricsExporter and registers it
// globally.
func InitMeter(ctx context.Context, cfg Config, info ServiceInfo) (*MeterResult, error) {
	res, err := newResource(info)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	result := &MeterResult{}

	switch cfg.MetricsExporter {
	case ExporterOTLP:
		expOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			expOpts = append(expOpts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, expOpts...)
		if err != nil {
			return nil, fmt.Errorf("creating metric exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Interval)),
		))
	case ExporterPrometheus:
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		exporter, err := promexporter.New(promexporter.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("creating prometheus exporter: %w", err)
		}
		opts = append(opts, sdkmetric.WithReader(exporter))
		result.Handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	result.Provider = sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(result.Provider)

	logger.Info("meter initialized", logger.Fields(
		"service", info.Name,
		"exporter", cfg.MetricsExporter,
		"endpoint", cfg.Endpoint,
	))
	return result, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}
