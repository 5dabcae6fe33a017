package observability

import (
	"context"
	"errors"
	"net/http"
)

// Telemetry holds initialized providers.
type Telemetry struct {
	// MetricsHandler serves Prometheus exposition; nil unless the
	// prometheus exporter is selected.
	MetricsHandler http.Handler

	shutdown []func(context.Context) error
}

// Setup initializes metrics and, when enabled, tracing.
func Setup(ctx context.Context, cfg Config, info ServiceInfo) (*Telemetry, error) {
	t := &Telemetry{}

	mr, err := InitMeter(ctx, cfg, info)
	if err != nil {
		return nil, err
	}
	t.MetricsHandler = mr.Handler
	t.shutdown = append(t.shutdown, mr.Provider.Shutdown)

	if cfg.Tracing {
		tp, err := InitTracer(ctx, cfg, info)
		if err != nil {
			_ = t.Shutdown(ctx)
			return nil, err
		}
		t.shutdown = append(t.shutdown, tp.Shutdown)
	}
	return t, nil
}

// Shutdown flushes and closes all providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(t.shutdown) - 1; i >= 0; i-- {
		if err := t.shutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.shutdown = nil
	return errors.Join(errs...)
}
