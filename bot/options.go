package bot

import (
	"github.com/kbukum/transcribot/logger"
	"github.com/kbukum/transcribot/observability"
)

// Option configures a Handler or Dispatcher.
type Option func(*options)

type options struct {
	log     *logger.Logger
	metrics *observability.Metrics
}

// WithLogger replaces the registry logger for the component.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics sets the metric instruments.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

func buildOptions(component string, opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get(component)
	}
	return o
}
