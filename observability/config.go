package observability

import (
	"fmt"
	"slices"
	"time"
)

// Metric exporter names.
const (
	ExporterNone       = "none"
	ExporterOTLP       = "otlp"
	ExporterPrometheus = "prometheus"
)

// Config selects exporters for metrics and traces.
type Config struct {
	// MetricsExporter is one of none, otlp, prometheus.
	MetricsExporter string `yaml:"metrics_exporter" mapstructure:"metrics_exporter"`
	// Tracing enables the OTLP trace exporter.
	Tracing bool `yaml:"tracing" mapstructure:"tracing"`
	// Endpoint is the OTLP HTTP endpoint host:port.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	// Insecure disables TLS towards the collector.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// Interval is the OTLP metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	// SampleRate is the trace sampling ratio (0.0 to 1.0).
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
}

// ApplyDefaults fills in zero values.
func (c *Config) ApplyDefaults() {
	if c.MetricsExporter == "" {
		c.MetricsExporter = ExporterNone
	}
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.Interval <= 0 {
		c.Interval = 15 * time.Second
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
}

// Validate checks exporter selection and sampling bounds.
func (c *Config) Validate() error {
	valid := []string{ExporterNone, ExporterOTLP, ExporterPrometheus}
	if !slices.Contains(valid, c.MetricsExporter) {
		return fmt.Errorf("observability.metrics_exporter must be one of %v (got: %s)", valid, c.MetricsExporter)
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("observability.sample_rate must be between 0 and 1 (got: %v)", c.SampleRate)
	}
	return nil
}

// ServiceInfo describes the service in exported telemetry.
type ServiceInfo struct {
	Name        string
	Version     string
	Environment string
}
