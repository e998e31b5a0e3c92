package tracing

import "time"

const (
	reconnectionPeriod = 30 * time.Second
	shutdownTimeout    = 5 * time.Second
)

// Config holds the configuration for the tracing system.
type Config struct {
	// Disable turns tracing off; a noop provider is installed instead.
	Disable bool `yaml:"disable" default:"false"`

	// SampleRate is the fraction of root traces that are sampled, between 0.0 and 1.0.
	SampleRate float64 `yaml:"sample_rate" default:"1" validate:"gte=0,lte=1"`

	// ExporterHost is the hostname of the OTLP gRPC collector.
	ExporterHost string `yaml:"exporter_host" validate:"required_if=Disable false"`

	// ExporterPort is the port of the OTLP gRPC collector.
	ExporterPort int `yaml:"exporter_port" validate:"required_if=Disable false"`

	// Tags are added as resource attributes to all spans.
	Tags map[string]string `yaml:"tags"`
}
