package config

import (
	"runtime"

	"github.com/ajitpratap0/colframe/pkg/columnar"
	"github.com/ajitpratap0/colframe/pkg/compression"
	"github.com/ajitpratap0/colframe/pkg/errors"
	"github.com/ajitpratap0/colframe/pkg/execution"
	"github.com/ajitpratap0/colframe/pkg/ingest"
	"github.com/ajitpratap0/colframe/pkg/logger"
	"github.com/ajitpratap0/colframe/pkg/observability"
)

// Config is the single configuration structure of colframe. Every section
// has a usable default, so a file only needs the values it changes.
type Config struct {
	// Columns controls row selection on columns
	Columns columnar.ViewPolicy `yaml:"columns" json:"columns"`

	// Execution sizes the worker pool used for bulk column construction
	Execution execution.Config `yaml:"execution" json:"execution"`

	// Ingest configures compressed chunk streams
	Ingest IngestConfig `yaml:"ingest" json:"ingest"`

	// Logging configures the global logger
	Logging logger.Config `yaml:"logging" json:"logging"`

	// Tracing configures OpenTelemetry tracing
	Tracing observability.TracingConfig `yaml:"tracing" json:"tracing"`

	// Metrics configures the Prometheus endpoint of the command line
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// IngestConfig contains chunk stream settings.
type IngestConfig struct {
	// Compression is the codec of every frame
	Compression compression.Config `yaml:"compression" json:"compression"`
	// MaxFrameSize bounds the compressed size of one frame
	MaxFrameSize int `yaml:"max_frame_size" json:"max_frame_size"`
}

// MetricsConfig contains Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
	Path    string `yaml:"path" json:"path"`
}

// NewDefault creates a configuration with defaults for every section.
func NewDefault() *Config {
	return &Config{
		Columns: columnar.DefaultViewPolicy,
		Execution: execution.Config{
			Name:    "colframe",
			Workers: runtime.NumCPU(),
		},
		Ingest: IngestConfig{
			Compression:  *compression.DefaultConfig(),
			MaxFrameSize: ingest.DefaultMaxFrameSize,
		},
		Logging: logger.DefaultConfig(),
		Tracing: observability.DefaultTracingConfig(),
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9090",
			Path:    "/metrics",
		},
	}
}

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "dpanic": true, "panic": true, "fatal": true}

// Validate checks every section. The first problem found is returned as an
// error of type errors.ErrorTypeConfig.
func (c *Config) Validate() error {
	if c.Columns.MinViewSize < 0 {
		return invalid("columns.min_view_size", "cannot be negative")
	}
	if c.Execution.Workers < 0 {
		return invalid("execution.workers", "cannot be negative")
	}
	if err := c.Ingest.Compression.Validate(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "invalid ingest.compression")
	}
	if c.Ingest.MaxFrameSize <= 0 {
		return invalid("ingest.max_frame_size", "must be positive")
	}
	if !logLevels[c.Logging.Level] {
		return invalid("logging.level", "must be one of debug, info, warn, error")
	}
	if c.Logging.Encoding != "" && c.Logging.Encoding != "json" && c.Logging.Encoding != "console" {
		return invalid("logging.encoding", "must be json or console")
	}
	switch c.Tracing.Exporter {
	case "", "none", "stdout":
	default:
		return invalid("tracing.exporter", "must be none or stdout")
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return invalid("tracing.sampling_rate", "must be within [0, 1]")
	}
	if c.Metrics.Enabled && c.Metrics.Address == "" {
		return invalid("metrics.address", "is required when metrics are enabled")
	}
	return nil
}

func invalid(field, problem string) error {
	return errors.Newf(errors.ErrorTypeConfig, "%s %s", field, problem).WithDetail("field", field)
}

// Apply validates the configuration and installs its process-wide parts:
// the view policy, the global logger and the tracer provider.
func (c *Config) Apply() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if err := columnar.SetViewPolicy(c.Columns); err != nil {
		return err
	}
	if err := logger.Init(c.Logging); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialise logger")
	}
	if err := observability.InitTracing(c.Tracing); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, "failed to initialise tracing")
	}
	return nil
}

// Codec builds the compressor of ingest frames.
func (c *Config) Codec() (compression.Compressor, error) {
	return compression.NewCompressor(&c.Ingest.Compression)
}
