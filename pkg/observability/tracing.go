// Package observability provides OpenTelemetry tracing for colframe.
//
// Tracing is off until InitTracing installs a provider; until then spans are
// no-ops and cost almost nothing.
package observability

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ajitpratap0/colframe"

var (
	mu       sync.RWMutex
	provider *sdktrace.TracerProvider
)

// TracingConfig contains tracing configuration
type TracingConfig struct {
	ServiceName    string  `yaml:"service_name" json:"service_name"`
	ServiceVersion string  `yaml:"service_version" json:"service_version"`
	Exporter       string  `yaml:"exporter" json:"exporter"` // "none" or "stdout"
	SamplingRate   float64 `yaml:"sampling_rate" json:"sampling_rate"`
	PrettyPrint    bool    `yaml:"pretty_print" json:"pretty_print"`
}

// DefaultTracingConfig returns a configuration with tracing disabled.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName:    "colframe",
		ServiceVersion: "dev",
		Exporter:       "none",
		SamplingRate:   1.0,
	}
}

// InitTracing installs a tracer provider built from cfg. With the "none"
// exporter nothing is installed.
func InitTracing(cfg TracingConfig) error {
	var exporter sdktrace.SpanExporter
	switch cfg.Exporter {
	case "", "none":
		return nil
	case "stdout":
		opts := []stdouttrace.Option{}
		if cfg.PrettyPrint {
			opts = append(opts, stdouttrace.WithPrettyPrint())
		}
		exp, err := stdouttrace.New(opts...)
		if err != nil {
			return fmt.Errorf("failed to create stdout exporter: %w", err)
		}
		exporter = exp
	default:
		return fmt.Errorf("unknown trace exporter %q", cfg.Exporter)
	}

	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}

	Install(sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler(cfg.SamplingRate)),
		sdktrace.WithBatcher(exporter),
	))
	return nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate <= 0:
		return sdktrace.NeverSample()
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Install makes tp the global tracer provider. Tests install providers with
// in-memory span recorders.
func Install(tp *sdktrace.TracerProvider) {
	mu.Lock()
	defer mu.Unlock()
	provider = tp
	otel.SetTracerProvider(tp)
}

// Meter returns the colframe meter of the current global meter provider.
// Without an installed provider instruments are no-ops.
func Meter() metric.Meter {
	return otel.Meter(instrumentationName)
}

var (
	durationOnce      sync.Once
	durationHistogram metric.Float64Histogram
)

// spanDuration returns the histogram of span durations in seconds.
func spanDuration() metric.Float64Histogram {
	durationOnce.Do(func() {
		h, err := Meter().Float64Histogram("colframe.span.duration",
			metric.WithDescription("Duration of traced operations"),
			metric.WithUnit("s"))
		if err != nil {
			otel.Handle(err)
		}
		durationHistogram = h
	})
	return durationHistogram
}

// Tracer returns the colframe tracer of the current global provider.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Shutdown flushes and stops the installed provider, if any.
func Shutdown(ctx context.Context) error {
	mu.Lock()
	tp := provider
	provider = nil
	mu.Unlock()
	if tp == nil {
		return nil
	}
	if err := tp.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown tracer: %w", err)
	}
	return nil
}

// Span wraps a trace span, batching attributes until End.
type Span struct {
	name       string
	span       trace.Span
	startTime  time.Time
	attributes []attribute.KeyValue
}

// NewSpan starts a span named operationName.
func NewSpan(ctx context.Context, operationName string) (context.Context, *Span) {
	ctx, span := Tracer().Start(ctx, operationName)
	return ctx, &Span{name: operationName, span: span, startTime: time.Now()}
}

// SetAttribute adds an attribute to the span.
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// Finish records err on the span, if any, and ends it.
func (s *Span) Finish(err error) {
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.End()
}

// End ends the span.
func (s *Span) End() {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	duration := time.Since(s.startTime)
	s.span.SetAttributes(attribute.Int64("duration_ns", duration.Nanoseconds()))
	if h := spanDuration(); h != nil {
		h.Record(context.Background(), duration.Seconds(),
			metric.WithAttributes(attribute.String("operation", s.name)))
	}
	s.span.End()
}
