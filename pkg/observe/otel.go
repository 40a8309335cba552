package observe

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pulse-dev/pulse/pkg/pulse"
)

// Default tracer name for reactive flush spans.
const defaultTracerName = "pulse"

// OTelConfig configures the OpenTelemetry flush observer.
type OTelConfig struct {
	// TracerName is the name of the tracer (default: "pulse").
	TracerName string

	// Context is the parent context for flush spans.
	// Default: context.Background().
	Context context.Context

	// Attributes are added to every flush span.
	Attributes []attribute.KeyValue

	// tracer is the resolved tracer instance.
	tracer trace.Tracer
}

// OTelOption configures the OpenTelemetry flush observer.
type OTelOption func(*OTelConfig)

// WithTracerName sets the tracer name.
func WithTracerName(name string) OTelOption {
	return func(c *OTelConfig) {
		c.TracerName = name
	}
}

// WithSpanContext sets the parent context for flush spans.
func WithSpanContext(ctx context.Context) OTelOption {
	return func(c *OTelConfig) {
		c.Context = ctx
	}
}

// WithAttributes adds constant attributes to every flush span.
func WithAttributes(attrs ...attribute.KeyValue) OTelOption {
	return func(c *OTelConfig) {
		c.Attributes = append(c.Attributes, attrs...)
	}
}

// defaultOTelConfig returns the default OpenTelemetry configuration.
func defaultOTelConfig() OTelConfig {
	return OTelConfig{
		TracerName: defaultTracerName,
		Context:    context.Background(),
	}
}

// Tracer is a pulse.FlushObserver emitting one span per flush, with
// iteration and effect counts as attributes and an error status when the
// flush isolated failures.
//
// The tracer uses the global OpenTelemetry tracer provider. Configure it
// in your main() before creating the runtime:
//
//	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
//	otel.SetTracerProvider(tp)
//
//	rt := pulse.NewRuntime(pulse.WithFlushObserver(observe.NewTracer()))
type Tracer struct {
	config OTelConfig

	// span is the in-flight flush span. The runtime is single-owner, so
	// FlushStart/FlushEnd never overlap.
	span trace.Span
}

// NewTracer creates the flush tracer.
func NewTracer(opts ...OTelOption) *Tracer {
	config := defaultOTelConfig()
	for _, opt := range opts {
		opt(&config)
	}
	config.tracer = otel.Tracer(config.TracerName)

	return &Tracer{config: config}
}

// FlushStart implements pulse.FlushObserver.
func (t *Tracer) FlushStart() {
	_, t.span = t.config.tracer.Start(
		t.config.Context,
		"pulse.flush",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(t.config.Attributes...),
	)
}

// FlushEnd implements pulse.FlushObserver.
func (t *Tracer) FlushEnd(info pulse.FlushInfo) {
	if t.span == nil {
		return
	}

	t.span.SetAttributes(
		attribute.Int("pulse.flush.iterations", info.Iterations),
		attribute.Int("pulse.flush.pre_effects", info.PreEffects),
		attribute.Int("pulse.flush.post_effects", info.PostEffects),
		attribute.Int("pulse.flush.errors", info.Errors),
	)
	if info.Errors > 0 {
		t.span.SetStatus(codes.Error, "effect failures during flush")
	} else {
		t.span.SetStatus(codes.Ok, "")
	}

	t.span.End()
	t.span = nil
}
