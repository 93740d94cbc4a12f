package telemetry

import (
	"context"
	"strconv"

	"github.com/delaneyj/watchparty/detector"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultTracerName = "watchparty"

type TracingConfig struct {
	TracerName string
	// Context is the parent of every traversal span (default: background).
	Context context.Context
	// Provider defaults to the global tracer provider.
	Provider trace.TracerProvider
}

type TracingOption func(*TracingConfig)

func WithTracerName(name string) TracingOption {
	return func(c *TracingConfig) {
		c.TracerName = name
	}
}

func WithParentContext(ctx context.Context) TracingOption {
	return func(c *TracingConfig) {
		c.Context = ctx
	}
}

func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *TracingConfig) {
		c.Provider = tp
	}
}

// Tracing opens one span per tree traversal. Failures caught during the
// traversal become span events and mark the span as errored.
//
// Traversals of one tree never overlap, which is what lets the current span
// live on the instrument.
type Tracing struct {
	ctx    context.Context
	tracer trace.Tracer
	span   trace.Span
}

var _ detector.Instrument = (*Tracing)(nil)

func OpenTelemetry(opts ...TracingOption) *Tracing {
	config := TracingConfig{
		TracerName: defaultTracerName,
		Context:    context.Background(),
	}
	for _, opt := range opts {
		opt(&config)
	}
	provider := config.Provider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return &Tracing{
		ctx:    config.Context,
		tracer: provider.Tracer(config.TracerName),
	}
}

func (t *Tracing) StartTreeCheck(rootID uint64) func(int) {
	_, span := t.tracer.Start(t.ctx, "detector.CheckTree", trace.WithAttributes(
		attribute.String("detector.root", "@"+strconv.FormatUint(rootID, 10)),
	))
	prev := t.span
	t.span = span
	return func(checked int) {
		span.SetAttributes(attribute.Int("detector.nodes_checked", checked))
		span.End()
		t.span = prev
	}
}

func (t *Tracing) WatcherFired(uint64, string) {}

func (t *Tracing) CheckFailed(err *detector.WatchError) {
	if t.span == nil {
		return
	}
	t.span.RecordError(err, trace.WithAttributes(
		attribute.String("detector.source", string(err.Source)),
		attribute.String("detector.property", err.Property),
		attribute.Int64("detector.node", int64(err.NodeID)),
	))
	t.span.SetStatus(codes.Error, err.Error())
}

// Multi fans events out to several instruments.
type Multi []detector.Instrument

func (m Multi) StartTreeCheck(rootID uint64) func(int) {
	dones := make([]func(int), len(m))
	for i, inst := range m {
		dones[i] = inst.StartTreeCheck(rootID)
	}
	return func(checked int) {
		for i := len(dones) - 1; i >= 0; i-- {
			dones[i](checked)
		}
	}
}

func (m Multi) WatcherFired(nodeID uint64, property string) {
	for _, inst := range m {
		inst.WatcherFired(nodeID, property)
	}
}

func (m Multi) CheckFailed(err *detector.WatchError) {
	for _, inst := range m {
		inst.CheckFailed(err)
	}
}
