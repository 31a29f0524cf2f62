package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for the inboxsorter packages.
const TracerName = "github.com/teemow/inboxsorter"

// Span attribute keys.
const (
	SpanAttrTool       = "mcp.tool"
	SpanAttrRunID      = "sorter.run_id"
	SpanAttrBatchSize  = "sorter.batch_size"
	SpanAttrMessageID  = "gmail.message_id"
	SpanAttrLabel      = "gmail.label"
	SpanAttrCategory   = "classifier.category"
	SpanAttrConfidence = "classifier.confidence"
	SpanAttrFallback   = "classifier.fallback"
	SpanAttrDryRun     = "sorter.dry_run"
)

// SpanAttributeBuilder helps construct OpenTelemetry span attributes
// with consistent naming.
type SpanAttributeBuilder struct {
	attrs []attribute.KeyValue
}

// NewSpanAttributeBuilder creates a new SpanAttributeBuilder.
func NewSpanAttributeBuilder() *SpanAttributeBuilder {
	return &SpanAttributeBuilder{
		attrs: make([]attribute.KeyValue, 0, 8),
	}
}

// WithRunID adds the sorter run id.
func (b *SpanAttributeBuilder) WithRunID(runID string) *SpanAttributeBuilder {
	if runID != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrRunID, runID))
	}
	return b
}

// WithMessageID adds the Gmail message id.
func (b *SpanAttributeBuilder) WithMessageID(id string) *SpanAttributeBuilder {
	if id != "" {
		b.attrs = append(b.attrs, attribute.String(SpanAttrMessageID, id))
	}
	return b
}

// WithLabel adds the label name.
func (b *SpanAttributeBuilder) WithLabel(label string) *SpanAttributeBuilder {
	b.attrs = append(b.attrs, attribute.String(SpanAttrLabel, label))
	return b
}

// WithClassification adds the category and confidence of a classification.
func (b *SpanAttributeBuilder) WithClassification(category string, confidence float64) *SpanAttributeBuilder {
	b.attrs = append(b.attrs,
		attribute.String(SpanAttrCategory, category),
		attribute.Float64(SpanAttrConfidence, confidence),
	)
	return b
}

// Build returns the constructed attributes.
func (b *SpanAttributeBuilder) Build() []attribute.KeyValue {
	return b.attrs
}

// StartSpan starts a new span with the given name and attributes.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartClientSpan starts a span for a call to an external service
// (the model service or the Gmail API).
func StartClientSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// StartToolSpan starts a span for an MCP tool invocation.
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+1)
	allAttrs = append(allAttrs, attribute.String(SpanAttrTool, toolName))
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "tool."+toolName,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// GetSpanID returns the span ID from the current span in context.
func GetSpanID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().SpanID().String()
	}
	return ""
}
