package instrumentation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrStatus    = "status"
	attrOperation = "operation"
	attrCategory  = "category"
	attrRouting   = "routing"
	attrOutcome   = "outcome"
	attrTool      = "tool"
)

// Metrics provides methods for recording observability metrics.
// A nil *Metrics, or one returned by a disabled Provider, records nothing.
type Metrics struct {
	// Classification metrics
	classificationsTotal     metric.Int64Counter
	classificationConfidence metric.Float64Histogram

	// Model service metrics
	modelRequestsTotal   metric.Int64Counter
	modelRequestDuration metric.Float64Histogram

	// Label repository metrics
	labelOperationsTotal   metric.Int64Counter
	labelOperationDuration metric.Float64Histogram

	// Sorter metrics
	messagesProcessedTotal metric.Int64Counter
	runDuration            metric.Float64Histogram

	// MCP Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	mu         sync.RWMutex
	categories map[string]struct{}
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.classificationsTotal, err = meter.Int64Counter(
		"classifications_total",
		metric.WithDescription("Total number of classified messages"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create classifications_total counter: %w", err)
	}

	m.classificationConfidence, err = meter.Float64Histogram(
		"classification_confidence",
		metric.WithDescription("Confidence reported by the model per classification"),
		metric.WithExplicitBucketBoundaries(0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification_confidence histogram: %w", err)
	}

	m.modelRequestsTotal, err = meter.Int64Counter(
		"model_requests_total",
		metric.WithDescription("Total number of model completion requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_requests_total counter: %w", err)
	}

	m.modelRequestDuration, err = meter.Float64Histogram(
		"model_request_duration_seconds",
		metric.WithDescription("Model completion request duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create model_request_duration_seconds histogram: %w", err)
	}

	m.labelOperationsTotal, err = meter.Int64Counter(
		"label_operations_total",
		metric.WithDescription("Total number of Gmail label operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create label_operations_total counter: %w", err)
	}

	m.labelOperationDuration, err = meter.Float64Histogram(
		"label_operation_duration_seconds",
		metric.WithDescription("Gmail label operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create label_operation_duration_seconds histogram: %w", err)
	}

	m.messagesProcessedTotal, err = meter.Int64Counter(
		"messages_processed_total",
		metric.WithDescription("Total number of messages processed by the sorter"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create messages_processed_total counter: %w", err)
	}

	m.runDuration, err = meter.Float64Histogram(
		"sorter_run_duration_seconds",
		metric.WithDescription("Duration of a sorter run in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 30, 60, 120, 300, 600),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create sorter_run_duration_seconds histogram: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"mcp_tool_invocations_total",
		metric.WithDescription("Total number of MCP tool invocations"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"mcp_tool_duration_seconds",
		metric.WithDescription("MCP tool execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mcp_tool_duration_seconds histogram: %w", err)
	}

	return m, nil
}

// SetCategories sets the configured category set. Categories outside it are
// recorded as "other".
func (m *Metrics) SetCategories(categories []string) {
	if m == nil {
		return
	}
	known := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		known[c] = struct{}{}
	}
	m.mu.Lock()
	m.categories = known
	m.mu.Unlock()
}

func (m *Metrics) categoryValue(category string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return NormalizeCategory(category, m.categories)
}

// RecordClassification records one decided classification.
//
// Parameters:
//   - category: category returned by the classifier
//   - routing: RoutingConfident or RoutingReview
//   - outcome: OutcomeParsed or OutcomeFallback
//   - confidence: confidence in [0, 1]
func (m *Metrics) RecordClassification(ctx context.Context, category, routing, outcome string, confidence float64) {
	if m == nil || m.classificationsTotal == nil || m.classificationConfidence == nil {
		return // Instrumentation not initialized
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrCategory, m.categoryValue(category)),
		attribute.String(attrRouting, routing),
		attribute.String(attrOutcome, outcome),
	}

	m.classificationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.classificationConfidence.Record(ctx, confidence, metric.WithAttributes(attribute.String(attrRouting, routing)))
}

// RecordModelRequest records a single completion call to the model service.
func (m *Metrics) RecordModelRequest(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.modelRequestsTotal == nil || m.modelRequestDuration == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrStatus, status))
	m.modelRequestsTotal.Add(ctx, 1, attrs)
	m.modelRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordLabelOperation records a Gmail label operation (list, create or apply).
func (m *Metrics) RecordLabelOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.labelOperationsTotal == nil || m.labelOperationDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.labelOperationsTotal.Add(ctx, 1, attrs)
	m.labelOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordMessage records a message processed by the sorter.
func (m *Metrics) RecordMessage(ctx context.Context, status string) {
	if m == nil || m.messagesProcessedTotal == nil {
		return
	}

	m.messagesProcessedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordRun records the duration of a complete sorter run.
func (m *Metrics) RecordRun(ctx context.Context, status string, duration time.Duration) {
	if m == nil || m.runDuration == nil {
		return
	}

	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(attrStatus, status)))
}

// RecordToolInvocation records an MCP tool invocation with tool name, status, and duration.
func (m *Metrics) RecordToolInvocation(ctx context.Context, toolName, status string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String(attrTool, toolName),
		attribute.String(attrStatus, status),
	}

	m.toolInvocationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.toolDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}
