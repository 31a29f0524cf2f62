// Package instrumentation provides OpenTelemetry instrumentation for inboxsorter.
//
// # Metrics
//
// Classification:
//   - classifications_total: Counter by category, routing (confident, review) and outcome (parsed, fallback)
//   - classification_confidence: Histogram of model confidence by routing
//
// Model service:
//   - model_requests_total: Counter of completion calls by status
//   - model_request_duration_seconds: Histogram of completion latency
//
// Label repository:
//   - label_operations_total: Counter of list, create and apply calls by status
//   - label_operation_duration_seconds: Histogram of Gmail label call latency
//
// Sorter:
//   - messages_processed_total: Counter of processed messages by status
//   - sorter_run_duration_seconds: Histogram of run durations
//
// MCP tools:
//   - mcp_tool_invocations_total, mcp_tool_duration_seconds
//
// Category values outside the configured set are reported as "other".
//
// # Tracing
//
// Spans are created for sorter.run, sorter.message, classifier.classify,
// labels.ensure and tool.<name>.
//
// # Configuration
//
// Instrumentation is configured via environment variables:
//   - INSTRUMENTATION_ENABLED: Enable instrumentation (default: false)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - METRICS_TEXTFILE: write prometheus metrics to this file at shutdown
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	metrics := provider.Metrics()
//	metrics.RecordModelRequest(ctx, instrumentation.StatusSuccess, time.Since(start))
package instrumentation
