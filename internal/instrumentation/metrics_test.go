package instrumentation

import (
	"context"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, Config{
		ServiceName:     "test-service",
		ServiceVersion:  "1.0.0",
		Enabled:         true,
		MetricsExporter: ExporterPrometheus,
		TracingExporter: ExporterNone,
	})
	if err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return provider
}

// gather returns the gathered metric families keyed by name.
func gather(t *testing.T, p *Provider) map[string]*dto.MetricFamily {
	t.Helper()
	mfs, err := p.Gatherer().Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(mfs))
	for _, mf := range mfs {
		out[mf.GetName()] = mf
	}
	return out
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestMetrics_RecordAll(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()
	metrics := provider.Metrics()

	metrics.RecordModelRequest(ctx, StatusSuccess, 200*time.Millisecond)
	metrics.RecordModelRequest(ctx, StatusTimeout, 60*time.Second)
	metrics.RecordLabelOperation(ctx, OperationList, StatusSuccess, 50*time.Millisecond)
	metrics.RecordLabelOperation(ctx, OperationApply, StatusError, 80*time.Millisecond)
	metrics.RecordMessage(ctx, StatusSuccess)
	metrics.RecordRun(ctx, StatusSuccess, 3*time.Second)
	metrics.RecordToolInvocation(ctx, "sorter_preview", StatusSuccess, time.Second)
	metrics.RecordClassification(ctx, "Work", RoutingConfident, OutcomeParsed, 0.92)

	families := gather(t, provider)
	for _, prefix := range []string{
		"model_requests_total",
		"model_request_duration_seconds",
		"label_operations_total",
		"label_operation_duration_seconds",
		"messages_processed_total",
		"sorter_run_duration_seconds",
		"mcp_tool_invocations_total",
		"classifications_total",
		"classification_confidence",
	} {
		found := false
		for name := range families {
			if strings.HasPrefix(name, prefix) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("metric %s not exported", prefix)
		}
	}
}

func TestMetrics_CategoryCardinality(t *testing.T) {
	provider := newTestProvider(t)
	ctx := context.Background()
	metrics := provider.Metrics()
	metrics.SetCategories([]string{"Work", "Personal"})

	metrics.RecordClassification(ctx, "Work", RoutingConfident, OutcomeParsed, 0.9)
	metrics.RecordClassification(ctx, "Invented", RoutingReview, OutcomeParsed, 0.3)
	metrics.RecordClassification(ctx, "Unknown", RoutingReview, OutcomeFallback, 0)

	mf, ok := gather(t, provider)["classifications_total"]
	if !ok {
		t.Fatal("classifications_total not exported")
	}

	got := map[string]bool{}
	for _, m := range mf.GetMetric() {
		got[labelValue(m, "category")] = true
	}
	for _, want := range []string{"Work", CategoryOther, "Unknown"} {
		if !got[want] {
			t.Errorf("expected category label %q, got %v", want, got)
		}
	}
	if got["Invented"] {
		t.Error("out-of-set category should be folded into other")
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()

	var nilMetrics *Metrics
	nilMetrics.SetCategories([]string{"Work"})
	nilMetrics.RecordModelRequest(ctx, StatusSuccess, time.Second)
	nilMetrics.RecordClassification(ctx, "Work", RoutingConfident, OutcomeParsed, 1)
	nilMetrics.RecordLabelOperation(ctx, OperationCreate, StatusSuccess, time.Second)
	nilMetrics.RecordMessage(ctx, StatusError)
	nilMetrics.RecordRun(ctx, StatusCancelled, time.Second)
	nilMetrics.RecordToolInvocation(ctx, "x", StatusSuccess, time.Second)

	// Uninitialized recorder from a disabled provider
	empty := &Metrics{}
	empty.RecordModelRequest(ctx, StatusSuccess, time.Second)
	empty.RecordClassification(ctx, "Work", RoutingConfident, OutcomeParsed, 1)
	empty.RecordRun(ctx, StatusSuccess, time.Second)
}
