package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/inboxsorter/internal/logging"
)

// ToolInvocation captures all information about a tool invocation for audit logging.
type ToolInvocation struct {
	Tool    string
	Account string

	// Execution details
	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	// Tracing context
	TraceID string
	SpanID  string
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes for structured logging.
func (ti *ToolInvocation) LogAttrs() []slog.Attr {
	attrs := []slog.Attr{
		slog.String("tool", ti.Tool),
		slog.Duration("duration", ti.Duration),
		slog.Bool("success", ti.Success),
	}

	if ti.Account != "" {
		attrs = append(attrs, slog.String("account", ti.Account))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String("error", ti.Error))
	}

	return attrs
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the tool operation finishes.
func NewToolInvocation(tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
	}
}

// WithAccount sets the Google account name.
func (ti *ToolInvocation) WithAccount(account string) *ToolInvocation {
	ti.Account = account
	return ti
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ti.TraceID = span.SpanContext().TraceID().String()
		ti.SpanID = span.SpanContext().SpanID().String()
	}
	return ti
}

// Complete marks the invocation as completed and calculates duration.
func (ti *ToolInvocation) Complete(success bool, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = success
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// CompleteWithError marks the invocation as failed with the given error.
func (ti *ToolInvocation) CompleteWithError(err error) *ToolInvocation {
	return ti.Complete(false, err)
}

// CompleteSuccess marks the invocation as successful.
func (ti *ToolInvocation) CompleteSuccess() *ToolInvocation {
	return ti.Complete(true, nil)
}

// LabelMutation records one attempt to relabel and archive a message.
type LabelMutation struct {
	RunID     string
	MessageID string
	Subject   string
	Label     string
	Category  string

	Confidence float64
	Success    bool
	Error      string

	TraceID string
}

// NewLabelMutation returns a record for the given message and label,
// carrying the trace id of the current span.
func NewLabelMutation(ctx context.Context, runID, messageID, label string) *LabelMutation {
	return &LabelMutation{
		RunID:     runID,
		MessageID: messageID,
		Label:     label,
		TraceID:   GetTraceID(ctx),
	}
}

// Complete sets the result of the mutation.
func (lm *LabelMutation) Complete(err error) *LabelMutation {
	lm.Success = err == nil
	if err != nil {
		lm.Error = err.Error()
	}
	return lm
}

// LogAttrs returns the slog attributes of the record. The subject is hashed
// unless includeSubject is set.
func (lm *LabelMutation) LogAttrs(includeSubject bool) []slog.Attr {
	attrs := []slog.Attr{
		logging.MessageID(lm.MessageID),
		logging.Label(lm.Label),
	}
	if lm.RunID != "" {
		attrs = append(attrs, logging.RunID(lm.RunID))
	}
	if lm.Category != "" {
		attrs = append(attrs, logging.Category(lm.Category), logging.Confidence(lm.Confidence))
	}
	if includeSubject {
		attrs = append(attrs, slog.String("subject", lm.Subject))
	} else if lm.Subject != "" {
		attrs = append(attrs, logging.SubjectHash(lm.Subject))
	}
	if lm.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", lm.TraceID))
	}
	if lm.Error != "" {
		attrs = append(attrs, slog.String("error", lm.Error))
	}
	return attrs
}

// AuditLogger provides structured audit logging for tool invocations and
// mailbox mutations. A nil *AuditLogger logs nothing.
type AuditLogger struct {
	logger          *slog.Logger
	includeSubjects bool
	enabled         bool
}

// NewAuditLogger creates a new AuditLogger with the given slog.Logger.
// Subjects are hashed by default.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:  logger,
		enabled: true,
	}
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:          logger,
		includeSubjects: config.IncludeSubjects,
		enabled:         config.Enabled,
	}
}

// SetEnabled sets whether audit logging is enabled.
func (al *AuditLogger) SetEnabled(enabled bool) {
	al.enabled = enabled
}

// LogToolInvocation logs a tool invocation.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	args := attrsToArgs(ti.LogAttrs())
	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}

// LogLabelMutation logs a label_applied or label_apply_failed record.
func (al *AuditLogger) LogLabelMutation(lm *LabelMutation) {
	if al == nil || !al.enabled {
		return
	}

	args := attrsToArgs(lm.LogAttrs(al.includeSubjects))
	if lm.Success {
		al.logger.Info("label_applied", args...)
	} else {
		al.logger.Warn("label_apply_failed", args...)
	}
}

func attrsToArgs(attrs []slog.Attr) []any {
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}
	return args
}
