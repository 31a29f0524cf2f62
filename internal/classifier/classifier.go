package classifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/inboxsorter/internal/instrumentation"
	"github.com/teemow/inboxsorter/internal/logging"
)

// DefaultTimeout bounds a single model call.
const DefaultTimeout = 60 * time.Second

// maxLoggedReply caps how much of a bad reply ends up in a log line.
const maxLoggedReply = 200

// Completer sends a prompt to a language model and returns its reply text.
// *llm.Client implements it.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Options configure a Client. Zero values select the defaults.
type Options struct {
	// Categories is the closed set offered to the model (default DefaultCategories)
	Categories []string
	// Strict maps categories outside Categories to the Unknown fallback
	Strict bool
	// Timeout bounds each model call (default DefaultTimeout)
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
}

// Client classifies messages with a language model. It is safe for
// concurrent use if its Completer is.
type Client struct {
	completer  Completer
	categories []string
	known      map[string]struct{}
	strict     bool
	timeout    time.Duration
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
}

// NewClient returns a Client calling completer once per classification.
func NewClient(completer Completer, opts Options) *Client {
	categories := opts.Categories
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	categories = append([]string(nil), categories...)

	known := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		known[c] = struct{}{}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		completer:  completer,
		categories: categories,
		known:      known,
		strict:     opts.Strict,
		timeout:    timeout,
		logger:     logging.WithOperation(logger, "classifier.classify"),
		metrics:    opts.Metrics,
	}
}

// Categories returns a copy of the configured category set.
func (c *Client) Categories() []string {
	return append([]string(nil), c.categories...)
}

// Classify asks the model for the category of one message. It never fails:
// a timeout, a transport error or an unusable reply all degrade to
// {Unknown, 0.0} with Result.Fallback describing the cause.
func (c *Client) Classify(ctx context.Context, subject, snippet string) (res Result) {
	ctx, span := instrumentation.StartClientSpan(ctx, "classifier.classify")
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			res = fallback(ReasonInternal, "", fmt.Errorf("panic during classification: %v", r))
			c.logger.Error("classification panicked", logging.Err(res.Fallback))
		}
		span.SetAttributes(
			attribute.String(instrumentation.SpanAttrCategory, res.Category),
			attribute.Float64(instrumentation.SpanAttrConfidence, res.Confidence),
			attribute.Bool(instrumentation.SpanAttrFallback, res.Degraded()),
		)
		if res.Degraded() {
			span.SetAttributes(attribute.String("classifier.fallback_reason", string(res.Fallback.Reason)))
		}
	}()

	reply, err := c.complete(ctx, BuildPrompt(c.categories, subject, snippet))
	if err != nil {
		c.logger.Warn("model call failed, routing to review",
			logging.SubjectHash(subject),
			logging.Err(err))
		instrumentation.SetSpanError(span, err)
		return fallback(ReasonModelUnavailable, "", err)
	}

	res, err = ParseReply(reply)
	if err != nil {
		c.logger.Warn("unusable model reply, routing to review",
			logging.SubjectHash(subject),
			slog.String("reason", string(res.Fallback.Reason)),
			slog.String("reply", logging.Truncate(reply, maxLoggedReply)),
			logging.Err(res.Fallback.Err))
		return res
	}

	if c.strict {
		if _, ok := c.known[res.Category]; !ok {
			c.logger.Warn("model chose a category outside the configured set",
				logging.Category(res.Category),
				logging.SubjectHash(subject))
			return fallback(ReasonUnknownCategory, reply, fmt.Errorf("category %q is not configured", res.Category))
		}
	}

	c.logger.Debug("message classified",
		logging.SubjectHash(subject),
		logging.Category(res.Category),
		logging.Confidence(res.Confidence))

	return res
}

// complete runs one model call under the per-call timeout.
func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if c.completer == nil {
		return "", errors.New("no model configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	reply, err := c.completer.Complete(ctx, prompt)

	status := instrumentation.StatusSuccess
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		status = instrumentation.StatusTimeout
		err = fmt.Errorf("model call timed out after %s: %w", c.timeout, err)
	case errors.Is(err, context.Canceled):
		status = instrumentation.StatusCancelled
	case err != nil:
		status = instrumentation.StatusError
	}
	c.metrics.RecordModelRequest(ctx, status, time.Since(start))

	return reply, err
}
