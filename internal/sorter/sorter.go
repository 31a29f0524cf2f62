package sorter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/inboxsorter/internal/classifier"
	"github.com/teemow/inboxsorter/internal/gmail"
	"github.com/teemow/inboxsorter/internal/instrumentation"
	"github.com/teemow/inboxsorter/internal/logging"
	"github.com/teemow/inboxsorter/internal/policy"
)

// DefaultApplyTimeout bounds the label calls made for one message.
const DefaultApplyTimeout = 30 * time.Second

// ErrFetch is returned by Run when the batch could not be fetched.
// Nothing has been processed in that case.
var ErrFetch = errors.New("failed to fetch messages")

// Fetcher returns the most recent messages of a mailbox.
type Fetcher interface {
	FetchRecent(ctx context.Context, max int) ([]gmail.Message, error)
}

// Classifier assigns a category and confidence to a message.
type Classifier interface {
	Classify(ctx context.Context, subject, snippet string) classifier.Result
}

// Labeler applies a label to a message and removes it from the inbox.
type Labeler interface {
	EnsureLabelApplied(ctx context.Context, messageID, labelName string) error
}

// Config holds the settings of a Sorter. Zero values select the defaults.
type Config struct {
	Policy policy.Policy
	// LabelPrefix is prepended to every applied label, e.g. "AI/"
	LabelPrefix string
	// DryRun classifies and decides without touching the mailbox
	DryRun       bool
	ApplyTimeout time.Duration

	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
}

// Sorter runs the fetch, classify, decide and apply loop over one batch.
type Sorter struct {
	fetcher    Fetcher
	classifier Classifier
	labeler    Labeler

	policy       policy.Policy
	prefix       string
	dryRun       bool
	applyTimeout time.Duration

	logger  *slog.Logger
	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
}

// New returns a Sorter. A zero Config.Policy selects policy.Default().
func New(fetcher Fetcher, c Classifier, labeler Labeler, cfg Config) *Sorter {
	p := cfg.Policy
	if p == (policy.Policy{}) {
		p = policy.Default()
	}
	if p.ReviewLabel == "" {
		p.ReviewLabel = policy.ReviewLabel
	}

	timeout := cfg.ApplyTimeout
	if timeout <= 0 {
		timeout = DefaultApplyTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Sorter{
		fetcher:      fetcher,
		classifier:   c,
		labeler:      labeler,
		policy:       p,
		prefix:       cfg.LabelPrefix,
		dryRun:       cfg.DryRun,
		applyTimeout: timeout,
		logger:       logging.WithOperation(logger, "sorter.run"),
		metrics:      cfg.Metrics,
		audit:        cfg.Audit,
	}
}

// DryRun reports whether the sorter leaves the mailbox untouched.
func (s *Sorter) DryRun() bool {
	return s.dryRun
}

// Run fetches up to batchSize messages and processes them in fetch order.
//
// A failed fetch returns an error wrapping ErrFetch and no outcomes. A failed
// label call only marks that message's Outcome. Cancellation is observed
// between messages: the outcomes collected so far are returned together with
// ctx.Err(), and no message is left half processed.
func (s *Sorter) Run(ctx context.Context, batchSize int) ([]Outcome, error) {
	runID := uuid.NewString()
	logger := logging.WithRunID(s.logger, runID)

	ctx, span := instrumentation.StartSpan(ctx, "sorter.run",
		attribute.String(instrumentation.SpanAttrRunID, runID),
		attribute.Int(instrumentation.SpanAttrBatchSize, batchSize),
		attribute.Bool(instrumentation.SpanAttrDryRun, s.dryRun),
	)
	defer span.End()

	start := time.Now()

	messages, err := s.fetcher.FetchRecent(ctx, batchSize)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrFetch, err)
		logger.Error("fetch failed", logging.Err(err))
		instrumentation.SetSpanError(span, err)
		s.metrics.RecordRun(ctx, instrumentation.StatusError, time.Since(start))
		return nil, err
	}
	logger.Info("fetched messages",
		slog.Int("count", len(messages)),
		slog.Int("batch_size", batchSize),
		slog.Bool("dry_run", s.dryRun))

	outcomes := make([]Outcome, 0, len(messages))
	for _, msg := range messages {
		if err := ctx.Err(); err != nil {
			logger.Warn("run cancelled",
				slog.Int("processed", len(outcomes)),
				slog.Int("remaining", len(messages)-len(outcomes)))
			instrumentation.SetSpanError(span, err)
			s.metrics.RecordRun(ctx, instrumentation.StatusCancelled, time.Since(start))
			return outcomes, err
		}
		outcomes = append(outcomes, s.process(ctx, logger, runID, msg))
	}

	sum := Summarize(outcomes)
	logger.Info("run finished",
		slog.Int("total", sum.Total),
		slog.Int("confident", sum.Confident),
		slog.Int("review", sum.Review),
		slog.Int("applied", sum.Applied),
		slog.Int("failed", sum.Failed),
		slog.Duration("duration", time.Since(start)))

	span.SetAttributes(
		attribute.Int("sorter.applied", sum.Applied),
		attribute.Int("sorter.failed", sum.Failed),
	)
	instrumentation.SetSpanSuccess(span)
	s.metrics.RecordRun(ctx, instrumentation.StatusSuccess, time.Since(start))

	return outcomes, nil
}

// process classifies, decides and labels a single message.
func (s *Sorter) process(ctx context.Context, logger *slog.Logger, runID string, msg gmail.Message) Outcome {
	ctx, span := instrumentation.StartSpan(ctx, "sorter.message",
		instrumentation.NewSpanAttributeBuilder().
			WithRunID(runID).
			WithMessageID(msg.ID).
			Build()...)
	defer span.End()

	res := s.classifier.Classify(ctx, msg.Subject, msg.Snippet)
	label, confident := s.policy.Decide(res)

	out := Outcome{
		MessageID:  msg.ID,
		Subject:    msg.Subject,
		Category:   res.Category,
		Confidence: res.Confidence,
		FinalLabel: label,
		Confident:  confident,
	}
	if res.Degraded() {
		out.FallbackReason = string(res.Fallback.Reason)
	}

	routing := instrumentation.RoutingReview
	if confident {
		routing = instrumentation.RoutingConfident
	}
	outcome := instrumentation.OutcomeParsed
	if res.Degraded() {
		outcome = instrumentation.OutcomeFallback
	}
	s.metrics.RecordClassification(ctx, res.Category, routing, outcome, res.Confidence)

	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().
		WithClassification(res.Category, res.Confidence).
		WithLabel(label).
		Build()...)

	msgLogger := logger.With(logging.MessageID(msg.ID), logging.SubjectHash(msg.Subject))
	msgLogger.Debug("message decided",
		logging.Category(res.Category),
		logging.Confidence(res.Confidence),
		logging.Label(label),
		slog.Bool("confident", confident))

	if s.dryRun {
		s.metrics.RecordMessage(ctx, instrumentation.StatusSkipped)
		instrumentation.SetSpanSuccess(span)
		return out
	}

	applied := s.prefix + label
	err := s.apply(ctx, msg.ID, applied)

	mutation := instrumentation.NewLabelMutation(ctx, runID, msg.ID, applied)
	mutation.Subject = msg.Subject
	mutation.Category = res.Category
	mutation.Confidence = res.Confidence
	s.audit.LogLabelMutation(mutation.Complete(err))

	if err != nil {
		out.Error = newErrorInfo(err)
		msgLogger.Error("failed to apply label", logging.Label(applied), logging.Err(err))
		instrumentation.SetSpanError(span, err)
		s.metrics.RecordMessage(ctx, instrumentation.StatusError)
		return out
	}

	out.Applied = true
	instrumentation.SetSpanSuccess(span)
	s.metrics.RecordMessage(ctx, instrumentation.StatusSuccess)
	return out
}

func (s *Sorter) apply(ctx context.Context, messageID, label string) error {
	ctx, cancel := context.WithTimeout(ctx, s.applyTimeout)
	defer cancel()
	return s.labeler.EnsureLabelApplied(ctx, messageID, label)
}
