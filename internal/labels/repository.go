package labels

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/inboxsorter/internal/gmail"
	"github.com/teemow/inboxsorter/internal/instrumentation"
	"github.com/teemow/inboxsorter/internal/logging"
)

// Store is the provider side of the repository. *gmail.Client implements it.
type Store interface {
	ListLabels(ctx context.Context) ([]gmail.Label, error)
	CreateLabel(ctx context.Context, name string) (gmail.Label, error)
	ModifyMessage(ctx context.Context, messageID string, addLabelIDs, removeLabelIDs []string) error
}

// Repository maps label names to provider ids, creating missing labels,
// and applies a label while removing the inbox marker.
//
// The name to id cache is loaded once on first use and only reloaded by
// Refresh or after a create conflict. A Repository is safe for concurrent use.
type Repository struct {
	store   Store
	inboxID string
	logger  *slog.Logger
	metrics *instrumentation.Metrics

	// mu serializes loading and creation so a process never creates a label twice
	mu     sync.Mutex
	loaded atomic.Bool
	byName *cache.Cache
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger of the repository.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithMetrics sets the metrics recorder of the repository.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(r *Repository) {
		r.metrics = m
	}
}

// NewRepository returns a Repository applying labels through store and
// removing inboxLabelID from every labeled message.
func NewRepository(store Store, inboxLabelID string, opts ...Option) *Repository {
	r := &Repository{
		store:   store,
		inboxID: inboxLabelID,
		logger:  slog.Default(),
		byName:  cache.New(cache.NoExpiration, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.WithOperation(r.logger, "labels")
	return r
}

// EnsureLabelApplied resolves labelName, creating it if needed, then adds it
// to the message and removes the inbox marker in one modify call.
// Repeating the call with the same arguments is harmless.
func (r *Repository) EnsureLabelApplied(ctx context.Context, messageID, labelName string) error {
	ctx, span := instrumentation.StartSpan(ctx, "labels.ensure",
		instrumentation.NewSpanAttributeBuilder().
			WithMessageID(messageID).
			WithLabel(labelName).
			Build()...)
	defer span.End()

	id, op, err := r.resolve(ctx, labelName)
	if err != nil {
		lerr := &Error{Op: op, MessageID: messageID, Label: labelName, Err: err}
		instrumentation.SetSpanError(span, lerr)
		return lerr
	}
	span.SetAttributes(attribute.String("gmail.label_id", id))

	var remove []string
	if r.inboxID != "" {
		remove = []string{r.inboxID}
	}

	start := time.Now()
	err = r.store.ModifyMessage(ctx, messageID, []string{id}, remove)
	r.record(ctx, instrumentation.OperationApply, err, start)
	if err != nil {
		lerr := &Error{Op: OpApply, MessageID: messageID, Label: labelName, Err: err}
		instrumentation.SetSpanError(span, lerr)
		return lerr
	}

	instrumentation.SetSpanSuccess(span)
	return nil
}

// Resolve returns the provider id of name, creating the label if it does not exist.
func (r *Repository) Resolve(ctx context.Context, name string) (string, error) {
	id, op, err := r.resolve(ctx, name)
	if err != nil {
		return "", &Error{Op: op, Label: name, Err: err}
	}
	return id, nil
}

// Refresh drops the cache and reloads all labels from the provider.
func (r *Repository) Refresh(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.load(ctx); err != nil {
		return &Error{Op: OpResolve, Err: err}
	}
	return nil
}

// Labels returns the known labels sorted by name, loading them on first use.
func (r *Repository) Labels(ctx context.Context) ([]gmail.Label, error) {
	if err := r.ensureLoaded(ctx); err != nil {
		return nil, &Error{Op: OpResolve, Err: err}
	}

	items := r.byName.Items()
	out := make([]gmail.Label, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(gmail.Label))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// resolve returns the id of name and, on failure, the operation that failed.
func (r *Repository) resolve(ctx context.Context, name string) (string, string, error) {
	if name == "" {
		return "", OpResolve, errors.New("label name must not be empty")
	}

	if r.loaded.Load() {
		if id, ok := r.lookup(name); ok {
			return id, "", nil
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.loaded.Load() {
		if err := r.load(ctx); err != nil {
			return "", OpResolve, err
		}
	}
	if id, ok := r.lookup(name); ok {
		return id, "", nil
	}

	start := time.Now()
	created, err := r.store.CreateLabel(ctx, name)
	r.record(ctx, instrumentation.OperationCreate, err, start)
	if err != nil {
		if !errors.Is(err, gmail.ErrLabelExists) {
			return "", OpCreate, err
		}
		// Another client created it since the cache was loaded.
		r.logger.Info("label created concurrently, reloading", logging.Label(name))
		if lerr := r.load(ctx); lerr != nil {
			return "", OpResolve, lerr
		}
		if id, ok := r.lookup(name); ok {
			return id, "", nil
		}
		return "", OpCreate, err
	}
	if created.ID == "" {
		return "", OpCreate, fmt.Errorf("provider returned no id for label %q", name)
	}
	if created.Name == "" {
		created.Name = name
	}

	r.byName.Set(name, created, cache.NoExpiration)
	r.logger.Info("label created", logging.Label(name), slog.String("label_id", created.ID))
	return created.ID, "", nil
}

func (r *Repository) ensureLoaded(ctx context.Context) error {
	if r.loaded.Load() {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loaded.Load() {
		return nil
	}
	return r.load(ctx)
}

// load replaces the cache with the provider's label set. Callers hold mu.
func (r *Repository) load(ctx context.Context) error {
	start := time.Now()
	all, err := r.store.ListLabels(ctx)
	r.record(ctx, instrumentation.OperationList, err, start)
	if err != nil {
		return err
	}

	r.byName.Flush()
	for _, l := range all {
		r.byName.Set(l.Name, l, cache.NoExpiration)
	}
	r.loaded.Store(true)

	r.logger.Debug("labels loaded", slog.Int("count", len(all)))
	return nil
}

func (r *Repository) lookup(name string) (string, bool) {
	v, ok := r.byName.Get(name)
	if !ok {
		return "", false
	}
	return v.(gmail.Label).ID, true
}

func (r *Repository) record(ctx context.Context, op string, err error, start time.Time) {
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	r.metrics.RecordLabelOperation(ctx, op, status, time.Since(start))
}
