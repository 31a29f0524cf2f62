package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/oauth2"

	"github.com/teemow/inboxsorter/internal/classifier"
	"github.com/teemow/inboxsorter/internal/config"
	"github.com/teemow/inboxsorter/internal/gmail"
	"github.com/teemow/inboxsorter/internal/google"
	"github.com/teemow/inboxsorter/internal/instrumentation"
	"github.com/teemow/inboxsorter/internal/labels"
	"github.com/teemow/inboxsorter/internal/llm"
	"github.com/teemow/inboxsorter/internal/logging"
	"github.com/teemow/inboxsorter/internal/policy"
	"github.com/teemow/inboxsorter/internal/sorter"
)

// ErrShutdown is returned for requests made after Shutdown.
var ErrShutdown = errors.New("server context is shut down")

// ServerContext holds the shared state of the CLI commands and the MCP server:
// configuration, the classifier and one Gmail client and label repository
// per account.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg        *config.Config
	oauth      *oauth2.Config
	classifier *classifier.Client

	gmailClients map[string]*gmail.Client      // Maps account name to Gmail client
	repos        map[string]*labels.Repository // Maps account name to label repository

	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger

	mu       sync.RWMutex
	shutdown bool
}

// Option configures a ServerContext.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	metrics     *instrumentation.Metrics
	auditLogger *instrumentation.AuditLogger
	completer   classifier.Completer
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMetrics sets the metrics recorder used by every component.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithAuditLogger sets the audit logger for tool invocations and label mutations.
func WithAuditLogger(al *instrumentation.AuditLogger) Option {
	return func(o *options) { o.auditLogger = al }
}

// WithCompleter replaces the model client built from the configuration.
func WithCompleter(c classifier.Completer) Option {
	return func(o *options) { o.completer = c }
}

// NewServerContext creates a new server context for cfg. Gmail clients are
// created lazily per account from stored tokens.
func NewServerContext(ctx context.Context, cfg *config.Config, opts ...Option) (*ServerContext, error) {
	if cfg == nil {
		return nil, errors.New("configuration is required")
	}

	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	if o.completer == nil {
		client, err := llm.NewClient(cfg.LLMConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to create model client: %w", err)
		}
		o.completer = client
	}

	clsOpts := cfg.ClassifierOptions()
	clsOpts.Logger = o.logger
	clsOpts.Metrics = o.metrics
	o.metrics.SetCategories(cfg.Categories)

	shutdownCtx, cancel := context.WithCancel(ctx)

	return &ServerContext{
		ctx:          shutdownCtx,
		cancel:       cancel,
		cfg:          cfg,
		oauth:        google.NewOAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL),
		classifier:   classifier.NewClient(o.completer, clsOpts),
		gmailClients: make(map[string]*gmail.Client),
		repos:        make(map[string]*labels.Repository),
		logger:       o.logger,
		metrics:      o.metrics,
		auditLogger:  o.auditLogger,
	}, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the configuration the context was built from.
func (sc *ServerContext) Config() *config.Config {
	return sc.cfg
}

// OAuthConfig returns the Google OAuth client configuration.
func (sc *ServerContext) OAuthConfig() *oauth2.Config {
	return sc.oauth
}

func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder, nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the audit logger, possibly nil.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.auditLogger
}

// Classifier returns the shared classification client.
func (sc *ServerContext) Classifier() *classifier.Client {
	return sc.classifier
}

// Policy returns the configured decision policy.
func (sc *ServerContext) Policy() policy.Policy {
	return sc.cfg.Policy()
}

// GmailClientForAccount returns the Gmail client for a specific account.
// Creates and caches the client if it doesn't exist yet.
func (sc *ServerContext) GmailClientForAccount(account string) (*gmail.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, ErrShutdown
	}
	if client, ok := sc.gmailClients[account]; ok {
		return client, nil
	}

	if !gmail.HasTokenForAccount(account) {
		return nil, fmt.Errorf("no Google OAuth token found for account %s. Run 'inboxsorter auth --account %s' first", account, account)
	}

	client, err := gmail.NewClientForAccount(sc.ctx, sc.oauth, account)
	if err != nil {
		return nil, err
	}
	client.SetQuery(sc.cfg.Gmail.Query)

	sc.logger.Debug("gmail client created", logging.Account(account))
	sc.gmailClients[account] = client
	return client, nil
}

// SetGmailClientForAccount sets the Gmail client for a specific account and
// drops its cached label repository.
func (sc *ServerContext) SetGmailClientForAccount(account string, client *gmail.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.gmailClients[account] = client
	delete(sc.repos, account)
}

// LabelRepository returns the label repository of an account. Its label
// cache lives as long as the server context.
func (sc *ServerContext) LabelRepository(account string) (*labels.Repository, error) {
	sc.mu.RLock()
	repo, ok := sc.repos[account]
	sc.mu.RUnlock()
	if ok {
		return repo, nil
	}

	client, err := sc.GmailClientForAccount(account)
	if err != nil {
		return nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()
	if repo, ok := sc.repos[account]; ok {
		return repo, nil
	}
	repo = labels.NewRepository(client, sc.cfg.Gmail.InboxLabelID,
		labels.WithLogger(logging.WithAccount(sc.logger, account)),
		labels.WithMetrics(sc.metrics))
	sc.repos[account] = repo
	return repo, nil
}

// Sorter returns a sorter for one run against account.
func (sc *ServerContext) Sorter(account string, dryRun bool) (*sorter.Sorter, error) {
	client, err := sc.GmailClientForAccount(account)
	if err != nil {
		return nil, err
	}
	repo, err := sc.LabelRepository(account)
	if err != nil {
		return nil, err
	}

	return sorter.New(client, sc.classifier, repo, sorter.Config{
		Policy:       sc.cfg.Policy(),
		LabelPrefix:  sc.cfg.Labels.Prefix,
		DryRun:       dryRun,
		ApplyTimeout: sc.cfg.Gmail.Timeout,
		Logger:       logging.WithAccount(sc.logger, account),
		Metrics:      sc.metrics,
		Audit:        sc.auditLogger,
	}), nil
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown shuts down the server context
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}

	sc.shutdown = true
	sc.cancel()
	return nil
}
