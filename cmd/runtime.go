package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/teemow/inboxsorter/internal/instrumentation"
	"github.com/teemow/inboxsorter/internal/logging"
	"github.com/teemow/inboxsorter/internal/server"
)

const shutdownTimeout = 10 * time.Second

// runtime bundles the instrumentation provider and the server context a
// command works with.
type runtime struct {
	provider *instrumentation.Provider
	sc       *server.ServerContext
}

// newRuntime builds the instrumentation provider from the environment and a
// server context for the loaded configuration.
func newRuntime(ctx context.Context, opts ...server.Option) (*runtime, error) {
	instrConfig := instrumentation.DefaultConfig()
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	base := []server.Option{
		server.WithLogger(logger),
		server.WithMetrics(provider.Metrics()),
		server.WithAuditLogger(instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging)),
	}
	sc, err := server.NewServerContext(ctx, cfg, append(base, opts...)...)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}

	return &runtime{provider: provider, sc: sc}, nil
}

// Close shuts down the server context and flushes telemetry, writing the
// metrics textfile when one is configured.
func (r *runtime) Close() {
	if err := r.sc.Shutdown(); err != nil {
		logger.Warn("server context shutdown failed", logging.Err(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := r.provider.Shutdown(ctx); err != nil {
		logger.Warn("instrumentation shutdown failed", logging.Err(err))
	}
}
