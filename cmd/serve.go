package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/inboxsorter/internal/logging"
	"github.com/teemow/inboxsorter/internal/resources"
	"github.com/teemow/inboxsorter/internal/server"
	"github.com/teemow/inboxsorter/internal/tools/sorter_tools"
)

func newServeCmd() *cobra.Command {
	var (
		yolo        bool
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the MCP (Model Context Protocol) server on stdio to expose the sorter
as tools to AI assistants.

By default the server is read-only: emails can be classified and previewed,
but nothing in the mailbox is changed. Use --yolo to register sorter_run,
which labels and archives emails.

With --metrics-addr and INSTRUMENTATION_ENABLED=true the prometheus metrics
and health endpoints are served on that address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), yolo, metricsAddr)
		},
	}

	cmd.Flags().BoolVar(&yolo, "yolo", false, "Enable write operations (labeling and archiving). Default is read-only mode.")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve metrics and health endpoints on this address, e.g. "+server.DefaultMetricsAddr)
	cmd.Flags().StringSlice("categories", nil, "Comma separated category set (default: built-in categories)")
	cmd.Flags().Float64("threshold", 0.85, "Minimum confidence for applying the classified category")
	cmd.Flags().Int("batch-size", 10, "Default number of emails per sorter run")
	cmd.Flags().String("label-prefix", "", "Prefix for applied label names, e.g. 'AI/'")
	cmd.Flags().String("model", "mistral", "Model name")
	cmd.Flags().String("model-url", "http://localhost:11434/v1", "Base URL of the OpenAI-compatible model service")

	return cmd
}

func runServe(ctx context.Context, yolo bool, metricsAddr string) error {
	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := newRuntime(shutdownCtx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if metricsAddr != "" {
		metricsServer, err := startMetricsServer(rt, metricsAddr)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(ctx); err != nil {
				logger.Warn("metrics server shutdown failed", logging.Err(err))
			}
		}()
	}

	mcpSrv := mcpserver.NewMCPServer("inboxsorter", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)

	// readOnly is the inverse of yolo
	readOnly := !yolo
	if readOnly {
		logger.Info("starting server in read-only mode (use --yolo to enable sorter_run)")
	} else {
		logger.Info("starting server with write operations enabled")
	}

	if err := sorter_tools.RegisterSorterTools(mcpSrv, rt.sc, readOnly); err != nil {
		return fmt.Errorf("failed to register sorter tools: %w", err)
	}
	if err := resources.RegisterSorterResources(mcpSrv, rt.sc); err != nil {
		return fmt.Errorf("failed to register sorter resources: %w", err)
	}

	return runStdioServer(shutdownCtx, mcpSrv)
}

func startMetricsServer(rt *runtime, addr string) (*server.MetricsServer, error) {
	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    addr,
		InstrumentationProvider: rt.provider,
		Health:                  server.NewHealthChecker(rt.sc, version),
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	go func() {
		if err := metricsServer.Start(); err != nil {
			logger.Error("metrics server stopped", logging.Err(err))
		}
	}()
	return metricsServer, nil
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	}
}
