// Package server holds the state shared by the CLI commands and the MCP
// server.
//
// ServerContext owns the configuration, the classification client and, per
// account, a lazily created Gmail client and label repository. Sorter builds
// a sorter.Sorter for one run against an account.
//
// MetricsServer exposes the prometheus registry of an instrumentation
// provider on /metrics while `serve` runs, together with the liveness and
// readiness endpoints of HealthChecker.
package server
