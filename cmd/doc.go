// Package cmd implements the command-line interface for inboxsorter.
//
// This package provides the following commands:
//   - sort: Classify recent inbox emails, apply labels and archive them
//   - classify: Classify a single email given on the command line
//   - labels: List the Gmail labels of an account
//   - auth: Authorize access to a Gmail account
//   - serve: Start the MCP server to provide tools for AI assistants
//   - version: Display version information
//   - generate-docs: Generate markdown documentation for all MCP tools
//
// The sort command is the default command when no subcommand is specified.
// Configuration is resolved from flags, INBOXSORTER_* environment variables,
// the config file and built-in defaults, in that order.
package cmd
