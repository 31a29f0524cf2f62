// Package logging provides structured logging utilities for inboxsorter.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Usage Patterns
//
// Build the process logger from configuration:
//
//	logger, err := logging.NewLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr)
//
// Tag log lines with standard attributes:
//
//	logger = logging.WithRunID(logger, runID)
//	logger.Info("message labeled",
//	    logging.MessageID(msg.ID),
//	    logging.Label(finalLabel),
//	    logging.SubjectHash(msg.Subject))
//
// # Security Considerations
//
// Message subjects are hashed before they reach a log line. Model replies are
// truncated. Tokens are never logged directly.
package logging
