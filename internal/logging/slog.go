package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation   = "operation"
	KeyAccount     = "account"
	KeyDuration    = "duration"
	KeyStatus      = "status"
	KeyError       = "error"
	KeyTool        = "tool"
	KeyRunID       = "run_id"
	KeyMessageID   = "message_id"
	KeyLabel       = "label"
	KeyCategory    = "category"
	KeyConfidence  = "confidence"
	KeySubjectHash = "subject_hash"
)

// Status values for consistent logging.
// Duplicated from the instrumentation package, which imports this one.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithAccount returns a logger with the account attribute set.
func WithAccount(logger *slog.Logger, account string) *slog.Logger {
	return logger.With(slog.String(KeyAccount, account))
}

// WithRunID returns a logger tagged with a sorter run id.
func WithRunID(logger *slog.Logger, runID string) *slog.Logger {
	return logger.With(slog.String(KeyRunID, runID))
}

// Operation returns a slog attribute for the operation name.
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// Account returns a slog attribute for the account name.
func Account(account string) slog.Attr {
	return slog.String(KeyAccount, account)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// RunID returns a slog attribute for the sorter run id.
func RunID(id string) slog.Attr {
	return slog.String(KeyRunID, id)
}

// MessageID returns a slog attribute for a Gmail message id.
func MessageID(id string) slog.Attr {
	return slog.String(KeyMessageID, id)
}

// Label returns a slog attribute for a label name.
func Label(name string) slog.Attr {
	return slog.String(KeyLabel, name)
}

// Category returns a slog attribute for a classification category.
func Category(category string) slog.Attr {
	return slog.String(KeyCategory, category)
}

// Confidence returns a slog attribute for a classification confidence.
func Confidence(c float64) slog.Attr {
	return slog.Float64(KeyConfidence, c)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// HashSubject returns a short hashed representation of a message subject.
// Subjects are PII; the hash allows correlating log lines without exposing them.
func HashSubject(subject string) string {
	if subject == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(subject))
	return "subject:" + hex.EncodeToString(hash[:8])
}

// SubjectHash returns a slog attribute with the hashed subject.
//
// Usage:
//
//	logger.Info("classified", logging.SubjectHash(msg.Subject))
func SubjectHash(subject string) slog.Attr {
	return slog.String(KeySubjectHash, HashSubject(subject))
}

// Truncate shortens s to at most n runes for logging, marking the cut.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + fmt.Sprintf("…(%d more)", len(r)-n)
}

// SanitizeToken returns a masked version of a token for logging.
// It returns a length indicator without exposing any token content.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// ParseLevel maps a level name to a slog.Level. Unknown names yield an error.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
}
