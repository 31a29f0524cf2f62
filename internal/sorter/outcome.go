package sorter

import (
	"errors"

	"github.com/teemow/inboxsorter/internal/labels"
)

// Outcome is the result of processing one message.
type Outcome struct {
	MessageID  string  `json:"message_id"`
	Subject    string  `json:"subject"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	// FinalLabel is the decided label without the configured prefix
	FinalLabel string `json:"final_label"`
	Confident  bool   `json:"confident"`
	Applied    bool   `json:"applied"`

	// FallbackReason is set when the classification degraded to Unknown
	FallbackReason string     `json:"fallback_reason,omitempty"`
	Error          *ErrorInfo `json:"error,omitempty"`
}

// Failed reports whether the label could not be applied.
func (o Outcome) Failed() bool {
	return o.Error != nil
}

// ErrorInfo describes a failed label call.
type ErrorInfo struct {
	// Op is the failed label operation: resolve, create or apply
	Op      string `json:"op"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func newErrorInfo(err error) *ErrorInfo {
	info := &ErrorInfo{Op: labels.OpApply, Message: err.Error(), Err: err}
	var lerr *labels.Error
	if errors.As(err, &lerr) {
		info.Op = lerr.Op
	}
	return info
}
