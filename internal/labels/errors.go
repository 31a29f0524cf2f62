package labels

import "fmt"

// Operations of the label repository, reported in Error.Op.
const (
	OpResolve = "resolve"
	OpCreate  = "create"
	OpApply   = "apply"
)

// Error is returned for any failed provider call of the repository.
type Error struct {
	// Op is OpResolve, OpCreate or OpApply
	Op        string
	MessageID string
	Label     string
	Err       error
}

func (e *Error) Error() string {
	if e.MessageID == "" {
		return fmt.Sprintf("failed to %s label %q: %v", e.Op, e.Label, e.Err)
	}
	return fmt.Sprintf("failed to %s label %q for message %s: %v", e.Op, e.Label, e.MessageID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
