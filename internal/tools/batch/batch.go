package batch

import (
	"context"
	"fmt"
	"strings"
)

// Item status values.
const (
	StatusApplied = "applied"
	StatusError   = "error"
)

// Item is the outcome of one message in a batch label call.
type Item struct {
	MessageID string `json:"message_id"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
}

// Result aggregates the items of a batch label call.
type Result struct {
	Label   string `json:"label"`
	Total   int    `json:"total"`
	Applied int    `json:"applied"`
	Failed  int    `json:"failed"`
	Items   []Item `json:"items"`
}

// ParseMessageIDs parses a parameter that is either a single message ID, a
// comma separated list or an array of IDs. Duplicates are dropped and order
// is kept.
func ParseMessageIDs(param interface{}, paramName string, max int) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var raw []string
	switch v := param.(type) {
	case string:
		raw = strings.Split(v, ",")
	case []interface{}:
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			raw = append(raw, str)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	seen := make(map[string]struct{}, len(raw))
	ids := make([]string, 0, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}
	if max > 0 && len(ids) > max {
		return nil, fmt.Errorf("%s has %d entries, at most %d are allowed", paramName, len(ids), max)
	}
	return ids, nil
}

// Apply calls fn for every message in order. A failing message does not stop
// the batch; a cancelled context does, and the remaining messages are
// reported as failed with the context error.
func Apply(ctx context.Context, label string, ids []string, fn func(ctx context.Context, messageID string) error) Result {
	res := Result{
		Label: label,
		Total: len(ids),
		Items: make([]Item, 0, len(ids)),
	}

	for _, id := range ids {
		item := Item{MessageID: id, Status: StatusApplied}

		err := ctx.Err()
		if err == nil {
			err = fn(ctx, id)
		}
		if err != nil {
			item.Status = StatusError
			item.Error = err.Error()
			res.Failed++
		} else {
			res.Applied++
		}
		res.Items = append(res.Items, item)
	}

	return res
}
