package gmail

import "errors"

// InboxLabelID is the system label that keeps a message visible in the inbox.
// Removing it archives the message.
const InboxLabelID = "INBOX"

// DefaultQuery selects the messages FetchRecent looks at when no query is set.
const DefaultQuery = "in:inbox"

// Label visibility settings applied to labels created by the sorter.
const (
	labelListVisibility   = "labelShow"
	messageListVisibility = "show"
)

// ErrLabelExists is returned by CreateLabel when Gmail refuses to create a
// label because one with the same name already exists.
var ErrLabelExists = errors.New("label already exists")

// Message is the slice of a Gmail message the sorter works with.
type Message struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	Snippet string `json:"snippet"`
}

// Label is a Gmail label name together with its Gmail-assigned ID.
type Label struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Type string `json:"type,omitempty"` // "system" or "user"
}
