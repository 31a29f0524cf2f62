package google

import gmail "google.golang.org/api/gmail/v1"

// Scopes are the OAuth scopes the sorter requests. Modify covers reading
// messages, managing labels and archiving; nothing broader is needed.
var Scopes = []string{
	gmail.GmailModifyScope,
}
