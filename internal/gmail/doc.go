// Package gmail wraps the parts of the Gmail API the sorter needs.
//
// It serves two roles for the sorting pipeline:
//   - Mail fetch: FetchRecent lists the newest messages matching a query and
//     returns their ID, subject and snippet.
//   - Label store: ListLabels, CreateLabel and ModifyMessage read and mutate
//     the mailbox's labels.
//
// A Client is bound to one Google account. Tokens are loaded from the
// per-account token file managed by the google package.
//
// Example usage:
//
//	ctx := context.Background()
//	client, err := gmail.NewClientForAccount(ctx, oauthConfig, "default")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	msgs, err := client.FetchRecent(ctx, 10)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Label the first message and move it out of the inbox
//	label, err := client.CreateLabel(ctx, "Work")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = client.ModifyMessage(ctx, msgs[0].ID, []string{label.ID}, []string{gmail.InboxLabelID})
package gmail
