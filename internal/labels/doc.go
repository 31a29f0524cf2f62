// Package labels resolves Gmail label names to ids and applies them.
//
// Resolution is an exact, case-sensitive match on the label name. Missing
// labels are created on first use with default visibility. Applying a label
// also removes the inbox marker, archiving the message, in a single modify
// request.
//
//	repo := labels.NewRepository(gmailClient, gmail.InboxLabelID)
//	if err := repo.EnsureLabelApplied(ctx, msg.ID, "Work"); err != nil {
//		var lerr *labels.Error
//		if errors.As(err, &lerr) {
//			log.Printf("%s failed", lerr.Op)
//		}
//	}
package labels
