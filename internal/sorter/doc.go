// Package sorter runs one triage pass over a mailbox.
//
// For each fetched message the sorter asks the classifier for a category and
// confidence, lets the policy pick the final label, and applies that label
// while archiving the message. Messages are processed sequentially in fetch
// order. A message either completes all three steps or is not touched.
//
// Basic usage:
//
//	s := sorter.New(gmailClient, classifierClient, labelRepo, sorter.Config{
//		Policy: policy.Default(),
//	})
//	outcomes, err := s.Run(ctx, 10)
//	if err != nil && errors.Is(err, sorter.ErrFetch) {
//		return err
//	}
//	_ = sorter.WriteReport(os.Stdout, outcomes)
package sorter
