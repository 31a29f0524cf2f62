package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxsorter/internal/sorter"
)

func newClassifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "classify <subject> [snippet]",
		Short: "Classify a single email without touching the mailbox",
		Long: `Ask the configured model to classify one email given its subject and an
optional body snippet, and print the label the sort command would apply.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject := args[0]
			var snippet string
			if len(args) > 1 {
				snippet = args[1]
			}

			rt, err := newRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			res := rt.sc.Classifier().Classify(cmd.Context(), subject, snippet)
			label, confident := rt.sc.Policy().Decide(res)

			out := sorter.Outcome{
				Subject:    subject,
				Category:   res.Category,
				Confidence: res.Confidence,
				FinalLabel: label,
				Confident:  confident,
			}
			if err := sorter.WriteReport(cmd.OutOrStdout(), []sorter.Outcome{out}); err != nil {
				return err
			}
			if res.Degraded() {
				fmt.Fprintf(cmd.ErrOrStderr(), "model reply was unusable (%s)\n", res.Fallback.Reason)
			}
			return nil
		},
	}

	cmd.Flags().StringSlice("categories", nil, "Comma separated category set (default: built-in categories)")
	cmd.Flags().Float64("threshold", 0.85, "Minimum confidence for applying the classified category")
	cmd.Flags().Bool("strict", false, "Treat categories outside the category set as unusable replies")
	cmd.Flags().String("model", "mistral", "Model name")
	cmd.Flags().String("model-url", "http://localhost:11434/v1", "Base URL of the OpenAI-compatible model service")

	return cmd
}
