package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxsorter/internal/config"
	"github.com/teemow/inboxsorter/internal/sorter"
)

// Output formats of the sort command.
const (
	outputText = "text"
	outputJSON = "json"
)

func newSortCmd() *cobra.Command {
	var (
		dryRun bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "sort",
		Short: "Classify recent inbox emails, label and archive them",
		Long: `Fetch the most recent emails from your Gmail inbox, classify each one with
the configured model and apply the resulting label. Classified emails are
removed from the inbox. Emails classified below the confidence threshold are
labeled for manual review.

With --dry-run the emails are classified but the mailbox is not changed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output != outputText && output != outputJSON {
				return fmt.Errorf("unsupported output format %q (supported: text, json)", output)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return runSort(ctx, cmd.OutOrStdout(), dryRun, output)
		},
	}

	cmd.Flags().Int("batch-size", 10, fmt.Sprintf("Number of recent emails to process (max %d)", config.MaxBatchSize))
	cmd.Flags().Float64("threshold", 0.85, "Minimum confidence for applying the classified category")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Classify only, do not change the mailbox")
	cmd.Flags().StringVarP(&output, "output", "o", outputText, "Output format: text or json")
	cmd.Flags().String("label-prefix", "", "Prefix for applied label names, e.g. 'AI/'")
	cmd.Flags().StringSlice("categories", nil, "Comma separated category set (default: built-in categories)")
	cmd.Flags().String("review-label", "Needs-Review", "Label for low-confidence emails")
	cmd.Flags().Bool("strict", false, "Treat categories outside the category set as unusable replies")
	cmd.Flags().String("model", "mistral", "Model name")
	cmd.Flags().String("model-url", "http://localhost:11434/v1", "Base URL of the OpenAI-compatible model service")
	cmd.Flags().String("query", "in:inbox", "Gmail search query selecting the emails to sort")

	return cmd
}

func runSort(ctx context.Context, w io.Writer, dryRun bool, output string) error {
	rt, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	s, err := rt.sc.Sorter(cfg.Account, dryRun)
	if err != nil {
		return err
	}

	text := output == outputText
	if text {
		fmt.Fprintln(w, "Successfully authenticated with Gmail.")
		fmt.Fprintf(w, "Fetching the latest %d emails...\n", cfg.BatchSize)
	}

	outcomes, runErr := s.Run(ctx, cfg.BatchSize)
	if outcomes == nil && runErr != nil {
		return runErr
	}

	if text {
		fmt.Fprintf(w, "Found %d emails to process.\n\n", len(outcomes))
		if err := sorter.WriteReport(w, outcomes); err != nil {
			return err
		}
		if err := sorter.WriteSummary(w, sorter.Summarize(outcomes), dryRun); err != nil {
			return err
		}
	} else if err := sorter.WriteJSON(w, outcomes, dryRun); err != nil {
		return err
	}

	if runErr != nil {
		return fmt.Errorf("sorting stopped after %d emails: %w", len(outcomes), runErr)
	}
	return nil
}
