package sorter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const separator = "--------------------"

// Summary counts the outcomes of a run.
type Summary struct {
	Total     int `json:"total"`
	Confident int `json:"confident"`
	Review    int `json:"review"`
	Applied   int `json:"applied"`
	Failed    int `json:"failed"`
}

// Summarize counts outcomes by routing and by label result.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{Total: len(outcomes)}
	for _, o := range outcomes {
		if o.Confident {
			s.Confident++
		} else {
			s.Review++
		}
		if o.Applied {
			s.Applied++
		}
		if o.Failed() {
			s.Failed++
		}
	}
	return s
}

// WriteReport writes one status block per outcome in processing order.
func WriteReport(w io.Writer, outcomes []Outcome) error {
	var b strings.Builder
	for _, o := range outcomes {
		fmt.Fprintf(&b, "Classifying: '%s'\n", o.Subject)
		if o.Confident {
			fmt.Fprintf(&b, "→ Confident classification: %s (Confidence: %.2f)\n", o.FinalLabel, o.Confidence)
		} else {
			fmt.Fprintf(&b, "→ Low confidence. Marking as '%s' (Confidence: %.2f)\n", o.FinalLabel, o.Confidence)
		}
		if o.Failed() {
			fmt.Fprintf(&b, "✗ failed to apply label: %s\n", o.Error.Message)
		}
		b.WriteString(separator + "\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteSummary writes a one-line summary of a run.
func WriteSummary(w io.Writer, s Summary, dryRun bool) error {
	verb, labeled := "labeled", s.Applied
	if dryRun {
		// Nothing is applied in a dry run; every unfailed email would be labeled.
		verb, labeled = "would label", s.Total-s.Failed
	}
	_, err := fmt.Fprintf(w, "Processed %d emails: %d confident, %d needs review, %d %s, %d failed.\n",
		s.Total, s.Confident, s.Review, labeled, verb, s.Failed)
	return err
}

// Report is the machine-readable form of a run.
type Report struct {
	DryRun   bool      `json:"dry_run"`
	Summary  Summary   `json:"summary"`
	Outcomes []Outcome `json:"outcomes"`
	// Stopped holds the reason a run ended before its batch was processed.
	Stopped string `json:"stopped,omitempty"`
}

// WriteJSON writes outcomes and their summary as indented JSON.
func WriteJSON(w io.Writer, outcomes []Outcome, dryRun bool) error {
	if outcomes == nil {
		outcomes = []Outcome{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Report{DryRun: dryRun, Summary: Summarize(outcomes), Outcomes: outcomes})
}
