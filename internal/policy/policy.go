// Package policy decides the final label of a classified message.
package policy

import "github.com/teemow/inboxsorter/internal/classifier"

const (
	// ReviewLabel is the reserved label for messages the model was unsure about.
	ReviewLabel = "Needs-Review"

	// DefaultThreshold is the minimum confidence for trusting a category.
	DefaultThreshold = 0.85
)

// Decide returns result.Category if result.Confidence >= threshold and
// ReviewLabel otherwise. The boundary is inclusive.
func Decide(result classifier.Result, threshold float64) string {
	if result.Confidence >= threshold {
		return result.Category
	}
	return ReviewLabel
}

// Policy carries a configured threshold and review label.
type Policy struct {
	Threshold   float64
	ReviewLabel string
}

// Default returns the policy with DefaultThreshold and ReviewLabel.
func Default() Policy {
	return Policy{Threshold: DefaultThreshold, ReviewLabel: ReviewLabel}
}

// Decide returns the final label for result and whether the category was
// trusted. An empty ReviewLabel falls back to the package default.
func (p Policy) Decide(result classifier.Result) (label string, confident bool) {
	if result.Confidence >= p.Threshold {
		return result.Category, true
	}
	if p.ReviewLabel == "" {
		return ReviewLabel, false
	}
	return p.ReviewLabel, false
}
