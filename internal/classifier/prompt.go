package classifier

import (
	"fmt"
	"strings"
)

// UnknownCategory is the category of every degraded classification.
const UnknownCategory = "Unknown"

// DefaultCategories is the closed category set offered to the model when
// none is configured.
var DefaultCategories = []string{"Work", "Personal", "Spam", "Promotions", "Urgent", "Social"}

const promptTemplate = `You are an email sorting assistant. Categorize the email below into one of these categories:
[%s]

Provide your response as a JSON object with two keys:
- "category": The category you have chosen.
- "confidence": A floating-point number between 0.0 and 1.0 representing your confidence in the classification.

Subject: %s
Body: %s
`

// BuildPrompt returns the classification prompt for one message. Subject and
// snippet are embedded verbatim.
func BuildPrompt(categories []string, subject, snippet string) string {
	quoted := make([]string, len(categories))
	for i, c := range categories {
		quoted[i] = "'" + c + "'"
	}
	return fmt.Sprintf(promptTemplate, strings.Join(quoted, ", "), subject, snippet)
}
