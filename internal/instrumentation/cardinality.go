package instrumentation

// Cardinality management helpers for metrics.
//
// Model replies are free text. A model that invents categories would create
// a new time series per invented name, so category labels are folded into a
// fixed set before they reach a metric.

// CategoryOther is the metric value for categories outside the configured set.
const CategoryOther = "other"

// NormalizeCategory returns category if it is one of the known categories or
// the literal "Unknown" fallback, and CategoryOther otherwise.
// With no known categories configured every value is kept.
//
// Example:
//
//	known := map[string]struct{}{"Work": {}}
//	NormalizeCategory("Work", known)        // "Work"
//	NormalizeCategory("Unknown", known)     // "Unknown"
//	NormalizeCategory("Newsletters", known) // "other"
func NormalizeCategory(category string, known map[string]struct{}) string {
	if len(known) == 0 || category == "Unknown" {
		return category
	}
	if _, ok := known[category]; ok {
		return category
	}
	return CategoryOther
}
