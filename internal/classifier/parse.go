package classifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Reason names why a model reply could not be used.
type Reason string

// Parse and classification failure reasons.
const (
	ReasonInvalidJSON          Reason = "invalid_json"
	ReasonMissingCategory      Reason = "missing_category"
	ReasonMissingConfidence    Reason = "missing_confidence"
	ReasonInvalidConfidence    Reason = "invalid_confidence"
	ReasonConfidenceOutOfRange Reason = "confidence_out_of_range"
	ReasonUnknownCategory      Reason = "unknown_category"
	ReasonModelUnavailable     Reason = "model_unavailable"
	ReasonInternal             Reason = "internal_error"
)

// ParseError describes an unusable model reply. It never leaves Classify;
// it is attached to the degraded Result instead.
type ParseError struct {
	Reason Reason
	Reply  string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unusable model reply (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("unusable model reply (%s)", e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Result is the typed outcome of one classification.
// Confidence is always within [0, 1].
type Result struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
	// Fallback is set when the reply was not usable as-is. The result is
	// then exactly {Unknown, 0.0}.
	Fallback *ParseError `json:"-"`
}

// Degraded reports whether r is a fallback result.
func (r Result) Degraded() bool {
	return r.Fallback != nil
}

func fallback(reason Reason, reply string, err error) Result {
	return Result{
		Category:   UnknownCategory,
		Confidence: 0.0,
		Fallback:   &ParseError{Reason: reason, Reply: reply, Err: err},
	}
}

// ParseReply parses a model reply of the form {"category": "...", "confidence": 0.9}.
// Surrounding whitespace and one Markdown code fence are ignored.
//
// Any defect yields the {Unknown, 0.0} fallback together with the
// *ParseError describing it; a reply is never half-trusted.
func ParseReply(reply string) (Result, error) {
	body := stripCodeFence(strings.TrimSpace(reply))

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &fields); err != nil || fields == nil {
		r := fallback(ReasonInvalidJSON, reply, err)
		return r, r.Fallback
	}

	rawCategory, ok := fields["category"]
	if !ok {
		r := fallback(ReasonMissingCategory, reply, nil)
		return r, r.Fallback
	}
	var category string
	if err := json.Unmarshal(rawCategory, &category); err != nil {
		r := fallback(ReasonMissingCategory, reply, err)
		return r, r.Fallback
	}
	category = strings.TrimSpace(category)
	if category == "" {
		r := fallback(ReasonMissingCategory, reply, nil)
		return r, r.Fallback
	}

	rawConfidence, ok := fields["confidence"]
	if !ok || bytes.Equal(bytes.TrimSpace(rawConfidence), []byte("null")) {
		r := fallback(ReasonMissingConfidence, reply, nil)
		return r, r.Fallback
	}
	var confidence float64
	if err := json.Unmarshal(rawConfidence, &confidence); err != nil {
		r := fallback(ReasonInvalidConfidence, reply, err)
		return r, r.Fallback
	}
	if confidence < 0.0 || confidence > 1.0 {
		r := fallback(ReasonConfidenceOutOfRange, reply, fmt.Errorf("confidence %v outside [0, 1]", confidence))
		return r, r.Fallback
	}

	return Result{Category: category, Confidence: confidence}, nil
}

// stripCodeFence removes a single ``` fence, with or without a language tag.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the language tag line, e.g. ```json
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "{[\"") {
		s = s[nl+1:]
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
