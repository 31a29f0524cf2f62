package policy

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teemow/inboxsorter/internal/classifier"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		confidence float64
		threshold  float64
		want       string
	}{
		{0.92, 0.85, "Work"},
		{0.85, 0.85, "Work"},
		{0.8499, 0.85, ReviewLabel},
		{0.40, 0.85, ReviewLabel},
		{0.0, 0.85, ReviewLabel},
		{1.0, 1.0, "Work"},
		{0.99, 1.0, ReviewLabel},
		{0.0, 0.0, "Work"},
		{0.5, 0.5, "Work"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("c=%v/T=%v", tt.confidence, tt.threshold), func(t *testing.T) {
			got := Decide(classifier.Result{Category: "Work", Confidence: tt.confidence}, tt.threshold)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecide_AllConfidences(t *testing.T) {
	for _, threshold := range []float64{0.0, 0.25, 0.5, 0.85, 1.0} {
		for i := 0; i <= 100; i++ {
			c := float64(i) / 100
			got := Decide(classifier.Result{Category: "Promotions", Confidence: c}, threshold)
			if c >= threshold {
				assert.Equal(t, "Promotions", got, "c=%v T=%v", c, threshold)
			} else {
				assert.Equal(t, ReviewLabel, got, "c=%v T=%v", c, threshold)
			}
		}
	}
}

func TestDecide_FallbackRoutesToReview(t *testing.T) {
	res, err := classifier.ParseReply("Sorry, I can't help with that")
	assert.Error(t, err)
	assert.Equal(t, ReviewLabel, Decide(res, DefaultThreshold))
}

func TestPolicy_Decide(t *testing.T) {
	p := Default()
	assert.Equal(t, 0.85, p.Threshold)

	label, confident := p.Decide(classifier.Result{Category: "Work", Confidence: 0.92})
	assert.Equal(t, "Work", label)
	assert.True(t, confident)

	label, confident = p.Decide(classifier.Result{Category: "Work", Confidence: 0.40})
	assert.Equal(t, ReviewLabel, label)
	assert.False(t, confident)

	custom := Policy{Threshold: 0.5, ReviewLabel: "AI/Unsure"}
	label, confident = custom.Decide(classifier.Result{Category: "Spam", Confidence: 0.3})
	assert.Equal(t, "AI/Unsure", label)
	assert.False(t, confident)

	label, _ = Policy{Threshold: 0.9}.Decide(classifier.Result{Category: "Spam", Confidence: 0.3})
	assert.Equal(t, ReviewLabel, label)
}
