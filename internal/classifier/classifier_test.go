package classifier

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter returns a canned reply and counts calls.
type fakeCompleter struct {
	reply  string
	err    error
	block  bool
	panics bool

	calls      atomic.Int32
	lastPrompt string
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	f.lastPrompt = prompt
	if f.panics {
		panic("boom")
	}
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func unknown() (string, float64) { return UnknownCategory, 0.0 }

func TestParseReply(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		wantCat    string
		wantConf   float64
		wantReason Reason
	}{
		{"valid", `{"category":"Work","confidence":0.92}`, "Work", 0.92, ""},
		{"valid with whitespace", "\n  {\"category\": \"Spam\", \"confidence\": 1}\n", "Spam", 1.0, ""},
		{"boundary zero", `{"category":"Social","confidence":0}`, "Social", 0.0, ""},
		{"extra keys ignored", `{"category":"Urgent","confidence":0.9,"reason":"deadline"}`, "Urgent", 0.9, ""},
		{"category trimmed", `{"category":"  Personal ","confidence":0.5}`, "Personal", 0.5, ""},
		{"code fence with tag", "```json\n{\"category\":\"Work\",\"confidence\":0.88}\n```", "Work", 0.88, ""},
		{"code fence without tag", "```\n{\"category\":\"Work\",\"confidence\":0.88}\n```", "Work", 0.88, ""},
		{"code fence on one line", "```{\"category\":\"Work\",\"confidence\":0.88}```", "Work", 0.88, ""},
		{"out of set category passes through", `{"category":"Newsletters","confidence":0.95}`, "Newsletters", 0.95, ""},

		{"not JSON", "Sorry, I can't help with that", "", 0, ReasonInvalidJSON},
		{"empty reply", "", "", 0, ReasonInvalidJSON},
		{"JSON array", `["Work", 0.9]`, "", 0, ReasonInvalidJSON},
		{"JSON null", `null`, "", 0, ReasonInvalidJSON},
		{"truncated JSON", `{"category":"Work","confidence":`, "", 0, ReasonInvalidJSON},
		{"missing category", `{"confidence":0.9}`, "", 0, ReasonMissingCategory},
		{"blank category", `{"category":"  ","confidence":0.9}`, "", 0, ReasonMissingCategory},
		{"numeric category", `{"category":7,"confidence":0.9}`, "", 0, ReasonMissingCategory},
		{"null category", `{"category":null,"confidence":0.9}`, "", 0, ReasonMissingCategory},
		{"missing confidence", `{"category":"Work"}`, "", 0, ReasonMissingConfidence},
		{"null confidence", `{"category":"Work","confidence":null}`, "", 0, ReasonMissingConfidence},
		{"confidence as string", `{"category":"Work","confidence":"0.9"}`, "", 0, ReasonInvalidConfidence},
		{"confidence as bool", `{"category":"Work","confidence":true}`, "", 0, ReasonInvalidConfidence},
		{"confidence too high", `{"category":"Work","confidence":1.5}`, "", 0, ReasonConfidenceOutOfRange},
		{"confidence negative", `{"category":"Work","confidence":-0.2}`, "", 0, ReasonConfidenceOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseReply(tt.reply)

			if tt.wantReason == "" {
				require.NoError(t, err)
				assert.False(t, res.Degraded())
				assert.Equal(t, tt.wantCat, res.Category)
				assert.InDelta(t, tt.wantConf, res.Confidence, 1e-9)
				return
			}

			require.Error(t, err)
			var pe *ParseError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.wantReason, pe.Reason)
			assert.Equal(t, tt.reply, pe.Reply)

			wantCat, wantConf := unknown()
			assert.Equal(t, wantCat, res.Category)
			assert.Equal(t, wantConf, res.Confidence)
			assert.True(t, res.Degraded())
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(DefaultCategories, "Meeting", "Let's sync tomorrow")

	assert.Contains(t, p, "Subject: Meeting\n")
	assert.Contains(t, p, "Body: Let's sync tomorrow\n")
	assert.Contains(t, p, "['Work', 'Personal', 'Spam', 'Promotions', 'Urgent', 'Social']")
	assert.Contains(t, p, `"category"`)
	assert.Contains(t, p, `"confidence"`)

	custom := BuildPrompt([]string{"Billing", "Support"}, "s", "b")
	assert.Contains(t, custom, "['Billing', 'Support']")
	assert.NotContains(t, custom, "'Work'")
}

func TestClassify(t *testing.T) {
	f := &fakeCompleter{reply: `{"category":"Work","confidence":0.92}`}
	c := NewClient(f, Options{})

	res := c.Classify(context.Background(), "Meeting", "Let's sync tomorrow")

	assert.Equal(t, Result{Category: "Work", Confidence: 0.92}, res)
	assert.Equal(t, int32(1), f.calls.Load())
	assert.Contains(t, f.lastPrompt, "Subject: Meeting")
}

func TestClassify_MalformedRepliesDegrade(t *testing.T) {
	replies := []string{
		"Sorry, I can't help with that",
		`{"confidence":0.9}`,
		`{"category":"Work"}`,
		`{"category":"Work","confidence":"high"}`,
		`{"category":"Work","confidence":1.5}`,
		`{"category":"Work","confidence":-0.2}`,
	}

	for _, reply := range replies {
		t.Run(reply, func(t *testing.T) {
			f := &fakeCompleter{reply: reply}
			c := NewClient(f, Options{})

			var res Result
			assert.NotPanics(t, func() {
				res = c.Classify(context.Background(), "s", "b")
			})
			assert.Equal(t, UnknownCategory, res.Category)
			assert.Equal(t, 0.0, res.Confidence)
			assert.True(t, res.Degraded())
			assert.Equal(t, int32(1), f.calls.Load(), "no retry")
		})
	}
}

func TestClassify_ModelErrors(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		f := &fakeCompleter{err: errors.New("connection refused")}
		res := NewClient(f, Options{}).Classify(context.Background(), "s", "b")

		assert.Equal(t, UnknownCategory, res.Category)
		assert.Equal(t, 0.0, res.Confidence)
		require.NotNil(t, res.Fallback)
		assert.Equal(t, ReasonModelUnavailable, res.Fallback.Reason)
		assert.Contains(t, res.Fallback.Error(), "connection refused")
		assert.Equal(t, int32(1), f.calls.Load())
	})

	t.Run("timeout", func(t *testing.T) {
		f := &fakeCompleter{block: true}
		c := NewClient(f, Options{Timeout: 20 * time.Millisecond})

		start := time.Now()
		res := c.Classify(context.Background(), "s", "b")

		assert.Less(t, time.Since(start), 5*time.Second)
		require.NotNil(t, res.Fallback)
		assert.Equal(t, ReasonModelUnavailable, res.Fallback.Reason)
		assert.True(t, errors.Is(res.Fallback, context.DeadlineExceeded))
	})

	t.Run("panic", func(t *testing.T) {
		f := &fakeCompleter{panics: true}

		var res Result
		assert.NotPanics(t, func() {
			res = NewClient(f, Options{}).Classify(context.Background(), "s", "b")
		})
		require.NotNil(t, res.Fallback)
		assert.Equal(t, ReasonInternal, res.Fallback.Reason)
		assert.Equal(t, UnknownCategory, res.Category)
	})

	t.Run("no completer", func(t *testing.T) {
		res := NewClient(nil, Options{}).Classify(context.Background(), "s", "b")
		require.NotNil(t, res.Fallback)
		assert.Equal(t, ReasonModelUnavailable, res.Fallback.Reason)
	})
}

func TestClassify_StrictCategories(t *testing.T) {
	reply := `{"category":"Newsletters","confidence":0.97}`

	lenient := NewClient(&fakeCompleter{reply: reply}, Options{}).
		Classify(context.Background(), "s", "b")
	assert.Equal(t, "Newsletters", lenient.Category)
	assert.False(t, lenient.Degraded())

	strict := NewClient(&fakeCompleter{reply: reply}, Options{Strict: true}).
		Classify(context.Background(), "s", "b")
	assert.Equal(t, UnknownCategory, strict.Category)
	assert.Equal(t, 0.0, strict.Confidence)
	require.NotNil(t, strict.Fallback)
	assert.Equal(t, ReasonUnknownCategory, strict.Fallback.Reason)

	inSet := NewClient(&fakeCompleter{reply: `{"category":"Work","confidence":0.9}`}, Options{Strict: true}).
		Classify(context.Background(), "s", "b")
	assert.Equal(t, "Work", inSet.Category)
}

func TestClient_Categories(t *testing.T) {
	c := NewClient(&fakeCompleter{}, Options{})
	assert.Equal(t, DefaultCategories, c.Categories())

	custom := []string{"A", "B"}
	c = NewClient(&fakeCompleter{}, Options{Categories: custom})
	got := c.Categories()
	got[0] = "mutated"
	assert.Equal(t, []string{"A", "B"}, c.Categories())
	assert.Equal(t, "A", custom[0])
}
