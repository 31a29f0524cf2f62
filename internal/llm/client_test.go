package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens      int     `json:"max_tokens"`
	Temperature    float32 `json:"temperature"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func chatResponse(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  "mistral",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": content},
			},
		},
	}
}

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestComplete(t *testing.T) {
	var got chatRequest
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer ollama", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse(`{"category":"Work","confidence":0.92}`))
	})

	c, err := NewClient(Config{
		BaseURL:     srv.URL + "/v1/",
		Model:       "mistral",
		Temperature: 0.2,
		MaxTokens:   64,
		JSONMode:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, "mistral", c.Model())

	reply, err := c.Complete(context.Background(), "classify this")
	require.NoError(t, err)
	assert.Equal(t, `{"category":"Work","confidence":0.92}`, reply)

	assert.Equal(t, "mistral", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "classify this", got.Messages[0].Content)
	assert.Equal(t, 64, got.MaxTokens)
	assert.InDelta(t, 0.2, got.Temperature, 1e-6)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
}

func TestComplete_WithoutJSONMode(t *testing.T) {
	var got chatRequest
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse("Sorry, I can't help with that"))
	})

	c, err := NewClient(Config{BaseURL: srv.URL + "/v1", Model: "llama3", APIKey: "sk-test"})
	require.NoError(t, err)

	reply, err := c.Complete(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "Sorry, I can't help with that", reply)
	assert.Nil(t, got.ResponseFormat)
}

func TestComplete_ServerError(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"model not loaded","type":"server_error"}}`))
	})

	c, err := NewClient(Config{BaseURL: srv.URL + "/v1", Model: "mistral"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create chat completion")
}

func TestComplete_NoChoices(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	})

	c, err := NewClient(Config{BaseURL: srv.URL + "/v1", Model: "mistral"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), "p")
	assert.True(t, errors.Is(err, ErrEmptyResponse))
}

func TestComplete_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	c, err := NewClient(Config{BaseURL: srv.URL + "/v1", Model: "mistral"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = c.Complete(ctx, "p")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "", Model: "mistral"})
	assert.Error(t, err)

	_, err = NewClient(Config{BaseURL: DefaultBaseURL, Model: " "})
	assert.Error(t, err)

	c, err := NewClient(Config{BaseURL: DefaultBaseURL, Model: DefaultModel})
	require.NoError(t, err)
	assert.NotNil(t, c)
}
