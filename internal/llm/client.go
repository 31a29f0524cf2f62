package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Defaults match a local Ollama install serving its OpenAI-compatible API.
const (
	DefaultBaseURL = "http://localhost:11434/v1"
	DefaultModel   = "mistral"
	DefaultAPIKey  = "ollama"
)

// ErrEmptyResponse is returned when the service answers without any choice.
var ErrEmptyResponse = errors.New("model returned no choices")

// Config holds the connection and sampling settings of a Client.
type Config struct {
	// BaseURL of the OpenAI-compatible API, including the /v1 suffix
	BaseURL string
	// APIKey sent as bearer token. Ollama ignores it but the header must be set.
	APIKey string
	// Model name, e.g. "mistral" or "gpt-4o-mini"
	Model string
	// Temperature for sampling. Zero leaves the server default.
	Temperature float32
	// MaxTokens caps the reply length. Zero leaves the server default.
	MaxTokens int
	// JSONMode asks the server to constrain the reply to a JSON object.
	JSONMode bool
	// HTTPClient overrides the transport. Optional.
	HTTPClient *http.Client
}

// Client sends single-shot chat completions to an OpenAI-compatible endpoint.
type Client struct {
	api      *openai.Client
	model    string
	temp     float32
	maxTok   int
	jsonMode bool
}

// NewClient creates a Client for the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("model base URL must not be empty")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("model name must not be empty")
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = DefaultAPIKey
	}

	oc := openai.DefaultConfig(apiKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.HTTPClient != nil {
		oc.HTTPClient = cfg.HTTPClient
	}

	return &Client{
		api:      openai.NewClientWithConfig(oc),
		model:    cfg.Model,
		temp:     cfg.Temperature,
		maxTok:   cfg.MaxTokens,
		jsonMode: cfg.JSONMode,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Complete sends prompt as a single user message and returns the text of the
// first choice. There is no retry.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTok,
		Temperature: c.temp,
	}
	if c.jsonMode {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	return resp.Choices[0].Message.Content, nil
}
