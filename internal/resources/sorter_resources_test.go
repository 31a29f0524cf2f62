package resources

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/teemow/inboxsorter/internal/config"
	"github.com/teemow/inboxsorter/internal/gmail"
	"github.com/teemow/inboxsorter/internal/server"
)

type nopCompleter struct{}

func (nopCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	return "{}", nil
}

func newServerContext(t *testing.T) *server.ServerContext {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	cfg := &config.Config{
		Account:     "default",
		BatchSize:   25,
		Threshold:   0.9,
		Categories:  []string{"Work", "Personal"},
		ReviewLabel: "Needs-Review",
		Labels:      config.LabelsConfig{Prefix: "AI/"},
		Model:       config.ModelConfig{BaseURL: "http://localhost:11434/v1", Name: "mistral", APIKey: "secret", Timeout: time.Second},
		Gmail:       config.GmailConfig{Query: "in:inbox", InboxLabelID: "INBOX", Timeout: time.Second},
	}
	sc, err := server.NewServerContext(context.Background(), cfg, server.WithCompleter(nopCompleter{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func readRequest(uri string) mcp.ReadResourceRequest {
	var req mcp.ReadResourceRequest
	req.Params.URI = uri
	return req
}

func text(t *testing.T, contents []mcp.ResourceContents) string {
	t.Helper()
	require.Len(t, contents, 1)
	tc, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok, "expected text contents, got %T", contents[0])
	assert.Equal(t, "application/json", tc.MIMEType)
	return tc.Text
}

func TestHandleSettings(t *testing.T) {
	sc := newServerContext(t)

	contents, err := handleSettings(context.Background(), readRequest(SettingsURI), sc)
	require.NoError(t, err)

	body := text(t, contents)
	assert.NotContains(t, body, "secret")

	var got settings
	require.NoError(t, json.Unmarshal([]byte(body), &got))
	assert.Equal(t, settings{
		Account:     "default",
		Categories:  []string{"Work", "Personal"},
		Threshold:   0.9,
		ReviewLabel: "Needs-Review",
		LabelPrefix: "AI/",
		BatchSize:   25,
		Query:       "in:inbox",
		Model:       "mistral",
		ModelURL:    "http://localhost:11434/v1",
	}, got)
}

func TestHandleLabels(t *testing.T) {
	sc := newServerContext(t)

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", "https://gmail.googleapis.com/gmail/v1/users/me/labels",
		httpmock.NewJsonResponderOrPanic(http.StatusOK, map[string]any{
			"labels": []map[string]string{
				{"id": "Label_7", "name": "AI/Work", "type": "user"},
				{"id": "INBOX", "name": "INBOX", "type": "system"},
			},
		}))
	client, err := gmail.NewClientWithOptions(context.Background(), "default",
		option.WithHTTPClient(&http.Client{Transport: transport}),
		option.WithEndpoint("https://gmail.googleapis.com/"),
	)
	require.NoError(t, err)
	sc.SetGmailClientForAccount("default", client)

	contents, err := handleLabels(context.Background(), readRequest(LabelsURI), sc)
	require.NoError(t, err)

	var got []gmail.Label
	require.NoError(t, json.Unmarshal([]byte(text(t, contents)), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "AI/Work", got[0].Name)
	assert.Equal(t, "INBOX", got[1].Name)
}

func TestHandleLabels_NoToken(t *testing.T) {
	sc := newServerContext(t)

	_, err := handleLabels(context.Background(), readRequest(LabelsURI), sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inboxsorter auth --account default")
}
