package gmail

import (
	"context"
	"fmt"
	"html"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// maxPageSize is the largest page Gmail returns for messages.list
const maxPageSize = 500

// FetchRecent returns up to maxResults of the newest messages matching the
// client's query, newest first. Each message carries its ID, Subject header
// (empty when absent) and snippet.
func (c *Client) FetchRecent(ctx context.Context, maxResults int) ([]Message, error) {
	if maxResults <= 0 {
		return nil, nil
	}

	refs, err := c.listMessages(ctx, c.query, int64(maxResults))
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	messages := make([]Message, 0, len(refs))
	for _, ref := range refs {
		m, err := c.svc.Messages.Get(userID, ref.Id).
			Format("metadata").
			MetadataHeaders("Subject").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", ref.Id, err)
		}
		messages = append(messages, Message{
			ID:      m.Id,
			Subject: HeaderValue(m, "Subject"),
			Snippet: html.UnescapeString(m.Snippet),
		})
	}

	return messages, nil
}

// listMessages lists message references matching the query with pagination.
// It will fetch up to maxResults messages, making multiple API calls if necessary.
func (c *Client) listMessages(ctx context.Context, q string, maxResults int64) ([]*gmail.Message, error) {
	var all []*gmail.Message
	pageToken := ""

	for {
		remaining := maxResults - int64(len(all))
		if remaining <= 0 {
			break
		}

		pageSize := remaining
		if pageSize > maxPageSize {
			pageSize = maxPageSize
		}

		req := c.svc.Messages.List(userID).Q(q).MaxResults(pageSize).Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}

		res, err := req.Do()
		if err != nil {
			return nil, err
		}

		all = append(all, res.Messages...)

		if res.NextPageToken == "" {
			break
		}
		pageToken = res.NextPageToken
	}

	if int64(len(all)) > maxResults {
		all = all[:maxResults]
	}

	return all, nil
}

// HeaderValue extracts a header value from a Gmail message.
// Header names are matched case-insensitively.
func HeaderValue(m *gmail.Message, header string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, h := range m.Payload.Headers {
		if strings.EqualFold(h.Name, header) {
			return h.Value
		}
	}
	return ""
}
