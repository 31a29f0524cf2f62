package gmail

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
)

// ListLabels lists all Gmail labels of the account, system labels included
func (c *Client) ListLabels(ctx context.Context) ([]Label, error) {
	resp, err := c.svc.Labels.List(userID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list labels: %w", err)
	}

	labels := make([]Label, 0, len(resp.Labels))
	for _, l := range resp.Labels {
		labels = append(labels, Label{Name: l.Name, ID: l.Id, Type: l.Type})
	}
	return labels, nil
}

// CreateLabel creates a user label shown in both the label list and the
// message list. If Gmail reports that the name is taken, the returned error
// wraps ErrLabelExists.
func (c *Client) CreateLabel(ctx context.Context, name string) (Label, error) {
	created, err := c.svc.Labels.Create(userID, &gmail.Label{
		Name:                  name,
		LabelListVisibility:   labelListVisibility,
		MessageListVisibility: messageListVisibility,
	}).Context(ctx).Do()
	if err != nil {
		if isConflict(err) {
			return Label{}, fmt.Errorf("failed to create label %q: %w: %w", name, ErrLabelExists, err)
		}
		return Label{}, fmt.Errorf("failed to create label %q: %w", name, err)
	}

	return Label{Name: created.Name, ID: created.Id, Type: created.Type}, nil
}

// ModifyMessage adds and removes labels on a single message in one request
func (c *Client) ModifyMessage(ctx context.Context, messageID string, addLabelIDs, removeLabelIDs []string) error {
	_, err := c.svc.Messages.Modify(userID, messageID, &gmail.ModifyMessageRequest{
		AddLabelIds:    addLabelIDs,
		RemoveLabelIds: removeLabelIDs,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to modify message %s: %w", messageID, err)
	}
	return nil
}

// isConflict reports whether err is a Gmail "already exists" response
func isConflict(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}
