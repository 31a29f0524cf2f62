package gmail

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/inboxsorter/internal/google"
)

// userID is Gmail's alias for the authenticated user.
const userID = "me"

// Client wraps the Gmail Users service for one account
type Client struct {
	svc     *gmail.UsersService
	account string // The account this client is associated with
	query   string // Search query used by FetchRecent
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// Query returns the search query FetchRecent uses
func (c *Client) Query() string {
	return c.query
}

// SetQuery changes the search query FetchRecent uses. An empty query resets
// it to DefaultQuery.
func (c *Client) SetQuery(q string) {
	if q == "" {
		q = DefaultQuery
	}
	c.query = q
}

// HasTokenForAccount checks if a valid OAuth token exists for the specified account
func HasTokenForAccount(account string) bool {
	return google.HasTokenForAccount(account)
}

// NewClientForAccount creates a new Gmail client with OAuth2 authentication for a specific account.
// The token must have been stored beforehand with google.SaveTokenForAccount.
func NewClientForAccount(ctx context.Context, conf *oauth2.Config, account string) (*Client, error) {
	httpClient, err := google.GetHTTPClientForAccount(ctx, conf, account)
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found for account %s: %w. Run 'inboxsorter auth --account %s' first", account, err, account)
	}

	return NewClientWithOptions(ctx, account, option.WithHTTPClient(httpClient))
}

// NewClientWithOptions creates a Gmail client from explicit API client options.
// It is the seam used to point the client at a different endpoint or transport.
func NewClientWithOptions(ctx context.Context, account string, opts ...option.ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		svc:     svc.Users,
		account: account,
		query:   DefaultQuery,
	}, nil
}
