package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// cacheDirName is the directory below the user cache dir that holds token files
const cacheDirName = "inboxsorter"

// DefaultRedirectURL is the loopback redirect used for the installed-app flow.
// The browser lands on an unreachable page whose URL carries the code.
const DefaultRedirectURL = "http://127.0.0.1"

var accountNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// NewOAuthConfig returns the OAuth2 configuration for the Gmail API
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if redirectURL == "" {
		redirectURL = DefaultRedirectURL
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       Scopes,
	}
}

// validateAccountName ensures account names are safe to embed in file names
func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name must not be empty")
	}
	if !accountNamePattern.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, '-' and '_' are allowed", account)
	}
	return nil
}

// getTokenFilePath returns the token file location for an account
func getTokenFilePath(account string) string {
	return filepath.Join(userCacheDir(), cacheDirName, "google-"+account+".token")
}

// HasTokenForAccount checks if a token file exists for the specified account
func HasTokenForAccount(account string) bool {
	if err := validateAccountName(account); err != nil {
		return false
	}
	_, err := os.Stat(getTokenFilePath(account))
	return err == nil
}

// GetAuthURLForAccount returns the OAuth URL the user must visit to authorize the account
func GetAuthURLForAccount(conf *oauth2.Config, account string) string {
	return conf.AuthCodeURL(account, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// ExtractAuthCode accepts either a bare authorization code or the full
// redirect URL the browser landed on, and returns the code.
func ExtractAuthCode(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("authorization code is empty")
	}
	if !strings.Contains(input, "://") {
		return input, nil
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", fmt.Errorf("failed to parse redirect URL: %w", err)
	}
	code := u.Query().Get("code")
	if code == "" {
		return "", fmt.Errorf("redirect URL has no code parameter")
	}
	return code, nil
}

// SaveTokenForAccount exchanges an authorization code for tokens and stores them
func SaveTokenForAccount(ctx context.Context, conf *oauth2.Config, account, authCode string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}

	t, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	return writeToken(account, t)
}

func writeToken(account string, t *oauth2.Token) error {
	tokenFile := getTokenFilePath(account)
	if err := os.MkdirAll(filepath.Dir(tokenFile), 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := os.WriteFile(tokenFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func readToken(account string) (*oauth2.Token, error) {
	data, err := os.ReadFile(getTokenFilePath(account))
	if err != nil {
		return nil, fmt.Errorf("no Google OAuth token found for account %s", account)
	}
	var t oauth2.Token
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("invalid token file for account %s: %w", account, err)
	}
	if t.RefreshToken == "" && t.AccessToken == "" {
		return nil, fmt.Errorf("token file for account %s holds no token", account)
	}
	return &t, nil
}

// GetTokenSourceForAccount returns a refreshing token source for the stored token
func GetTokenSourceForAccount(ctx context.Context, conf *oauth2.Config, account string) (oauth2.TokenSource, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}
	t, err := readToken(account)
	if err != nil {
		return nil, err
	}
	return conf.TokenSource(ctx, t), nil
}

// GetHTTPClientForAccount returns an HTTP client authorized for the account
func GetHTTPClientForAccount(ctx context.Context, conf *oauth2.Config, account string) (*http.Client, error) {
	ts, err := GetTokenSourceForAccount(ctx, conf, account)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		return os.TempDir()
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
