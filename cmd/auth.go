package cmd

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxsorter/internal/google"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize access to a Gmail account",
		Long: `Run the OAuth flow for a Google account. Open the printed URL, grant access
and paste the authorization code (or the full URL the browser was redirected
to). The token is stored per account below the user cache directory.

The OAuth client is read from google.client_id and google.client_secret,
or from the GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Google.ClientID == "" || cfg.Google.ClientSecret == "" {
				return fmt.Errorf("google client id and secret are required, set GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET")
			}

			conf := google.NewOAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
			out := cmd.OutOrStdout()

			fmt.Fprintf(out, "Authorizing account %q.\n\n", cfg.Account)
			fmt.Fprintf(out, "Visit this URL in your browser:\n\n%s\n\n", google.GetAuthURLForAccount(conf, cfg.Account))
			fmt.Fprint(out, "Paste the authorization code or the redirect URL: ")

			scanner := bufio.NewScanner(cmd.InOrStdin())
			if !scanner.Scan() {
				if err := scanner.Err(); err != nil {
					return fmt.Errorf("failed to read authorization code: %w", err)
				}
				return fmt.Errorf("no authorization code provided")
			}

			code, err := google.ExtractAuthCode(scanner.Text())
			if err != nil {
				return err
			}
			if err := google.SaveTokenForAccount(cmd.Context(), conf, cfg.Account, code); err != nil {
				return err
			}

			fmt.Fprintf(out, "\nToken saved for account %q.\n", cfg.Account)
			return nil
		},
	}
}
