// Package google stores and loads per-account OAuth tokens for the Gmail API.
//
// Tokens live in $XDG_CACHE_HOME/inboxsorter/google-<account>.token (or the
// platform equivalent) and are refreshed transparently by the oauth2 token
// source returned from GetTokenSourceForAccount.
package google
