package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
)

// Scopes requested for the Gmail source: read access for fetching and
// compose for pushing drafts back to the mailbox.
var scopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailComposeScope,
}

// Credentials locates the OAuth client secret and the cached token on
// disk.
type Credentials struct {
	// CredentialsPath is the OAuth client secret JSON file.
	CredentialsPath string

	// TokenPath is where the exchanged token is cached.
	TokenPath string
}

// ErrNotConfigured is returned when the client secret file is missing.
// Callers surface this as a setup problem, not a runtime failure.
var ErrNotConfigured = fmt.Errorf("google: credentials file not found")

// config loads the oauth2 config from the client secret file.
func (c Credentials) config() (*oauth2.Config, error) {
	data, err := os.ReadFile(c.CredentialsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotConfigured, c.CredentialsPath)
	}
	conf, err := google.ConfigFromJSON(data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", c.CredentialsPath, err)
	}
	return conf, nil
}

// HasToken reports whether a cached token exists.
func (c Credentials) HasToken() bool {
	_, err := os.Stat(c.TokenPath)
	return err == nil
}

// AuthURL returns the URL a user visits to authorize access.
func (c Credentials) AuthURL() (string, error) {
	conf, err := c.config()
	if err != nil {
		return "", err
	}
	return conf.AuthCodeURL("state", oauth2.AccessTypeOffline), nil
}

// SaveToken exchanges an authorization code for a token and caches it.
func (c Credentials) SaveToken(ctx context.Context, authCode string) error {
	conf, err := c.config()
	if err != nil {
		return err
	}
	tok, err := conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("exchange auth code: %w", err)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}
	if err := os.WriteFile(c.TokenPath, data, 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// loadToken reads the cached token.
func (c Credentials) loadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.TokenPath)
	if err != nil {
		return nil, fmt.Errorf("no cached Google OAuth token at %s: %w", c.TokenPath, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token file %s: %w", c.TokenPath, err)
	}
	return &tok, nil
}

// HTTPClient returns an HTTP client authenticated with the cached token.
// Expired access tokens are refreshed through the token source.
func (c Credentials) HTTPClient(ctx context.Context) (*http.Client, error) {
	conf, err := c.config()
	if err != nil {
		return nil, err
	}
	tok, err := c.loadToken()
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, conf.TokenSource(ctx, tok)), nil
}
