// Package googleauth builds authenticated HTTP clients for Google APIs.
package googleauth

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Veraticus/wallet-topups/internal/common"
)

// Credentials selects between an OAuth refresh token and a service account key.
type Credentials struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	// Subject is the mailbox impersonated by a service account with
	// domain-wide delegation. Ignored for OAuth credentials.
	Subject string
}

// HasOAuth reports whether a complete OAuth client and refresh token are set.
func (c Credentials) HasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// HasServiceAccount reports whether a service account key path is set.
func (c Credentials) HasServiceAccount() bool {
	return c.ServiceAccountPath != ""
}

// Validate requires exactly one authentication method.
func (c Credentials) Validate() error {
	switch {
	case !c.HasOAuth() && !c.HasServiceAccount():
		return fmt.Errorf("%w: no Google authentication method configured", common.ErrMissingConfig)
	case c.HasOAuth() && c.HasServiceAccount():
		return fmt.Errorf("%w: multiple authentication methods configured; use either OAuth2 or service account", common.ErrConfig)
	}
	return nil
}

// TokenSource returns a token source for the given scopes.
func TokenSource(ctx context.Context, creds Credentials, scopes ...string) (oauth2.TokenSource, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	if creds.HasServiceAccount() {
		jsonKey, err := os.ReadFile(creds.ServiceAccountPath) // #nosec G304
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}

		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, scopes...)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		jwtConfig.Subject = creds.Subject

		return jwtConfig.TokenSource(ctx), nil
	}

	client := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       scopes,
	}

	token := &oauth2.Token{
		RefreshToken: creds.RefreshToken,
		TokenType:    "Bearer",
	}

	return client.TokenSource(ctx, token), nil
}

// HTTPClient returns an HTTP client that authenticates every request.
func HTTPClient(ctx context.Context, creds Credentials, scopes ...string) (*http.Client, error) {
	ts, err := TokenSource(ctx, creds, scopes...)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}
