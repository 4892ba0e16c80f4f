package googleauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	defaultListenAddr = "localhost:8085"
	authTimeout       = 5 * time.Minute
)

// OAuth2Config holds the installed-app OAuth2 flow settings.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenFile    string
	ListenAddr   string
	Scopes       []string
}

func (c OAuth2Config) oauthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirectURL,
		Scopes:       c.Scopes,
	}
}

// AuthenticateInteractive runs the browser consent flow and stores the resulting token.
// openURL is called with the consent URL; it may print it or launch a browser.
func AuthenticateInteractive(ctx context.Context, config OAuth2Config, openURL func(string)) (*oauth2.Token, error) {
	addr := config.ListenAddr
	if addr == "" {
		addr = defaultListenAddr
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to start callback server: %w", err)
	}

	oauthConfig := config.oauthConfig("http://" + listener.Addr().String() + "/callback")

	codeChan := make(chan string, 1)
	errorChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errorChan <- fmt.Errorf("no authorization code received")
			_, _ = fmt.Fprint(w, `<html><body><h1>Authentication Failed</h1><p>No authorization code received. Please try again.</p></body></html>`)
			return
		}

		codeChan <- code
		_, _ = fmt.Fprint(w, `<html><body><h1>Authentication Successful</h1><p>You can close this window and return to the terminal.</p></body></html>`)
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if serveErr := server.Serve(listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errorChan <- fmt.Errorf("callback server failed: %w", serveErr)
		}
	}()

	authURL := oauthConfig.AuthCodeURL("state-token", oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if openURL != nil {
		openURL(authURL)
	}

	var authCode string
	select {
	case authCode = <-codeChan:
		slog.Info("received authorization code")
	case err := <-errorChan:
		_ = server.Shutdown(ctx)
		return nil, err
	case <-ctx.Done():
		_ = server.Shutdown(context.Background())
		return nil, ctx.Err()
	case <-time.After(authTimeout):
		_ = server.Shutdown(ctx)
		return nil, fmt.Errorf("authentication timeout - no response received within %s", authTimeout)
	}

	if err := server.Shutdown(ctx); err != nil {
		slog.Warn("error shutting down callback server", "error", err)
	}

	token, err := oauthConfig.Exchange(ctx, authCode)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	if config.TokenFile != "" {
		if err := SaveToken(config.TokenFile, token); err != nil {
			return nil, err
		}
		slog.Info("token saved", "file", config.TokenFile)
	}

	return token, nil
}

// LoadToken loads a token from file.
func LoadToken(tokenFile string) (*oauth2.Token, error) {
	f, err := os.Open(tokenFile) // #nosec G304
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}
	return token, nil
}

// SaveToken writes a token file readable only by the owner.
func SaveToken(path string, token *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600) // #nosec G304
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return nil
}

// RefreshTokenFromFile reads the refresh token stored by AuthenticateInteractive.
func RefreshTokenFromFile(tokenFile string) (string, error) {
	token, err := LoadToken(tokenFile)
	if err != nil {
		return "", err
	}
	if token.RefreshToken == "" {
		return "", fmt.Errorf("token file %s has no refresh token", tokenFile)
	}
	return token.RefreshToken, nil
}
