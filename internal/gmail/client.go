// Package gmail reads payment notification emails from a Gmail mailbox.
package gmail

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/googleauth"
	"github.com/Veraticus/wallet-topups/internal/model"
)

// Scope is the only permission the service asks for.
const Scope = gmailapi.GmailReadonlyScope

// maxPageSize is the largest page the list endpoint accepts.
const maxPageSize = 500

// maxListPages caps how far back one listing pages through the mailbox.
const maxListPages = 20

// Config holds mailbox credentials.
type Config struct {
	Credentials   googleauth.Credentials
	TokenFile     string
	User          string
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		User:          "me",
		RetryAttempts: 3,
		RetryDelay:    time.Second,
	}
}

// Validate checks the configuration before dialing Google.
func (c Config) Validate() error {
	if err := c.Credentials.Validate(); err != nil {
		return err
	}
	if c.Credentials.HasServiceAccount() && (c.User == "" || c.User == "me") {
		return fmt.Errorf("%w: gmail.user must name the mailbox when using a service account", common.ErrConfig)
	}
	return nil
}

// Client lists and fetches messages through the Gmail API.
type Client struct {
	service   *gmailapi.Service
	logger    *slog.Logger
	user      string
	retryOpts common.RetryOptions
}

// NewClient creates an authenticated Gmail client.
func NewClient(ctx context.Context, config Config, logger *slog.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gmail config: %w", err)
	}

	creds := config.Credentials
	if creds.HasServiceAccount() {
		creds.Subject = config.User
	}

	httpClient, err := googleauth.HTTPClient(ctx, creds, Scope)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate gmail: %w", err)
	}

	return NewClientWithHTTP(ctx, config, httpClient, logger)
}

// NewClientWithHTTP builds a client on a caller-supplied HTTP client.
// Extra options such as option.WithEndpoint are passed to the API service.
func NewClientWithHTTP(ctx context.Context, config Config, httpClient *http.Client, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	user := config.User
	if user == "" {
		user = "me"
	}

	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := gmailapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create gmail service: %w", err)
	}

	return &Client{
		service: srv,
		logger:  logger,
		user:    user,
		retryOpts: common.RetryOptions{
			MaxAttempts:  config.RetryAttempts,
			InitialDelay: config.RetryDelay,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}, nil
}

// ListMessageIDs returns up to limit message ids matching query, newest
// first. Ids for which skip returns true do not count toward limit, so a
// mailbox whose newest messages were already handled still yields older ones.
// Paging stops after maxListPages pages either way.
func (c *Client) ListMessageIDs(ctx context.Context, query string, limit int, skip func(id string) bool) ([]string, error) {
	if limit <= 0 {
		return nil, nil
	}

	ids := make([]string, 0, limit)
	pageToken := ""
	skipped := 0

	for page := 0; len(ids) < limit && page < maxListPages; page++ {
		pageSize := int64(maxPageSize)
		if skip == nil {
			pageSize = int64(min(limit-len(ids), maxPageSize))
		}

		var resp *gmailapi.ListMessagesResponse
		err := c.call(ctx, func() error {
			call := c.service.Users.Messages.List(c.user).
				Q(query).
				MaxResults(pageSize).
				Context(ctx)
			if pageToken != "" {
				call = call.PageToken(pageToken)
			}
			var callErr error
			resp, callErr = call.Do()
			return callErr
		})
		if err != nil {
			return nil, common.ExternalServiceError("gmail", fmt.Errorf("failed to list messages: %w", err))
		}

		for _, m := range resp.Messages {
			if len(ids) == limit {
				break
			}
			if skip != nil && skip(m.Id) {
				skipped++
				continue
			}
			ids = append(ids, m.Id)
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	c.logger.Debug("listed gmail messages", "query", query, "count", len(ids), "skipped", skipped)
	return ids, nil
}

// GetMessage fetches one message and extracts its headers and bodies.
func (c *Client) GetMessage(ctx context.Context, id string) (*model.EmailMessage, error) {
	var msg *gmailapi.Message
	err := c.call(ctx, func() error {
		var callErr error
		msg, callErr = c.service.Users.Messages.Get(c.user, id).Format("full").Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return nil, common.ExternalServiceError("gmail", fmt.Errorf("failed to get message %s: %w", id, err))
	}

	return convertMessage(msg)
}

// Profile returns the mailbox address.
func (c *Client) Profile(ctx context.Context) (string, error) {
	var profile *gmailapi.Profile
	err := c.call(ctx, func() error {
		var callErr error
		profile, callErr = c.service.Users.GetProfile(c.user).Context(ctx).Do()
		return callErr
	})
	if err != nil {
		return "", common.ExternalServiceError("gmail", fmt.Errorf("failed to get profile: %w", err))
	}
	return profile.EmailAddress, nil
}

// call runs fn with retries. Only throttling and server errors are retried.
func (c *Client) call(ctx context.Context, fn func() error) error {
	return common.WithRetry(ctx, func() error {
		return googleauth.ClassifyError(fn())
	}, c.retryOpts)
}

func convertMessage(msg *gmailapi.Message) (*model.EmailMessage, error) {
	if msg == nil || msg.Payload == nil {
		return nil, fmt.Errorf("message has no payload")
	}

	out := &model.EmailMessage{
		ID:      msg.Id,
		Snippet: msg.Snippet,
	}

	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			out.From = h.Value
		case "subject":
			out.Subject = h.Value
		}
	}

	if msg.InternalDate > 0 {
		out.ReceivedAt = time.UnixMilli(msg.InternalDate).UTC()
	}

	plain, html, err := extractBodies(msg.Payload)
	if err != nil {
		return nil, fmt.Errorf("message %s: %w", msg.Id, err)
	}
	out.Body = plain
	out.HTMLBody = html

	return out, nil
}
