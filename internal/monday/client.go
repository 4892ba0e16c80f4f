// Package monday mirrors top-ups onto a monday.com board.
package monday

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
)

// DefaultAPIURL is the monday.com GraphQL endpoint.
const DefaultAPIURL = "https://api.monday.com/v2"

const apiVersion = "2024-10"

// ErrUnauthorized is returned when the API token is rejected.
var ErrUnauthorized = errors.New("monday.com rejected the API token")

// Account is the identity behind an API token.
type Account struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Client talks to the monday.com GraphQL API.
type Client struct {
	httpClient *http.Client
	apiURL     string
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithAPIURL overrides the GraphQL endpoint.
func WithAPIURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.apiURL = url
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient creates a client authenticated with token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		apiURL:     DefaultAPIURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type graphQLRequest struct {
	Variables map[string]any `json:"variables,omitempty"`
	Query     string         `json:"query"`
}

type graphQLResponse struct {
	Data         json.RawMessage `json:"data"`
	ErrorMessage string          `json:"error_message"`
	ErrorCode    string          `json:"error_code"`
	Errors       []struct {
		Message    string `json:"message"`
		Extensions struct {
			Code string `json:"code"`
		} `json:"extensions"`
	} `json:"errors"`
}

// do executes a GraphQL operation and decodes data into out.
func (c *Client) do(ctx context.Context, query string, variables map[string]any, out any) error {
	if c.token == "" {
		return common.Permanent(fmt.Errorf("%w: monday.com API token is not set", common.ErrMissingConfig))
	}

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return common.Permanent(fmt.Errorf("failed to marshal request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return common.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)
	req.Header.Set("API-Version", apiVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("request failed: %w", err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &common.RetryableError{Err: fmt.Errorf("failed to read response: %w", err), Retryable: true}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return common.Permanent(ErrUnauthorized)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: monday.com API (status %d)", common.ErrRateLimit, resp.StatusCode)
	case resp.StatusCode >= 500:
		return &common.RetryableError{
			Err:       fmt.Errorf("monday.com API error (status %d): %s", resp.StatusCode, string(respBody)),
			Retryable: true,
		}
	}

	var parsed graphQLResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return common.Permanent(fmt.Errorf("failed to parse response (status %d): %w", resp.StatusCode, err))
	}

	if msg := parsed.errorMessage(); msg != "" {
		if parsed.isRateLimited() {
			return fmt.Errorf("%w: %s", common.ErrRateLimit, msg)
		}
		return common.Permanent(fmt.Errorf("monday.com API error: %s", msg))
	}
	if resp.StatusCode != http.StatusOK {
		return common.Permanent(fmt.Errorf("monday.com API error (status %d)", resp.StatusCode))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(parsed.Data, out); err != nil {
		return common.Permanent(fmt.Errorf("failed to decode data: %w", err))
	}
	return nil
}

func (r graphQLResponse) errorMessage() string {
	if r.ErrorMessage != "" {
		return r.ErrorMessage
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

func (r graphQLResponse) isRateLimited() bool {
	codes := []string{r.ErrorCode}
	for _, e := range r.Errors {
		codes = append(codes, e.Extensions.Code)
	}
	for _, code := range codes {
		switch code {
		case "ComplexityException", "RATE_LIMIT_EXCEEDED", "maxComplexityExceeded":
			return true
		}
	}
	return false
}

// TestConnection verifies the token and returns the account behind it.
func (c *Client) TestConnection(ctx context.Context) (*Account, error) {
	var data struct {
		Me Account `json:"me"`
	}
	if err := c.do(ctx, `query { me { id name email } }`, nil, &data); err != nil {
		return nil, common.ExternalServiceError("monday", err)
	}
	return &data.Me, nil
}

// ListBoards returns the boards visible to the token.
func (c *Client) ListBoards(ctx context.Context) ([]model.Board, error) {
	var data struct {
		Boards []model.Board `json:"boards"`
	}
	if err := c.do(ctx, `query { boards(limit: 200, state: active) { id name } }`, nil, &data); err != nil {
		return nil, common.ExternalServiceError("monday", err)
	}
	return data.Boards, nil
}

// ListColumns returns the columns of one board.
func (c *Client) ListColumns(ctx context.Context, boardID string) ([]model.BoardColumn, error) {
	var data struct {
		Boards []struct {
			Columns []model.BoardColumn `json:"columns"`
		} `json:"boards"`
	}
	query := `query ($ids: [ID!]) { boards(ids: $ids) { columns { id title type } } }`
	if err := c.do(ctx, query, map[string]any{"ids": []string{boardID}}, &data); err != nil {
		return nil, common.ExternalServiceError("monday", err)
	}
	if len(data.Boards) == 0 {
		return nil, common.NotFoundf("board %s", boardID)
	}
	return data.Boards[0].Columns, nil
}

// CreateItem adds an item to a board and returns its id.
func (c *Client) CreateItem(ctx context.Context, boardID, groupID, name string, values map[string]any) (string, error) {
	encoded, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode column values: %w", err)
	}

	vars := map[string]any{
		"board":  boardID,
		"name":   name,
		"values": string(encoded),
	}
	query := `mutation ($board: ID!, $name: String!, $values: JSON) { create_item(board_id: $board, item_name: $name, column_values: $values) { id } }`
	if groupID != "" {
		vars["group"] = groupID
		query = `mutation ($board: ID!, $group: String!, $name: String!, $values: JSON) { create_item(board_id: $board, group_id: $group, item_name: $name, column_values: $values) { id } }`
	}

	var data struct {
		CreateItem struct {
			ID string `json:"id"`
		} `json:"create_item"`
	}
	if err := c.do(ctx, query, vars, &data); err != nil {
		return "", err
	}
	if data.CreateItem.ID == "" {
		return "", common.Permanent(fmt.Errorf("create_item returned no id"))
	}
	return data.CreateItem.ID, nil
}

// UpdateItem overwrites column values on an existing item.
func (c *Client) UpdateItem(ctx context.Context, boardID, itemID string, values map[string]any) error {
	encoded, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode column values: %w", err)
	}

	query := `mutation ($board: ID!, $item: ID!, $values: JSON!) { change_multiple_column_values(board_id: $board, item_id: $item, column_values: $values) { id } }`
	return c.do(ctx, query, map[string]any{
		"board":  boardID,
		"item":   itemID,
		"values": string(encoded),
	}, nil)
}
