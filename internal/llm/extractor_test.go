package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/wallet-topups/internal/common"
)

func newTestExtractor(client Client) *Extractor {
	return NewExtractorWithClient(client, Config{
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
		RateLimit:  600,
	}, common.DiscardLogger())
}

func TestExtractor_CachesByMessageID(t *testing.T) {
	mock := &MockClient{Responses: []PaymentExtraction{{IsTransaction: true, Amount: "10", Confidence: 0.9}}}
	e := newTestExtractor(mock)
	defer func() { _ = e.Close() }()
	ctx := context.Background()

	req := Request{MessageID: "m1", From: "alerts@bank.com", Subject: "Transfer", Body: "₪10"}
	first, err := e.Extract(ctx, req)
	require.NoError(t, err)
	second, err := e.Extract(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, mock.Calls())
	assert.Equal(t, 1, e.cache.size())
	assert.Contains(t, mock.Prompts[0], "Subject: Transfer")
}

func TestExtractor_RetriesTransientErrors(t *testing.T) {
	mock := &MockClient{
		Errors: []error{
			&common.RetryableError{Err: errors.New("502"), Retryable: true},
			nil,
		},
		Responses: []PaymentExtraction{{}, {IsTransaction: true, Amount: "5"}},
	}
	e := newTestExtractor(mock)
	defer func() { _ = e.Close() }()

	got, err := e.Extract(context.Background(), Request{MessageID: "m1"})
	require.NoError(t, err)
	assert.Equal(t, "5", got.Amount)
	assert.Equal(t, 2, mock.Calls())
}

func TestExtractor_PermanentErrorIsExternal(t *testing.T) {
	mock := &MockClient{Errors: []error{common.Permanent(errors.New("bad key"))}}
	e := newTestExtractor(mock)
	defer func() { _ = e.Close() }()

	_, err := e.Extract(context.Background(), Request{MessageID: "m1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExternalService)
	assert.Equal(t, 1, mock.Calls())
	assert.Zero(t, e.cache.size())
}

func TestBuildPrompt_TruncatesLongBodies(t *testing.T) {
	body := strings.Repeat("₪", maxPromptBody)
	prompt := buildPrompt(Request{Body: body})
	assert.Less(t, len(prompt), len(body))
	assert.Contains(t, prompt, `"is_transaction"`)
}
