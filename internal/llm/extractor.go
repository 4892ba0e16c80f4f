package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/wallet-topups/internal/common"
)

const maxPromptBody = 4000

// Request is one email handed to the model.
type Request struct {
	MessageID string
	From      string
	Subject   string
	Body      string
}

// Extractor wraps a Client with caching, rate limiting and retries.
type Extractor struct {
	client      Client
	cache       *extractionCache
	rateLimiter *rateLimiter
	logger      *slog.Logger
	retryOpts   common.RetryOptions
}

// NewExtractor builds an extractor for the configured provider.
func NewExtractor(cfg Config, logger *slog.Logger) (*Extractor, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewExtractorWithClient(client, cfg, logger), nil
}

// NewExtractorWithClient wraps an existing client.
func NewExtractorWithClient(client Client, cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = time.Second
	}

	return &Extractor{
		client:      client,
		cache:       newExtractionCache(cfg.CacheTTL),
		rateLimiter: newRateLimiter(cfg.RateLimit),
		logger:      logger,
		retryOpts:   retryOpts,
	}
}

// Extract asks the model for payment details. Results are cached by message id.
func (e *Extractor) Extract(ctx context.Context, req Request) (PaymentExtraction, error) {
	if req.MessageID != "" {
		if cached, ok := e.cache.get(req.MessageID); ok {
			e.logger.Debug("cache hit for message", "message_id", req.MessageID)
			return cached, nil
		}
	}

	prompt := buildPrompt(req)

	var result PaymentExtraction
	err := common.WithRetry(ctx, func() error {
		if err := e.rateLimiter.wait(ctx); err != nil {
			return common.Permanent(err)
		}
		var callErr error
		result, callErr = e.client.ExtractPayment(ctx, prompt)
		return callErr
	}, e.retryOpts)
	if err != nil {
		return PaymentExtraction{}, common.ExternalServiceError("llm", err)
	}

	if req.MessageID != "" {
		e.cache.set(req.MessageID, result)
	}

	e.logger.Info("payment extracted by model",
		"message_id", req.MessageID,
		"is_transaction", result.IsTransaction,
		"confidence", result.Confidence)

	return result, nil
}

// Close stops background goroutines.
func (e *Extractor) Close() error {
	e.cache.Close()
	return nil
}

func buildPrompt(req Request) string {
	body := req.Body
	if len(body) > maxPromptBody {
		body = body[:maxPromptBody]
		for !utf8.ValidString(body) {
			body = body[:len(body)-1]
		}
	}

	var sb strings.Builder
	sb.WriteString("Extract the incoming payment described in this bank notification email.\n\n")
	fmt.Fprintf(&sb, "From: %s\n", req.From)
	fmt.Fprintf(&sb, "Subject: %s\n\n", req.Subject)
	sb.WriteString(body)
	sb.WriteString("\n\nRespond with a JSON object with exactly these fields:\n")
	sb.WriteString(`{"is_transaction": bool, "amount": "decimal string or empty", "currency": "ISO 4217 code or empty", `)
	sb.WriteString(`"sender_name": "payer name or empty", "bank_reference": "reference or empty", "confidence": 0.0-1.0}`)
	sb.WriteString("\nSet is_transaction to false when the email does not report money received.")
	return sb.String()
}
