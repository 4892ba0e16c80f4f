package llm

import (
	"context"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	ExtractPayment(ctx context.Context, prompt string) (PaymentExtraction, error)
}

// Config configures a provider client and the extractor around it.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	MaxRetries  int
	RetryDelay  time.Duration
	CacheTTL    time.Duration
	RateLimit   int
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// PaymentExtraction is the structured answer expected from the model.
type PaymentExtraction struct {
	Amount        string  `json:"amount"`
	Currency      string  `json:"currency"`
	SenderName    string  `json:"sender_name"`
	BankReference string  `json:"bank_reference"`
	Confidence    float64 `json:"confidence"`
	IsTransaction bool    `json:"is_transaction"`
}

const systemPrompt = "You extract incoming payment details from bank notification emails. " +
	"You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, " +
	"markdown formatting, or commentary before or after the JSON."
