package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Veraticus/wallet-topups/internal/common"
)

// cleanMarkdownWrapper strips a ```json fence and any prose around the JSON object.
func cleanMarkdownWrapper(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(strings.TrimSpace(content), "```")
	}
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return strings.TrimSpace(content)
}

// parseExtraction decodes the model's JSON answer. Malformed answers are
// permanent errors; asking again rarely fixes them.
func parseExtraction(content string) (PaymentExtraction, error) {
	content = cleanMarkdownWrapper(content)

	var raw struct {
		Amount        any     `json:"amount"`
		Currency      string  `json:"currency"`
		SenderName    string  `json:"sender_name"`
		BankReference string  `json:"bank_reference"`
		Confidence    float64 `json:"confidence"`
		IsTransaction bool    `json:"is_transaction"`
	}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return PaymentExtraction{}, common.Permanent(fmt.Errorf("failed to parse JSON response: %w", err))
	}

	var amount string
	switch v := raw.Amount.(type) {
	case nil:
	case string:
		amount = strings.TrimSpace(v)
	case float64:
		amount = fmt.Sprintf("%.2f", v)
	default:
		return PaymentExtraction{}, common.Permanent(fmt.Errorf("unexpected amount type %T", v))
	}

	confidence := raw.Confidence
	if confidence > 1 {
		// Some models answer in percent.
		confidence /= 100
	}
	if confidence < 0 || confidence > 1 {
		return PaymentExtraction{}, common.Permanent(fmt.Errorf("confidence %v out of range", raw.Confidence))
	}

	return PaymentExtraction{
		Amount:        amount,
		Currency:      strings.ToUpper(strings.TrimSpace(raw.Currency)),
		SenderName:    strings.TrimSpace(raw.SenderName),
		BankReference: strings.TrimSpace(raw.BankReference),
		Confidence:    confidence,
		IsTransaction: raw.IsTransaction,
	}, nil
}
