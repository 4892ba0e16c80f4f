package engine

import (
	"context"

	"github.com/Veraticus/wallet-topups/internal/llm"
	"github.com/Veraticus/wallet-topups/internal/model"
)

// MailSource lists and fetches payment notification emails. ListMessageIDs
// passes over ids that skip reports true for without counting them toward limit.
type MailSource interface {
	ListMessageIDs(ctx context.Context, query string, limit int, skip func(id string) bool) ([]string, error)
	GetMessage(ctx context.Context, id string) (*model.EmailMessage, error)
	Profile(ctx context.Context) (string, error)
}

// Extractor asks a language model for payment fields the parser missed.
type Extractor interface {
	Extract(ctx context.Context, req llm.Request) (llm.PaymentExtraction, error)
}

// Syncer mirrors queue changes to an external board. Enqueue must not block.
type Syncer interface {
	Enqueue(topUp model.TopUp) bool
}
