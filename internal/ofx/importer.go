package ofx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
)

// Queue is where imported credits are entered.
type Queue interface {
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	CreateManual(ctx context.Context, in model.ManualTopUp, createdBy string) (*model.TopUp, error)
}

// ImportResult summarizes a statement import.
type ImportResult struct {
	Errors  []string
	Created int
	Flagged int
	Skipped int
	Invalid int
}

// Importer enters statement credits as manual top-ups.
type Importer struct {
	queue  Queue
	logger *slog.Logger
	// Progress is called after each credit when set.
	Progress func()
}

// NewImporter creates an Importer.
func NewImporter(queue Queue, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{queue: queue, logger: logger}
}

// Import enters each credit whose FITID is not already a known reference.
// Rows the queue rejects as invalid are counted and skipped; any other
// failure stops the import.
func (i *Importer) Import(ctx context.Context, credits []Credit, createdBy string) (*ImportResult, error) {
	result := &ImportResult{}
	for _, c := range credits {
		if err := i.importOne(ctx, c, createdBy, result); err != nil {
			return result, err
		}
		if i.Progress != nil {
			i.Progress()
		}
	}
	i.logger.Info("statement import finished",
		"created", result.Created,
		"flagged", result.Flagged,
		"skipped", result.Skipped,
		"invalid", result.Invalid)
	return result, nil
}

func (i *Importer) importOne(ctx context.Context, c Credit, createdBy string, result *ImportResult) error {
	if c.FITID != "" {
		exists, err := i.queue.ReferenceExists(ctx, c.FITID)
		if err != nil {
			return fmt.Errorf("failed to check reference %s: %w", c.FITID, err)
		}
		if exists {
			result.Skipped++
			return nil
		}
	}

	posted := c.PostedAt
	in := model.ManualTopUp{
		Amount:        c.Amount,
		Currency:      c.Currency,
		SenderName:    c.Sender,
		BankReference: c.FITID,
		Notes:         c.Memo,
	}
	if !posted.IsZero() {
		in.ReceivedAt = &posted
	}

	topUp, err := i.queue.CreateManual(ctx, in, createdBy)
	switch {
	case errors.Is(err, common.ErrValidation):
		result.Invalid++
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", c.FITID, err))
		return nil
	case err != nil:
		return fmt.Errorf("failed to import %s: %w", c.FITID, err)
	}

	result.Created++
	if topUp.RiskLevel != model.RiskClear {
		result.Flagged++
	}
	return nil
}
