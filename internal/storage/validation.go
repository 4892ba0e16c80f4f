package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidTopUp = errors.New("invalid top-up")
	ErrInvalidLog   = errors.New("invalid processing log entry")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateTopUp checks the fields required before a top-up is stored.
func validateTopUp(t *model.TopUp) error {
	if t == nil {
		return fmt.Errorf("%w: top-up", ErrNilParameter)
	}
	if t.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTopUp)
	}
	if !t.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTopUp)
	}
	if t.Currency == "" {
		return fmt.Errorf("%w: missing currency", ErrInvalidTopUp)
	}
	if t.Status != model.StatusPending {
		return fmt.Errorf("%w: new top-ups must be pending, got %q", ErrInvalidTopUp, t.Status)
	}
	switch t.Source {
	case model.SourceGmail, model.SourceManual:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidTopUp, t.Source)
	}
	return nil
}

// validateLogEntry checks a processing log entry.
func validateLogEntry(e *model.ProcessingLogEntry) error {
	if e == nil {
		return fmt.Errorf("%w: log entry", ErrNilParameter)
	}
	if e.ID == "" || e.MessageID == "" {
		return fmt.Errorf("%w: missing ID or message ID", ErrInvalidLog)
	}
	switch e.Outcome {
	case model.OutcomeCreatedPending, model.OutcomeAutoApproved,
		model.OutcomeRejectedByRules, model.OutcomeSkippedNotTransaction:
	default:
		return fmt.Errorf("%w: unknown outcome %q", ErrInvalidLog, e.Outcome)
	}
	return nil
}

// validateResolution checks an approve or reject request.
func validateResolution(r model.Resolution) error {
	switch r.Status {
	case model.StatusApproved:
	case model.StatusRejected:
		if strings.TrimSpace(r.RejectReason) == "" {
			return common.Validationf("reject reason is required")
		}
	default:
		return common.Validationf("resolution status must be approved or rejected, got %q", r.Status)
	}
	if strings.TrimSpace(r.ReviewedBy) == "" {
		return common.Validationf("reviewer is required")
	}
	return nil
}
