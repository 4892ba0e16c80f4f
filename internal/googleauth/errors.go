package googleauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/Veraticus/wallet-topups/internal/common"
)

// ClassifyError marks a Google API error for common.WithRetry: 429 is a
// rate limit, 5xx and transport errors are retryable, everything else is
// permanent.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
		case apiErr.Code >= 500:
			return &common.RetryableError{Err: err, Retryable: true}
		default:
			return common.Permanent(err)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return common.Permanent(err)
	}
	return &common.RetryableError{Err: err, Retryable: true}
}
