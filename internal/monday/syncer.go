package monday

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/metrics"
	"github.com/Veraticus/wallet-topups/internal/model"
)

// Store is the persistence the syncer needs.
type Store interface {
	GetBoardConfig(ctx context.Context) (*model.BoardConfig, error)
	GetBoardItemID(ctx context.Context, topUpID string) (string, error)
	SaveBoardItemID(ctx context.Context, topUpID, itemID string) error
}

// BoardClient writes items to a board.
type BoardClient interface {
	CreateItem(ctx context.Context, boardID, groupID, name string, values map[string]any) (string, error)
	UpdateItem(ctx context.Context, boardID, itemID string, values map[string]any) error
}

// ClientFactory builds a BoardClient for an API token.
type ClientFactory func(token string) BoardClient

// SyncerOptions tunes the worker.
type SyncerOptions struct {
	QueueSize     int
	RetryAttempts int
	RetryDelay    time.Duration
	JobTimeout    time.Duration
}

// DefaultSyncerOptions returns production defaults.
func DefaultSyncerOptions() SyncerOptions {
	return SyncerOptions{
		QueueSize:     256,
		RetryAttempts: 4,
		RetryDelay:    2 * time.Second,
		JobTimeout:    2 * time.Minute,
	}
}

// SyncStats are the worker's lifetime counters.
type SyncStats struct {
	Synced  int64 `json:"synced"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
	Skipped int64 `json:"skipped"`
}

// Syncer mirrors top-ups to the configured board from a single worker goroutine.
// Enqueue never blocks; a full queue drops the job.
type Syncer struct {
	store     Store
	newClient ClientFactory
	logger    *slog.Logger
	queue     chan model.TopUp
	opts      SyncerOptions
	synced    atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
	skipped   atomic.Int64
}

// NewSyncer creates a syncer. Call Run to start the worker.
func NewSyncer(store Store, newClient ClientFactory, logger *slog.Logger, opts SyncerOptions) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultSyncerOptions()
	if opts.QueueSize <= 0 {
		opts.QueueSize = defaults.QueueSize
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = defaults.RetryAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaults.RetryDelay
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = defaults.JobTimeout
	}

	return &Syncer{
		store:     store,
		newClient: newClient,
		logger:    logger,
		queue:     make(chan model.TopUp, opts.QueueSize),
		opts:      opts,
	}
}

// Enqueue schedules t for sync and reports whether it was accepted.
func (s *Syncer) Enqueue(t model.TopUp) bool {
	select {
	case s.queue <- t:
		metrics.SyncQueueDepth.Set(float64(len(s.queue)))
		return true
	default:
		s.dropped.Add(1)
		metrics.SyncAttempts.WithLabelValues("dropped").Inc()
		s.logger.Warn("board sync queue full, dropping job", "topup_id", t.ID)
		return false
	}
}

// Run processes jobs until ctx is cancelled.
func (s *Syncer) Run(ctx context.Context) error {
	s.logger.Info("board sync worker started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("board sync worker stopped", "pending_jobs", len(s.queue))
			return nil
		case t := <-s.queue:
			metrics.SyncQueueDepth.Set(float64(len(s.queue)))
			s.process(ctx, t)
		}
	}
}

// Stats returns the lifetime counters.
func (s *Syncer) Stats() SyncStats {
	return SyncStats{
		Synced:  s.synced.Load(),
		Failed:  s.failed.Load(),
		Dropped: s.dropped.Load(),
		Skipped: s.skipped.Load(),
	}
}

func (s *Syncer) process(ctx context.Context, t model.TopUp) {
	jobCtx, cancel := context.WithTimeout(ctx, s.opts.JobTimeout)
	defer cancel()

	synced, err := s.Sync(jobCtx, t)
	switch {
	case err != nil:
		s.failed.Add(1)
		metrics.SyncAttempts.WithLabelValues("error").Inc()
		s.logger.Error("board sync failed", "topup_id", t.ID, "status", t.Status, "error", err)
	case !synced:
		s.skipped.Add(1)
		metrics.SyncAttempts.WithLabelValues("skipped").Inc()
	default:
		s.synced.Add(1)
		metrics.SyncAttempts.WithLabelValues("ok").Inc()
	}
}

// Sync upserts one top-up onto the board. It returns false without error
// when sync is disabled or not configured.
func (s *Syncer) Sync(ctx context.Context, t model.TopUp) (bool, error) {
	cfg, err := s.store.GetBoardConfig(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load board config: %w", err)
	}
	if !cfg.Ready() {
		return false, nil
	}

	client := s.newClient(cfg.APIToken)
	values := ColumnValues(t, cfg.ColumnMapping)

	itemID, err := s.store.GetBoardItemID(ctx, t.ID)
	if err != nil {
		return false, fmt.Errorf("failed to load board item: %w", err)
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  s.opts.RetryAttempts,
		InitialDelay: s.opts.RetryDelay,
		MaxDelay:     time.Minute,
		Multiplier:   2.0,
	}

	if itemID != "" {
		err = common.WithRetry(ctx, func() error {
			return client.UpdateItem(ctx, cfg.BoardID, itemID, values)
		}, retryOpts)
		if err != nil {
			return false, common.ExternalServiceError("monday", err)
		}
		s.logger.Debug("board item updated", "topup_id", t.ID, "item_id", itemID)
		return true, nil
	}

	err = common.WithRetry(ctx, func() error {
		var createErr error
		itemID, createErr = client.CreateItem(ctx, cfg.BoardID, cfg.GroupID, ItemName(t), values)
		return createErr
	}, retryOpts)
	if err != nil {
		return false, common.ExternalServiceError("monday", err)
	}

	if err := s.store.SaveBoardItemID(ctx, t.ID, itemID); err != nil {
		return false, fmt.Errorf("failed to remember board item %s: %w", itemID, err)
	}
	s.logger.Info("board item created", "topup_id", t.ID, "item_id", itemID)
	return true, nil
}

// ItemName is the board item title for a top-up.
func ItemName(t model.TopUp) string {
	sender := t.SenderName
	if sender == "" {
		sender = "Unknown sender"
	}
	return fmt.Sprintf("%s %s %s", sender, t.Amount.StringFixed(2), t.Currency)
}

// ColumnValues renders the mapped fields of t as board column values.
// Unmapped fields are left out.
func ColumnValues(t model.TopUp, mapping map[string]string) map[string]any {
	values := make(map[string]any, len(mapping))
	for field, column := range mapping {
		if column == "" {
			continue
		}
		if v, ok := fieldValue(t, field); ok {
			values[column] = v
		}
	}
	return values
}

func fieldValue(t model.TopUp, field string) (string, bool) {
	switch field {
	case "amount":
		return t.Amount.StringFixed(2), true
	case "currency":
		return t.Currency, true
	case "sender_name":
		return t.SenderName, true
	case "bank_reference":
		return t.BankReference, true
	case "status":
		return string(t.Status), true
	case "risk_level":
		return string(t.RiskLevel), true
	case "source":
		return string(t.Source), true
	case "created_at":
		return t.CreatedAt.UTC().Format(time.DateOnly), true
	case "reviewed_by":
		return t.ReviewedBy, true
	}
	return "", false
}
