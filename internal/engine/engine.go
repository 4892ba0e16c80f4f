// Package engine turns payment emails and manual entries into reviewed wallet top-ups.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/metrics"
	"github.com/Veraticus/wallet-topups/internal/model"
	"github.com/Veraticus/wallet-topups/internal/risk"
	"github.com/Veraticus/wallet-topups/internal/service"
)

// AutoApprover is the reviewer recorded on threshold auto-approvals.
const AutoApprover = "system:auto-approve"

const maxScanErrors = 20

// Engine orchestrates ingestion, dedup and the approval workflow.
type Engine struct {
	storage   service.Storage
	source    MailSource
	extractor Extractor
	syncer    Syncer
	logger    *slog.Logger
	now       func() time.Time

	scanMu sync.Mutex

	statusMu   sync.RWMutex
	lastScan   *model.ScanResult
	lastScanAt *time.Time
	lastErr    string
}

// Option configures an Engine.
type Option func(*Engine)

// WithMailSource enables mailbox scanning.
func WithMailSource(source MailSource) Option {
	return func(e *Engine) { e.source = source }
}

// WithExtractor enables AI assisted parsing.
func WithExtractor(extractor Extractor) Option {
	return func(e *Engine) { e.extractor = extractor }
}

// WithSyncer mirrors queue changes to a board.
func WithSyncer(syncer Syncer) Option {
	return func(e *Engine) { e.syncer = syncer }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New creates an engine on top of storage.
func New(storage service.Storage, opts ...Option) *Engine {
	e := &Engine{
		storage: storage,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// HasMailSource reports whether scanning is possible.
func (e *Engine) HasMailSource() bool {
	return e.source != nil
}

// CreateManual validates and queues an admin-entered top-up.
func (e *Engine) CreateManual(ctx context.Context, in model.ManualTopUp, createdBy string) (*model.TopUp, error) {
	settings, err := e.storage.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	if !in.Amount.IsPositive() {
		return nil, common.Validationf("amount must be greater than zero")
	}
	raw := in.Currency
	if strings.TrimSpace(raw) == "" {
		raw = settings.DefaultCurrency
	}
	currency, ok := model.NormalizeCurrency(raw)
	if !ok {
		return nil, common.Validationf("currency %q is not a 3-letter code", in.Currency)
	}
	sender := strings.TrimSpace(in.SenderName)
	if sender == "" {
		return nil, common.Validationf("sender_name is required")
	}

	now := e.now().UTC()
	receivedAt := now
	if in.ReceivedAt != nil && !in.ReceivedAt.IsZero() {
		receivedAt = in.ReceivedAt.UTC()
	}

	topUp := &model.TopUp{
		ID:            uuid.NewString(),
		Amount:        in.Amount,
		Currency:      currency,
		SenderName:    sender,
		BankReference: strings.TrimSpace(in.BankReference),
		Source:        model.SourceManual,
		Status:        model.StatusPending,
		ReceivedAt:    receivedAt,
		CreatedAt:     now,
		TargetUserID:  strings.TrimSpace(in.TargetUserID),
		Notes:         strings.TrimSpace(in.Notes),
		AIParsedData: model.ParsedData{
			Method:     model.ParseManual,
			Confidence: 1,
			Fields:     map[string]string{"created_by": createdBy},
		},
	}

	upgrades, err := e.assessRisk(ctx, topUp, risk.PolicyFromSettings(*settings))
	if err != nil {
		return nil, err
	}

	if err := e.storage.SaveIntake(ctx, &service.Intake{TopUp: topUp, Upgrades: upgrades}); err != nil {
		return nil, fmt.Errorf("failed to save manual top-up: %w", err)
	}

	metrics.TopUpsCreated.WithLabelValues(string(topUp.Source), string(topUp.RiskLevel)).Inc()
	e.logger.Info("manual top-up created",
		"topup_id", topUp.ID,
		"amount", topUp.Amount.String(),
		"currency", topUp.Currency,
		"risk_level", topUp.RiskLevel,
		"created_by", createdBy)

	e.enqueue(topUp)
	return topUp, nil
}

// assessRisk classifies topUp against recent entries, sets its risk fields,
// and returns the upgrades owed to the entries it matched.
func (e *Engine) assessRisk(ctx context.Context, topUp *model.TopUp, policy risk.Policy) ([]service.RiskUpgrade, error) {
	recent, err := e.storage.GetRecentTopUps(ctx, topUp.EffectiveTime().Add(-policy.Window))
	if err != nil {
		return nil, fmt.Errorf("failed to load recent top-ups: %w", err)
	}

	assessment := risk.Classify(risk.SubjectOf(topUp), recent, policy)
	topUp.RiskLevel = assessment.Level
	topUp.RiskMatches = assessment.MatchIDs()

	var upgrades []service.RiskUpgrade
	for _, m := range assessment.Matches {
		if !m.Level.BlocksAutoApproval() {
			continue
		}
		upgrades = append(upgrades, service.RiskUpgrade{TopUpID: m.TopUpID, Level: m.Level, MatchID: topUp.ID})
	}
	return upgrades, nil
}

// Approve resolves a pending top-up and credits the target user's wallet.
// targetUserID overrides the stored target when non-empty.
func (e *Engine) Approve(ctx context.Context, id, reviewer, targetUserID string) (*model.TopUp, error) {
	topUp, err := e.storage.ResolveTopUp(ctx, id, model.Resolution{
		Status:       model.StatusApproved,
		ReviewedBy:   reviewer,
		TargetUserID: targetUserID,
		At:           e.now(),
	})
	if err != nil {
		return nil, err
	}

	metrics.DecisionsTotal.WithLabelValues(string(model.StatusApproved)).Inc()
	if topUp.Credited {
		metrics.CreditsTotal.Inc()
	}
	e.logger.Info("top-up approved",
		"topup_id", topUp.ID,
		"reviewer", reviewer,
		"target_user_id", topUp.TargetUserID,
		"credited", topUp.Credited)

	e.enqueue(topUp)
	return topUp, nil
}

// Reject resolves a pending top-up without touching any wallet.
func (e *Engine) Reject(ctx context.Context, id, reviewer, reason string) (*model.TopUp, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, common.Validationf("reject reason is required")
	}
	topUp, err := e.storage.ResolveTopUp(ctx, id, model.Resolution{
		Status:       model.StatusRejected,
		ReviewedBy:   reviewer,
		RejectReason: reason,
		At:           e.now(),
	})
	if err != nil {
		return nil, err
	}

	metrics.DecisionsTotal.WithLabelValues(string(model.StatusRejected)).Inc()
	e.logger.Info("top-up rejected", "topup_id", topUp.ID, "reviewer", reviewer, "reason", reason)

	e.enqueue(topUp)
	return topUp, nil
}

// GetTopUp returns one entry.
func (e *Engine) GetTopUp(ctx context.Context, id string) (*model.TopUp, error) {
	return e.storage.GetTopUp(ctx, id)
}

// ListTopUps lists entries, newest first.
func (e *Engine) ListTopUps(ctx context.Context, filter model.TopUpFilter) ([]model.TopUp, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, common.Validationf("unknown status %q", filter.Status)
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return nil, common.Validationf("limit and offset must not be negative")
	}
	return e.storage.ListTopUps(ctx, filter)
}

// ReferenceExists reports whether any entry carries the bank reference.
func (e *Engine) ReferenceExists(ctx context.Context, reference string) (bool, error) {
	return e.storage.ReferenceExists(ctx, reference)
}

// Stats aggregates the queue.
func (e *Engine) Stats(ctx context.Context) (*model.Stats, error) {
	return e.storage.GetStats(ctx)
}

// Wallet returns a user's balance and credit history.
func (e *Engine) Wallet(ctx context.Context, userID string) (*model.Wallet, []model.WalletCredit, error) {
	wallet, err := e.storage.GetWallet(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	credits, err := e.storage.GetWalletCredits(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return wallet, credits, nil
}

func (e *Engine) enqueue(topUp *model.TopUp) {
	if e.syncer == nil || topUp == nil {
		return
	}
	e.syncer.Enqueue(*topUp)
}
