// Package service defines the interfaces shared between the engine, the API and storage.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/wallet-topups/internal/model"
)

// RiskUpgrade raises the risk level of an existing pending top-up.
type RiskUpgrade struct {
	TopUpID string
	Level   model.RiskLevel
	MatchID string
}

// Intake is everything written when a candidate enters the queue.
// Any of TopUp and Log may be nil; the non-nil parts are stored atomically.
type Intake struct {
	TopUp *model.TopUp
	Log   *model.ProcessingLogEntry
	// AutoApproval, when set, resolves TopUp in the same transaction.
	AutoApproval *model.Resolution
	Upgrades     []RiskUpgrade
}

// Storage defines the contract for our persistence layer.
type Storage interface {
	// Top-up queue
	SaveIntake(ctx context.Context, intake *Intake) error
	GetTopUp(ctx context.Context, id string) (*model.TopUp, error)
	ListTopUps(ctx context.Context, filter model.TopUpFilter) ([]model.TopUp, error)
	GetRecentTopUps(ctx context.Context, since time.Time) ([]model.TopUp, error)
	ReferenceExists(ctx context.Context, reference string) (bool, error)
	ResolveTopUp(ctx context.Context, id string, resolution model.Resolution) (*model.TopUp, error)
	GetStats(ctx context.Context) (*model.Stats, error)

	// Rule and settings singletons
	GetRuleConfig(ctx context.Context) (*model.RuleConfig, error)
	SaveRuleConfig(ctx context.Context, cfg *model.RuleConfig) error
	GetSettings(ctx context.Context) (*model.Settings, error)
	SaveSettings(ctx context.Context, settings *model.Settings) error

	// Processing log
	IsMessageProcessed(ctx context.Context, messageID string) (bool, error)
	ListProcessingLog(ctx context.Context, filter model.LogFilter) ([]model.ProcessingLogEntry, error)

	// Wallets
	GetWallet(ctx context.Context, userID string) (*model.Wallet, error)
	GetWalletCredits(ctx context.Context, userID string) ([]model.WalletCredit, error)

	// Board sync
	GetBoardConfig(ctx context.Context) (*model.BoardConfig, error)
	SaveBoardConfig(ctx context.Context, cfg *model.BoardConfig) error
	GetBoardItemID(ctx context.Context, topUpID string) (string, error)
	SaveBoardItemID(ctx context.Context, topUpID, itemID string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}
