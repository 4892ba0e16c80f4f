package testutil

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/wallet-topups/internal/model"
)

// TopUpBuilder builds pending top-ups with sensible defaults.
type TopUpBuilder struct {
	topUp model.TopUp
}

// NewTopUp starts a builder for a 100 ILS gmail top-up received an hour ago.
func NewTopUp() *TopUpBuilder {
	return &TopUpBuilder{topUp: model.TopUp{
		ID:         uuid.NewString(),
		Amount:     decimal.NewFromInt(100),
		Currency:   "ILS",
		SenderName: "Dana Cohen",
		Source:     model.SourceGmail,
		Status:     model.StatusPending,
		RiskLevel:  model.RiskClear,
		ReceivedAt: time.Now().Add(-time.Hour),
		AIParsedData: model.ParsedData{
			Method:     model.ParseRegex,
			Confidence: 1,
		},
	}}
}

// WithID sets the id.
func (b *TopUpBuilder) WithID(id string) *TopUpBuilder {
	b.topUp.ID = id
	return b
}

// WithAmount sets the amount from a decimal string; it panics on bad input.
func (b *TopUpBuilder) WithAmount(amount string) *TopUpBuilder {
	b.topUp.Amount = decimal.RequireFromString(amount)
	return b
}

// WithSender sets the sender name.
func (b *TopUpBuilder) WithSender(name string) *TopUpBuilder {
	b.topUp.SenderName = name
	return b
}

// WithReference sets the bank reference.
func (b *TopUpBuilder) WithReference(ref string) *TopUpBuilder {
	b.topUp.BankReference = ref
	return b
}

// WithTarget sets the wallet owner.
func (b *TopUpBuilder) WithTarget(userID string) *TopUpBuilder {
	b.topUp.TargetUserID = userID
	return b
}

// WithRisk sets the risk level.
func (b *TopUpBuilder) WithRisk(level model.RiskLevel) *TopUpBuilder {
	b.topUp.RiskLevel = level
	return b
}

// ReceivedAgo sets ReceivedAt relative to now.
func (b *TopUpBuilder) ReceivedAgo(d time.Duration) *TopUpBuilder {
	b.topUp.ReceivedAt = time.Now().Add(-d)
	return b
}

// Manual marks the top-up as manually entered.
func (b *TopUpBuilder) Manual() *TopUpBuilder {
	b.topUp.Source = model.SourceManual
	b.topUp.AIParsedData = model.ParsedData{Method: model.ParseManual, Confidence: 1}
	return b
}

// Build returns a copy of the configured top-up.
func (b *TopUpBuilder) Build() *model.TopUp {
	topUp := b.topUp
	return &topUp
}

// BankRules returns an enabled rule set for alerts@bank.com with a 1000 cap.
func BankRules() *model.RuleConfig {
	return &model.RuleConfig{
		Enabled:             true,
		SenderWhitelist:     []string{"alerts@bank.com"},
		MustContainKeywords: []string{"transfer received"},
		MaxThreshold:        decimal.NewFromInt(1000),
	}
}
