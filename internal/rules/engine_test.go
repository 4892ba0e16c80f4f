package rules

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/wallet-topups/internal/model"
)

func candidate(from string, amount int64, text string) model.Candidate {
	return model.Candidate{
		FromAddress: from,
		Amount:      decimal.NewFromInt(amount),
		Subject:     "Payment notification",
		Text:        text,
	}
}

func bankRules() model.RuleConfig {
	return model.RuleConfig{
		Enabled:             true,
		SenderWhitelist:     []string{"alerts@bank.com"},
		MustContainKeywords: []string{"transfer received"},
		MaxThreshold:        decimal.NewFromInt(1000),
	}
}

func TestEvaluate_Scenarios(t *testing.T) {
	withAuto := bankRules()
	withAuto.AutoApproveThreshold = decimal.NewFromInt(100)

	tests := []struct {
		name            string
		cfg             model.RuleConfig
		candidate       model.Candidate
		wantOutcome     Outcome
		wantPreApproved bool
		wantReason      string
	}{
		{
			name:        "sender not whitelisted",
			cfg:         bankRules(),
			candidate:   candidate("spam@x.com", 50, "transfer received $50"),
			wantOutcome: Reject,
			wantReason:  "not whitelisted",
		},
		{
			name:        "exceeds max threshold",
			cfg:         bankRules(),
			candidate:   candidate("alerts@bank.com", 1500, "transfer received $1500"),
			wantOutcome: Reject,
			wantReason:  "exceeds max threshold",
		},
		{
			name:            "within auto approve threshold",
			cfg:             withAuto,
			candidate:       candidate("alerts@bank.com", 50, "transfer received $50"),
			wantOutcome:     Accept,
			wantPreApproved: true,
		},
		{
			name:            "auto threshold is inclusive",
			cfg:             withAuto,
			candidate:       candidate("alerts@bank.com", 100, "transfer received $100"),
			wantOutcome:     Accept,
			wantPreApproved: true,
		},
		{
			name:        "above auto threshold needs review",
			cfg:         withAuto,
			candidate:   candidate("alerts@bank.com", 101, "transfer received $101"),
			wantOutcome: NeedsReview,
		},
		{
			name:        "max threshold is inclusive",
			cfg:         bankRules(),
			candidate:   candidate("alerts@bank.com", 1000, "transfer received"),
			wantOutcome: NeedsReview,
		},
		{
			name:        "missing required keyword",
			cfg:         bankRules(),
			candidate:   candidate("alerts@bank.com", 50, "your statement is ready"),
			wantOutcome: Reject,
			wantReason:  "missing required keyword",
		},
		{
			name:        "display name in from header",
			cfg:         bankRules(),
			candidate:   candidate("Bank Alerts <Alerts@Bank.com>", 50, "Transfer Received"),
			wantOutcome: NeedsReview,
		},
		{
			name: "domain whitelist entry",
			cfg: model.RuleConfig{
				Enabled:         true,
				SenderWhitelist: []string{"@bank.com"},
			},
			candidate:   candidate("noreply@bank.com", 50, "anything"),
			wantOutcome: NeedsReview,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Evaluate(tt.candidate, tt.cfg)
			assert.Equal(t, tt.wantOutcome, got.Outcome)
			assert.Equal(t, tt.wantPreApproved, got.PreApproved)
			if tt.wantReason != "" {
				assert.Contains(t, got.Reason, tt.wantReason)
			}
		})
	}
}

func TestEvaluate_DisabledAcceptsEverything(t *testing.T) {
	cfg := bankRules()
	cfg.Enabled = false
	cfg.MustNotContainKeywords = []string{"refund"}

	inputs := []model.Candidate{
		candidate("spam@x.com", 50, "refund requested"),
		candidate("alerts@bank.com", 999999, ""),
		candidate("", 0, "nothing to see"),
	}

	for _, c := range inputs {
		got := Evaluate(c, cfg)
		assert.Equal(t, Accept, got.Outcome)
		assert.False(t, got.PreApproved)
	}
}

func TestEvaluate_ForbiddenBeatsRequired(t *testing.T) {
	cfg := model.RuleConfig{
		Enabled:                true,
		MustContainKeywords:    []string{"transfer received"},
		MustNotContainKeywords: []string{"reversed"},
		AutoApproveThreshold:   decimal.NewFromInt(500),
	}

	got := Evaluate(candidate("alerts@bank.com", 50, "Transfer received and later REVERSED"), cfg)

	assert.Equal(t, Reject, got.Outcome)
	assert.Contains(t, got.Reason, "forbidden")
}

func TestEvaluate_ZeroThresholdsDisableLimits(t *testing.T) {
	cfg := model.RuleConfig{Enabled: true}

	got := Evaluate(candidate("a@b.com", 1_000_000, "big transfer"), cfg)
	assert.Equal(t, NeedsReview, got.Outcome)

	got = Evaluate(candidate("a@b.com", 1, "tiny transfer"), cfg)
	assert.Equal(t, NeedsReview, got.Outcome)
	assert.False(t, got.PreApproved)
}

func TestExtractAddress(t *testing.T) {
	assert.Equal(t, "alerts@bank.com", ExtractAddress("Bank <ALERTS@bank.com>"))
	assert.Equal(t, "alerts@bank.com", ExtractAddress("<alerts@bank.com>"))
	assert.Equal(t, "not an address", ExtractAddress("Not An Address"))
}
