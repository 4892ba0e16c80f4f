package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/wallet-topups/internal/common"
)

func TestRuleConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  RuleConfig
		wantErr bool
	}{
		{
			name:   "empty config",
			config: DefaultRuleConfig(),
		},
		{
			name: "auto below max",
			config: RuleConfig{
				AutoApproveThreshold: decimal.NewFromInt(100),
				MaxThreshold:         decimal.NewFromInt(1000),
			},
		},
		{
			name: "auto above max",
			config: RuleConfig{
				AutoApproveThreshold: decimal.NewFromInt(2000),
				MaxThreshold:         decimal.NewFromInt(1000),
			},
			wantErr: true,
		},
		{
			name:    "negative max",
			config:  RuleConfig{MaxThreshold: decimal.NewFromInt(-1)},
			wantErr: true,
		},
		{
			name:    "blank keyword",
			config:  RuleConfig{MustContainKeywords: []string{"transfer", "  "}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRuleConfig_Normalize(t *testing.T) {
	cfg := RuleConfig{
		SenderWhitelist:     []string{" alerts@bank.com ", "ALERTS@bank.com", ""},
		MustContainKeywords: nil,
	}
	cfg.Normalize()

	assert.Equal(t, []string{"alerts@bank.com"}, cfg.SenderWhitelist)
	assert.NotNil(t, cfg.MustContainKeywords)
	assert.Empty(t, cfg.MustContainKeywords)
}

func TestRiskLevel_Severity(t *testing.T) {
	assert.Less(t, RiskClear.Severity(), RiskLow.Severity())
	assert.Less(t, RiskLow.Severity(), RiskPotentialDuplicate.Severity())
	assert.Less(t, RiskPotentialDuplicate.Severity(), RiskDuplicate.Severity())

	assert.False(t, RiskLow.BlocksAutoApproval())
	assert.True(t, RiskPotentialDuplicate.BlocksAutoApproval())
	assert.True(t, RiskDuplicate.BlocksAutoApproval())
}

func TestSettings(t *testing.T) {
	s := DefaultSettings()
	require.NoError(t, s.Validate())
	assert.Equal(t, 5*time.Minute, s.PollInterval())

	s.RealtimeMode = true
	assert.Equal(t, 30*time.Second, s.PollInterval())

	s.DefaultCurrency = "shekel"
	assert.ErrorIs(t, s.Validate(), common.ErrValidation)
}

func TestBoardConfig(t *testing.T) {
	cfg := BoardConfig{
		Enabled:       true,
		APIToken:      "secret",
		BoardID:       "42",
		ColumnMapping: map[string]string{"amount": "numbers"},
	}
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Ready())
	assert.Equal(t, "********", cfg.Masked().APIToken)
	assert.Equal(t, "secret", cfg.APIToken)

	cfg.ColumnMapping["favorite_color"] = "text"
	assert.ErrorIs(t, cfg.Validate(), common.ErrConfig)
}

func TestNormalizeReference(t *testing.T) {
	assert.Equal(t, "AB12CD", NormalizeReference(" ab12 cd "))
	assert.Equal(t, "dana cohen", NormalizeSender("  Dana   COHEN "))
}

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{" usd ", "USD", true},
		{"ILS", "ILS", true},
		{"us", "US", false},
		{"U$D", "U$D", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeCurrency(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}
