package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/wallet-topups/internal/model"
)

func TestSetupTestDBWithOptions(t *testing.T) {
	settings := model.DefaultSettings()
	settings.PollingEnabled = true

	db := SetupTestDBWithOptions(t, TestDBOptions{
		Rules:    BankRules(),
		Settings: &settings,
		TopUps: []*model.TopUp{
			NewTopUp().WithID("a").WithAmount("12.50").WithReference("R1").Build(),
			NewTopUp().WithID("b").Manual().WithTarget("u1").ReceivedAgo(48 * time.Hour).Build(),
		},
	})
	ctx := context.Background()

	rules, err := db.Storage.GetRuleConfig(ctx)
	require.NoError(t, err)
	assert.True(t, rules.Enabled)

	got, err := db.Storage.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, got.PollingEnabled)

	a := db.MustGetTopUp("a")
	assert.Equal(t, "12.5", a.Amount.String())
	assert.Equal(t, "R1", a.BankReference)

	b := db.MustGetTopUp("b")
	assert.Equal(t, model.SourceManual, b.Source)
	assert.Equal(t, "u1", b.TargetUserID)
}

func TestTopUpBuilder_DefaultsAreUnique(t *testing.T) {
	first := NewTopUp().Build()
	second := NewTopUp().Build()
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, model.StatusPending, first.Status)
}
