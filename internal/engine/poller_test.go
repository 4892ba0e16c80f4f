package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
	"github.com/Veraticus/wallet-topups/internal/testutil"
)

func TestPoller_ScansWhenEnabled(t *testing.T) {
	settings := model.DefaultSettings()
	settings.PollingEnabled = true
	h := newHarness(t, testutil.TestDBOptions{Settings: &settings})
	h.source.Add(bankEmail("m1", "You received ₪150 from Dana Cohen"))

	p := NewPoller(h.engine, common.DiscardLogger())
	p.interval = func(model.Settings) time.Duration { return 5 * time.Millisecond }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool {
		stats, err := h.engine.Stats(context.Background())
		return err == nil && stats.Pending == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestPoller_IdleWhenDisabled(t *testing.T) {
	h := newHarness(t, testutil.TestDBOptions{})
	p := NewPoller(h.engine, common.DiscardLogger())
	p.idle = time.Millisecond
	p.interval = func(model.Settings) time.Duration { return time.Millisecond }

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx))

	assert.Empty(t, h.source.Queries, "disabled polling never lists messages")
}

func TestPoller_NextUsesSettings(t *testing.T) {
	settings := model.DefaultSettings()
	settings.PollingEnabled = true
	settings.RealtimeMode = true
	h := newHarness(t, testutil.TestDBOptions{Settings: &settings})

	p := NewPoller(h.engine, common.DiscardLogger())
	assert.Equal(t, 30*time.Second, p.next(context.Background()))
}
