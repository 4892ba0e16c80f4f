package monday

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
	"github.com/Veraticus/wallet-topups/internal/testutil"
)

func newTestSyncer(t *testing.T, board *MockBoardClient, cfg *model.BoardConfig) (*Syncer, *testutil.TestDB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	if cfg != nil {
		require.NoError(t, db.Storage.SaveBoardConfig(context.Background(), cfg))
	}

	syncer := NewSyncer(db.Storage, func(token string) BoardClient {
		assert.Equal(t, "token", token)
		return board
	}, common.DiscardLogger(), SyncerOptions{QueueSize: 2, RetryAttempts: 2, RetryDelay: time.Millisecond})
	return syncer, db
}

func readyConfig() *model.BoardConfig {
	return &model.BoardConfig{
		Enabled:  true,
		APIToken: "token",
		BoardID:  "42",
		GroupID:  "new",
		ColumnMapping: map[string]string{
			"amount": "numbers",
			"status": "status",
		},
	}
}

func TestSyncer_CreatesThenUpdates(t *testing.T) {
	board := &MockBoardClient{}
	syncer, db := newTestSyncer(t, board, readyConfig())
	ctx := context.Background()

	topUp := testutil.NewTopUp().WithAmount("25").Build()
	db.SeedTopUps(topUp)

	synced, err := syncer.Sync(ctx, *topUp)
	require.NoError(t, err)
	assert.True(t, synced)

	itemID, err := db.Storage.GetBoardItemID(ctx, topUp.ID)
	require.NoError(t, err)
	assert.Equal(t, "item-1", itemID)

	topUp.Status = model.StatusApproved
	synced, err = syncer.Sync(ctx, *topUp)
	require.NoError(t, err)
	assert.True(t, synced)

	created, updated := board.Counts()
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, updated)
	assert.Equal(t, "new", board.Created[0].GroupID)
	assert.Equal(t, "item-1", board.Updated[0].ItemID)
	assert.Equal(t, "approved", board.Updated[0].Values["status"])
	assert.Equal(t, "25.00", board.Updated[0].Values["numbers"])
}

func TestSyncer_SkipsWhenNotConfigured(t *testing.T) {
	board := &MockBoardClient{}
	syncer, _ := newTestSyncer(t, board, nil)

	synced, err := syncer.Sync(context.Background(), *testutil.NewTopUp().Build())
	require.NoError(t, err)
	assert.False(t, synced)

	created, updated := board.Counts()
	assert.Zero(t, created)
	assert.Zero(t, updated)
}

func TestSyncer_RetriesThenFails(t *testing.T) {
	attempts := 0
	board := &MockBoardClient{
		CreateFunc: func(string, string, string, map[string]any) (string, error) {
			attempts++
			return "", &common.RetryableError{Err: errors.New("502"), Retryable: true}
		},
	}
	syncer, db := newTestSyncer(t, board, readyConfig())
	topUp := testutil.NewTopUp().Build()
	db.SeedTopUps(topUp)

	_, err := syncer.Sync(context.Background(), *topUp)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExternalService)
	assert.Equal(t, 2, attempts)

	itemID, err := db.Storage.GetBoardItemID(context.Background(), topUp.ID)
	require.NoError(t, err)
	assert.Empty(t, itemID)
}

func TestSyncer_EnqueueDropsWhenFull(t *testing.T) {
	syncer, _ := newTestSyncer(t, &MockBoardClient{}, readyConfig())

	assert.True(t, syncer.Enqueue(model.TopUp{ID: "a"}))
	assert.True(t, syncer.Enqueue(model.TopUp{ID: "b"}))
	assert.False(t, syncer.Enqueue(model.TopUp{ID: "c"}))
	assert.Equal(t, int64(1), syncer.Stats().Dropped)
}

func TestSyncer_RunDrainsQueue(t *testing.T) {
	board := &MockBoardClient{}
	syncer, db := newTestSyncer(t, board, readyConfig())
	topUp := testutil.NewTopUp().Build()
	db.SeedTopUps(topUp)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- syncer.Run(ctx) }()

	require.True(t, syncer.Enqueue(*topUp))
	require.Eventually(t, func() bool {
		return syncer.Stats().Synced == 1
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestColumnValues(t *testing.T) {
	topUp := testutil.NewTopUp().WithAmount("1234.5").WithReference("AB12").Build()
	topUp.CreatedAt = time.Date(2024, 3, 9, 22, 0, 0, 0, time.UTC)

	values := ColumnValues(*topUp, map[string]string{
		"amount":         "numbers",
		"bank_reference": "text",
		"created_at":     "date",
		"unknown":        "ignored",
		"currency":       "",
	})

	assert.Equal(t, map[string]any{
		"numbers": "1234.50",
		"text":    "AB12",
		"date":    "2024-03-09",
	}, values)
	assert.Equal(t, "Dana Cohen 1234.50 ILS", ItemName(*topUp))
}
