package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
	"github.com/Veraticus/wallet-topups/internal/service"
)

// Helper function to create test storage.
func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

func newTopUp(id string, amount int64, ref string) *model.TopUp {
	return &model.TopUp{
		ID:            id,
		Amount:        decimal.NewFromInt(amount),
		Currency:      "ILS",
		SenderName:    "Dana Cohen",
		BankReference: ref,
		Source:        model.SourceGmail,
		Status:        model.StatusPending,
		RiskLevel:     model.RiskClear,
		MessageID:     "msg-" + id,
		ReceivedAt:    time.Now().Add(-time.Hour),
		AIParsedData: model.ParsedData{
			Method:     model.ParseRegex,
			Confidence: 0.9,
			Fields:     map[string]string{"amount": fmt.Sprint(amount)},
		},
	}
}

func saveTopUp(t *testing.T, s *SQLiteStorage, topUp *model.TopUp) {
	t.Helper()
	require.NoError(t, s.SaveIntake(context.Background(), &service.Intake{TopUp: topUp}))
}

func TestSQLiteStorage_Migrations(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))

	for _, table := range []string{"pending_topups", "rule_config", "settings", "processing_log",
		"wallets", "wallet_credits", "board_config", "board_items"} {
		var count int
		err := store.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s", table)
	}
}

func TestSQLiteStorage_SaveAndGetTopUp(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	topUp := newTopUp("t1", 150, "REF-1")
	topUp.RiskMatches = []string{"t0"}
	saveTopUp(t, store, topUp)

	got, err := store.GetTopUp(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(150).Equal(got.Amount))
	assert.Equal(t, "REF-1", got.BankReference)
	assert.Equal(t, model.StatusPending, got.Status)
	assert.Equal(t, []string{"t0"}, got.RiskMatches)
	assert.Equal(t, model.ParseRegex, got.AIParsedData.Method)
	assert.Equal(t, "150", got.AIParsedData.Fields["amount"])
	assert.Nil(t, got.ReviewedAt)
	assert.False(t, got.Credited)

	_, err = store.GetTopUp(ctx, "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStorage_SaveIntakeIsAtomic(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	entry := &model.ProcessingLogEntry{
		ID:        "log-1",
		MessageID: "msg-1",
		Outcome:   model.OutcomeCreatedPending,
		TopUpID:   "t1",
	}
	require.NoError(t, store.SaveIntake(ctx, &service.Intake{TopUp: newTopUp("t1", 10, ""), Log: entry}))

	// Same message id violates the unique constraint; the top-up must not be stored either.
	dup := *entry
	dup.ID = "log-2"
	err := store.SaveIntake(ctx, &service.Intake{TopUp: newTopUp("t2", 10, ""), Log: &dup})
	require.Error(t, err)

	_, err = store.GetTopUp(ctx, "t2")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStorage_SaveIntakeAutoApproval(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	approval := &model.Resolution{Status: model.StatusApproved, ReviewedBy: "system:auto-approve"}

	topUp := newTopUp("t1", 40, "")
	topUp.TargetUserID = "user-1"
	entry := &model.ProcessingLogEntry{ID: "log-1", MessageID: "msg-1", Outcome: model.OutcomeAutoApproved, TopUpID: "t1"}
	require.NoError(t, store.SaveIntake(ctx, &service.Intake{TopUp: topUp, Log: entry, AutoApproval: approval}))
	assert.Equal(t, model.StatusApproved, topUp.Status, "the caller's copy reflects the resolution")
	assert.True(t, topUp.Credited)

	stored, err := store.GetTopUp(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, stored.Status)
	wallet, err := store.GetWallet(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "40", wallet.Balance.String())

	// A failing log insert rolls back the approval and the credit with it.
	second := newTopUp("t2", 60, "")
	second.TargetUserID = "user-1"
	dup := *entry
	dup.ID = "log-2"
	dup.TopUpID = "t2"
	err = store.SaveIntake(ctx, &service.Intake{TopUp: second, Log: &dup, AutoApproval: approval})
	require.Error(t, err)

	_, err = store.GetTopUp(ctx, "t2")
	assert.ErrorIs(t, err, common.ErrNotFound)
	wallet, err = store.GetWallet(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "40", wallet.Balance.String())

	err = store.SaveIntake(ctx, &service.Intake{Log: &model.ProcessingLogEntry{ID: "log-3", MessageID: "msg-3", Outcome: model.OutcomeAutoApproved}, AutoApproval: approval})
	assert.ErrorIs(t, err, ErrNilParameter)
}

func TestSQLiteStorage_RiskUpgrade(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	saveTopUp(t, store, newTopUp("pending", 50, "ABC"))
	saveTopUp(t, store, newTopUp("approved", 50, "ABC"))
	_, err := store.ResolveTopUp(ctx, "approved", model.Resolution{Status: model.StatusApproved, ReviewedBy: "admin"})
	require.NoError(t, err)

	incoming := newTopUp("new", 50, "abc")
	incoming.RiskLevel = model.RiskDuplicate
	err = store.SaveIntake(ctx, &service.Intake{
		TopUp: incoming,
		Upgrades: []service.RiskUpgrade{
			{TopUpID: "pending", Level: model.RiskDuplicate, MatchID: "new"},
			{TopUpID: "approved", Level: model.RiskDuplicate, MatchID: "new"},
			{TopUpID: "ghost", Level: model.RiskDuplicate, MatchID: "new"},
		},
	})
	require.NoError(t, err)

	pending, err := store.GetTopUp(ctx, "pending")
	require.NoError(t, err)
	assert.Equal(t, model.RiskDuplicate, pending.RiskLevel)
	assert.Equal(t, []string{"new"}, pending.RiskMatches)

	approved, err := store.GetTopUp(ctx, "approved")
	require.NoError(t, err)
	assert.Equal(t, model.RiskClear, approved.RiskLevel, "resolved entries are immutable")

	// A lower level never downgrades.
	require.NoError(t, store.SaveIntake(ctx, &service.Intake{
		Upgrades: []service.RiskUpgrade{{TopUpID: "pending", Level: model.RiskLow, MatchID: "other"}},
	}))
	pending, err = store.GetTopUp(ctx, "pending")
	require.NoError(t, err)
	assert.Equal(t, model.RiskDuplicate, pending.RiskLevel)
}

func TestSQLiteStorage_ListTopUps(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		topUp := newTopUp(fmt.Sprintf("t%d", i), int64(i*10), "")
		topUp.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		saveTopUp(t, store, topUp)
	}
	_, err := store.ResolveTopUp(ctx, "t2", model.Resolution{Status: model.StatusRejected, ReviewedBy: "admin", RejectReason: "spam"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		filter  model.TopUpFilter
		wantIDs []string
		wantErr bool
	}{
		{name: "all newest first", filter: model.TopUpFilter{}, wantIDs: []string{"t5", "t4", "t3", "t2", "t1"}},
		{name: "pending only", filter: model.TopUpFilter{Status: model.StatusPending}, wantIDs: []string{"t5", "t4", "t3", "t1"}},
		{name: "rejected only", filter: model.TopUpFilter{Status: model.StatusRejected}, wantIDs: []string{"t2"}},
		{name: "paged", filter: model.TopUpFilter{Limit: 2, Offset: 1}, wantIDs: []string{"t4", "t3"}},
		{name: "offset without limit", filter: model.TopUpFilter{Offset: 3}, wantIDs: []string{"t2", "t1"}},
		{name: "bad status", filter: model.TopUpFilter{Status: "lost"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListTopUps(ctx, tt.filter)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, topUp := range got {
				ids = append(ids, topUp.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestSQLiteStorage_GetRecentTopUps(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	old := newTopUp("old", 10, "")
	old.ReceivedAt = time.Now().Add(-40 * 24 * time.Hour)
	saveTopUp(t, store, old)
	saveTopUp(t, store, newTopUp("recent", 10, ""))
	saveTopUp(t, store, newTopUp("rejected", 10, ""))
	_, err := store.ResolveTopUp(ctx, "rejected", model.Resolution{Status: model.StatusRejected, ReviewedBy: "admin", RejectReason: "no"})
	require.NoError(t, err)

	got, err := store.GetRecentTopUps(ctx, time.Now().Add(-30*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "recent", got[0].ID)
}

func TestSQLiteStorage_ReferenceExists(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	saveTopUp(t, store, newTopUp("t1", 10, "fit 123"))

	exists, err := store.ReferenceExists(ctx, "FIT123")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.ReferenceExists(ctx, "FIT999")
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = store.ReferenceExists(ctx, "  ")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSQLiteStorage_ApproveCreditsOnce(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	saveTopUp(t, store, newTopUp("t1", 75, "R1"))

	approved, err := store.ResolveTopUp(ctx, "t1", model.Resolution{
		Status:       model.StatusApproved,
		ReviewedBy:   "admin",
		TargetUserID: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)
	assert.True(t, approved.Credited)
	assert.Equal(t, "admin", approved.ReviewedBy)
	assert.Equal(t, "user-1", approved.TargetUserID)
	require.NotNil(t, approved.ReviewedAt)

	_, err = store.ResolveTopUp(ctx, "t1", model.Resolution{
		Status:       model.StatusApproved,
		ReviewedBy:   "admin",
		TargetUserID: "user-1",
	})
	assert.ErrorIs(t, err, common.ErrAlreadyResolved)

	_, err = store.ResolveTopUp(ctx, "t1", model.Resolution{
		Status:       model.StatusRejected,
		ReviewedBy:   "admin",
		RejectReason: "changed my mind",
	})
	assert.ErrorIs(t, err, common.ErrAlreadyResolved)

	wallet, err := store.GetWallet(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(75).Equal(wallet.Balance), "balance %s", wallet.Balance)

	credits, err := store.GetWalletCredits(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, "t1", credits[0].TopUpID)
}

func TestSQLiteStorage_ApproveWithoutTarget(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	saveTopUp(t, store, newTopUp("t1", 40, ""))

	approved, err := store.ResolveTopUp(ctx, "t1", model.Resolution{Status: model.StatusApproved, ReviewedBy: "admin"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)
	assert.False(t, approved.Credited)

	var credits int
	require.NoError(t, store.db.QueryRow(`SELECT COUNT(*) FROM wallet_credits`).Scan(&credits))
	assert.Zero(t, credits)
}

func TestSQLiteStorage_ApproveUsesStoredTarget(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	topUp := newTopUp("t1", 20, "")
	topUp.Source = model.SourceManual
	topUp.TargetUserID = "user-9"
	saveTopUp(t, store, topUp)

	approved, err := store.ResolveTopUp(ctx, "t1", model.Resolution{Status: model.StatusApproved, ReviewedBy: "admin"})
	require.NoError(t, err)
	assert.True(t, approved.Credited)

	wallet, err := store.GetWallet(ctx, "user-9")
	require.NoError(t, err)
	assert.Equal(t, "20", wallet.Balance.String())
}

func TestSQLiteStorage_BalanceAccumulates(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	amounts := []string{"10.50", "0.25", "100"}
	for i, a := range amounts {
		topUp := newTopUp(fmt.Sprintf("t%d", i), 1, "")
		topUp.Amount = decimal.RequireFromString(a)
		saveTopUp(t, store, topUp)
		_, err := store.ResolveTopUp(ctx, topUp.ID, model.Resolution{
			Status: model.StatusApproved, ReviewedBy: "admin", TargetUserID: "u",
		})
		require.NoError(t, err)
	}

	wallet, err := store.GetWallet(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "110.75", wallet.Balance.StringFixed(2))
}

func TestSQLiteStorage_RejectAndNotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	saveTopUp(t, store, newTopUp("t1", 40, ""))

	_, err := store.ResolveTopUp(ctx, "t1", model.Resolution{Status: model.StatusRejected, ReviewedBy: "admin"})
	assert.ErrorIs(t, err, common.ErrValidation)

	rejected, err := store.ResolveTopUp(ctx, "t1", model.Resolution{
		Status: model.StatusRejected, ReviewedBy: "admin", RejectReason: " not ours ", TargetUserID: "u",
	})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, rejected.Status)
	assert.Equal(t, "not ours", rejected.RejectReason)
	assert.False(t, rejected.Credited)

	wallet, err := store.GetWallet(ctx, "u")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.IsZero())

	_, err = store.ResolveTopUp(ctx, "nope", model.Resolution{Status: model.StatusApproved, ReviewedBy: "admin"})
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSQLiteStorage_ConcurrentApprove(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	saveTopUp(t, store, newTopUp("t1", 30, ""))

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := store.ResolveTopUp(ctx, "t1", model.Resolution{
				Status: model.StatusApproved, ReviewedBy: fmt.Sprintf("admin-%d", n), TargetUserID: "u",
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case common.ErrorKind(err) == common.KindAlreadyResolved:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)

	wallet, err := store.GetWallet(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "30", wallet.Balance.String())
}

func TestSQLiteStorage_Stats(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	saveTopUp(t, store, newTopUp("a", 100, ""))
	saveTopUp(t, store, newTopUp("b", 50, ""))
	risky := newTopUp("c", 25, "")
	risky.RiskLevel = model.RiskDuplicate
	saveTopUp(t, store, risky)

	_, err := store.ResolveTopUp(ctx, "a", model.Resolution{Status: model.StatusApproved, ReviewedBy: "x", TargetUserID: "u"})
	require.NoError(t, err)
	_, err = store.ResolveTopUp(ctx, "b", model.Resolution{Status: model.StatusApproved, ReviewedBy: "x"})
	require.NoError(t, err)

	stats, err := store.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 2, stats.Approved)
	assert.Equal(t, 0, stats.Rejected)
	assert.Equal(t, 2, stats.ByRisk[model.RiskClear])
	assert.Equal(t, 1, stats.ByRisk[model.RiskDuplicate])
	assert.Equal(t, "150", stats.TotalApprovedAmount.String())
	assert.Equal(t, "100", stats.TotalCreditedAmount.String())
}

func TestSQLiteStorage_ProcessingLog(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	outcomes := []model.Outcome{
		model.OutcomeSkippedNotTransaction,
		model.OutcomeRejectedByRules,
		model.OutcomeSkippedNotTransaction,
	}
	for i, outcome := range outcomes {
		require.NoError(t, store.SaveIntake(ctx, &service.Intake{Log: &model.ProcessingLogEntry{
			ID:             fmt.Sprintf("log-%d", i),
			MessageID:      fmt.Sprintf("msg-%d", i),
			Subject:        "hello",
			Outcome:        outcome,
			ParsedSnapshot: map[string]string{"amount": "10"},
			ProcessedAt:    time.Now().Add(time.Duration(i) * time.Second),
		}}))
	}

	processed, err := store.IsMessageProcessed(ctx, "msg-1")
	require.NoError(t, err)
	assert.True(t, processed)

	processed, err = store.IsMessageProcessed(ctx, "msg-99")
	require.NoError(t, err)
	assert.False(t, processed)

	all, err := store.ListProcessingLog(ctx, model.LogFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "msg-2", all[0].MessageID)
	assert.Equal(t, "10", all[0].ParsedSnapshot["amount"])

	skipped, err := store.ListProcessingLog(ctx, model.LogFilter{Outcome: model.OutcomeSkippedNotTransaction, Limit: 1})
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, model.OutcomeSkippedNotTransaction, skipped[0].Outcome)

	err = store.SaveIntake(ctx, &service.Intake{Log: &model.ProcessingLogEntry{ID: "x", MessageID: "y", Outcome: "exploded"}})
	assert.ErrorIs(t, err, ErrInvalidLog)
}

func TestSQLiteStorage_RuleConfig(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	cfg, err := store.GetRuleConfig(ctx)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.Empty(t, cfg.SenderWhitelist)

	cfg.Enabled = true
	cfg.SenderWhitelist = []string{"alerts@bank.com", " ALERTS@bank.com "}
	cfg.MaxThreshold = decimal.NewFromInt(1000)
	cfg.AutoApproveThreshold = decimal.RequireFromString("99.99")
	require.NoError(t, store.SaveRuleConfig(ctx, cfg))

	got, err := store.GetRuleConfig(ctx)
	require.NoError(t, err)
	assert.True(t, got.Enabled)
	assert.Equal(t, []string{"alerts@bank.com"}, got.SenderWhitelist)
	assert.Equal(t, "99.99", got.AutoApproveThreshold.String())
	assert.False(t, got.UpdatedAt.IsZero())

	bad := *got
	bad.AutoApproveThreshold = decimal.NewFromInt(5000)
	assert.ErrorIs(t, store.SaveRuleConfig(ctx, &bad), common.ErrConfig)

	blank := *got
	blank.MustContainKeywords = []string{"  "}
	assert.ErrorIs(t, store.SaveRuleConfig(ctx, &blank), common.ErrConfig, "a blank keyword must not silently clear the filter")

	unchanged, err := store.GetRuleConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "99.99", unchanged.AutoApproveThreshold.String())
	assert.Empty(t, unchanged.MustContainKeywords)
}

func TestSQLiteStorage_Settings(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	settings, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), *settings)

	settings.PollingEnabled = true
	settings.GmailQuery = "from:alerts@bank.com"
	require.NoError(t, store.SaveSettings(ctx, settings))

	got, err := store.GetSettings(ctx)
	require.NoError(t, err)
	assert.True(t, got.PollingEnabled)
	assert.Equal(t, "from:alerts@bank.com", got.GmailQuery)

	got.PollIntervalSeconds = 1
	assert.ErrorIs(t, store.SaveSettings(ctx, got), common.ErrValidation)
}

func TestSQLiteStorage_BoardConfigAndItems(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	cfg, err := store.GetBoardConfig(ctx)
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
	assert.NotNil(t, cfg.ColumnMapping)

	require.NoError(t, store.SaveBoardConfig(ctx, &model.BoardConfig{
		Enabled:       true,
		APIToken:      "tok",
		BoardID:       "123",
		ColumnMapping: map[string]string{"amount": "numbers"},
	}))
	cfg, err = store.GetBoardConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", cfg.APIToken)
	assert.Equal(t, "numbers", cfg.ColumnMapping["amount"])

	assert.ErrorIs(t, store.SaveBoardConfig(ctx, &model.BoardConfig{Enabled: true}), common.ErrConfig)

	itemID, err := store.GetBoardItemID(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, itemID)

	require.NoError(t, store.SaveBoardItemID(ctx, "t1", "item-9"))
	itemID, err = store.GetBoardItemID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "item-9", itemID)
}

func TestSQLiteStorage_WalletValidation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	_, err := store.GetWallet(ctx, " ")
	assert.ErrorIs(t, err, common.ErrValidation)

	wallet, err := store.GetWallet(ctx, "nobody")
	require.NoError(t, err)
	assert.True(t, wallet.Balance.IsZero())
}
