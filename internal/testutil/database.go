// Package testutil provides shared test helpers: a migrated database and top-up fixtures.
package testutil

import (
	"context"
	"testing"

	"github.com/Veraticus/wallet-topups/internal/model"
	"github.com/Veraticus/wallet-topups/internal/service"
	"github.com/Veraticus/wallet-topups/internal/storage"
)

// TestDB represents a test database with associated test utilities.
type TestDB struct {
	Storage service.Storage
	t       *testing.T
}

// TestDBOptions provides configuration options for test database setup.
type TestDBOptions struct {
	CustomSetup func(context.Context, service.Storage) error
	Rules       *model.RuleConfig
	Settings    *model.Settings
	TopUps      []*model.TopUp
}

// SetupTestDB creates a new in-memory, migrated test database.
//
// Example:
//
//	db := testutil.SetupTestDB(t)
//	db.SeedTopUps(testutil.NewTopUp().WithAmount("50").Build())
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	return SetupTestDBWithOptions(t, TestDBOptions{})
}

// SetupTestDBWithOptions creates a test database with custom options.
func SetupTestDBWithOptions(t *testing.T, opts TestDBOptions) *TestDB {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	ctx := context.Background()

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	db := &TestDB{Storage: store, t: t}

	if opts.Rules != nil {
		if err := store.SaveRuleConfig(ctx, opts.Rules); err != nil {
			t.Fatalf("failed to seed rules: %v", err)
		}
	}
	if opts.Settings != nil {
		if err := store.SaveSettings(ctx, opts.Settings); err != nil {
			t.Fatalf("failed to seed settings: %v", err)
		}
	}
	db.SeedTopUps(opts.TopUps...)

	if opts.CustomSetup != nil {
		if err := opts.CustomSetup(ctx, store); err != nil {
			t.Fatalf("custom setup failed: %v", err)
		}
	}

	return db
}

// SeedTopUps stores pending top-ups or fails the test.
func (db *TestDB) SeedTopUps(topUps ...*model.TopUp) {
	db.t.Helper()
	for _, topUp := range topUps {
		if err := db.Storage.SaveIntake(context.Background(), &service.Intake{TopUp: topUp}); err != nil {
			db.t.Fatalf("failed to seed top-up %q: %v", topUp.ID, err)
		}
	}
}

// MustGetTopUp returns the stored top-up or fails the test.
func (db *TestDB) MustGetTopUp(id string) *model.TopUp {
	db.t.Helper()
	topUp, err := db.Storage.GetTopUp(context.Background(), id)
	if err != nil {
		db.t.Fatalf("failed to get top-up %q: %v", id, err)
	}
	return topUp
}
