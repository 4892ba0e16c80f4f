package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/wallet-topups/internal/cli"
	"github.com/Veraticus/wallet-topups/internal/config"
	"github.com/Veraticus/wallet-topups/internal/storage"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

An existing database is snapshotted before it is upgraded; see
'topups backup list'.`,
		RunE: runMigrate,
	}

	cmd.Flags().Bool("status", false, "Show current migration status without applying changes")
	cmd.Flags().Bool("no-backup", false, "Skip the snapshot taken before upgrading")

	return cmd
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	status, _ := cmd.Flags().GetBool("status")
	noBackup, _ := cmd.Flags().GetBool("no-backup")

	dbPath := config.DatabasePath(viper.GetViper())
	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	current, err := store.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	if status {
		cli.PrintInfo(out, "Database: %s", dbPath)
		cli.PrintInfo(out, "Schema version %d of %d", current, storage.ExpectedSchemaVersion)
		if current < storage.ExpectedSchemaVersion {
			cli.PrintWarning(out, "%d migrations pending", storage.ExpectedSchemaVersion-current)
		}
		return nil
	}

	if current >= storage.ExpectedSchemaVersion {
		cli.PrintSuccess(out, "Database is up to date (version %d)", current)
		return nil
	}

	if current > 0 && !noBackup {
		bm, err := store.NewBackupManager()
		if err != nil {
			return err
		}
		info, err := bm.AutoBackup(ctx, "pre-migrate")
		if err != nil {
			return fmt.Errorf("failed to back up before migrating: %w", err)
		}
		cli.PrintInfo(out, "Saved snapshot %s", info.ID)
	}

	slog.Info("Running database migrations", "database", dbPath, "from", current, "to", storage.ExpectedSchemaVersion)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	cli.PrintSuccess(out, "Database migrated to version %d", storage.ExpectedSchemaVersion)
	return nil
}
