package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/Veraticus/wallet-topups/internal/cli"
	"github.com/Veraticus/wallet-topups/internal/storage"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot and verify the database",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create [TAG]",
		Short: "Take a snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bm, closeStore, err := backupManager(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			tag := ""
			if len(args) == 1 {
				tag = args[0]
			}
			info, err := bm.Create(cmd.Context(), tag)
			if err != nil {
				return err
			}
			cli.PrintSuccess(cmd.OutOrStdout(), "Created backup %s (%s)", info.ID, humanize.Bytes(uint64(info.FileSize))) // #nosec G115
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bm, closeStore, err := backupManager(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			backups, err := bm.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				cli.PrintInfo(out, "No backups yet")
				return nil
			}
			rows := make([][]cli.Cell, 0, len(backups))
			for _, b := range backups {
				kind := "manual"
				if b.IsAuto {
					kind = "auto"
				}
				rows = append(rows, []cli.Cell{
					cli.Plain(b.ID),
					cli.Plain(humanize.Time(b.CreatedAt)),
					cli.Plain(humanize.Bytes(uint64(b.FileSize))), // #nosec G115
					cli.Plain(fmt.Sprint(b.SchemaVersion)),
					cli.Plain(fmt.Sprint(b.RowCounts["pending_topups"])),
					cli.Plain(kind),
				})
			}
			_, _ = fmt.Fprintln(out, cli.RenderTable([]string{"ID", "Created", "Size", "Schema", "Top-ups", "Kind"}, rows))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "verify ID",
		Short: "Run an integrity check on a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bm, closeStore, err := backupManager(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := bm.Verify(cmd.Context(), args[0]); err != nil {
				return err
			}
			cli.PrintSuccess(cmd.OutOrStdout(), "Backup %s is intact", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete ID",
		Short: "Remove a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bm, closeStore, err := backupManager(cmd)
			if err != nil {
				return err
			}
			defer closeStore()

			if err := bm.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			cli.PrintSuccess(cmd.OutOrStdout(), "Deleted backup %s", args[0])
			return nil
		},
	})

	return cmd
}

func backupManager(cmd *cobra.Command) (*storage.BackupManager, func(), error) {
	store, err := initStorage(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	bm, err := store.NewBackupManager()
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return bm, func() { _ = store.Close() }, nil
}
