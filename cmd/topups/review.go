package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/wallet-topups/internal/cli"
	"github.com/Veraticus/wallet-topups/internal/tui"
	"github.com/Veraticus/wallet-topups/internal/tui/themes"
)

func reviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review the pending queue interactively",
		Long: `Open a full-screen table of pending top-ups.

Keys: a approve, r reject with a reason, u set the wallet to credit,
R reload, ? help, q quit.`,
		RunE: runReview,
	}

	cmd.Flags().String("theme", "", "color theme (default, catppuccin)")
	cmd.Flags().Int("limit", 200, "maximum entries to load")
	cmd.Flags().Bool("inline", false, "render without the alternate screen")
	_ = viper.BindPFlag("tui.theme", cmd.Flags().Lookup("theme"))

	return cmd
}

func runReview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")
	inline, _ := cmd.Flags().GetBool("inline")

	a, err := buildApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	opts := []tui.Option{
		tui.WithAdmin(adminName()),
		tui.WithPageSize(limit),
		tui.WithTheme(themes.ByName(viper.GetString("tui.theme"))),
	}
	if inline {
		opts = append(opts, tui.WithInline())
	}

	final, err := tui.Run(ctx, a.engine, opts...)
	if err != nil {
		return err
	}

	approved, rejected := final.Counts()
	cli.PrintInfo(cmd.OutOrStdout(), "Reviewed %d top-ups: %d approved, %d rejected", approved+rejected, approved, rejected)
	return nil
}
