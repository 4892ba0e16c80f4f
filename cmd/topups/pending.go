package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/wallet-topups/internal/cli"
	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
)

func pendingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pending",
		Aliases: []string{"queue"},
		Short:   "Inspect and resolve the pending top-up queue",
	}

	cmd.AddCommand(pendingListCmd())
	cmd.AddCommand(pendingShowCmd())
	cmd.AddCommand(pendingAddCmd())
	cmd.AddCommand(pendingApproveCmd())
	cmd.AddCommand(pendingRejectCmd())
	cmd.AddCommand(statsCmd())

	return cmd
}

func pendingListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List top-ups",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			status, _ := cmd.Flags().GetString("status")
			limit, _ := cmd.Flags().GetInt("limit")
			since, _ := cmd.Flags().GetDuration("since")

			a, err := buildApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			filter := model.TopUpFilter{Status: model.TopUpStatus(status), Limit: limit}
			if since > 0 {
				from := time.Now().Add(-since)
				filter.Since = &from
			}
			topUps, err := a.engine.ListTopUps(ctx, filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(topUps) == 0 {
				cli.PrintInfo(out, "No %s top-ups", status)
				return nil
			}
			_, _ = fmt.Fprintln(out, cli.TopUpTable(topUps))
			return nil
		},
	}

	cmd.Flags().String("status", string(model.StatusPending), "status to list (pending, approved, rejected; empty for all)")
	cmd.Flags().Int("limit", 50, "maximum rows")
	cmd.Flags().Duration("since", 0, "only entries created within this window (e.g. 72h)")

	return cmd
}

func pendingShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show one top-up in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.engine.GetTopUp(ctx, args[0])
			if err != nil {
				return err
			}
			printTopUp(cmd.OutOrStdout(), t)
			return nil
		},
	}
}

func pendingAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add AMOUNT",
		Short: "Add a manual top-up to the queue",
		Long: `Add a top-up that arrived outside the mailbox, for example a transfer the
bank did not send an alert for. Manual entries go through the same
duplicate checks as mailbox entries.`,
		Example: `  topups pending add 150 --sender "Dana Cohen" --reference AB1234`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			amount, err := decimal.NewFromString(args[0])
			if err != nil {
				return common.NewUserError(
					fmt.Sprintf("%q is not a valid amount", args[0]),
					common.Validationf("amount %q is not a number", args[0]),
				)
			}

			in := model.ManualTopUp{Amount: amount}
			in.Currency, _ = cmd.Flags().GetString("currency")
			in.SenderName, _ = cmd.Flags().GetString("sender")
			in.BankReference, _ = cmd.Flags().GetString("reference")
			in.TargetUserID, _ = cmd.Flags().GetString("user")
			in.Notes, _ = cmd.Flags().GetString("notes")

			a, err := buildApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.engine.CreateManual(ctx, in, adminName())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			cli.PrintSuccess(out, "Top-up %s added to the pending queue", cli.ShortID(t.ID))
			if t.RiskLevel != model.RiskClear {
				cli.PrintWarning(out, "Flagged %s", t.RiskLevel)
			}
			return nil
		},
	}

	cmd.Flags().String("currency", "", "currency code (default from settings)")
	cmd.Flags().String("sender", "", "who sent the money")
	cmd.Flags().String("reference", "", "bank reference")
	cmd.Flags().String("user", "", "wallet to credit on approval")
	cmd.Flags().String("notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("sender")

	return cmd
}

func pendingApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve ID",
		Short: "Approve a pending top-up and credit the target wallet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			target, _ := cmd.Flags().GetString("user")
			yes, _ := cmd.Flags().GetBool("yes")
			out := cmd.OutOrStdout()

			a, err := buildApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.engine.GetTopUp(ctx, args[0])
			if err != nil {
				return err
			}
			printTopUp(out, t)

			if !yes {
				question := "Approve without crediting a wallet?"
				if target != "" || t.TargetUserID != "" {
					question = "Approve and credit the wallet?"
				}
				ok, err := cli.NewPrompter(cmd.InOrStdin(), out).Confirm(ctx, question)
				if err != nil {
					return err
				}
				if !ok {
					cli.PrintInfo(out, "Left pending")
					return nil
				}
			}

			approved, err := a.engine.Approve(ctx, t.ID, adminName(), target)
			if err != nil {
				return err
			}
			if approved.Credited {
				cli.PrintSuccess(out, "Approved and credited %s to %s", cli.FormatAmount(*approved), approved.TargetUserID)
			} else {
				cli.PrintSuccess(out, "Approved %s (no wallet credited)", cli.FormatAmount(*approved))
			}
			return nil
		},
	}

	cmd.Flags().String("user", "", "wallet to credit (overrides the entry's target user)")
	cmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	return cmd
}

func pendingRejectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reject ID",
		Short: "Reject a pending top-up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			reason, _ := cmd.Flags().GetString("reason")

			a, err := buildApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			t, err := a.engine.Reject(ctx, args[0], adminName(), reason)
			if err != nil {
				return err
			}
			cli.PrintSuccess(cmd.OutOrStdout(), "Rejected %s from %s", cli.FormatAmount(*t), t.SenderName)
			return nil
		},
	}

	cmd.Flags().String("reason", "", "why the top-up was rejected")

	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show queue totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.engine.Stats(ctx)
			if err != nil {
				return err
			}

			rows := [][]cli.Cell{
				{cli.Plain("Pending"), cli.Plain(fmt.Sprint(stats.Pending))},
				{cli.Plain("Approved"), cli.Plain(fmt.Sprint(stats.Approved))},
				{cli.Plain("Rejected"), cli.Plain(fmt.Sprint(stats.Rejected))},
				{cli.Plain("Total"), cli.Plain(fmt.Sprint(stats.Total))},
				{cli.Plain("Approved amount"), cli.Plain(stats.TotalApprovedAmount.StringFixed(2))},
				{cli.Plain("Credited amount"), cli.Plain(stats.TotalCreditedAmount.StringFixed(2))},
			}
			for _, level := range []model.RiskLevel{model.RiskClear, model.RiskLow, model.RiskPotentialDuplicate, model.RiskDuplicate} {
				rows = append(rows, []cli.Cell{
					cli.Styled(string(level), cli.RiskStyle(level)),
					cli.Plain(fmt.Sprint(stats.ByRisk[level])),
				})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), cli.RenderTable([]string{"", "Value"}, rows))
			return nil
		},
	}
}

func printTopUp(w io.Writer, t *model.TopUp) {
	lines := []string{
		fmt.Sprintf("ID:        %s", t.ID),
		fmt.Sprintf("Amount:    %s", cli.FormatAmount(*t)),
		fmt.Sprintf("Sender:    %s", t.SenderName),
		fmt.Sprintf("Reference: %s", t.BankReference),
		fmt.Sprintf("Status:    %s", cli.StatusStyle(t.Status).Render(string(t.Status))),
		fmt.Sprintf("Risk:      %s", cli.RiskStyle(t.RiskLevel).Render(string(t.RiskLevel))),
		fmt.Sprintf("Source:    %s (%s, %.0f%%)", t.Source, t.AIParsedData.Method, t.AIParsedData.Confidence*100),
		fmt.Sprintf("Received:  %s", t.EffectiveTime().Local().Format(time.RFC1123)),
	}
	if t.TargetUserID != "" {
		lines = append(lines, fmt.Sprintf("Wallet:    %s", t.TargetUserID))
	}
	if t.EmailSubject != "" {
		lines = append(lines, fmt.Sprintf("Subject:   %s", t.EmailSubject))
	}
	if t.ReviewedBy != "" {
		lines = append(lines, fmt.Sprintf("Reviewed:  %s", t.ReviewedBy))
	}
	if t.RejectReason != "" {
		lines = append(lines, fmt.Sprintf("Reason:    %s", t.RejectReason))
	}

	_, _ = fmt.Fprintln(w, cli.RenderBox("Top-up", strings.Join(lines, "\n")))
}
