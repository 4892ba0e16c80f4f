package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/wallet-topups/internal/cli"
	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
)

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Show or change the ingestion rules",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			rules, err := a.engine.Rules(ctx)
			if err != nil {
				return err
			}
			printRules(cmd.OutOrStdout(), rules)
			return nil
		},
	})
	cmd.AddCommand(rulesSetCmd())

	return cmd
}

func rulesSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update the rules; only the flags given are changed",
		Example: `  topups rules set --enabled --whitelist alerts@bank.com,@mybank.co.il \
    --require "transfer received" --max 5000 --auto-approve 100`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			rules, err := a.engine.Rules(ctx)
			if err != nil {
				return err
			}
			if err := applyRuleFlags(cmd, rules); err != nil {
				return err
			}

			saved, err := a.engine.SaveRules(ctx, rules)
			if err != nil {
				return err
			}
			cli.PrintSuccess(cmd.OutOrStdout(), "Rules saved")
			printRules(cmd.OutOrStdout(), saved)
			return nil
		},
	}

	cmd.Flags().Bool("enabled", false, "turn rule checks on or off")
	cmd.Flags().StringSlice("whitelist", nil, "allowed sender addresses or @domains")
	cmd.Flags().StringSlice("require", nil, "keywords that must appear")
	cmd.Flags().StringSlice("forbid", nil, "keywords that must not appear")
	cmd.Flags().String("max", "", "reject amounts above this (0 disables)")
	cmd.Flags().String("auto-approve", "", "auto-approve amounts at or below this (0 disables)")

	return cmd
}

// applyRuleFlags copies the flags the user actually set onto rules.
func applyRuleFlags(cmd *cobra.Command, rules *model.RuleConfig) error {
	flags := cmd.Flags()
	if flags.Changed("enabled") {
		rules.Enabled, _ = flags.GetBool("enabled")
	}
	if flags.Changed("whitelist") {
		rules.SenderWhitelist, _ = flags.GetStringSlice("whitelist")
	}
	if flags.Changed("require") {
		rules.MustContainKeywords, _ = flags.GetStringSlice("require")
	}
	if flags.Changed("forbid") {
		rules.MustNotContainKeywords, _ = flags.GetStringSlice("forbid")
	}
	for name, dst := range map[string]*decimal.Decimal{
		"max":          &rules.MaxThreshold,
		"auto-approve": &rules.AutoApproveThreshold,
	} {
		if !flags.Changed(name) {
			continue
		}
		raw, _ := flags.GetString(name)
		value, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return common.Validationf("--%s %q is not a number", name, raw)
		}
		*dst = value
	}
	return nil
}

func printRules(w io.Writer, r *model.RuleConfig) {
	state := cli.FormatWarning("disabled: every parsed payment is accepted")
	if r.Enabled {
		state = cli.FormatSuccess("enabled")
	}
	list := func(items []string) string {
		if len(items) == 0 {
			return "(any)"
		}
		return strings.Join(items, ", ")
	}
	limit := func(d decimal.Decimal) string {
		if d.IsZero() {
			return "(off)"
		}
		return d.StringFixed(2)
	}

	rows := [][]cli.Cell{
		{cli.Plain("Sender whitelist"), cli.Plain(list(r.SenderWhitelist))},
		{cli.Plain("Must contain"), cli.Plain(list(r.MustContainKeywords))},
		{cli.Plain("Must not contain"), cli.Plain(list(r.MustNotContainKeywords))},
		{cli.Plain("Max amount"), cli.Plain(limit(r.MaxThreshold))},
		{cli.Plain("Auto-approve up to"), cli.Plain(limit(r.AutoApproveThreshold))},
	}
	_, _ = fmt.Fprintln(w, state)
	_, _ = fmt.Fprintln(w, cli.RenderTable([]string{"Rule", "Value"}, rows))
}

func settingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change ingestion settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the current settings as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			settings, err := a.engine.Settings(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), settings)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set KEY=VALUE...",
		Short: "Change settings by their JSON names",
		Example: `  topups settings set polling_enabled=true poll_interval_seconds=120
  topups settings set gmail_query="from:alerts@bank.com newer_than:2d"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			settings, err := a.engine.Settings(ctx)
			if err != nil {
				return err
			}
			if err := applySettings(settings, args); err != nil {
				return err
			}
			saved, err := a.engine.SaveSettings(ctx, settings)
			if err != nil {
				return err
			}
			cli.PrintSuccess(cmd.OutOrStdout(), "Settings saved")
			return printJSON(cmd.OutOrStdout(), saved)
		},
	})

	return cmd
}

// applySettings merges KEY=VALUE pairs into settings through their JSON
// form, so keys match the admin API. Values that are not valid JSON are
// taken as strings.
func applySettings(settings *model.Settings, pairs []string) error {
	patch := make(map[string]json.RawMessage, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return common.Validationf("expected KEY=VALUE, got %q", pair)
		}
		raw := json.RawMessage(value)
		if !json.Valid(raw) {
			quoted, _ := json.Marshal(value)
			raw = quoted
		}
		patch[key] = raw
	}

	known := map[string]json.RawMessage{}
	current, _ := json.Marshal(settings)
	_ = json.Unmarshal(current, &known)
	for key := range patch {
		if _, ok := known[key]; !ok {
			return common.Validationf("unknown setting %q", key)
		}
	}

	body, _ := json.Marshal(patch)
	if err := json.Unmarshal(body, settings); err != nil {
		return common.Validationf("invalid setting value: %v", err)
	}
	return nil
}

func walletCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wallet USER_ID",
		Short: "Show a wallet balance and its credits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			wallet, credits, err := a.engine.Wallet(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			cli.PrintInfo(out, "%s %s balance: %s", cli.WalletIcon, wallet.UserID, wallet.Balance.StringFixed(2))
			if len(credits) == 0 {
				return nil
			}
			rows := make([][]cli.Cell, 0, len(credits))
			for _, c := range credits {
				rows = append(rows, []cli.Cell{
					cli.Plain(c.CreatedAt.Local().Format("2006-01-02 15:04")),
					cli.Plain(c.Amount.StringFixed(2)),
					cli.Plain(cli.ShortID(c.TopUpID)),
				})
			}
			_, _ = fmt.Fprintln(out, cli.RenderTable([]string{"Credited", "Amount", "Top-up"}, rows))
			return nil
		},
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
