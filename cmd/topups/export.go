package main

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/wallet-topups/internal/cli"
	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/config"
	"github.com/Veraticus/wallet-topups/internal/model"
	"github.com/Veraticus/wallet-topups/internal/sheets"
)

const dateLayout = "2006-01-02"

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export top-ups to Google Sheets",
		Long: `Write every top-up received in a date range to a Google Sheets report with
a summary by status, risk level and currency.

Examples:
  # Everything from this month
  topups export --month

  # A specific range
  topups export --from 2026-01-01 --to 2026-04-01`,
		RunE: runExport,
	}

	cmd.Flags().String("from", "", "first day to include (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "day after the last one to include (YYYY-MM-DD)")
	cmd.Flags().Bool("month", false, "export the current month")
	cmd.Flags().String("spreadsheet-id", "", "write to this spreadsheet instead of the configured one")

	return cmd
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	dateRange, err := exportRange(cmd, time.Now())
	if err != nil {
		return err
	}

	sheetsCfg, err := config.LoadSheetsConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if id, _ := cmd.Flags().GetString("spreadsheet-id"); id != "" {
		sheetsCfg.SpreadsheetID = id
	}

	a, err := buildApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	filter := model.TopUpFilter{}
	if !dateRange.Start.IsZero() {
		filter.Since = &dateRange.Start
	}
	topUps, err := a.engine.ListTopUps(ctx, filter)
	if err != nil {
		return err
	}

	report := sheets.BuildReport(topUps, dateRange)
	if len(report.TopUps) == 0 {
		cli.PrintWarning(out, "No top-ups in the selected range")
		return nil
	}

	writer, err := sheets.NewWriter(ctx, *sheetsCfg, nil)
	if err != nil {
		return err
	}
	spreadsheetID, err := writer.Write(ctx, report)
	if err != nil {
		return err
	}

	cli.PrintSuccess(out, "Exported %d top-ups", len(report.TopUps))
	cli.PrintInfo(out, "https://docs.google.com/spreadsheets/d/%s", spreadsheetID)
	return nil
}

// exportRange reads --from/--to/--month. An unset bound is open.
func exportRange(cmd *cobra.Command, now time.Time) (sheets.DateRange, error) {
	var r sheets.DateRange
	if month, _ := cmd.Flags().GetBool("month"); month {
		r.Start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		r.End = r.Start.AddDate(0, 1, 0)
		return r, nil
	}

	for flag, dst := range map[string]*time.Time{"from": &r.Start, "to": &r.End} {
		raw, _ := cmd.Flags().GetString(flag)
		if raw == "" {
			continue
		}
		t, err := time.ParseInLocation(dateLayout, raw, now.Location())
		if err != nil {
			return r, common.Validationf("--%s must look like %s", flag, dateLayout)
		}
		*dst = t
	}
	if !r.Start.IsZero() && !r.End.IsZero() && !r.End.After(r.Start) {
		return r, common.Validationf("--to must be after --from")
	}
	return r, nil
}
