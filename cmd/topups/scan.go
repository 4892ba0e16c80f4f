package main

import (
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/wallet-topups/internal/cli"
	"github.com/Veraticus/wallet-topups/internal/model"
)

func scanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan the mailbox once for payment alerts",
		Long: `Run one ingestion pass: list recent payment emails, parse them, apply the
rules and dedup checks, and add new candidates to the pending queue.`,
		RunE: runScan,
	}
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	a, err := buildApp(ctx, appOptions{gmail: true, requireGmail: true})
	if err != nil {
		return err
	}
	defer a.Close()

	bar := spinner(cmd.ErrOrStderr(), "Scanning mailbox...")
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	result, err := a.engine.Scan(ctx)
	close(done)
	_ = bar.Finish()
	if err != nil {
		return err
	}

	printScanResult(out, result)
	return nil
}

func spinner(w io.Writer, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("[cyan]"+description+"[reset]"),
		progressbar.OptionClearOnFinish(),
	)
}

func printScanResult(w io.Writer, r *model.ScanResult) {
	cli.PrintSuccess(w, "%s Scanned %d messages in %s", cli.MailIcon, r.Listed, r.Duration.Round(time.Millisecond))
	rows := [][]cli.Cell{
		{cli.Plain("Processed"), cli.Plain(fmt.Sprint(r.Processed))},
		{cli.Plain("Queued"), cli.Plain(fmt.Sprint(r.Created))},
		{cli.Plain("Auto-approved"), cli.Plain(fmt.Sprint(r.AutoApproved))},
		{cli.Plain("Rejected by rules"), cli.Plain(fmt.Sprint(r.Rejected))},
		{cli.Plain("Not a payment"), cli.Plain(fmt.Sprint(r.Skipped))},
		{cli.Plain("Already seen"), cli.Plain(fmt.Sprint(r.AlreadySeen))},
		{cli.Plain("Failed"), cli.Plain(fmt.Sprint(r.Failed))},
	}
	_, _ = fmt.Fprintln(w, cli.RenderTable([]string{"Outcome", "Count"}, rows))
	for _, e := range r.Errors {
		cli.PrintWarning(w, "%s", e)
	}
}
