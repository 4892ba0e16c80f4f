package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Veraticus/wallet-topups/internal/cli"
	"github.com/Veraticus/wallet-topups/internal/ofx"
)

func importOFXCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Queue incoming transfers from OFX/QFX statements",
		Long: `Read bank statements exported as OFX or QFX and add every incoming credit
to the pending queue as a manual top-up. The transaction id becomes the
bank reference, so importing the same statement twice adds nothing.

Examples:
  # Import single file
  topups import-ofx ~/Downloads/leumi_march.qfx

  # Import all QFX files in a directory
  topups import-ofx ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImportOFX,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "list the credits without queueing them")

	return cmd
}

func runImportOFX(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	parser := ofx.NewParser()
	var credits []ofx.Credit
	for _, path := range files {
		f, err := os.Open(path) // #nosec G304
		if err != nil {
			slog.Error("Failed to open file", "file", path, "error", err)
			continue
		}
		found, err := parser.ParseCredits(ctx, f)
		_ = f.Close()
		if err != nil {
			slog.Error("Failed to parse OFX file", "file", path, "error", err)
			continue
		}
		slog.Info("Parsed statement", "file", filepath.Base(path), "credits", len(found))
		credits = append(credits, found...)
	}

	if len(credits) == 0 {
		cli.PrintWarning(out, "No incoming transfers found")
		return nil
	}

	if dryRun {
		rows := make([][]cli.Cell, 0, len(credits))
		for _, c := range credits {
			rows = append(rows, []cli.Cell{
				cli.Plain(c.PostedAt.Format(dateLayout)),
				cli.Plain(fmt.Sprintf("%s %s", c.Amount.StringFixed(2), c.Currency)),
				cli.Plain(cli.Truncate(c.Sender, 30)),
				cli.Plain(c.FITID),
			})
		}
		_, _ = fmt.Fprintln(out, cli.RenderTable([]string{"Posted", "Amount", "Sender", "Reference"}, rows))
		cli.PrintInfo(out, "Dry run: %d credits not queued", len(credits))
		return nil
	}

	a, err := buildApp(ctx, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	bar := progressbar.NewOptions(len(credits),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[cyan][bold]Queueing credits...[reset]"),
		progressbar.OptionClearOnFinish(),
	)
	importer := ofx.NewImporter(a.engine, slog.Default())
	importer.Progress = func() { _ = bar.Add(1) }

	result, err := importer.Import(ctx, credits, adminName())
	_ = bar.Finish()
	if result != nil {
		cli.PrintSuccess(out, "Queued %d, skipped %d already known, %d invalid", result.Created, result.Skipped, result.Invalid)
		if result.Flagged > 0 {
			cli.PrintWarning(out, "%d flagged as possible duplicates", result.Flagged)
		}
		for _, e := range result.Errors {
			cli.PrintWarning(out, "%s", e)
		}
	}
	return err
}

// expandFiles resolves globs; a pattern with no match is kept when it names a file.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}
