package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/googleauth"
)

const sheetTitle = "Top-ups"

// detailHeader is the column layout of the detail section.
var detailHeader = []any{
	"Received", "Amount", "Currency", "Sender", "Reference", "Source",
	"Status", "Risk", "Reviewed By", "Target User", "Credited", "Reject Reason",
}

// Writer writes reports to Google Sheets.
type Writer struct {
	service *sheetsapi.Service
	logger  *slog.Logger
	config  Config
}

// NewWriter creates a Writer authenticated with the configured credentials.
func NewWriter(ctx context.Context, config Config, logger *slog.Logger) (*Writer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sheets config: %w", err)
	}
	httpClient, err := googleauth.HTTPClient(ctx, config.Credentials, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate sheets: %w", err)
	}
	return NewWriterWithHTTP(ctx, config, httpClient, logger)
}

// NewWriterWithHTTP creates a Writer on an existing HTTP client.
func NewWriterWithHTTP(ctx context.Context, config Config, httpClient *http.Client, logger *slog.Logger, opts ...option.ClientOption) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return &Writer{service: srv, logger: logger, config: config}, nil
}

// Write replaces the sheet contents with the report and returns the
// spreadsheet id.
func (w *Writer) Write(ctx context.Context, report *Report) (string, error) {
	w.logger.Info("starting report export",
		"topups", len(report.TopUps),
		"start", report.Range.Start.Format(time.DateOnly),
		"end", report.Range.End.Format(time.DateOnly))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return "", common.ExternalServiceError("sheets", err)
	}

	if err := w.call(ctx, func() error { return w.clearSheet(ctx, spreadsheetID) }); err != nil {
		return "", common.ExternalServiceError("sheets", fmt.Errorf("failed to clear sheet: %w", err))
	}

	values := prepareRows(report)
	if err := w.writeData(ctx, spreadsheetID, values); err != nil {
		return "", common.ExternalServiceError("sheets", err)
	}

	if w.config.EnableFormatting {
		err := w.call(ctx, func() error { return w.applyFormatting(ctx, spreadsheetID, len(values)) })
		if err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("report export completed", "spreadsheet_id", spreadsheetID, "rows_written", len(values))
	return spreadsheetID, nil
}

func (w *Writer) call(ctx context.Context, fn func() error) error {
	return common.WithRetry(ctx, func() error {
		return googleauth.ClassifyError(fn())
	}, common.RetryOptions{
		MaxAttempts:  max(1, w.config.RetryAttempts),
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	})
}

func (w *Writer) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		err := w.call(ctx, func() error {
			_, err := w.service.Spreadsheets.Get(w.config.SpreadsheetID).Context(ctx).Do()
			return err
		})
		if err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	spreadsheet := &sheetsapi.Spreadsheet{
		Properties: &sheetsapi.SpreadsheetProperties{
			Title:    w.config.SpreadsheetName,
			TimeZone: w.config.TimeZone,
		},
		Sheets: []*sheetsapi.Sheet{{Properties: &sheetsapi.SheetProperties{Title: sheetTitle}}},
	}

	var created *sheetsapi.Spreadsheet
	err := w.call(ctx, func() error {
		var err error
		created, err = w.service.Spreadsheets.Create(spreadsheet).Context(ctx).Do()
		return err
	})
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}

	w.logger.Info("created new spreadsheet", "id", created.SpreadsheetId, "url", created.SpreadsheetUrl)
	return created.SpreadsheetId, nil
}

func (w *Writer) clearSheet(ctx context.Context, spreadsheetID string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, "A:Z", &sheetsapi.ClearValuesRequest{}).Context(ctx).Do()
	return err
}

// prepareRows lays out the title, summary blocks, then one row per top-up.
func prepareRows(report *Report) [][]any {
	s := report.Summary
	values := make([][]any, 0, 16+len(s.ByStatus)+len(s.ByRisk)+len(s.ByCurrency)+len(report.TopUps))

	values = append(values,
		[]any{"Wallet Top-ups", rangeLabel(report.Range)},
		[]any{},
		[]any{"Summary"},
		[]any{"Total Entries", len(report.TopUps)},
		[]any{"Credited", s.Credited.Count, s.Credited.Amount.StringFixed(2)},
		[]any{},
		[]any{"By Status", "Count", "Amount"},
	)
	for _, status := range sortedKeys(s.ByStatus) {
		b := s.ByStatus[status]
		values = append(values, []any{string(status), b.Count, b.Amount.StringFixed(2)})
	}

	values = append(values, []any{}, []any{"By Risk", "Count", "Amount"})
	for _, level := range sortedKeys(s.ByRisk) {
		b := s.ByRisk[level]
		values = append(values, []any{string(level), b.Count, b.Amount.StringFixed(2)})
	}

	values = append(values, []any{}, []any{"By Currency", "Count", "Amount"})
	for _, currency := range sortedKeys(s.ByCurrency) {
		b := s.ByCurrency[currency]
		values = append(values, []any{currency, b.Count, b.Amount.StringFixed(2)})
	}

	values = append(values, []any{}, []any{"Details"}, detailHeader)
	for _, t := range report.TopUps {
		values = append(values, []any{
			t.EffectiveTime().Format(time.DateTime),
			t.Amount.StringFixed(2),
			t.Currency,
			t.SenderName,
			t.BankReference,
			string(t.Source),
			string(t.Status),
			string(t.RiskLevel),
			t.ReviewedBy,
			t.TargetUserID,
			t.Credited,
			t.RejectReason,
		})
	}
	return values
}

func rangeLabel(r DateRange) string {
	switch {
	case r.Start.IsZero() && r.End.IsZero():
		return "All time"
	case r.Start.IsZero():
		return "Until " + r.End.Format("Jan 2, 2006")
	case r.End.IsZero():
		return "Since " + r.Start.Format("Jan 2, 2006")
	}
	return fmt.Sprintf("%s - %s", r.Start.Format("Jan 2, 2006"), r.End.Format("Jan 2, 2006"))
}

func (w *Writer) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	for i := 0; i < len(values); i += w.config.BatchSize {
		end := min(i+w.config.BatchSize, len(values))
		batch := &sheetsapi.ValueRange{Values: values[i:end]}
		rangeStr := fmt.Sprintf("A%d", i+1)

		err := w.call(ctx, func() error {
			_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, rangeStr, batch).
				ValueInputOption("USER_ENTERED").
				Context(ctx).
				Do()
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}
		w.logger.Debug("wrote batch", "start_row", i+1, "rows", end-i)
	}
	return nil
}

func (w *Writer) applyFormatting(ctx context.Context, spreadsheetID string, totalRows int) error {
	bold := func(r *sheetsapi.GridRange, size int64) *sheetsapi.Request {
		return &sheetsapi.Request{RepeatCell: &sheetsapi.RepeatCellRequest{
			Range: r,
			Cell: &sheetsapi.CellData{UserEnteredFormat: &sheetsapi.CellFormat{
				TextFormat: &sheetsapi.TextFormat{Bold: true, FontSize: size},
			}},
			Fields: "userEnteredFormat.textFormat",
		}}
	}

	requests := []*sheetsapi.Request{
		bold(&sheetsapi.GridRange{StartRowIndex: 0, EndRowIndex: 1, EndColumnIndex: 2}, 16),
		bold(&sheetsapi.GridRange{StartRowIndex: 2, EndRowIndex: int64(totalRows), EndColumnIndex: 1}, 10),
		{
			AutoResizeDimensions: &sheetsapi.AutoResizeDimensionsRequest{
				Dimensions: &sheetsapi.DimensionRange{
					Dimension: "COLUMNS",
					EndIndex:  int64(len(detailHeader)),
				},
			},
		},
		{
			UpdateSheetProperties: &sheetsapi.UpdateSheetPropertiesRequest{
				Properties: &sheetsapi.SheetProperties{
					GridProperties: &sheetsapi.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, &sheetsapi.BatchUpdateSpreadsheetRequest{
		Requests: requests,
	}).Context(ctx).Do()
	return err
}
