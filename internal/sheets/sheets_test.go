package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/googleauth"
	"github.com/Veraticus/wallet-topups/internal/model"
)

func TestConfig_Validate(t *testing.T) {
	oauth := googleauth.Credentials{ClientID: "id", ClientSecret: "secret", RefreshToken: "token"}

	tests := []struct {
		mutate  func(c *Config)
		wantErr error
		name    string
	}{
		{name: "oauth", mutate: func(c *Config) { c.Credentials = oauth }},
		{name: "service account", mutate: func(c *Config) { c.Credentials.ServiceAccountPath = "/tmp/key.json" }},
		{name: "no credentials", mutate: func(*Config) {}, wantErr: common.ErrMissingConfig},
		{name: "bad batch size", mutate: func(c *Config) { c.Credentials = oauth; c.BatchSize = 0 }, wantErr: common.ErrConfig},
		{name: "negative delay", mutate: func(c *Config) { c.Credentials = oauth; c.RetryDelay = -time.Second }, wantErr: common.ErrConfig},
		{name: "no spreadsheet", mutate: func(c *Config) { c.Credentials = oauth; c.SpreadsheetName = "" }, wantErr: common.ErrConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func topUp(amount string, status model.TopUpStatus, received time.Time) model.TopUp {
	return model.TopUp{
		ID:         amount + string(status),
		Amount:     decimal.RequireFromString(amount),
		Currency:   "ILS",
		SenderName: "Dana Cohen",
		Source:     model.SourceGmail,
		Status:     status,
		RiskLevel:  model.RiskClear,
		ReceivedAt: received,
		Credited:   status == model.StatusApproved,
	}
}

func sampleReport() *Report {
	jan := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	return BuildReport([]model.TopUp{
		topUp("100", model.StatusApproved, jan),
		topUp("50.5", model.StatusApproved, jan.Add(24*time.Hour)),
		topUp("20", model.StatusRejected, jan.Add(48*time.Hour)),
		topUp("999", model.StatusPending, jan.AddDate(0, 2, 0)),
	}, DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
}

func TestBuildReport(t *testing.T) {
	report := sampleReport()

	require.Len(t, report.TopUps, 3)
	assert.Equal(t, "20", report.TopUps[0].Amount.String(), "newest first")

	approved := report.Summary.ByStatus[model.StatusApproved]
	assert.Equal(t, 2, approved.Count)
	assert.Equal(t, "150.50", approved.Amount.StringFixed(2))
	assert.Equal(t, 1, report.Summary.ByStatus[model.StatusRejected].Count)
	assert.NotContains(t, report.Summary.ByStatus, model.StatusPending)
	assert.Equal(t, 2, report.Summary.Credited.Count)
	assert.Equal(t, 3, report.Summary.ByCurrency["ILS"].Count)
}

func TestDateRange_Contains(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.True(t, DateRange{}.Contains(day))
	assert.True(t, DateRange{Start: day}.Contains(day))
	assert.False(t, DateRange{End: day}.Contains(day), "end is exclusive")
}

func TestPrepareRows(t *testing.T) {
	rows := prepareRows(sampleReport())

	assert.Equal(t, []any{"Wallet Top-ups", "Jan 1, 2024 - Feb 1, 2024"}, rows[0])
	assert.Equal(t, []any{"Total Entries", 3}, rows[3])
	assert.Equal(t, []any{"Credited", 2, "150.50"}, rows[4])

	last := rows[len(rows)-1]
	require.Len(t, last, len(detailHeader))
	assert.Equal(t, "100.00", last[1])
	assert.Equal(t, "approved", last[6])
	assert.Equal(t, true, last[10])
}

type fakeSheets struct {
	updates    []sheetsapi.ValueRange
	calls      []string
	getFailure int
	mu         sync.Mutex
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, r.Method+" "+r.URL.Path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet:
		if f.getFailure > 0 {
			f.getFailure--
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"code":503,"message":"backend unavailable"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"spreadsheetId":"sheet-1"}`))
	case r.Method == http.MethodPost && r.URL.Path == "/v4/spreadsheets":
		_, _ = w.Write([]byte(`{"spreadsheetId":"new-sheet","spreadsheetUrl":"https://example.test/new"}`))
	case r.Method == http.MethodPut:
		var vr sheetsapi.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.updates = append(f.updates, vr)
		_, _ = w.Write([]byte(`{}`))
	default:
		_, _ = w.Write([]byte(`{}`))
	}
}

func newTestWriter(t *testing.T, fake *fakeSheets, mutate func(*Config)) *Writer {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.RetryDelay = time.Millisecond
	cfg.BatchSize = 5
	if mutate != nil {
		mutate(&cfg)
	}
	w, err := NewWriterWithHTTP(context.Background(), cfg, server.Client(), common.DiscardLogger(),
		option.WithEndpoint(server.URL+"/"))
	require.NoError(t, err)
	return w
}

func TestWriter_WriteExistingSpreadsheet(t *testing.T) {
	fake := &fakeSheets{getFailure: 1}
	w := newTestWriter(t, fake, func(c *Config) { c.SpreadsheetID = "sheet-1" })

	report := sampleReport()
	id, err := w.Write(context.Background(), report)
	require.NoError(t, err)
	assert.Equal(t, "sheet-1", id)

	rows := 0
	for _, u := range fake.updates {
		assert.LessOrEqual(t, len(u.Values), 5)
		rows += len(u.Values)
	}
	assert.Equal(t, len(prepareRows(report)), rows)

	joined := strings.Join(fake.calls, "\n")
	assert.Contains(t, joined, "GET /v4/spreadsheets/sheet-1")
	assert.Contains(t, joined, ":clear")
	assert.Contains(t, joined, ":batchUpdate")
}

func TestWriter_CreatesSpreadsheet(t *testing.T) {
	fake := &fakeSheets{}
	w := newTestWriter(t, fake, func(c *Config) { c.EnableFormatting = false })

	id, err := w.Write(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "new-sheet", id)
	assert.NotContains(t, strings.Join(fake.calls, "\n"), ":batchUpdate")
}

func TestWriter_AccessFailure(t *testing.T) {
	fake := &fakeSheets{getFailure: 10}
	w := newTestWriter(t, fake, func(c *Config) {
		c.SpreadsheetID = "sheet-1"
		c.RetryAttempts = 2
	})

	_, err := w.Write(context.Background(), sampleReport())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrExternalService)
}

func TestMockWriter(t *testing.T) {
	m := NewMockWriter()
	id, err := m.Write(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, "mock-spreadsheet", id)
	assert.Len(t, m.Reports, 1)
}
