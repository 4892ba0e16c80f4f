package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
)

func useTempDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topups.db")
	viper.Set("database.path", path)
	t.Cleanup(viper.Reset)
	return path
}

func run(t *testing.T, cmd *cobra.Command, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func onlyPendingID(t *testing.T) string {
	t.Helper()
	a, err := buildApp(context.Background(), appOptions{})
	require.NoError(t, err)
	defer a.Close()

	topUps, err := a.engine.ListTopUps(context.Background(), model.TopUpFilter{Status: model.StatusPending})
	require.NoError(t, err)
	require.Len(t, topUps, 1)
	return topUps[0].ID
}

func TestPendingLifecycle(t *testing.T) {
	useTempDB(t)

	out, err := run(t, pendingCmd(), "", "add", "150", "--sender", "Dana Cohen", "--reference", "AB1234", "--user", "u-1")
	require.NoError(t, err)
	assert.Contains(t, out, "added to the pending queue")

	id := onlyPendingID(t)

	out, err = run(t, pendingCmd(), "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Dana Cohen")

	out, err = run(t, pendingCmd(), "n\n", "approve", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Left pending")

	out, err = run(t, pendingCmd(), "", "approve", id, "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "credited 150.00 ILS to u-1")

	_, err = run(t, pendingCmd(), "", "approve", id, "--yes")
	assert.ErrorIs(t, err, common.ErrAlreadyResolved)

	out, err = run(t, walletCmd(), "", "u-1")
	require.NoError(t, err)
	assert.Contains(t, out, "balance: 150.00")

	out, err = run(t, pendingCmd(), "", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "150.00")
}

func TestPendingReject(t *testing.T) {
	useTempDB(t)

	_, err := run(t, pendingCmd(), "", "add", "80", "--sender", "Noa Levi")
	require.NoError(t, err)
	id := onlyPendingID(t)

	out, err := run(t, pendingCmd(), "", "reject", id, "--reason", "test transfer")
	require.NoError(t, err)
	assert.Contains(t, out, "Rejected 80.00 ILS from Noa Levi")

	out, err = run(t, pendingCmd(), "", "show", id)
	require.NoError(t, err)
	assert.Contains(t, out, "test transfer")
}

func TestPendingAddValidation(t *testing.T) {
	useTempDB(t)

	_, err := run(t, pendingCmd(), "", "add", "lots", "--sender", "Dana Cohen")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = run(t, pendingCmd(), "", "add", "0", "--sender", "Dana Cohen")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestRulesSetAndShow(t *testing.T) {
	useTempDB(t)

	out, err := run(t, rulesCmd(), "", "set", "--enabled", "--whitelist", "alerts@bank.com", "--max", "1000", "--auto-approve", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "Rules saved")

	out, err = run(t, rulesCmd(), "", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "enabled")
	assert.Contains(t, out, "alerts@bank.com")
	assert.Contains(t, out, "1000.00")
	assert.Contains(t, out, "100.00")

	_, err = run(t, rulesCmd(), "", "set", "--max", "ten")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = run(t, rulesCmd(), "", "set", "--max", "50")
	assert.Error(t, err, "auto-approve above max is rejected")
}

func TestApplySettings(t *testing.T) {
	tests := []struct {
		check   func(t *testing.T, s model.Settings)
		name    string
		pairs   []string
		wantErr bool
	}{
		{
			name:  "typed values",
			pairs: []string{"polling_enabled=true", "poll_interval_seconds=120"},
			check: func(t *testing.T, s model.Settings) {
				assert.True(t, s.PollingEnabled)
				assert.Equal(t, 120, s.PollIntervalSeconds)
			},
		},
		{
			name:  "bare strings",
			pairs: []string{"gmail_query=from:alerts@bank.com newer_than:2d"},
			check: func(t *testing.T, s model.Settings) {
				assert.Equal(t, "from:alerts@bank.com newer_than:2d", s.GmailQuery)
			},
		},
		{name: "unknown key", pairs: []string{"favorite_color=blue"}, wantErr: true},
		{name: "missing equals", pairs: []string{"polling_enabled"}, wantErr: true},
		{name: "wrong type", pairs: []string{"poll_interval_seconds=\"soon\""}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := model.DefaultSettings()
			err := applySettings(&s, tt.pairs)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			tt.check(t, s)
		})
	}
}

func TestSettingsCommand(t *testing.T) {
	useTempDB(t)

	out, err := run(t, settingsCmd(), "", "set", "realtime_mode=true", "realtime_interval_seconds=15")
	require.NoError(t, err)
	assert.Contains(t, out, `"realtime_interval_seconds": 15`)

	_, err = run(t, settingsCmd(), "", "set", "realtime_interval_seconds=1")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestExportRange(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		flags     map[string]string
		wantStart time.Time
		wantEnd   time.Time
		wantErr   bool
	}{
		{name: "open", flags: nil},
		{
			name:      "month",
			flags:     map[string]string{"month": "true"},
			wantStart: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "explicit",
			flags:     map[string]string{"from": "2026-01-01", "to": "2026-02-01"},
			wantStart: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{name: "bad date", flags: map[string]string{"from": "01/01/2026"}, wantErr: true},
		{name: "inverted", flags: map[string]string{"from": "2026-02-01", "to": "2026-01-01"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := exportCmd()
			for k, v := range tt.flags {
				require.NoError(t, cmd.Flags().Set(k, v))
			}
			r, err := exportRange(cmd, now)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, r.Start)
			assert.Equal(t, tt.wantEnd, r.End)
		})
	}
}

func TestExpandFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.qfx", "b.qfx", "notes.txt"} {
		require.NoError(t, writeFile(filepath.Join(dir, name)))
	}

	files, err := expandFiles([]string{filepath.Join(dir, "*.qfx")})
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = expandFiles([]string{filepath.Join(dir, "*.ofx")})
	assert.Error(t, err)
}

func TestMigrateAndBackup(t *testing.T) {
	useTempDB(t)

	out, err := run(t, migrateCmd(), "", "--status")
	require.NoError(t, err)
	assert.Contains(t, out, "Schema version 0 of")

	out, err = run(t, migrateCmd(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "Database migrated")

	out, err = run(t, migrateCmd(), "")
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")

	out, err = run(t, backupCmd(), "", "create", "nightly")
	require.NoError(t, err)
	assert.Contains(t, out, "Created backup nightly")

	out, err = run(t, backupCmd(), "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "nightly")

	out, err = run(t, backupCmd(), "", "verify", "nightly")
	require.NoError(t, err)
	assert.Contains(t, out, "intact")

	_, err = run(t, backupCmd(), "", "verify", "missing")
	assert.Error(t, err)
}

func writeFile(path string) error {
	return os.WriteFile(path, []byte("x"), 0600)
}
