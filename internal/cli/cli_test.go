package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
)

func TestPrompter_Ask(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		fallback string
		want     string
		wantErr  error
	}{
		{name: "answer", input: "  user-7 \n", want: "user-7"},
		{name: "blank uses fallback", input: "\n", fallback: "user-1", want: "user-1"},
		{name: "no newline at eof", input: "last", want: "last"},
		{name: "empty input", input: "", wantErr: io.EOF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			p := NewPrompter(strings.NewReader(tt.input), out)
			got, err := p.Ask(context.Background(), "Target user", tt.fallback)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Target user")
		})
	}
}

func TestPrompter_Confirm(t *testing.T) {
	for input, want := range map[string]bool{"y\n": true, "YES\n": true, "n\n": false, "\n": false, "maybe\n": false} {
		p := NewPrompter(strings.NewReader(input), io.Discard)
		got, err := p.Confirm(context.Background(), "Approve?")
		require.NoError(t, err)
		assert.Equal(t, want, got, input)
	}
}

func TestPrompter_Cancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer func() { _ = pw.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewPrompter(pr, io.Discard).ReadLine(ctx)
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{common.NewUserError("Gmail is not connected", errors.New("token expired")), "Gmail is not connected"},
		{common.NotFoundf("top-up abc"), "Not found: "},
		{common.Validationf("amount must be greater than zero"), "Invalid input: "},
		{errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		assert.Contains(t, ErrorMessage(tt.err), tt.want)
	}

	buf := &bytes.Buffer{}
	PrintError(buf, errors.New("boom"))
	assert.Contains(t, buf.String(), ErrorIcon)
}

func TestTopUpTable(t *testing.T) {
	out := TopUpTable([]model.TopUp{{
		ID:            "0123456789abcdef",
		Amount:        decimal.RequireFromString("150"),
		Currency:      "ILS",
		SenderName:    "A very long sender name that keeps going",
		BankReference: "AB1234",
		Source:        model.SourceGmail,
		Status:        model.StatusPending,
		RiskLevel:     model.RiskPotentialDuplicate,
		ReceivedAt:    time.Now(),
	}})

	assert.Contains(t, out, "AMOUNT")
	assert.Contains(t, out, "01234567")
	assert.Contains(t, out, "150.00 ILS")
	assert.Contains(t, out, "A very long sender name…")
	assert.Contains(t, out, "potential_duplicate")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab…", Truncate("abcdef", 3))
	assert.Equal(t, "שלו…", Truncate("שלום עולם", 4))
}
