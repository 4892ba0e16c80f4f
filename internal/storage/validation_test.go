package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateString(t *testing.T) {
	tests := []struct {
		name      string
		str       string
		paramName string
		wantErr   bool
	}{
		{
			name:      "valid string",
			str:       "test",
			paramName: "param",
			wantErr:   false,
		},
		{
			name:      "empty string",
			str:       "",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "whitespace only",
			str:       "   ",
			paramName: "param",
			wantErr:   true,
		},
		{
			name:      "string with spaces",
			str:       "  test  ",
			paramName: "param",
			wantErr:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateString(tt.str, tt.paramName)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateString() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), tt.paramName) {
				t.Errorf("validateString() error should contain param name %s, got %v", tt.paramName, err)
			}
		})
	}
}

func TestValidateTopUp(t *testing.T) {
	valid := func() *model.TopUp {
		return &model.TopUp{
			ID:       "t1",
			Amount:   decimal.NewFromInt(50),
			Currency: "ILS",
			Source:   model.SourceManual,
			Status:   model.StatusPending,
		}
	}

	tests := []struct {
		mutate  func(*model.TopUp)
		name    string
		wantErr bool
	}{
		{name: "valid", mutate: func(*model.TopUp) {}},
		{name: "missing id", mutate: func(t *model.TopUp) { t.ID = "" }, wantErr: true},
		{name: "zero amount", mutate: func(t *model.TopUp) { t.Amount = decimal.Zero }, wantErr: true},
		{name: "negative amount", mutate: func(t *model.TopUp) { t.Amount = decimal.NewFromInt(-5) }, wantErr: true},
		{name: "missing currency", mutate: func(t *model.TopUp) { t.Currency = "" }, wantErr: true},
		{name: "already approved", mutate: func(t *model.TopUp) { t.Status = model.StatusApproved }, wantErr: true},
		{name: "unknown source", mutate: func(t *model.TopUp) { t.Source = "fax" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			topUp := valid()
			tt.mutate(topUp)
			err := validateTopUp(topUp)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidTopUp)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.ErrorIs(t, validateTopUp(nil), ErrNilParameter)
}

func TestValidateResolution(t *testing.T) {
	tests := []struct {
		name       string
		resolution model.Resolution
		wantErr    bool
	}{
		{
			name:       "approve",
			resolution: model.Resolution{Status: model.StatusApproved, ReviewedBy: "admin"},
		},
		{
			name:       "reject with reason",
			resolution: model.Resolution{Status: model.StatusRejected, ReviewedBy: "admin", RejectReason: "spam"},
		},
		{
			name:       "reject without reason",
			resolution: model.Resolution{Status: model.StatusRejected, ReviewedBy: "admin", RejectReason: "  "},
			wantErr:    true,
		},
		{
			name:       "back to pending",
			resolution: model.Resolution{Status: model.StatusPending, ReviewedBy: "admin"},
			wantErr:    true,
		},
		{
			name:       "missing reviewer",
			resolution: model.Resolution{Status: model.StatusApproved},
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResolution(tt.resolution)
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
