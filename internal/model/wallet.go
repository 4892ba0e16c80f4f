package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is a user's credit balance.
type Wallet struct {
	UpdatedAt time.Time       `json:"updated_at"`
	Balance   decimal.Decimal `json:"balance"`
	UserID    string          `json:"user_id"`
}

// WalletCredit records the single credit issued for an approved top-up.
type WalletCredit struct {
	CreatedAt time.Time       `json:"created_at"`
	Amount    decimal.Decimal `json:"amount"`
	TopUpID   string          `json:"topup_id"`
	UserID    string          `json:"user_id"`
}

// Resolution is the admin decision applied to a pending top-up.
type Resolution struct {
	At           time.Time
	Status       TopUpStatus
	ReviewedBy   string
	RejectReason string
	TargetUserID string
}

// GmailStatus reports mailbox connectivity and the last scan.
type GmailStatus struct {
	LastScanAt *time.Time  `json:"last_scan_at,omitempty"`
	LastScan   *ScanResult `json:"last_scan,omitempty"`
	Email      string      `json:"email,omitempty"`
	Error      string      `json:"error,omitempty"`
	Connected  bool        `json:"connected"`
}
