// Package model defines the core data structures for the top-up service.
package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TopUpStatus is the lifecycle state of a pending top-up.
type TopUpStatus string

// Top-up status constants. Approved and rejected are terminal.
const (
	StatusPending  TopUpStatus = "pending"
	StatusApproved TopUpStatus = "approved"
	StatusRejected TopUpStatus = "rejected"
)

// Valid reports whether s is a known status.
func (s TopUpStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Source records where a top-up candidate came from.
type Source string

// Source constants.
const (
	SourceGmail  Source = "gmail"
	SourceManual Source = "manual"
)

// RiskLevel is the dedup classification attached to a top-up.
type RiskLevel string

// Risk levels, in increasing severity.
const (
	RiskClear              RiskLevel = "clear"
	RiskLow                RiskLevel = "low_risk"
	RiskPotentialDuplicate RiskLevel = "potential_duplicate"
	RiskDuplicate          RiskLevel = "duplicate"
)

// Severity orders risk levels so the worst finding wins.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLow:
		return 1
	case RiskPotentialDuplicate:
		return 2
	case RiskDuplicate:
		return 3
	default:
		return 0
	}
}

// BlocksAutoApproval reports whether the level requires a human decision.
func (r RiskLevel) BlocksAutoApproval() bool {
	return r.Severity() >= RiskPotentialDuplicate.Severity()
}

// ParseMethod describes how payment fields were extracted.
type ParseMethod string

// Parse method constants.
const (
	ParseRegex  ParseMethod = "regex"
	ParseAI     ParseMethod = "ai"
	ParseManual ParseMethod = "manual"
)

// ParsedData is the extraction snapshot stored with each top-up.
type ParsedData struct {
	Fields     map[string]string `json:"fields,omitempty"`
	Method     ParseMethod       `json:"method"`
	Confidence float64           `json:"confidence"`
}

// TopUp is a wallet credit candidate awaiting, or past, admin review.
type TopUp struct {
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	ReceivedAt    time.Time       `json:"received_at"`
	ReviewedAt    *time.Time      `json:"reviewed_at,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	AIParsedData  ParsedData      `json:"ai_parsed_data"`
	ID            string          `json:"id"`
	Currency      string          `json:"currency"`
	SenderName    string          `json:"sender_name"`
	BankReference string          `json:"bank_reference"`
	Source        Source          `json:"source"`
	Status        TopUpStatus     `json:"status"`
	RiskLevel     RiskLevel       `json:"risk_level"`
	EmailFrom     string          `json:"email_from,omitempty"`
	EmailSubject  string          `json:"email_subject,omitempty"`
	EmailExcerpt  string          `json:"email_excerpt,omitempty"`
	MessageID     string          `json:"message_id,omitempty"`
	TargetUserID  string          `json:"target_user_id,omitempty"`
	ReviewedBy    string          `json:"reviewed_by,omitempty"`
	RejectReason  string          `json:"reject_reason,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	RiskMatches   []string        `json:"risk_matches,omitempty"`
	Credited      bool            `json:"credited"`
}

// IsResolved reports whether the top-up has left the pending state.
func (t *TopUp) IsResolved() bool {
	return t.Status != StatusPending
}

// EffectiveTime is the moment used for dedup windows.
func (t *TopUp) EffectiveTime() time.Time {
	if !t.ReceivedAt.IsZero() {
		return t.ReceivedAt
	}
	return t.CreatedAt
}

// NormalizeReference canonicalizes a bank reference for comparison.
func NormalizeReference(ref string) string {
	return strings.ToUpper(strings.Join(strings.Fields(ref), ""))
}

// NormalizeSender canonicalizes a sender name for comparison.
func NormalizeSender(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// NormalizeCurrency upper-cases a currency code and reports whether it is
// three ASCII letters.
func NormalizeCurrency(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return code, false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return code, false
		}
	}
	return code, true
}

// ManualTopUp is the admin input for a manually entered top-up.
type ManualTopUp struct {
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	SenderName    string          `json:"sender_name"`
	BankReference string          `json:"bank_reference"`
	TargetUserID  string          `json:"target_user_id"`
	Notes         string          `json:"notes"`
	ReceivedAt    *time.Time      `json:"received_at,omitempty"`
}

// TopUpFilter narrows a pending-queue listing.
type TopUpFilter struct {
	Since  *time.Time
	Status TopUpStatus
	Limit  int
	Offset int
}

// Stats aggregates the queue for the admin dashboard.
type Stats struct {
	ByRisk              map[RiskLevel]int `json:"by_risk"`
	TotalApprovedAmount decimal.Decimal   `json:"total_approved_amount"`
	TotalCreditedAmount decimal.Decimal   `json:"total_credited_amount"`
	Pending             int               `json:"pending"`
	Approved            int               `json:"approved"`
	Rejected            int               `json:"rejected"`
	Total               int               `json:"total"`
}
