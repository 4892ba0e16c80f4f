package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Outcome is the result of processing one scanned email.
type Outcome string

// Processing outcomes.
const (
	OutcomeCreatedPending        Outcome = "created_pending"
	OutcomeAutoApproved          Outcome = "auto_approved"
	OutcomeRejectedByRules       Outcome = "rejected_by_rules"
	OutcomeSkippedNotTransaction Outcome = "skipped_not_transaction"
)

// ProcessingLogEntry is an append-only record of one email scan outcome.
type ProcessingLogEntry struct {
	ProcessedAt    time.Time         `json:"processed_at"`
	ParsedSnapshot map[string]string `json:"parsed_snapshot,omitempty"`
	ID             string            `json:"id"`
	MessageID      string            `json:"message_id"`
	From           string            `json:"from"`
	Subject        string            `json:"subject"`
	Outcome        Outcome           `json:"outcome"`
	Reason         string            `json:"reason,omitempty"`
	TopUpID        string            `json:"topup_id,omitempty"`
}

// LogFilter narrows a processing log listing.
type LogFilter struct {
	Outcome Outcome
	Limit   int
}

// EmailMessage is a fetched mailbox message reduced to what the parser needs.
type EmailMessage struct {
	ReceivedAt time.Time
	ID         string
	From       string
	Subject    string
	Body       string
	HTMLBody   string
	Snippet    string
}

// Candidate is a parsed email about to be evaluated by the rule engine.
type Candidate struct {
	ReceivedAt    time.Time
	Amount        decimal.Decimal
	FromAddress   string
	Subject       string
	Text          string
	Currency      string
	SenderName    string
	BankReference string
}

// ScanResult summarizes one ingestion pass.
type ScanResult struct {
	StartedAt    time.Time     `json:"started_at"`
	Errors       []string      `json:"errors,omitempty"`
	Duration     time.Duration `json:"duration"`
	Listed       int           `json:"listed"`
	Processed    int           `json:"processed"`
	Created      int           `json:"created"`
	AutoApproved int           `json:"auto_approved"`
	Rejected     int           `json:"rejected"`
	Skipped      int           `json:"skipped"`
	AlreadySeen  int           `json:"already_seen"`
	Failed       int           `json:"failed"`
}
