package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/wallet-topups/internal/common"
	"github.com/Veraticus/wallet-topups/internal/llm"
	"github.com/Veraticus/wallet-topups/internal/metrics"
	"github.com/Veraticus/wallet-topups/internal/model"
	"github.com/Veraticus/wallet-topups/internal/parser"
	"github.com/Veraticus/wallet-topups/internal/risk"
	"github.com/Veraticus/wallet-topups/internal/rules"
	"github.com/Veraticus/wallet-topups/internal/service"
)

const excerptLength = 500

// ErrScanInProgress is returned when a scan is requested while one is running.
var ErrScanInProgress = errors.New("scan already in progress")

// Scan runs one ingestion pass, waiting for any running pass to finish first.
func (e *Engine) Scan(ctx context.Context) (*model.ScanResult, error) {
	e.scanMu.Lock()
	defer e.scanMu.Unlock()
	return e.scan(ctx)
}

// TryScan runs an ingestion pass unless one is already running.
func (e *Engine) TryScan(ctx context.Context) (*model.ScanResult, error) {
	if !e.scanMu.TryLock() {
		metrics.ScansTotal.WithLabelValues("skipped").Inc()
		return nil, ErrScanInProgress
	}
	defer e.scanMu.Unlock()
	return e.scan(ctx)
}

func (e *Engine) scan(ctx context.Context) (*model.ScanResult, error) {
	if e.source == nil {
		return nil, fmt.Errorf("%w: gmail is not configured", common.ErrMissingConfig)
	}

	settings, err := e.storage.GetSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	ruleCfg, err := e.storage.GetRuleConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	result := &model.ScanResult{StartedAt: e.now().UTC()}

	scanCtx, cancel := context.WithTimeout(ctx, settings.ScanTimeout())
	defer cancel()

	// Seen ids are passed over while listing so the bound applies to new messages.
	seen := func(id string) bool {
		processed, err := e.storage.IsMessageProcessed(scanCtx, id)
		if err != nil || !processed {
			return false
		}
		result.AlreadySeen++
		return true
	}

	ids, err := e.source.ListMessageIDs(scanCtx, settings.GmailQuery, settings.MaxMessagesPerScan, seen)
	if err != nil {
		metrics.ScansTotal.WithLabelValues("error").Inc()
		e.recordScan(result, err)
		return nil, err
	}
	result.Listed = len(ids) + result.AlreadySeen

	e.logger.Info("scan started", "query", settings.GmailQuery, "messages", len(ids))

	for _, id := range ids {
		if scanCtx.Err() != nil {
			addScanError(result, fmt.Sprintf("scan stopped early: %v", scanCtx.Err()))
			break
		}

		processed, err := e.storage.IsMessageProcessed(scanCtx, id)
		if err != nil {
			result.Failed++
			addScanError(result, fmt.Sprintf("%s: %v", id, err))
			continue
		}
		if processed {
			result.AlreadySeen++
			continue
		}

		msg, err := e.source.GetMessage(scanCtx, id)
		if err != nil {
			result.Failed++
			addScanError(result, fmt.Sprintf("%s: %v", id, err))
			e.logger.Warn("failed to fetch message", "message_id", id, "error", err)
			continue
		}

		outcome, err := e.processMessage(scanCtx, msg, settings, ruleCfg)
		if err != nil {
			result.Failed++
			addScanError(result, fmt.Sprintf("%s: %v", id, err))
			e.logger.Warn("failed to process message", "message_id", id, "error", err)
			continue
		}

		result.Processed++
		metrics.MessagesTotal.WithLabelValues(string(outcome)).Inc()
		switch outcome {
		case model.OutcomeCreatedPending:
			result.Created++
		case model.OutcomeAutoApproved:
			result.Created++
			result.AutoApproved++
		case model.OutcomeRejectedByRules:
			result.Rejected++
		case model.OutcomeSkippedNotTransaction:
			result.Skipped++
		}
	}

	metrics.ScansTotal.WithLabelValues("ok").Inc()
	e.recordScan(result, nil)
	e.logger.Info("scan finished",
		"listed", result.Listed,
		"processed", result.Processed,
		"created", result.Created,
		"auto_approved", result.AutoApproved,
		"rejected", result.Rejected,
		"skipped", result.Skipped,
		"already_seen", result.AlreadySeen,
		"failed", result.Failed)

	return result, nil
}

// processMessage parses, filters and stores one message, returning its outcome.
// Every non-error path writes exactly one processing log entry.
func (e *Engine) processMessage(ctx context.Context, msg *model.EmailMessage, settings *model.Settings, ruleCfg *model.RuleConfig) (model.Outcome, error) {
	text := parser.Text(*msg)
	parsed := parser.ParseText(text, settings.DefaultCurrency)
	method := model.ParseRegex

	if settings.AIParsingEnabled && e.extractor != nil && parsed.Confidence < settings.AIConfidenceThreshold {
		extraction, err := e.extractor.Extract(ctx, llm.Request{
			MessageID: msg.ID,
			From:      msg.From,
			Subject:   msg.Subject,
			Body:      text,
		})
		if err != nil {
			metrics.AIAssists.WithLabelValues("error").Inc()
			e.logger.Warn("ai extraction failed, using parser result", "message_id", msg.ID, "error", err)
		} else {
			metrics.AIAssists.WithLabelValues("ok").Inc()
			if mergeExtraction(&parsed, extraction) {
				method = model.ParseAI
			}
		}
	}

	entry := &model.ProcessingLogEntry{
		ID:             uuid.NewString(),
		MessageID:      msg.ID,
		From:           msg.From,
		Subject:        msg.Subject,
		ProcessedAt:    e.now().UTC(),
		ParsedSnapshot: snapshot(parsed, method),
	}

	if !parsed.IsTransaction || !parsed.Amount.IsPositive() {
		entry.Outcome = model.OutcomeSkippedNotTransaction
		entry.Reason = "no incoming payment found"
		return entry.Outcome, e.storage.SaveIntake(ctx, &service.Intake{Log: entry})
	}

	receivedAt := msg.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = e.now().UTC()
	}

	decision := rules.Evaluate(model.Candidate{
		ReceivedAt:    receivedAt,
		Amount:        parsed.Amount,
		FromAddress:   msg.From,
		Subject:       msg.Subject,
		Text:          text,
		Currency:      parsed.Currency,
		SenderName:    parsed.SenderName,
		BankReference: parsed.BankReference,
	}, *ruleCfg)

	if decision.Outcome == rules.Reject {
		entry.Outcome = model.OutcomeRejectedByRules
		entry.Reason = decision.Reason
		return entry.Outcome, e.storage.SaveIntake(ctx, &service.Intake{Log: entry})
	}

	topUp := &model.TopUp{
		ID:            uuid.NewString(),
		Amount:        parsed.Amount,
		Currency:      parsed.Currency,
		SenderName:    parsed.SenderName,
		BankReference: parsed.BankReference,
		Source:        model.SourceGmail,
		Status:        model.StatusPending,
		EmailFrom:     msg.From,
		EmailSubject:  msg.Subject,
		EmailExcerpt:  parser.Excerpt(text, excerptLength),
		MessageID:     msg.ID,
		ReceivedAt:    receivedAt,
		CreatedAt:     e.now().UTC(),
		AIParsedData:  parsed.Snapshot(method),
	}

	upgrades, err := e.assessRisk(ctx, topUp, risk.PolicyFromSettings(*settings))
	if err != nil {
		return "", err
	}

	autoApprove := decision.PreApproved && settings.AutoApproveEnabled && !topUp.RiskLevel.BlocksAutoApproval()

	entry.TopUpID = topUp.ID
	entry.ParsedSnapshot["risk_level"] = string(topUp.RiskLevel)
	entry.Outcome = model.OutcomeCreatedPending
	entry.Reason = decision.Reason
	switch {
	case autoApprove:
		entry.Outcome = model.OutcomeAutoApproved
	case decision.PreApproved && topUp.RiskLevel.BlocksAutoApproval():
		entry.Reason = fmt.Sprintf("%s; held for review: %s", decision.Reason, topUp.RiskLevel)
	}

	intake := &service.Intake{TopUp: topUp, Log: entry, Upgrades: upgrades}
	if autoApprove {
		intake.AutoApproval = &model.Resolution{
			Status:     model.StatusApproved,
			ReviewedBy: AutoApprover,
			At:         e.now(),
		}
	}
	if err := e.storage.SaveIntake(ctx, intake); err != nil {
		return "", fmt.Errorf("failed to store top-up: %w", err)
	}
	metrics.TopUpsCreated.WithLabelValues(string(topUp.Source), string(topUp.RiskLevel)).Inc()
	if autoApprove {
		metrics.DecisionsTotal.WithLabelValues(string(model.StatusApproved)).Inc()
		if topUp.Credited {
			metrics.CreditsTotal.Inc()
		}
	}

	e.logger.Info("top-up queued from email",
		"topup_id", topUp.ID,
		"message_id", msg.ID,
		"amount", topUp.Amount.String(),
		"currency", topUp.Currency,
		"risk_level", topUp.RiskLevel,
		"outcome", entry.Outcome)

	e.enqueue(topUp)
	return entry.Outcome, nil
}

// mergeExtraction fills fields the parser missed from a model answer and
// keeps the higher confidence. It reports whether the model contributed.
func mergeExtraction(parsed *parser.Result, ext llm.PaymentExtraction) bool {
	contributed := false

	if !parsed.Amount.IsPositive() && ext.Amount != "" {
		if amount, err := decimal.NewFromString(strings.ReplaceAll(ext.Amount, ",", "")); err == nil && amount.IsPositive() {
			parsed.Amount = amount
			parsed.Fields[parser.FieldAmount] = amount.String()
			contributed = true
		}
	}
	if _, ok := parsed.Fields[parser.FieldCurrency]; !ok {
		if code, valid := model.NormalizeCurrency(ext.Currency); valid {
			parsed.Currency = code
			parsed.Fields[parser.FieldCurrency] = code
			contributed = true
		}
	}
	if parsed.SenderName == "" && ext.SenderName != "" {
		parsed.SenderName = ext.SenderName
		parsed.Fields[parser.FieldSender] = ext.SenderName
		contributed = true
	}
	if parsed.BankReference == "" && ext.BankReference != "" {
		parsed.BankReference = ext.BankReference
		parsed.Fields[parser.FieldReference] = ext.BankReference
		contributed = true
	}

	if ext.IsTransaction && parsed.Amount.IsPositive() && !parsed.IsTransaction {
		parsed.IsTransaction = true
		contributed = true
	}
	if ext.Confidence > parsed.Confidence {
		parsed.Confidence = ext.Confidence
	}
	return contributed
}

func snapshot(parsed parser.Result, method model.ParseMethod) map[string]string {
	out := make(map[string]string, len(parsed.Fields)+3)
	for k, v := range parsed.Fields {
		out[k] = v
	}
	out["method"] = string(method)
	out["confidence"] = strconv.FormatFloat(parsed.Confidence, 'f', 2, 64)
	return out
}

func addScanError(result *model.ScanResult, msg string) {
	if len(result.Errors) < maxScanErrors {
		result.Errors = append(result.Errors, msg)
	}
}

func (e *Engine) recordScan(result *model.ScanResult, err error) {
	result.Duration = e.now().Sub(result.StartedAt)
	metrics.ScanDuration.Observe(result.Duration.Seconds())

	e.statusMu.Lock()
	defer e.statusMu.Unlock()

	at := result.StartedAt
	e.lastScanAt = &at
	e.lastScan = result
	e.lastErr = ""
	if err != nil {
		e.lastErr = err.Error()
	}
}

// GmailStatus reports mailbox connectivity and the last scan.
func (e *Engine) GmailStatus(ctx context.Context) model.GmailStatus {
	e.statusMu.RLock()
	status := model.GmailStatus{
		LastScanAt: e.lastScanAt,
		LastScan:   e.lastScan,
		Error:      e.lastErr,
	}
	e.statusMu.RUnlock()

	if e.source == nil {
		status.Error = "gmail is not configured"
		return status
	}

	profileCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	email, err := e.source.Profile(profileCtx)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Connected = true
	status.Email = email
	return status
}
