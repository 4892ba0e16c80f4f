// Package ofx turns bank statement credits into manual top-up candidates.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

var (
	severityPattern = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	openTagPattern  = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// Credit is an incoming statement line.
type Credit struct {
	PostedAt  time.Time
	Amount    decimal.Decimal
	FITID     string
	Sender    string
	Memo      string
	Currency  string
	AccountID string
	Type      string
}

// Parser reads OFX and QFX statements.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocess fixes formatting problems banks commonly ship.
func (p *Parser) preprocess(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")
	content = severityPattern.ReplaceAllStringFunc(content, strings.ToUpper)
	return openTagPattern.ReplaceAllString(content, "$1>")
}

// ParseCredits returns the incoming transfers in a statement. Debits,
// fees, and non-positive rows are ignored.
func (p *Parser) ParseCredits(ctx context.Context, r io.Reader) ([]Credit, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocess(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var credits []Credit
	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		credits = append(credits, p.collect(stmt.BankTranList.Transactions,
			string(stmt.BankAcctFrom.AcctID), stmt.CurDef.String())...)
	}
	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		credits = append(credits, p.collect(stmt.BankTranList.Transactions,
			string(stmt.CCAcctFrom.AcctID), stmt.CurDef.String())...)
	}

	slog.Info("parsed OFX statement", "credits", len(credits))
	return credits, nil
}

func (p *Parser) collect(txns []ofxgo.Transaction, accountID, currency string) []Credit {
	var out []Credit
	for _, tx := range txns {
		if !isIncoming(tx) {
			continue
		}
		amount, err := decimal.NewFromString(tx.TrnAmt.FloatString(2))
		if err != nil || !amount.IsPositive() {
			continue
		}
		out = append(out, Credit{
			PostedAt:  tx.DtPosted.Time,
			Amount:    amount,
			FITID:     strings.TrimSpace(string(tx.FiTID)),
			Sender:    senderName(tx),
			Memo:      strings.TrimSpace(string(tx.Memo)),
			Currency:  strings.ToUpper(currency),
			AccountID: accountID,
			Type:      tx.TrnType.String(),
		})
	}
	return out
}

func isIncoming(tx ofxgo.Transaction) bool {
	switch tx.TrnType {
	case ofxgo.TrnTypeCredit, ofxgo.TrnTypeDep, ofxgo.TrnTypeDirectDep, ofxgo.TrnTypeXfer:
		return true
	}
	return false
}

// senderName prefers PAYEE, then NAME, then MEMO when NAME is generic.
func senderName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}
	name := strings.TrimSpace(string(tx.Name))
	if tx.Memo != "" && isGeneric(name) {
		name = strings.TrimSpace(string(tx.Memo))
	}
	for _, prefix := range []string{"ACH CREDIT ", "INCOMING TRANSFER FROM ", "TRANSFER FROM ", "DEPOSIT FROM "} {
		if len(name) > len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
			name = strings.TrimSpace(name[len(prefix):])
			break
		}
	}
	return name
}

func isGeneric(name string) bool {
	switch strings.ToUpper(name) {
	case "", "CREDIT", "DEPOSIT", "TRANSFER", "DIRECT DEPOSIT", "INCOMING TRANSFER":
		return true
	}
	return false
}
