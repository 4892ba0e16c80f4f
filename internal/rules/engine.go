// Package rules evaluates parsed payment emails against the admin rule set.
package rules

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/Veraticus/wallet-topups/internal/model"
)

// Outcome is the engine's verdict on a candidate.
type Outcome string

// Outcome constants.
const (
	Accept      Outcome = "accept"
	Reject      Outcome = "reject"
	NeedsReview Outcome = "needs_review"
)

// Decision is the result of evaluating one candidate.
type Decision struct {
	Outcome     Outcome `json:"outcome"`
	Reason      string  `json:"reason,omitempty"`
	PreApproved bool    `json:"pre_approved"`
}

// Evaluate applies cfg to candidate. It never fails: a disabled engine
// accepts everything without pre-approving it.
func Evaluate(candidate model.Candidate, cfg model.RuleConfig) Decision {
	if !cfg.Enabled {
		return Decision{Outcome: Accept, Reason: "rules disabled"}
	}

	if len(cfg.SenderWhitelist) > 0 && !senderAllowed(candidate.FromAddress, cfg.SenderWhitelist) {
		return Decision{
			Outcome: Reject,
			Reason:  fmt.Sprintf("sender %q is not whitelisted", ExtractAddress(candidate.FromAddress)),
		}
	}

	text := strings.ToLower(candidate.Subject + "\n" + candidate.Text)

	// Forbidden keywords win over required ones.
	if kw, ok := firstMatch(text, cfg.MustNotContainKeywords); ok {
		return Decision{Outcome: Reject, Reason: fmt.Sprintf("contains forbidden keyword %q", kw)}
	}

	if len(cfg.MustContainKeywords) > 0 {
		if _, ok := firstMatch(text, cfg.MustContainKeywords); !ok {
			return Decision{Outcome: Reject, Reason: "missing required keyword"}
		}
	}

	if cfg.MaxThreshold.IsPositive() && candidate.Amount.GreaterThan(cfg.MaxThreshold) {
		return Decision{
			Outcome: Reject,
			Reason:  fmt.Sprintf("amount %s exceeds max threshold %s", candidate.Amount, cfg.MaxThreshold),
		}
	}

	if cfg.AutoApproveThreshold.IsPositive() && candidate.Amount.LessThanOrEqual(cfg.AutoApproveThreshold) {
		return Decision{
			Outcome:     Accept,
			Reason:      fmt.Sprintf("amount within auto approve threshold %s", cfg.AutoApproveThreshold),
			PreApproved: true,
		}
	}

	return Decision{Outcome: NeedsReview, Reason: "passed rules, awaiting review"}
}

// ExtractAddress returns the lower-cased bare address from a From header.
func ExtractAddress(from string) string {
	from = strings.TrimSpace(from)
	if addr, err := mail.ParseAddress(from); err == nil {
		return strings.ToLower(addr.Address)
	}
	return strings.ToLower(strings.Trim(from, "<>"))
}

// senderAllowed matches exact addresses, or whole domains for "@domain" entries.
func senderAllowed(from string, whitelist []string) bool {
	addr := ExtractAddress(from)
	if addr == "" {
		return false
	}
	for _, entry := range whitelist {
		entry = strings.ToLower(strings.TrimSpace(entry))
		if entry == "" {
			continue
		}
		if strings.HasPrefix(entry, "@") {
			if strings.HasSuffix(addr, entry) {
				return true
			}
			continue
		}
		if addr == entry {
			return true
		}
	}
	return false
}

func firstMatch(text string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		needle := strings.ToLower(strings.TrimSpace(kw))
		if needle != "" && strings.Contains(text, needle) {
			return kw, true
		}
	}
	return "", false
}
