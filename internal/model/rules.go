package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/wallet-topups/internal/common"
)

// RuleConfig is the singleton accept/reject policy applied to parsed emails.
type RuleConfig struct {
	UpdatedAt              time.Time       `json:"updated_at"`
	AutoApproveThreshold   decimal.Decimal `json:"amount_auto_approve_threshold"`
	MaxThreshold           decimal.Decimal `json:"amount_max_threshold"`
	SenderWhitelist        []string        `json:"sender_whitelist"`
	MustContainKeywords    []string        `json:"must_contain_keywords"`
	MustNotContainKeywords []string        `json:"must_not_contain_keywords"`
	Enabled                bool            `json:"enabled"`
}

// DefaultRuleConfig returns a disabled, empty rule set.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		AutoApproveThreshold: decimal.Zero,
		MaxThreshold:         decimal.Zero,
	}
}

// Normalize trims entries and drops duplicates, keeping first occurrence order.
func (c *RuleConfig) Normalize() {
	c.SenderWhitelist = normalizeSet(c.SenderWhitelist)
	c.MustContainKeywords = normalizeSet(c.MustContainKeywords)
	c.MustNotContainKeywords = normalizeSet(c.MustNotContainKeywords)
}

// Validate rejects malformed rule sets with a config error.
func (c *RuleConfig) Validate() error {
	if c.AutoApproveThreshold.IsNegative() {
		return fmt.Errorf("%w: auto approve threshold cannot be negative", common.ErrConfig)
	}
	if c.MaxThreshold.IsNegative() {
		return fmt.Errorf("%w: max threshold cannot be negative", common.ErrConfig)
	}
	if c.AutoApproveThreshold.IsPositive() && c.MaxThreshold.IsPositive() &&
		c.AutoApproveThreshold.GreaterThan(c.MaxThreshold) {
		return fmt.Errorf("%w: auto approve threshold %s exceeds max threshold %s",
			common.ErrConfig, c.AutoApproveThreshold, c.MaxThreshold)
	}

	lists := map[string][]string{
		"sender_whitelist":          c.SenderWhitelist,
		"must_contain_keywords":     c.MustContainKeywords,
		"must_not_contain_keywords": c.MustNotContainKeywords,
	}
	for name, list := range lists {
		for i, entry := range list {
			if strings.TrimSpace(entry) == "" {
				return fmt.Errorf("%w: %s[%d] is blank", common.ErrConfig, name, i)
			}
		}
	}
	return nil
}

func normalizeSet(values []string) []string {
	if len(values) == 0 {
		return []string{}
	}
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		key := strings.ToLower(v)
		if v == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}
