// Package risk classifies new top-ups against recent ones to surface likely duplicates.
package risk

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/wallet-topups/internal/model"
)

// Policy controls the windows used for classification.
type Policy struct {
	// Window is how far back entries are considered at all.
	Window time.Duration
	// ShortWindow bounds same-sender matches that count as potential duplicates.
	ShortWindow time.Duration
}

// DefaultPolicy is 30 days back, 24 hours for same-sender matches.
func DefaultPolicy() Policy {
	return Policy{Window: 30 * 24 * time.Hour, ShortWindow: 24 * time.Hour}
}

// PolicyFromSettings derives a policy from admin settings.
func PolicyFromSettings(s model.Settings) Policy {
	return Policy{Window: s.DedupWindow(), ShortWindow: s.ShortWindow()}
}

// Subject is the minimal view of a top-up the detector compares.
type Subject struct {
	At            time.Time
	Amount        decimal.Decimal
	SenderName    string
	BankReference string
}

// SubjectOf builds a Subject from a stored top-up.
func SubjectOf(t *model.TopUp) Subject {
	return Subject{
		At:            t.EffectiveTime(),
		Amount:        t.Amount,
		SenderName:    t.SenderName,
		BankReference: t.BankReference,
	}
}

// Match is one existing entry that contributed to the assessment.
type Match struct {
	TopUpID string
	Level   model.RiskLevel
}

// Assessment is the detector's verdict for a new entry.
type Assessment struct {
	Level   model.RiskLevel
	Matches []Match
}

// MatchIDs returns the ids of entries matched at the assessment's level.
func (a Assessment) MatchIDs() []string {
	var ids []string
	for _, m := range a.Matches {
		if m.Level == a.Level {
			ids = append(ids, m.TopUpID)
		}
	}
	return ids
}

// Classify compares subject against existing entries. Entries outside
// policy.Window, and rejected entries, are ignored.
func Classify(subject Subject, existing []model.TopUp, policy Policy) Assessment {
	if policy.Window <= 0 {
		policy.Window = DefaultPolicy().Window
	}
	if policy.ShortWindow <= 0 {
		policy.ShortWindow = DefaultPolicy().ShortWindow
	}

	result := Assessment{Level: model.RiskClear}
	ref := model.NormalizeReference(subject.BankReference)
	sender := model.NormalizeSender(subject.SenderName)

	for i := range existing {
		other := &existing[i]
		if other.Status == model.StatusRejected {
			continue
		}
		gap := absDuration(subject.At.Sub(other.EffectiveTime()))
		if gap > policy.Window {
			continue
		}
		if !subject.Amount.Equal(other.Amount) {
			continue
		}

		level := model.RiskLow
		otherRef := model.NormalizeReference(other.BankReference)
		switch {
		case ref != "" && ref == otherRef:
			level = model.RiskDuplicate
		case sender != "" && sender == model.NormalizeSender(other.SenderName) && gap <= policy.ShortWindow:
			level = model.RiskPotentialDuplicate
		}

		result.Matches = append(result.Matches, Match{TopUpID: other.ID, Level: level})
		if level.Severity() > result.Level.Severity() {
			result.Level = level
		}
	}

	sort.SliceStable(result.Matches, func(i, j int) bool {
		return result.Matches[i].Level.Severity() > result.Matches[j].Level.Severity()
	})
	return result
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
