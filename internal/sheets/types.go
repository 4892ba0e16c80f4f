package sheets

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/wallet-topups/internal/model"
)

// DateRange represents the time period covered by the report.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the range. Zero bounds are open.
func (r DateRange) Contains(t time.Time) bool {
	if !r.Start.IsZero() && t.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && !t.Before(r.End) {
		return false
	}
	return true
}

// Bucket is a count and total for one slice of the report.
type Bucket struct {
	Amount decimal.Decimal
	Count  int
}

// Summary aggregates a report's rows.
type Summary struct {
	ByStatus   map[model.TopUpStatus]Bucket
	ByRisk     map[model.RiskLevel]Bucket
	ByCurrency map[string]Bucket
	Credited   Bucket
}

// Report is everything written to the spreadsheet.
type Report struct {
	Range   DateRange
	TopUps  []model.TopUp
	Summary Summary
}

// BuildReport selects the top-ups received in the range, newest first, and
// summarizes them.
func BuildReport(topUps []model.TopUp, dateRange DateRange) *Report {
	report := &Report{
		Range: dateRange,
		Summary: Summary{
			ByStatus:   map[model.TopUpStatus]Bucket{},
			ByRisk:     map[model.RiskLevel]Bucket{},
			ByCurrency: map[string]Bucket{},
		},
	}

	for _, t := range topUps {
		if !dateRange.Contains(t.EffectiveTime()) {
			continue
		}
		report.TopUps = append(report.TopUps, t)

		add(report.Summary.ByStatus, t.Status, t.Amount)
		add(report.Summary.ByRisk, t.RiskLevel, t.Amount)
		add(report.Summary.ByCurrency, t.Currency, t.Amount)
		if t.Credited {
			report.Summary.Credited.Count++
			report.Summary.Credited.Amount = report.Summary.Credited.Amount.Add(t.Amount)
		}
	}

	sort.SliceStable(report.TopUps, func(i, j int) bool {
		return report.TopUps[i].EffectiveTime().After(report.TopUps[j].EffectiveTime())
	})
	return report
}

func add[K comparable](m map[K]Bucket, key K, amount decimal.Decimal) {
	b := m[key]
	b.Count++
	b.Amount = b.Amount.Add(amount)
	m[key] = b
}

func sortedKeys[K ~string, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
