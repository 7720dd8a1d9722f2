package report

import (
	"time"

	"fintrack/internal/core"
)

// Report bundles every derived structure of one snapshot.
type Report struct {
	OwnerID     string                 `json:"owner_id"`
	Currency    core.Currency          `json:"currency"`
	Totals      core.Totals            `json:"totals"`
	Daily       []core.DailyPoint      `json:"daily"`
	Categories  []core.CategorySummary `json:"categories"`
	Budgets     []BudgetLine           `json:"budgets"`
	Skipped     []string               `json:"skipped,omitempty"`
	Issues      Issues                 `json:"-"`
	GeneratedAt time.Time              `json:"generated_at"`
}

// Build runs every aggregator over s. GeneratedAt is left to the caller so
// that two builds of the same snapshot compare equal.
func Build(s core.Snapshot, opts Options) Report {
	totals, issues := Summarize(s.Transactions)
	categories, _ := CategorySummaries(s.Transactions)
	daily, dailyIssues := DailySeries(s.Transactions, opts)
	budgets, _ := BudgetLines(s.Budgets)

	// The skip issues are identical across aggregators; keep them once and
	// add what only the daily series reports (date bucketing).
	for _, is := range dailyIssues {
		if !is.Skipped {
			issues = append(issues, is)
		}
	}

	cur := s.Profile.Currency
	if !cur.Valid() {
		cur = core.DefaultCurrency
	}
	return Report{
		OwnerID:    s.OwnerID,
		Currency:   cur,
		Totals:     totals,
		Daily:      daily,
		Categories: categories,
		Budgets:    budgets,
		Skipped:    issues.SkippedIDs(),
		Issues:     issues,
	}
}
