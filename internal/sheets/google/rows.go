package google

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/report"
)

// SheetTitle names the tab holding an owner's report. Sheet titles may not
// contain some punctuation, so the owner id is reduced to its first segment.
func SheetTitle(base, ownerID string) string {
	id, _, _ := strings.Cut(ownerID, "-")
	if id == "" {
		id = "unknown"
	}
	return base + " " + id
}

// Rows lays r out as sheet rows: a header block, categories, budgets, daily
// series and totals, separated by blank rows. Amounts are plain decimals so
// the sheet can compute with them; totals are also given formatted.
func Rows(r report.Report) ([][]any, error) {
	rows := [][]any{
		{"Owner", r.OwnerID},
		{"Generated", r.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Currency", string(r.Currency)},
		{},
		{"Category", "Income", "Expense"},
	}
	for _, c := range r.Categories {
		rows = append(rows, []any{c.Category, fixed(c.Income), fixed(c.Expense)})
	}

	rows = append(rows, []any{}, []any{"Budget", "Limit", "Spent", "Progress %", "Near limit", "Error"})
	for _, b := range r.Budgets {
		rows = append(rows, []any{b.Budget.Category, fixed(b.Budget.Amount), fixed(b.Budget.Spent), fixed(b.Progress), b.NearLimit, b.Err})
	}

	rows = append(rows, []any{}, []any{"Date", "Income", "Expense"})
	for _, p := range r.Daily {
		rows = append(rows, []any{p.Date, fixed(p.Income), fixed(p.Expense)})
	}

	rows = append(rows, []any{})
	totals := []struct {
		label string
		value decimal.Decimal
	}{
		{"Total income", r.Totals.TotalIncome},
		{"Total expense", r.Totals.TotalExpense},
		{"Net savings", r.Totals.NetSavings},
	}
	for _, t := range totals {
		formatted, err := report.FormatCurrency(t.value, r.Currency)
		if err != nil {
			return nil, err
		}
		rows = append(rows, []any{t.label, fixed(t.value), formatted})
	}
	if len(r.Skipped) > 0 {
		rows = append(rows, []any{"Skipped records", strings.Join(r.Skipped, ", ")})
	}
	return rows, nil
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(2)
}
