// Package report turns owner snapshots into the derived structures shown on
// the dashboard: daily series, category summaries, totals and budget progress.
//
// Every function here is pure. Callers may invoke them repeatedly on
// overlapping snapshots; identical inputs always yield identical outputs.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// UnknownDay is the daily series key for transactions without a usable date.
const UnknownDay = "unknown"

// DefaultDayLayout renders a calendar day without a time component.
const DefaultDayLayout = time.DateOnly

// Options controls how calendar days are resolved.
type Options struct {
	// Location is the zone in which a timestamp is turned into a day. Default UTC.
	Location *time.Location
	// DayLayout is the time layout of the day key. Default DefaultDayLayout.
	DayLayout string
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.DayLayout == "" {
		o.DayLayout = DefaultDayLayout
	}
	return o
}

// DayKey resolves the calendar day of t.
func (o Options) DayKey(t time.Time) string {
	if t.IsZero() {
		return UnknownDay
	}
	o = o.withDefaults()
	return t.In(o.Location).Format(o.DayLayout)
}

// check reports whether tx can take part in aggregation.
// Invalid amounts and types are skipped; a missing date only changes the day bucket.
func check(tx core.Transaction) *MalformedRecordError {
	switch {
	case tx.Amount.IsNegative():
		return &MalformedRecordError{RecordID: tx.ID, Field: "amount", Reason: "is negative: " + tx.Amount.String(), Skipped: true}
	case !tx.Type.Valid():
		return &MalformedRecordError{RecordID: tx.ID, Field: "type", Reason: "is not income or expense: " + string(tx.Type), Skipped: true}
	}
	return nil
}

// usable filters txs down to the records every aggregator accepts.
func usable(txs []core.Transaction) ([]core.Transaction, Issues) {
	var issues Issues
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if issue := check(tx); issue != nil {
			issues = append(issues, issue)
			continue
		}
		out = append(out, tx)
	}
	return out, issues
}

// DailySeries accumulates income and expense per calendar day.
//
// Points appear in the order their day is first seen in txs; days without
// transactions are absent. Transactions without a date land in UnknownDay.
func DailySeries(txs []core.Transaction, opts Options) ([]core.DailyPoint, Issues) {
	valid, issues := usable(txs)
	index := make(map[string]int)
	points := make([]core.DailyPoint, 0)

	for _, tx := range valid {
		if tx.Date.IsZero() {
			issues = append(issues, &MalformedRecordError{RecordID: tx.ID, Field: "date", Reason: "is missing or unparseable"})
		}
		day := opts.DayKey(tx.Date)
		i, ok := index[day]
		if !ok {
			i = len(points)
			index[day] = i
			points = append(points, core.DailyPoint{Date: day, Income: decimal.Zero, Expense: decimal.Zero})
		}
		if tx.Type == core.Income {
			points[i].Income = points[i].Income.Add(tx.Amount)
		} else {
			points[i].Expense = points[i].Expense.Add(tx.Amount)
		}
	}
	return points, issues
}

// CategorySummaries groups income and expense by the exact category string,
// in first-seen order.
func CategorySummaries(txs []core.Transaction) ([]core.CategorySummary, Issues) {
	valid, issues := usable(txs)
	index := make(map[string]int)
	rows := make([]core.CategorySummary, 0)

	for _, tx := range valid {
		i, ok := index[tx.Category]
		if !ok {
			i = len(rows)
			index[tx.Category] = i
			rows = append(rows, core.CategorySummary{Category: tx.Category, Income: decimal.Zero, Expense: decimal.Zero})
		}
		if tx.Type == core.Income {
			rows[i].Income = rows[i].Income.Add(tx.Amount)
		} else {
			rows[i].Expense = rows[i].Expense.Add(tx.Amount)
		}
	}
	return rows, issues
}

// Summarize computes total income, total expense and net savings.
func Summarize(txs []core.Transaction) (core.Totals, Issues) {
	valid, issues := usable(txs)
	income, expense := decimal.Zero, decimal.Zero
	for _, tx := range valid {
		if tx.Type == core.Income {
			income = income.Add(tx.Amount)
		} else {
			expense = expense.Add(tx.Amount)
		}
	}
	return core.Totals{
		TotalIncome:  income,
		TotalExpense: expense,
		NetSavings:   income.Sub(expense),
	}, issues
}
