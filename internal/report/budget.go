package report

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

var (
	hundred = decimal.NewFromInt(100)

	// NearLimitThreshold is the progress above which a budget is flagged.
	NearLimitThreshold = decimal.NewFromInt(90)
)

// progressPlaces is the precision of a progress ratio.
const progressPlaces = 4

// BudgetProgress returns spent/amount*100 clamped to [0, 100].
// A non-positive limit yields *InvalidBudgetError and no ratio.
func BudgetProgress(b core.BudgetCategory) (decimal.Decimal, error) {
	if !b.Amount.IsPositive() {
		return decimal.Zero, &InvalidBudgetError{BudgetID: b.ID, Amount: b.Amount}
	}
	ratio := b.Spent.Mul(hundred).DivRound(b.Amount, progressPlaces)
	switch {
	case ratio.IsNegative():
		return decimal.Zero, nil
	case ratio.GreaterThan(hundred):
		return hundred, nil
	}
	return ratio, nil
}

// BudgetLine is a budget together with its computed progress.
type BudgetLine struct {
	Budget    core.BudgetCategory `json:"budget"`
	Progress  decimal.Decimal     `json:"progress"`
	NearLimit bool                `json:"near_limit"`
	Err       string              `json:"error,omitempty"`
}

// BudgetLines computes progress for every budget, keeping invalid ones with their error.
func BudgetLines(budgets []core.BudgetCategory) ([]BudgetLine, []error) {
	lines := make([]BudgetLine, 0, len(budgets))
	var errs []error
	for _, b := range budgets {
		p, err := BudgetProgress(b)
		line := BudgetLine{Budget: b, Progress: p}
		if err != nil {
			line.Err = err.Error()
			errs = append(errs, err)
		} else {
			line.NearLimit = nearLimit(b)
		}
		lines = append(lines, line)
	}
	return lines, errs
}

// nearLimit compares the exact ratio, so 90.00004% is flagged even though
// its rounded progress reads 90.
func nearLimit(b core.BudgetCategory) bool {
	return b.Spent.Mul(hundred).GreaterThan(NearLimitThreshold.Mul(b.Amount))
}
