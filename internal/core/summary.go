package core

import "github.com/shopspring/decimal"

// DailyPoint is the income and expense booked on one calendar day.
type DailyPoint struct {
	Date    string          `json:"date"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// CategorySummary is the income and expense aggregated by category name.
type CategorySummary struct {
	Category string          `json:"name"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
}

// Totals is the scalar summary of a set of transactions.
type Totals struct {
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	NetSavings   decimal.Decimal `json:"net_savings"`
}

// Snapshot is a full point-in-time view of one owner's records.
type Snapshot struct {
	OwnerID      string
	Profile      UserProfile
	Transactions []Transaction
	Budgets      []BudgetCategory
}
