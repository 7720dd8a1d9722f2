package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"fintrack/internal/core"
)

var day1 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tx(id string, typ core.TransactionType, amount, category string, at time.Time) core.Transaction {
	return core.Transaction{
		ID:          id,
		OwnerID:     "owner-1",
		Amount:      dec(amount),
		Category:    category,
		Description: id,
		Type:        typ,
		Date:        at,
	}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}
