package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func sampleSnapshot() core.Snapshot {
	return core.Snapshot{
		OwnerID: "owner-1",
		Profile: core.UserProfile{OwnerID: "owner-1", Currency: core.USD},
		Transactions: []core.Transaction{
			tx("a", core.Income, "3000", "Salary", day1),
			tx("b", core.Expense, "120.40", "Food", day1),
			tx("c", core.Expense, "-1", "Food", day1),
			tx("d", core.Expense, "80", "Travel", time.Time{}),
		},
		Budgets: []core.BudgetCategory{budget("food", "200", "150")},
	}
}

func TestBuild(t *testing.T) {
	r := Build(sampleSnapshot(), Options{})

	assert.Equal(t, "owner-1", r.OwnerID)
	assert.Equal(t, core.USD, r.Currency)
	assertDec(t, "2799.60", r.Totals.NetSavings)
	assert.Len(t, r.Categories, 3)
	require.Len(t, r.Daily, 2)
	assert.Equal(t, UnknownDay, r.Daily[1].Date)
	require.Len(t, r.Budgets, 1)
	assertDec(t, "75", r.Budgets[0].Progress)
	assert.Equal(t, []string{"c"}, r.Skipped)
	require.Len(t, r.Issues, 2)
	assert.True(t, r.GeneratedAt.IsZero())
}

func TestBuild_DefaultCurrency(t *testing.T) {
	r := Build(core.Snapshot{OwnerID: "o"}, Options{})
	assert.Equal(t, core.DefaultCurrency, r.Currency)
	assert.Empty(t, r.Skipped)
}

func TestBuild_Deterministic(t *testing.T) {
	assert.Equal(t, Build(sampleSnapshot(), Options{}), Build(sampleSnapshot(), Options{}))
}

func TestMemo(t *testing.T) {
	m := NewMemo(Options{}, 8, time.Minute)

	first, cached := m.Build(sampleSnapshot())
	assert.False(t, cached)
	second, cached := m.Build(sampleSnapshot())
	assert.True(t, cached)
	assert.Equal(t, first, second)

	changed := sampleSnapshot()
	changed.Budgets[0].Spent = dec("190")
	r, cached := m.Build(changed)
	assert.False(t, cached)
	assert.True(t, r.Budgets[0].NearLimit)

	other := sampleSnapshot()
	other.OwnerID = "owner-10"
	_, _ = m.Build(other)

	assert.Equal(t, 2, m.Forget("owner-1"))
	assert.Equal(t, 1, m.Cache().Size())
	_, cached = m.Build(sampleSnapshot())
	assert.False(t, cached)
}

func TestFingerprint(t *testing.T) {
	s := sampleSnapshot()
	base := Fingerprint(s)
	assert.Equal(t, base, Fingerprint(sampleSnapshot()))

	s.Transactions[0].Amount = dec("3000.01")
	assert.NotEqual(t, base, Fingerprint(s))

	s = sampleSnapshot()
	s.Profile.Currency = core.EUR
	assert.NotEqual(t, base, Fingerprint(s))

	s = sampleSnapshot()
	s.Transactions[0].Description = "edited"
	assert.Equal(t, base, Fingerprint(s))
}
