package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestParseChartKind(t *testing.T) {
	for in, want := range map[string]ChartKind{"": ChartBar, "bar": ChartBar, "LINE": ChartLine, " area ": ChartArea, "radar": ChartRadar} {
		got, err := ParseChartKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseChartKind("pie")
	assert.Error(t, err)
}

func TestParseChartSource(t *testing.T) {
	got, err := ParseChartSource("")
	require.NoError(t, err)
	assert.Equal(t, SourceCategory, got)

	got, err = ParseChartSource("Daily")
	require.NoError(t, err)
	assert.Equal(t, SourceDaily, got)

	_, err = ParseChartSource("weekly")
	assert.Error(t, err)
}

func TestBuildChart(t *testing.T) {
	r := Build(core.Snapshot{
		OwnerID: "owner-1",
		Transactions: []core.Transaction{
			tx("a", core.Expense, "50", "Food", day1),
			tx("b", core.Income, "900", "Salary", day1),
		},
	}, Options{})

	byCategory := BuildChart(ChartBar, SourceCategory, r)
	assert.Equal(t, "name", byCategory.XKey)
	assert.False(t, byCategory.Polar)
	assert.Equal(t, []string{"Food", "Salary"}, byCategory.Labels)
	require.Len(t, byCategory.Expense, 2)
	assertDec(t, "50", byCategory.Expense[0])
	assertDec(t, "900", byCategory.Income[1])

	byDay := BuildChart(ChartLine, SourceDaily, r)
	assert.Equal(t, "date", byDay.XKey)
	assert.Equal(t, []string{"2024-03-01"}, byDay.Labels)

	radar := BuildChart(ChartRadar, SourceCategory, r)
	assert.True(t, radar.Polar)
	assert.Equal(t, byCategory.Labels, radar.Labels)
	assert.Equal(t, byCategory.Income, radar.Income)
}

func TestBuildChart_Empty(t *testing.T) {
	c := BuildChart(ChartArea, SourceDaily, Build(core.Snapshot{OwnerID: "o"}, Options{}))
	assert.NotNil(t, c.Labels)
	assert.NotNil(t, c.Income)
	assert.NotNil(t, c.Expense)
	assert.Empty(t, c.Labels)
}
