package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ChartKind selects how a dataset is drawn. It never changes the numbers.
type ChartKind string

const (
	ChartBar   ChartKind = "bar"
	ChartLine  ChartKind = "line"
	ChartArea  ChartKind = "area"
	ChartRadar ChartKind = "radar"
)

// ChartSource selects which derived structure feeds the chart.
type ChartSource string

const (
	SourceCategory ChartSource = "category"
	SourceDaily    ChartSource = "daily"
)

// ParseChartKind accepts bar, line, area or radar; empty means bar.
func ParseChartKind(s string) (ChartKind, error) {
	switch k := ChartKind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return ChartBar, nil
	case ChartBar, ChartLine, ChartArea, ChartRadar:
		return k, nil
	default:
		return "", fmt.Errorf("unknown chart kind %q", s)
	}
}

// ParseChartSource accepts category or daily; empty means category.
func ParseChartSource(s string) (ChartSource, error) {
	switch src := ChartSource(strings.ToLower(strings.TrimSpace(s))); src {
	case "":
		return SourceCategory, nil
	case SourceCategory, SourceDaily:
		return src, nil
	default:
		return "", fmt.Errorf("unknown chart source %q", s)
	}
}

// Chart is the column-oriented shape consumed by charting front ends.
type Chart struct {
	Kind    ChartKind         `json:"kind"`
	Source  ChartSource       `json:"source"`
	XKey    string            `json:"x_key"`
	Polar   bool              `json:"polar"`
	Labels  []string          `json:"labels"`
	Income  []decimal.Decimal `json:"income"`
	Expense []decimal.Decimal `json:"expense"`
}

// BuildChart lays out the selected structure of r for the given kind.
func BuildChart(kind ChartKind, source ChartSource, r Report) Chart {
	c := Chart{
		Kind:   kind,
		Source: source,
		Polar:  kind == ChartRadar,
	}
	switch source {
	case SourceDaily:
		c.XKey = "date"
		for _, p := range r.Daily {
			c.Labels = append(c.Labels, p.Date)
			c.Income = append(c.Income, p.Income)
			c.Expense = append(c.Expense, p.Expense)
		}
	default:
		c.XKey = "name"
		for _, row := range r.Categories {
			c.Labels = append(c.Labels, row.Category)
			c.Income = append(c.Income, row.Income)
			c.Expense = append(c.Expense, row.Expense)
		}
	}
	if c.Labels == nil {
		c.Labels, c.Income, c.Expense = []string{}, []decimal.Decimal{}, []decimal.Decimal{}
	}
	return c
}
