package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"fintrack/internal/core"
)

// FormatCurrency renders amount for display, e.g. "₹1,23,456.79" or "-$12.50".
// The symbol is the currency's narrow CLDR symbol; INR groups digits the
// Indian way (last three, then pairs), the others in thousands.
func FormatCurrency(amount decimal.Decimal, c core.Currency) (string, error) {
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", core.ErrInvalidCurrency, string(c))
	}
	unit, err := currency.ParseISO(string(c))
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrInvalidCurrency, err)
	}
	symbol := fmt.Sprint(currency.NarrowSymbol(unit))

	rounded := amount.Round(core.MinorUnitPlaces)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	fixed := rounded.StringFixed(core.MinorUnitPlaces)
	intPart, frac, _ := strings.Cut(fixed, ".")
	return sign + symbol + group(intPart, c == core.INR) + "." + frac, nil
}

func group(digits string, indian bool) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	size := 3
	if indian {
		size = 2
	}
	var parts []string
	for len(head) > size {
		parts = append([]string{head[len(head)-size:]}, parts...)
		head = head[:len(head)-size]
	}
	parts = append([]string{head}, parts...)
	return strings.Join(parts, ",") + "," + tail
}
