// Package currency renders monetary values for display. Formatting is a
// presentation concern only: formatters never change the numbers they are
// given.
package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

// IDR formats amounts as Indonesian rupiah, e.g. "Rp. 1.234.567,89":
// dot-separated thousands, comma decimal mark, always two decimals.
type IDR struct{}

// Format implements the display contract used by the pricing engine.
func (IDR) Format(v decimal.Decimal) string {
	fixed := v.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	whole, frac, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	b.WriteString("Rp. ")
	if negative {
		b.WriteString("-")
	}
	b.WriteString(groupThousands(whole))
	b.WriteString(",")
	b.WriteString(frac)
	return b.String()
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteString(".")
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
