package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatPeso renders an amount as "₱1,234.50".
func FormatPeso(amount decimal.Decimal) string {
	s := amount.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := "₱" + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
