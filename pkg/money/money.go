// Package money formats integer cent amounts for display. All monetary values
// in the system are stored as int64 cents; only the boundary renders strings.
package money

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders cents as a currency-prefixed, thousands-separated string,
// e.g. Format("KES", 123456) -> "KES 1,234.56". Negative amounts keep the
// sign in front of the number: "KES -1,234.56".
func Format(currency string, cents int64) string {
	return currency + " " + FormatPlain(cents)
}

// FormatPlain renders cents without a currency prefix, e.g. "1,234.56".
func FormatPlain(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := cents / 100
	frac := cents % 100
	return fmt.Sprintf("%s%s.%02d", sign, group(whole), frac)
}

// group inserts comma thousands separators into a non-negative integer.
func group(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
