package reconstruct

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// COERCION LAYER
// =============================================================================
// Every field read from a row goes through one of these helpers so missing
// and malformed cells are handled the same way everywhere. None of them
// return an error: a bad cell degrades to its default.

// StringOr returns the trimmed cell text, or def when the cell is blank.
func StringOr(cell, def string) string {
	if s := strings.TrimSpace(cell); s != "" {
		return s
	}
	return def
}

// String returns the trimmed cell text, or "" when the cell is blank.
func String(cell string) string {
	return StringOr(cell, "")
}

// NumberOrZero parses a numeric cell. Cells read as formatted text may carry
// a currency sign, thousands separators or accounting parentheses
// ("$1,234.50", "(12.00)"); those are accepted. Anything else, including
// "N/A" and blank cells, is zero.
//
// The second result reports whether the cell held a non-blank value that
// could not be parsed.
func NumberOrZero(cell string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(cell)
	if s == "" {
		return decimal.Zero, false
	}

	if d, err := decimal.NewFromString(s); err == nil {
		return d, false
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = strings.TrimSpace(s[1:])
	}
	s = strings.TrimLeft(s, "$€£¥ ")
	s = strings.ReplaceAll(s, ",", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, true
	}
	if negative {
		d = d.Neg()
	}
	return d, false
}
