// Package decimal provides arbitrary-precision decimal parsing and
// comparison shared by the filter evaluator (internal/filter) and the
// field formatter (internal/format), grounded on math/big.Rat: none of the
// retrieval pack vendors a decimal library, so this stays on the standard
// library rather than hand-rolling fixed-point arithmetic (see DESIGN.md).
package decimal

import (
	"math/big"
	"strings"
)

// Decimal is a parsed numeric literal, keeping the original digit counts on
// each side of the point so formatting can round-trip widths exactly.
type Decimal struct {
	Neg      bool
	IntPart  string // digits before the point, no sign, no leading-zero trimming
	FracPart string // digits after the point, empty if there was no point
}

// LhsWidth is the number of digits before the decimal point.
func (d Decimal) LhsWidth() int { return len(d.IntPart) }

// RhsWidth is the number of digits after the decimal point.
func (d Decimal) RhsWidth() int { return len(d.FracPart) }

// Rat returns the value as an exact rational for comparison.
func (d Decimal) Rat() *big.Rat {
	s := d.IntPart
	if s == "" {
		s = "0"
	}
	if d.FracPart != "" {
		s = s + "." + d.FracPart
	}
	r := new(big.Rat)
	r.SetString(s)
	if d.Neg {
		r.Neg(r)
	}
	return r
}

// String renders the decimal back to text, e.g. for a short comparison
// buffer when a filter value is numeric but the field is not.
func (d Decimal) String() string {
	var b strings.Builder
	if d.Neg {
		b.WriteByte('-')
	}
	if d.IntPart == "" {
		b.WriteByte('0')
	} else {
		b.WriteString(d.IntPart)
	}
	if d.FracPart != "" {
		b.WriteByte('.')
		b.WriteString(d.FracPart)
	}
	return b.String()
}

// Parse attempts to parse b as a decimal: an optional sign, digits,
// an optional '.', digits. Returns ok=false if b is not a clean decimal
// (extra characters, empty, bare sign, bare point).
func Parse(b []byte) (Decimal, bool) {
	if len(b) == 0 {
		return Decimal{}, false
	}
	i := 0
	neg := false
	switch b[0] {
	case '-':
		neg = true
		i++
	case '+':
		i++
	}
	start := i
	for i < len(b) && b[i] >= '0' && b[i] <= '9' {
		i++
	}
	intPart := string(b[start:i])

	var fracPart string
	if i < len(b) && b[i] == '.' {
		i++
		fstart := i
		for i < len(b) && b[i] >= '0' && b[i] <= '9' {
			i++
		}
		fracPart = string(b[fstart:i])
	}
	if i != len(b) {
		return Decimal{}, false // trailing garbage
	}
	if intPart == "" && fracPart == "" {
		return Decimal{}, false // bare sign or bare point
	}
	return Decimal{Neg: neg, IntPart: intPart, FracPart: fracPart}, true
}

// Compare returns -1, 0, 1 comparing a and b numerically.
func Compare(a, b Decimal) int {
	return a.Rat().Cmp(b.Rat())
}
