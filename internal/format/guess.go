// Package format implements type guessing, per-column width statistics and
// field rendering for the grid view, favoring fixed-width, allocation-averse
// buffers over building up strings.
package format

import (
	"bytes"

	"github.com/csvquery/csvex/internal/decimal"
)

// Kind classifies a field's guessed type.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBoolean
)

// Guess is the result of classifying one field's raw bytes.
type Guess struct {
	Kind  Kind
	Bool  bool
	Num   decimal.Decimal
	IsNum bool // true iff Kind == KindNumber (Num is valid)
}

// TypeOf classifies field b's type: Boolean if it's a case-insensitive
// true/false, Number if it parses as a decimal, else String.
func TypeOf(b []byte) Guess {
	trimmed := bytes.TrimSpace(b)
	if bv, ok := parseBool(trimmed); ok {
		return Guess{Kind: KindBoolean, Bool: bv}
	}
	if d, ok := decimal.Parse(trimmed); ok {
		return Guess{Kind: KindNumber, Num: d, IsNum: true}
	}
	return Guess{Kind: KindString}
}

func parseBool(b []byte) (bool, bool) {
	switch {
	case bytesEqualFold(b, "true"):
		return true, true
	case bytesEqualFold(b, "false"):
		return false, true
	}
	return false, false
}

func bytesEqualFold(b []byte, s string) bool {
	if len(b) != len(s) {
		return false
	}
	for i := 0; i < len(b); i++ {
		c := b[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if c != s[i] {
			return false
		}
	}
	return true
}
