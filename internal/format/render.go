package format

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Render lays out one field's text into exactly width display cells:
//   - Numbers: right-align the integer part to stat.MaxLhs, then append the
//     fraction (with its '.'), padded to width.
//   - Booleans/Strings in a decimal-aligned column: right-padded so the
//     field's right edge matches the number column.
//   - Otherwise: left-aligned, truncated at width with the last visible
//     cell replaced by '…' when truncation occurred.
//
// Truncation is width-aware: double-width glyphs count as 2 display cells.
func Render(g Guess, raw []byte, stat ColStat, width int) string {
	text := strings.TrimSpace(string(raw))

	switch g.Kind {
	case KindNumber:
		return renderNumber(g, stat, width)
	default:
		if stat.AlignDecimal {
			return padLeftToWidth(text, width)
		}
		return truncateOrPad(text, width)
	}
}

// renderNumber right-aligns the integer part to stat.MaxLhs and appends the
// fractional part (if any), then pads the whole to width.
func renderNumber(g Guess, stat ColStat, width int) string {
	var b strings.Builder
	intPart := g.Num.IntPart
	if g.Num.Neg {
		intPart = "-" + intPart
	}
	lhs := stat.MaxLhs
	if pad := lhs - runewidth.StringWidth(intPart); pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	b.WriteString(intPart)
	if g.Num.FracPart != "" {
		b.WriteByte('.')
		b.WriteString(g.Num.FracPart)
	}
	return padRightToWidth(b.String(), width)
}

// padLeftToWidth right-pads a non-numeric value in a decimal-aligned
// column so the field's right edge matches the number column (i.e. the
// value sits flush with the column's right boundary, same as a number
// would, since numbers are themselves right-padded to width by
// renderNumber).
func padLeftToWidth(s string, width int) string {
	return padRightToWidth(s, width)
}

func padRightToWidth(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return truncateToWidth(s, width)
	}
	return s + strings.Repeat(" ", width-w)
}

// truncateOrPad left-aligns s, truncating with a trailing '…' if s is
// wider than width, else right-padding with spaces.
func truncateOrPad(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w <= width {
		return s + strings.Repeat(" ", width-w)
	}
	return truncateToWidth(s, width)
}

// truncateToWidth clips s to at most width display cells, replacing the
// final visible cell with '…' if anything was cut off. Handles width<=0 by
// returning an empty string.
func truncateToWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if width == 1 {
		return "…"
	}
	target := width - 1
	w := 0
	cut := len(s)
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > target {
			cut = i
			break
		}
		w += rw
		cut = i + len(string(r))
	}
	out := s[:cut]
	pad := target - runewidth.StringWidth(out)
	if pad > 0 {
		out += strings.Repeat(" ", pad)
	}
	return out + "…"
}
