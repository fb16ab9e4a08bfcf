package format

// ColStat accumulates per-column width statistics used to pick a render
// budget before clipping against remaining screen width.
type ColStat struct {
	HeaderWidth  int
	MaxLhs       int
	MaxRhs       int
	AlignDecimal bool // set once any Number has been observed
	OnlyString   bool // true until a non-String value is observed
	sawAny       bool
}

// NewColStat seeds a ColStat from a header label's display width.
func NewColStat(headerWidth int) ColStat {
	return ColStat{HeaderWidth: headerWidth, OnlyString: true}
}

// Observe folds one field's guessed type into the running statistics.
func (s *ColStat) Observe(g Guess) {
	s.sawAny = true
	switch g.Kind {
	case KindNumber:
		s.AlignDecimal = true
		s.OnlyString = false
		lhs, rhs := g.Num.LhsWidth(), g.Num.RhsWidth()
		if g.Num.Neg {
			lhs++ // reserve room for the sign
		}
		if lhs > s.MaxLhs {
			s.MaxLhs = lhs
		}
		if rhs > s.MaxRhs {
			s.MaxRhs = rhs
		}
	case KindBoolean:
		s.OnlyString = false
	}
}

// Budget returns the target on-screen width for this column, pre-clipping
// against remaining screen width: max(lhs+rhs, header) capped at 25 cells
// if every observed value was a String, else 40.
func (s ColStat) Budget() int {
	cap := 40
	if s.OnlyString {
		cap = 25
	}
	width := s.HeaderWidth
	numWidth := s.MaxLhs + s.MaxRhs
	if s.AlignDecimal && numWidth > 0 {
		w := numWidth
		if s.MaxRhs > 0 {
			w++ // the decimal point itself
		}
		if w > width {
			width = w
		}
	}
	if width > cap {
		width = cap
	}
	return width
}
