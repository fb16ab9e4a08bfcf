// Package cols implements column visibility, order and sizing: the mapping
// from visible grid position to source column index, per-column width
// measurement, and the three-way size constraint policy
// (Constrained/Full/Defined).
package cols

// Constraint is the width policy applied to one source column.
type Constraint int

const (
	// Constrained caps the effective width at 25 cells (the default).
	Constrained Constraint = iota
	// Full uses the full measured width, uncapped.
	Full
	// Defined pins the effective width to an exact value.
	Defined
)

const constrainedCap = 25

// SizeCmd is a user command adjusting a column's width constraint.
type SizeCmd int

const (
	CmdConstrain SizeCmd = iota
	CmdFull
	CmdLess
	CmdMore
)

type colSize struct {
	measured   int
	constraint Constraint
	defined    int // valid when constraint == Defined
}

// Cols tracks visible column order and per-source-column sizing.
type Cols struct {
	Headers    []string
	Order      []int // order[v] = source column index at visible position v
	size       []colSize
	KnownCols  int
	MaxColSeen int
}

// SetNbCols grows Order by appending every previously unseen source column
// (in natural order) and extends size to at least n entries with the
// default (measured=0, Constrained).
func (c *Cols) SetNbCols(n int) {
	if n > c.MaxColSeen {
		for s := c.MaxColSeen; s < n; s++ {
			c.Order = append(c.Order, s)
		}
		c.MaxColSeen = n
	}
	for len(c.size) < n {
		c.size = append(c.size, colSize{constraint: Constrained})
	}
	c.KnownCols = n
}

// Hide removes the column at visible position v.
func (c *Cols) Hide(v int) {
	if v < 0 || v >= len(c.Order) {
		return
	}
	c.Order = append(c.Order[:v], c.Order[v+1:]...)
}

// Left swaps the column at visible position v with its left neighbour; a
// no-op at v==0.
func (c *Cols) Left(v int) {
	if v <= 0 || v >= len(c.Order) {
		return
	}
	c.Order[v-1], c.Order[v] = c.Order[v], c.Order[v-1]
}

// Right swaps the column at visible position v with its right neighbour;
// a no-op at the last position.
func (c *Cols) Right(v int) {
	if v < 0 || v >= len(c.Order)-1 {
		return
	}
	c.Order[v], c.Order[v+1] = c.Order[v+1], c.Order[v]
}

// Observe raises the measured width of the source column at visible
// position v, if measured is larger than what's on record.
func (c *Cols) Observe(v int, measured int) {
	s := c.sourceOf(v)
	if s < 0 {
		return
	}
	if measured > c.size[s].measured {
		c.size[s].measured = measured
	}
}

// EffectiveSize returns the width to render the column at visible
// position v at, given its current measured width and constraint.
func (c *Cols) EffectiveSize(v int) int {
	s := c.sourceOf(v)
	if s < 0 {
		return 0
	}
	sz := c.size[s]
	switch sz.constraint {
	case Full:
		return sz.measured
	case Defined:
		return sz.defined
	default: // Constrained
		if sz.measured > constrainedCap {
			return constrainedCap
		}
		return sz.measured
	}
}

// SizeCmd applies a width-constraint command to the column at visible
// position v. Less/More convert to Defined(current±1).
func (c *Cols) SizeCmd(v int, cmd SizeCmd) {
	s := c.sourceOf(v)
	if s < 0 {
		return
	}
	switch cmd {
	case CmdConstrain:
		c.size[s].constraint = Constrained
	case CmdFull:
		c.size[s].constraint = Full
	case CmdLess:
		cur := c.EffectiveSize(v)
		c.size[s].constraint = Defined
		c.size[s].defined = max(0, cur-1)
	case CmdMore:
		cur := c.EffectiveSize(v)
		c.size[s].constraint = Defined
		c.size[s].defined = cur + 1
	}
}

// ResetSize clears every column's measured width and constraint back to
// the default.
func (c *Cols) ResetSize() {
	for i := range c.size {
		c.size[i] = colSize{constraint: Constrained}
	}
}

// Fit zeroes every column's measured width so the next render pass
// re-measures from scratch, without touching constraints.
func (c *Cols) Fit() {
	for i := range c.size {
		c.size[i].measured = 0
	}
}

// ColumnAt returns the source column index at visible position v, or -1 if
// v is out of range.
func (c *Cols) ColumnAt(v int) int { return c.sourceOf(v) }

func (c *Cols) sourceOf(v int) int {
	if v < 0 || v >= len(c.Order) {
		return -1
	}
	return c.Order[v]
}
