// Package nav implements the row/column cursor and viewport model: a
// clamped row scrollbar and a column-packing iterator that keeps the
// cursor visible while preserving the previous leftmost column across
// redraws when it still fits.
package nav

// Nav tracks the grid cursor and viewport in both axes. Cursor coordinates
// are in visible-column space; callers translate through Cols.Order to
// reach source columns.
type Nav struct {
	CRow, CCol int // cursor
	ORow, OCol int // viewport origin
	MRow, MCol int // last-seen maxima
	VRow, VCol int // last-seen viewport extents (rows, visible columns)
}

// RowOffset clamps the row cursor to [0, total-1] and slides the row
// origin so the cursor stays inside [origin, origin+viewportRows). It
// returns the (possibly updated) origin.
func (n *Nav) RowOffset(total, viewportRows int) int {
	if total <= 0 {
		n.CRow, n.ORow = 0, 0
		return 0
	}
	if n.CRow < 0 {
		n.CRow = 0
	}
	if n.CRow > total-1 {
		n.CRow = total - 1
	}
	if n.CRow < n.ORow {
		n.ORow = n.CRow
	} else if viewportRows > 0 && n.CRow >= n.ORow+viewportRows {
		n.ORow = n.CRow - viewportRows + 1
	}
	if n.ORow < 0 {
		n.ORow = 0
	}
	n.VRow = viewportRows
	n.MRow = total - 1
	return n.ORow
}

// Fitter reports whether a candidate column fits the remaining screen
// width, and if so accounts for its consumed width. ColIter calls it once
// per yielded column, in yield order.
type Fitter func(col int) bool

// ColIter implements the column-packing algorithm: columns
// are yielded in an order that keeps the cursor visible while preferring
// to keep the previous leftmost column (n.OCol) on screen if it still
// fits. maxCol is the highest valid column index (inclusive). fit is
// called once per candidate, in yield order, and iteration stops at the
// first false.
//
// The new leftmost visible column is the smallest accepted column;
// ColIter stores it in n.OCol before returning.
func (n *Nav) ColIter(maxCol int, fit Fitter) {
	goalLeft := n.OCol
	cursor := n.CCol
	if cursor < 0 {
		cursor = 0
	}
	if cursor > maxCol {
		cursor = maxCol
	}
	n.CCol = cursor
	n.MCol = maxCol
	if goalLeft > cursor {
		// Cursor moved left past the origin: the origin becomes the cursor.
		goalLeft = cursor
	}

	newOrigin := cursor
	for step := 0; ; step++ {
		var col int
		switch {
		case goalLeft+step <= cursor:
			col = cursor - step
		case goalLeft+step <= maxCol:
			col = goalLeft + step
		case step <= maxCol:
			col = maxCol - step
		default:
			return
		}
		if !fit(col) {
			return
		}
		if col <= goalLeft && col < newOrigin {
			newOrigin = col
		}
		n.OCol = newOrigin
	}
}

// GoTo sets the cursor directly; the next RowOffset/ColIter call
// reconciles the viewport origin around it.
func (n *Nav) GoTo(row, col int) {
	n.CRow, n.CCol = row, col
}

// FullUp moves the row cursor to the first row.
func (n *Nav) FullUp() { n.CRow = 0 }

// FullDown moves the row cursor to the last-seen maximum row.
func (n *Nav) FullDown() { n.CRow = n.MRow }

// FullLeft moves the column cursor to the first column.
func (n *Nav) FullLeft() { n.CCol = 0 }

// FullRight moves the column cursor to the last-seen maximum column.
func (n *Nav) FullRight() { n.CCol = n.MCol }
