package nav

import "testing"

func TestRowOffsetClampsAndScrolls(t *testing.T) {
	var n Nav

	n.CRow = -5
	if got := n.RowOffset(100, 10); got != 0 {
		t.Fatalf("RowOffset clamp low: origin = %d, want 0", got)
	}
	if n.CRow != 0 {
		t.Fatalf("cursor not clamped to 0: got %d", n.CRow)
	}

	n.CRow = 500
	if got := n.RowOffset(100, 10); got != 90 {
		t.Fatalf("RowOffset clamp high: origin = %d, want 90", got)
	}
	if n.CRow != 99 {
		t.Fatalf("cursor not clamped to total-1: got %d", n.CRow)
	}

	// cursor moves below origin: origin should jump to cursor.
	n = Nav{CRow: 5, ORow: 20}
	if got := n.RowOffset(100, 10); got != 5 {
		t.Fatalf("RowOffset scroll up: origin = %d, want 5", got)
	}

	// cursor moves past origin+viewport: origin slides to keep cursor visible.
	n = Nav{CRow: 30, ORow: 0}
	if got := n.RowOffset(100, 10); got != 21 {
		t.Fatalf("RowOffset scroll down: origin = %d, want 21", got)
	}
}

func TestColIterKeepsCursorVisible(t *testing.T) {
	n := Nav{CCol: 7, OCol: 0}
	budget := 3 // only 3 columns fit
	var got []int
	n.ColIter(20, func(col int) bool {
		if len(got) >= budget {
			return false
		}
		got = append(got, col)
		return true
	})

	found := false
	for _, c := range got {
		if c == 7 {
			found = true
		}
	}
	if !found {
		t.Fatalf("ColIter(%v) does not include cursor column 7", got)
	}
}

func TestColIterPreservesOriginWhenItStillFits(t *testing.T) {
	n := Nav{CCol: 5, OCol: 2}
	var got []int
	n.ColIter(20, func(col int) bool {
		got = append(got, col)
		return len(got) < 6
	})
	if n.OCol > 2 {
		t.Fatalf("origin grew away from previous leftmost column: OCol = %d, want <= 2", n.OCol)
	}
}

func TestFullMoves(t *testing.T) {
	n := Nav{MRow: 50, MCol: 12}
	n.FullDown()
	if n.CRow != 50 {
		t.Fatalf("FullDown: CRow = %d, want 50", n.CRow)
	}
	n.FullUp()
	if n.CRow != 0 {
		t.Fatalf("FullUp: CRow = %d, want 0", n.CRow)
	}
	n.FullRight()
	if n.CCol != 12 {
		t.Fatalf("FullRight: CCol = %d, want 12", n.CCol)
	}
	n.FullLeft()
	if n.CCol != 0 {
		t.Fatalf("FullLeft: CCol = %d, want 0", n.CCol)
	}
}

func TestGoTo(t *testing.T) {
	var n Nav
	n.GoTo(42, 9)
	if n.CRow != 42 || n.CCol != 9 {
		t.Fatalf("GoTo: cursor = (%d,%d), want (42,9)", n.CRow, n.CCol)
	}
}
