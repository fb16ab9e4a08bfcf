package cols

import "testing"

func TestSetNbColsAppendsNewAndExtendsSize(t *testing.T) {
	var c Cols
	c.SetNbCols(3)
	if len(c.Order) != 3 {
		t.Fatalf("Order = %v, want length 3", c.Order)
	}
	for i, s := range c.Order {
		if s != i {
			t.Fatalf("Order[%d] = %d, want %d (natural order)", i, s, i)
		}
	}

	c.SetNbCols(5)
	if len(c.Order) != 5 {
		t.Fatalf("Order after growth = %v, want length 5", c.Order)
	}
	if c.Order[3] != 3 || c.Order[4] != 4 {
		t.Fatalf("newly-seen columns not appended in natural order: %v", c.Order)
	}
}

func TestHideRemovesVisiblePosition(t *testing.T) {
	var c Cols
	c.SetNbCols(4)
	c.Hide(1)
	want := []int{0, 2, 3}
	if len(c.Order) != len(want) {
		t.Fatalf("Order = %v, want %v", c.Order, want)
	}
	for i := range want {
		if c.Order[i] != want[i] {
			t.Fatalf("Order = %v, want %v", c.Order, want)
		}
	}
}

func TestHideDoesNotRemoveSizeEntry(t *testing.T) {
	var c Cols
	c.SetNbCols(3)
	c.Observe(1, 10)
	c.Hide(1)
	if len(c.size) != 3 {
		t.Fatalf("size entries = %d, want 3 (unaffected by Hide)", len(c.size))
	}
}

func TestLeftRightSwapNeighbours(t *testing.T) {
	var c Cols
	c.SetNbCols(3) // Order = [0,1,2]

	c.Left(0) // no-op
	if c.Order[0] != 0 {
		t.Fatalf("Left at 0 should be a no-op: %v", c.Order)
	}

	c.Right(1) // swap positions 1,2 -> [0,2,1]
	if c.Order[1] != 2 || c.Order[2] != 1 {
		t.Fatalf("Right(1) = %v, want [0,2,1]", c.Order)
	}

	c.Right(2) // last position, no-op
	if c.Order[2] != 1 {
		t.Fatalf("Right at last position should be a no-op: %v", c.Order)
	}

	c.Left(1) // swap positions 0,1 -> [2,0,1]
	if c.Order[0] != 2 || c.Order[1] != 0 {
		t.Fatalf("Left(1) = %v, want [2,0,1]", c.Order)
	}
}

func TestEffectiveSizeConstraintPolicies(t *testing.T) {
	var c Cols
	c.SetNbCols(3)

	c.Observe(0, 30)
	if got := c.EffectiveSize(0); got != 25 {
		t.Fatalf("Constrained EffectiveSize = %d, want 25 (capped)", got)
	}

	c.SizeCmd(0, CmdFull)
	if got := c.EffectiveSize(0); got != 30 {
		t.Fatalf("Full EffectiveSize = %d, want 30 (uncapped)", got)
	}

	c.SizeCmd(0, CmdLess)
	if got := c.EffectiveSize(0); got != 29 {
		t.Fatalf("after CmdLess, EffectiveSize = %d, want 29", got)
	}
	c.SizeCmd(0, CmdMore)
	if got := c.EffectiveSize(0); got != 30 {
		t.Fatalf("after CmdMore, EffectiveSize = %d, want 30", got)
	}
}

func TestResetSizeAndFit(t *testing.T) {
	var c Cols
	c.SetNbCols(2)
	c.Observe(0, 40)
	c.SizeCmd(0, CmdFull)

	c.Fit()
	if got := c.EffectiveSize(0); got != 0 {
		t.Fatalf("Fit should zero measured width: EffectiveSize = %d, want 0", got)
	}

	c.Observe(0, 40)
	c.ResetSize()
	if got := c.EffectiveSize(0); got != 0 {
		t.Fatalf("ResetSize should clear measured width: EffectiveSize = %d, want 0", got)
	}
}
