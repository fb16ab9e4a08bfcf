package format

import "testing"

func TestColStatBudgetStringOnlyCapsAt25(t *testing.T) {
	s := NewColStat(3)
	for i := 0; i < 5; i++ {
		s.Observe(TypeOf([]byte("a string value that is quite long indeed")))
	}
	if !s.OnlyString {
		t.Fatalf("OnlyString = false, want true")
	}
	if got := s.Budget(); got != 25 {
		t.Errorf("Budget() = %d, want 25 (string cap)", got)
	}
}

func TestColStatBudgetNumberCapsAt40(t *testing.T) {
	s := NewColStat(3)
	long := make([]byte, 50)
	for i := range long {
		long[i] = '9'
	}
	s.Observe(TypeOf(long))
	if s.OnlyString {
		t.Fatalf("OnlyString = true after observing a number, want false")
	}
	if got := s.Budget(); got != 40 {
		t.Errorf("Budget() = %d, want 40 (number cap)", got)
	}
}

func TestColStatBudgetUsesHeaderWidthWhenWider(t *testing.T) {
	s := NewColStat(10)
	s.Observe(TypeOf([]byte("1")))
	if got := s.Budget(); got != 10 {
		t.Errorf("Budget() = %d, want 10 (header width wins)", got)
	}
}

func TestColStatBudgetAccountsForDecimalPoint(t *testing.T) {
	s := NewColStat(0)
	s.Observe(TypeOf([]byte("123.45")))
	// MaxLhs=3, MaxRhs=2, plus 1 for the decimal point == 6.
	if got := s.Budget(); got != 6 {
		t.Errorf("Budget() = %d, want 6", got)
	}
}

func TestColStatBudgetReservesSignWidth(t *testing.T) {
	s := NewColStat(0)
	s.Observe(TypeOf([]byte("-5")))
	if got := s.Budget(); got != 2 {
		t.Errorf("Budget() = %d, want 2 (sign + digit)", got)
	}
}
