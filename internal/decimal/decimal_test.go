package decimal

import "testing"

func TestParseValid(t *testing.T) {
	cases := []struct {
		in       string
		wantNeg  bool
		wantInt  string
		wantFrac string
	}{
		{"0", false, "0", ""},
		{"123", false, "123", ""},
		{"-123", true, "123", ""},
		{"+123", false, "123", ""},
		{"3.14", false, "3", "14"},
		{"-0.5", true, "0", "5"},
		{".5", false, "", "5"},
		{"5.", false, "5", ""},
	}
	for _, c := range cases {
		d, ok := Parse([]byte(c.in))
		if !ok {
			t.Errorf("Parse(%q) ok = false, want true", c.in)
			continue
		}
		if d.Neg != c.wantNeg || d.IntPart != c.wantInt || d.FracPart != c.wantFrac {
			t.Errorf("Parse(%q) = %+v, want {Neg:%v IntPart:%q FracPart:%q}",
				c.in, d, c.wantNeg, c.wantInt, c.wantFrac)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	cases := []string{"", "-", "+", ".", "1.2.3", "1a", "a1", "1 ", " 1", "--1"}
	for _, in := range cases {
		if _, ok := Parse([]byte(in)); ok {
			t.Errorf("Parse(%q) ok = true, want false", in)
		}
	}
}

func TestStringRoundTrip(t *testing.T) {
	cases := []string{"0", "123", "-123", "3.14", "-0.5", "5"}
	for _, in := range cases {
		d, ok := Parse([]byte(in))
		if !ok {
			t.Fatalf("Parse(%q) failed", in)
		}
		if got := d.String(); got != in {
			t.Errorf("String() = %q, want %q", got, in)
		}
	}
}

func TestCompare(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"1", "2", -1},
		{"2", "1", 1},
		{"1", "1", 0},
		{"1.5", "1.50", 0},
		{"-1", "1", -1},
		{"0.1", "0.09999999999999999999999999", 1},
		{"100", "99.999", 1},
	}
	for _, c := range cases {
		da, _ := Parse([]byte(c.a))
		db, _ := Parse([]byte(c.b))
		if got := Compare(da, db); got != c.want {
			t.Errorf("Compare(%q, %q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestWidths(t *testing.T) {
	d, ok := Parse([]byte("-123.456"))
	if !ok {
		t.Fatal("Parse failed")
	}
	if d.LhsWidth() != 3 {
		t.Errorf("LhsWidth() = %d, want 3", d.LhsWidth())
	}
	if d.RhsWidth() != 3 {
		t.Errorf("RhsWidth() = %d, want 3", d.RhsWidth())
	}
}
