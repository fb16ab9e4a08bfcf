package format

import "testing"

func TestTypeOfBoolean(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"true", true},
		{"TRUE", true},
		{"False", false},
		{"FALSE", false},
	}
	for _, c := range cases {
		g := TypeOf([]byte(c.in))
		if g.Kind != KindBoolean {
			t.Errorf("TypeOf(%q).Kind = %v, want KindBoolean", c.in, g.Kind)
			continue
		}
		if g.Bool != c.want {
			t.Errorf("TypeOf(%q).Bool = %v, want %v", c.in, g.Bool, c.want)
		}
	}
}

func TestTypeOfNumber(t *testing.T) {
	cases := []string{"42", "-3.14", "0", "  7  "}
	for _, in := range cases {
		g := TypeOf([]byte(in))
		if g.Kind != KindNumber || !g.IsNum {
			t.Errorf("TypeOf(%q) = %+v, want a number", in, g)
		}
	}
}

func TestTypeOfString(t *testing.T) {
	cases := []string{"hello", "", "12a", "a12", "truely", "--5"}
	for _, in := range cases {
		g := TypeOf([]byte(in))
		if g.Kind != KindString {
			t.Errorf("TypeOf(%q).Kind = %v, want KindString", in, g.Kind)
		}
	}
}
