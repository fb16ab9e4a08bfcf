package filter

import "testing"

func TestCompileEmptySourceIsIdentity(t *testing.T) {
	f, err := Compile("", 3)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !f.IsIdentity() {
		t.Errorf("IsIdentity() = false, want true for empty source")
	}

	f2, err := Compile("   ", 3)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !f2.IsIdentity() {
		t.Errorf("IsIdentity() = false, want true for whitespace-only source")
	}
}

func TestCompileExistNode(t *testing.T) {
	f, err := Compile("0", 2)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(f.Nodes) != 1 || f.Nodes[f.Start].Kind != NodeExist {
		t.Fatalf("got %+v, want a single NodeExist", f.Nodes)
	}
}

func TestCompileColumnOutOfRange(t *testing.T) {
	_, err := Compile("5", 2)
	if err == nil {
		t.Fatalf("expected a compile error for a column index out of range")
	}
	ce, ok := err.(*CompileError)
	if !ok {
		t.Fatalf("error type = %T, want *CompileError", err)
	}
	if ce.Msg == "" {
		t.Errorf("CompileError.Msg is empty")
	}
}

func TestCompileComparisonOperators(t *testing.T) {
	cases := []struct {
		src  string
		want CmpOp
	}{
		{"0==5", OpEq},
		{"0!=5", OpNeq},
		{"0>5", OpGt},
		{"0<5", OpLt},
		{"0>=5", OpGte},
		{"0<=5", OpLte},
		{"0 eq 5", OpEq},
		{"0 ge 5", OpGte},
	}
	for _, c := range cases {
		f, err := Compile(c.src, 1)
		if err != nil {
			t.Fatalf("Compile(%q): %v", c.src, err)
		}
		n := f.Nodes[f.Start]
		if n.Kind != NodeCmp || n.Op != c.want {
			t.Errorf("Compile(%q) node = %+v, want Op=%v", c.src, n, c.want)
		}
	}
}

func TestCompileMultiValueAnyDefaultsToAll(t *testing.T) {
	f, err := Compile(`0=={1,2,3}`, 1)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	n := f.Nodes[f.Start]
	if n.Combine != CombineAll {
		t.Errorf("default Combine = %v, want CombineAll", n.Combine)
	}
	if got := n.Values[1] - n.Values[0]; got != 3 {
		t.Errorf("value count = %d, want 3", got)
	}
}

func TestCompileMultiValueAnyKeyword(t *testing.T) {
	f, err := Compile(`0==any{1,2}`, 1)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	n := f.Nodes[f.Start]
	if n.Combine != CombineAny {
		t.Errorf("Combine = %v, want CombineAny", n.Combine)
	}
}

func TestCompileMatchNode(t *testing.T) {
	f, err := Compile(`0~"^a.*z$"`, 1)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	n := f.Nodes[f.Start]
	if n.Kind != NodeMatch {
		t.Fatalf("Kind = %v, want NodeMatch", n.Kind)
	}
	if got := n.Regex[1] - n.Regex[0]; got != 1 {
		t.Fatalf("regex count = %d, want 1", got)
	}
}

func TestCompileInvalidRegex(t *testing.T) {
	_, err := Compile(`0~"("`, 1)
	if err == nil {
		t.Fatalf("expected an error for an invalid regular expression")
	}
}

func TestCompileFieldRange(t *testing.T) {
	f, err := Compile("0[1:3]", 1)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	n := f.Nodes[f.Start]
	if n.Range.Start != 1 || n.Range.End != 3 {
		t.Errorf("Range = %+v, want {1 3}", n.Range)
	}
}

func TestCompileFieldRangeSingleIndex(t *testing.T) {
	f, err := Compile("0[2]", 1)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	n := f.Nodes[f.Start]
	if n.Range.Start != 2 || n.Range.End != 3 {
		t.Errorf("Range = %+v, want {2 3}", n.Range)
	}
}

func TestCompileNot(t *testing.T) {
	f, err := Compile("not 0", 1)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	n := f.Nodes[f.Start]
	if n.Kind != NodeUnary || !n.Negate {
		t.Fatalf("got %+v, want a negated unary node", n)
	}
}

func TestCompileBinaryAndOr(t *testing.T) {
	f, err := Compile("0 && 1", 2)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	n := f.Nodes[f.Start]
	if n.Kind != NodeBinary || n.BinOp != BinAnd {
		t.Fatalf("got %+v, want a BinAnd binary node", n)
	}

	f2, err := Compile("0 or 1", 2)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	n2 := f2.Nodes[f2.Start]
	if n2.Kind != NodeBinary || n2.BinOp != BinOr {
		t.Fatalf("got %+v, want a BinOr binary node", n2)
	}
}

func TestCompileParenGrouping(t *testing.T) {
	f, err := Compile("(0)", 1)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	n := f.Nodes[f.Start]
	if n.Kind != NodeUnary || n.Negate {
		t.Fatalf("got %+v, want a non-negated wrapper unary node", n)
	}
}

func TestCompileUnexpectedTrailingInput(t *testing.T) {
	_, err := Compile("0 5", 2)
	if err == nil {
		t.Fatalf("expected an error for unexpected trailing input")
	}
}

func TestCompileMissingClosingParen(t *testing.T) {
	_, err := Compile("(0", 1)
	if err == nil {
		t.Fatalf("expected an error for a missing closing paren")
	}
}
