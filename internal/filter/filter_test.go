package filter

import (
	"testing"

	"github.com/csvquery/csvex/internal/record"
)

func recOf(fields ...string) *record.Record {
	r := record.New()
	for _, f := range fields {
		r.AppendField([]byte(f))
	}
	return r
}

func mustCompile(t *testing.T, src string, numCols int) *Filter {
	t.Helper()
	f, err := Compile(src, numCols)
	if err != nil {
		t.Fatalf("Compile(%q): %v", src, err)
	}
	return f
}

func TestEvaluateIdentityAlwaysTrue(t *testing.T) {
	f := Identity()
	if !f.Evaluate(recOf("anything")) {
		t.Errorf("Evaluate(identity) = false, want true")
	}
}

func TestEvaluateExist(t *testing.T) {
	f := mustCompile(t, "0", 1)
	if !f.Evaluate(recOf("x")) {
		t.Errorf("Evaluate with non-empty field = false, want true")
	}
	if f.Evaluate(recOf("")) {
		t.Errorf("Evaluate with empty field = true, want false")
	}
}

func TestEvaluateNumericComparison(t *testing.T) {
	f := mustCompile(t, "0>10", 1)
	if !f.Evaluate(recOf("20")) {
		t.Errorf("20>10 should match")
	}
	if f.Evaluate(recOf("5")) {
		t.Errorf("5>10 should not match")
	}
}

func TestEvaluateStringComparison(t *testing.T) {
	f := mustCompile(t, `0=="bob"`, 1)
	if !f.Evaluate(recOf("bob")) {
		t.Errorf(`"bob"=="bob" should match`)
	}
	if f.Evaluate(recOf("alice")) {
		t.Errorf(`"alice"=="bob" should not match`)
	}
}

func TestEvaluateNumericFallbackToTextComparison(t *testing.T) {
	// A field that doesn't parse as a decimal falls back to a textual
	// comparison against the value rendered back to text.
	f := mustCompile(t, "0==5", 1)
	if f.Evaluate(recOf("five")) {
		t.Errorf(`"five"==5 should not match via text fallback`)
	}
}

func TestEvaluateMultiValueAllRequiresEveryMatch(t *testing.T) {
	f := mustCompile(t, `0=={1,2,3}`, 1)
	if f.Evaluate(recOf("1")) {
		t.Errorf("all-combine with only one matching value should not match")
	}
}

func TestEvaluateMultiValueAnyRequiresOneMatch(t *testing.T) {
	f := mustCompile(t, `0==any{1,2,3}`, 1)
	if !f.Evaluate(recOf("2")) {
		t.Errorf("any-combine should match when one value matches")
	}
	if f.Evaluate(recOf("9")) {
		t.Errorf("any-combine should not match when no value matches")
	}
}

func TestEvaluateMatchRegex(t *testing.T) {
	f := mustCompile(t, `0~"^a.*e$"`, 1)
	if !f.Evaluate(recOf("apple")) {
		t.Errorf("apple should match ^a.*e$")
	}
	if f.Evaluate(recOf("banana")) {
		t.Errorf("banana should not match ^a.*e$")
	}
}

func TestEvaluateNot(t *testing.T) {
	f := mustCompile(t, "not 0", 1)
	if f.Evaluate(recOf("x")) {
		t.Errorf("not(exists) on a non-empty field should not match")
	}
	if !f.Evaluate(recOf("")) {
		t.Errorf("not(exists) on an empty field should match")
	}
}

func TestEvaluateBinaryAnd(t *testing.T) {
	f := mustCompile(t, "0 && 1", 2)
	if !f.Evaluate(recOf("a", "b")) {
		t.Errorf("both fields non-empty should match")
	}
	if f.Evaluate(recOf("a", "")) {
		t.Errorf("one empty field should not match an AND")
	}
}

func TestEvaluateBinaryOr(t *testing.T) {
	f := mustCompile(t, "0 or 1", 2)
	if !f.Evaluate(recOf("a", "")) {
		t.Errorf("one non-empty field should match an OR")
	}
	if f.Evaluate(recOf("", "")) {
		t.Errorf("both empty should not match an OR")
	}
}

func TestEvaluateFieldRangeSlice(t *testing.T) {
	f := mustCompile(t, `0[0:3]=="abc"`, 1)
	if !f.Evaluate(recOf("abcdef")) {
		t.Errorf("sub-slice [0:3] of abcdef should equal abc")
	}
}

func TestFieldRangeSliceClampsOutOfBounds(t *testing.T) {
	r := FieldRange{Start: 2, End: 100}
	got := r.Slice([]byte("ab"))
	if string(got) != "" {
		t.Errorf("Slice = %q, want empty when Start >= len(field)", got)
	}
}

func TestValueTextStripsQuotes(t *testing.T) {
	source := `"hello"`
	v := Value{Kind: ValueString, Range: [2]int{0, len(source)}, Quoted: true}
	if got := v.Text(source); got != "hello" {
		t.Errorf("Text() = %q, want hello", got)
	}
}

func TestIdentityHasNoNodes(t *testing.T) {
	if !Identity().IsIdentity() {
		t.Errorf("Identity().IsIdentity() = false, want true")
	}
}
