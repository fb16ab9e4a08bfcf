package histogram

import (
	"strings"
	"testing"
)

func TestHistogramTieBreakIsInsertionOrder(t *testing.T) {
	// scenario: a,b,a,c,a ⇒ a:3, b:1, c:1 (ties broken by
	// insertion order among equal counts).
	h := New(0)
	for _, v := range []string{"a", "b", "a", "c", "a"} {
		h.Register([]byte(v))
	}

	if got := h.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}
	wantValue := []string{"a", "b", "c"}
	wantCount := []int{3, 1, 1}
	for i := range wantValue {
		v, c := h.At(i)
		if v != wantValue[i] || c != wantCount[i] {
			t.Fatalf("At(%d) = (%q, %d), want (%q, %d)", i, v, c, wantValue[i], wantCount[i])
		}
	}
}

func TestHistogramRegisterKeepsCountsSortedDescending(t *testing.T) {
	h := New(0)
	for _, v := range strings.Fields("a b a c a b b d a b c") {
		h.Register([]byte(v))
	}

	last := -1
	for i := 0; i < h.Len(); i++ {
		_, c := h.At(i)
		if last != -1 && c > last {
			t.Fatalf("counts not sorted descending at rank %d: %d after %d", i, c, last)
		}
		last = c
	}

	total := 0
	for i := 0; i < h.Len(); i++ {
		_, c := h.At(i)
		total += c
	}
	if total != h.TotalItems() {
		t.Fatalf("sum of counts = %d, want TotalItems() = %d", total, h.TotalItems())
	}
}

func TestHistogramBloomPreFilterNeverMissesANewValue(t *testing.T) {
	h := New(4) // deliberately undersized to stress bloom false positives
	values := []string{"x", "y", "z", "x", "w", "y", "v", "x"}
	for _, v := range values {
		h.Register([]byte(v))
	}
	distinct := map[string]int{}
	for _, v := range values {
		distinct[v]++
	}
	if h.Len() != len(distinct) {
		t.Fatalf("Len() = %d, want %d distinct values", h.Len(), len(distinct))
	}
	seen := map[string]int{}
	for i := 0; i < h.Len(); i++ {
		v, c := h.At(i)
		seen[v] = c
	}
	for v, want := range distinct {
		if seen[v] != want {
			t.Fatalf("count[%q] = %d, want %d", v, seen[v], want)
		}
	}
}
