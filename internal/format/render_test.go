package format

import "testing"

func TestRenderStringTruncatesWithEllipsis(t *testing.T) {
	got := Render(Guess{Kind: KindString}, []byte("hello world"), ColStat{}, 5)
	if got != "hell…" {
		t.Errorf("Render truncated = %q, want %q", got, "hell…")
	}
}

func TestRenderStringPadsWhenShort(t *testing.T) {
	got := Render(Guess{Kind: KindString}, []byte("hi"), ColStat{}, 5)
	if got != "hi   " {
		t.Errorf("Render padded = %q, want %q", got, "hi   ")
	}
}

func TestRenderNumberRightAlignsIntegerPart(t *testing.T) {
	g := TypeOf([]byte("7"))
	stat := NewColStat(0)
	stat.Observe(TypeOf([]byte("123")))
	got := Render(g, []byte("7"), stat, 5)
	if got != "  7  " {
		t.Errorf("Render number = %q, want %q", got, "  7  ")
	}
}

func TestRenderNumberWithFraction(t *testing.T) {
	g := TypeOf([]byte("1.5"))
	stat := NewColStat(0)
	stat.Observe(TypeOf([]byte("1.5")))
	got := Render(g, []byte("1.5"), stat, 4)
	if got != "1.5 " {
		t.Errorf("Render number with fraction = %q, want %q", got, "1.5 ")
	}
}

func TestTruncateToWidthZero(t *testing.T) {
	if got := truncateToWidth("hello", 0); got != "" {
		t.Errorf("truncateToWidth(_, 0) = %q, want empty", got)
	}
}

func TestTruncateToWidthOne(t *testing.T) {
	if got := truncateToWidth("hello", 1); got != "…" {
		t.Errorf("truncateToWidth(_, 1) = %q, want %q", got, "…")
	}
}

func TestTruncateOrPadExactFit(t *testing.T) {
	got := truncateOrPad("abc", 3)
	if got != "abc" {
		t.Errorf("truncateOrPad exact fit = %q, want %q", got, "abc")
	}
}
