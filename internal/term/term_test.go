package term

import "testing"

func TestFakeCanvasSetCellRespectsBounds(t *testing.T) {
	c := NewFakeCanvas(5, 3, nil)
	c.SetCell(1, 1, 'x', Style{})
	c.SetCell(100, 100, 'y', Style{})

	if r, ok := c.At(1, 1); !ok || r != 'x' {
		t.Fatalf("At(1,1) = %q,%v, want 'x',true", r, ok)
	}
	if _, ok := c.At(100, 100); ok {
		t.Fatalf("out-of-bounds SetCell should be ignored")
	}
}

func TestFakeCanvasReplaysScriptedEventsThenEventNone(t *testing.T) {
	scripted := []Event{
		{Kind: EventKey, Key: KeyRune, Rune: 'g'},
		{Kind: EventResize, Width: 80, Height: 24},
	}
	c := NewFakeCanvas(80, 24, scripted)

	if ev := c.PollEvent(); ev.Kind != EventKey || ev.Rune != 'g' {
		t.Fatalf("first event = %+v, want rune 'g'", ev)
	}
	if ev := c.PollEvent(); ev.Kind != EventResize || ev.Width != 80 {
		t.Fatalf("second event = %+v, want resize 80x24", ev)
	}
	if ev := c.PollEvent(); ev.Kind != EventNone {
		t.Fatalf("third event = %+v, want EventNone once script is exhausted", ev)
	}
}

func TestFakeCanvasClearResetsCells(t *testing.T) {
	c := NewFakeCanvas(5, 3, nil)
	c.SetCell(0, 0, 'x', Style{})
	c.Clear()
	if _, ok := c.At(0, 0); ok {
		t.Fatalf("Clear should drop previously drawn cells")
	}
}
