package app

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/csvquery/csvex/internal/source"
	"github.com/csvquery/csvex/internal/term"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "csvex-app-*.csv")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func waitForRows(t *testing.T, a *App, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if a.idx.RowCount() >= want && !a.idx.IsLoading() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("indexer never reached %d rows (got %d)", want, a.idx.RowCount())
}

func newTestApp(t *testing.T, events []term.Event) (*App, *term.FakeCanvas) {
	t.Helper()
	path := writeTempCSV(t, "name,age\nalice,30\nbob,40\ncarol,50\n")
	src, err := source.Open(path)
	if err != nil {
		t.Fatalf("source.Open: %v", err)
	}
	canvas := term.NewFakeCanvas(80, 24, events)
	a, err := New(context.Background(), canvas, src)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(a.Close)
	return a, canvas
}

func TestRunQuitsOnQ(t *testing.T) {
	a, _ := newTestApp(t, []term.Event{
		{Kind: term.EventKey, Key: term.KeyRune, Rune: 'q'},
	})
	waitForRows(t, a, 3)
	a.Run()
	if !a.quit {
		t.Fatalf("expected quit=true after 'q'")
	}
}

func TestNavigationMovesCursor(t *testing.T) {
	a, _ := newTestApp(t, []term.Event{
		{Kind: term.EventKey, Key: term.KeyRune, Rune: 'j'},
		{Kind: term.EventKey, Key: term.KeyRune, Rune: 'l'},
		{Kind: term.EventKey, Key: term.KeyRune, Rune: 'q'},
	})
	waitForRows(t, a, 3)
	a.Run()
	if a.nav.CRow != 1 || a.nav.CCol != 1 {
		t.Fatalf("cursor = (%d,%d), want (1,1)", a.nav.CRow, a.nav.CCol)
	}
}

func TestFilterModeSubmitReindexes(t *testing.T) {
	events := []term.Event{
		{Kind: term.EventKey, Key: term.KeyRune, Rune: '/'},
		{Kind: term.EventKey, Key: term.KeyRune, Rune: '0'},
		{Kind: term.EventKey, Key: term.KeyEnter},
		{Kind: term.EventKey, Key: term.KeyRune, Rune: 'q'},
	}
	a, _ := newTestApp(t, events)
	waitForRows(t, a, 3)
	a.Run()
	if a.mode != ModeNormal {
		t.Fatalf("mode after submit = %v, want ModeNormal", a.mode)
	}
	if a.activeFilter == nil || a.activeFilter.IsIdentity() {
		t.Fatalf("expected a non-identity filter to have been compiled")
	}
}

func TestFilterModeEscRevertsText(t *testing.T) {
	events := []term.Event{
		{Kind: term.EventKey, Key: term.KeyRune, Rune: '/'},
		{Kind: term.EventKey, Key: term.KeyRune, Rune: 'x'},
		{Kind: term.EventKey, Key: term.KeyEscape},
		{Kind: term.EventKey, Key: term.KeyRune, Rune: 'q'},
	}
	a, _ := newTestApp(t, events)
	waitForRows(t, a, 3)
	a.Run()
	if a.filterText != "" {
		t.Fatalf("filterText after Esc = %q, want empty (reverted)", a.filterText)
	}
}

func TestSizeModeAnyOtherKeyLeavesMode(t *testing.T) {
	events := []term.Event{
		{Kind: term.EventKey, Key: term.KeyRune, Rune: 's'},
		{Kind: term.EventKey, Key: term.KeyRune, Rune: 'h'},
		{Kind: term.EventKey, Key: term.KeyRune, Rune: 'z'},
		{Kind: term.EventKey, Key: term.KeyRune, Rune: 'q'},
	}
	a, _ := newTestApp(t, events)
	waitForRows(t, a, 3)
	a.Run()
	if a.mode != ModeNormal {
		t.Fatalf("mode = %v, want ModeNormal after an unrecognised size-mode key", a.mode)
	}
}

func TestGotoModeCommitsPosition(t *testing.T) {
	events := []term.Event{
		{Kind: term.EventKey, Key: term.KeyRune, Rune: 'g'},
		{Kind: term.EventKey, Key: term.KeyRune, Rune: '2'},
		{Kind: term.EventKey, Key: term.KeyRune, Rune: ':'},
		{Kind: term.EventKey, Key: term.KeyRune, Rune: '1'},
		{Kind: term.EventKey, Key: term.KeyEnter},
		{Kind: term.EventKey, Key: term.KeyRune, Rune: 'q'},
	}
	a, _ := newTestApp(t, events)
	waitForRows(t, a, 3)
	a.Run()
	if a.nav.CRow != 2 || a.nav.CCol != 1 {
		t.Fatalf("cursor after goto = (%d,%d), want (2,1)", a.nav.CRow, a.nav.CCol)
	}
}
