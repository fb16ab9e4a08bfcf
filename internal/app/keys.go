package app

import (
	"strconv"
	"strings"

	"github.com/csvquery/csvex/internal/cols"
	"github.com/csvquery/csvex/internal/histogram"
	"github.com/csvquery/csvex/internal/term"
)

// isRune reports whether ev is a plain character keypress matching any of
// runes.
func isRune(ev term.Event, runes ...rune) bool {
	if ev.Kind != term.EventKey || ev.Key != term.KeyRune {
		return false
	}
	for _, r := range runes {
		if ev.Rune == r {
			return true
		}
	}
	return false
}

func (a *App) handleNormal(ev term.Event) {
	switch {
	case isRune(ev, 'q') || ev.Key == term.KeyCtrlC:
		a.quit = true

	case isRune(ev, 'r'):
		a.rediscover()

	case isRune(ev, 'h') || ev.Key == term.KeyLeft:
		a.nav.CCol--
	case isRune(ev, 'l') || ev.Key == term.KeyRight:
		a.nav.CCol++
	case isRune(ev, 'j') || ev.Key == term.KeyDown:
		a.nav.CRow++
	case isRune(ev, 'k') || ev.Key == term.KeyUp:
		a.nav.CRow--

	case isRune(ev, 'H'):
		a.cols.Left(a.nav.CCol)
	case isRune(ev, 'L'):
		a.cols.Right(a.nav.CCol)

	case isRune(ev, '-'):
		a.cols.Hide(a.nav.CCol)

	case isRune(ev, '/'):
		a.mode = ModeFilter
		a.priorFilter = a.filterText
		a.filterCursor = len(a.filterText)

	case isRune(ev, 's'):
		a.mode = ModeSize

	case isRune(ev, 'g'):
		a.mode = ModeGoto
		a.navOnEnter = a.nav
		a.gotoText = ""
		a.gotoErr = ""

	case isRune(ev, 'f'):
		a.openHistogram()
	}
}

func (a *App) openHistogram() {
	source := a.cols.ColumnAt(a.nav.CCol)
	if source < 0 {
		return
	}
	hg, err := histogram.Start(a.ctx, a.src, a.activeFilter, source, a.idx.RowCount())
	if err != nil {
		a.errBanner = "histogram: " + err.Error()
		return
	}
	if a.hg != nil {
		a.hg.Close()
	}
	a.hg = hg
	a.histCol = source
	a.histCursor = 0
	a.mode = ModeHistogram
}

func (a *App) handleFilter(ev term.Event) {
	switch {
	case ev.Key == term.KeyEscape:
		a.filterText = a.priorFilter
		a.filterErr = nil
		a.mode = ModeNormal

	case ev.Key == term.KeyEnter:
		if err := a.restartIndexer(a.filterText); err == nil {
			a.mode = ModeNormal
		}

	case ev.Key == term.KeyTab:
		a.showColOffsets = !a.showColOffsets

	case ev.Key == term.KeyBackspace:
		if a.filterCursor > 0 {
			a.filterText = a.filterText[:a.filterCursor-1] + a.filterText[a.filterCursor:]
			a.filterCursor--
		}

	case ev.Key == term.KeyLeft:
		if a.filterCursor > 0 {
			a.filterCursor--
		}
	case ev.Key == term.KeyRight:
		if a.filterCursor < len(a.filterText) {
			a.filterCursor++
		}

	case ev.Key == term.KeyRune:
		a.filterText = a.filterText[:a.filterCursor] + string(ev.Rune) + a.filterText[a.filterCursor:]
		a.filterCursor++
	}
}

func (a *App) handleSize(ev term.Event) {
	v := a.nav.CCol
	switch {
	case isRune(ev, 'h'):
		a.cols.SizeCmd(v, cols.CmdLess)
	case isRune(ev, 'l'):
		a.cols.SizeCmd(v, cols.CmdMore)
	case isRune(ev, 'j'):
		a.cols.SizeCmd(v, cols.CmdConstrain)
	case isRune(ev, 'k'):
		a.cols.SizeCmd(v, cols.CmdFull)
	case isRune(ev, 'r'):
		a.cols.ResetSize()
	case isRune(ev, 'f'):
		a.cols.Fit()
	default:
		a.mode = ModeNormal
	}
}

func (a *App) handleGoto(ev term.Event) {
	switch {
	case ev.Key == term.KeyEscape:
		a.nav = a.navOnEnter
		a.mode = ModeNormal

	case ev.Key == term.KeyEnter:
		if row, col, ok := parseGoto(a.gotoText); ok {
			a.nav.GoTo(row, col)
			a.mode = ModeNormal
		} else {
			a.gotoErr = "expected row[:col]"
		}

	case ev.Key == term.KeyBackspace:
		if n := len(a.gotoText); n > 0 {
			a.gotoText = a.gotoText[:n-1]
		}

	case isRune(ev, 'h') || ev.Key == term.KeyLeft:
		a.nav.FullLeft()
	case isRune(ev, 'l') || ev.Key == term.KeyRight:
		a.nav.FullRight()
	case isRune(ev, 'j') || ev.Key == term.KeyDown:
		a.nav.FullDown()
	case isRune(ev, 'k') || ev.Key == term.KeyUp:
		a.nav.FullUp()

	case ev.Key == term.KeyRune && (ev.Rune == ':' || (ev.Rune >= '0' && ev.Rune <= '9')):
		a.gotoText += string(ev.Rune)
	}
}

// parseGoto parses "row" or "row:col" into 0-based coordinates.
func parseGoto(text string) (row, col int, ok bool) {
	parts := strings.SplitN(text, ":", 2)
	row, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	if len(parts) == 1 {
		return row, 0, true
	}
	col, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return row, col, true
}

func (a *App) handleHistogram(ev term.Event) {
	switch {
	case ev.Key == term.KeyEscape:
		a.hg.Close()
		a.hg = nil
		a.mode = ModeNormal
	case isRune(ev, 'j') || ev.Key == term.KeyDown:
		if a.histCursor < a.hg.Len()-1 {
			a.histCursor++
		}
	case isRune(ev, 'k') || ev.Key == term.KeyUp:
		if a.histCursor > 0 {
			a.histCursor--
		}
	}
}
