package app

import (
	"fmt"

	"github.com/csvquery/csvex/internal/filter"
	"github.com/csvquery/csvex/internal/format"
	"github.com/csvquery/csvex/internal/record"
	"github.com/csvquery/csvex/internal/term"
)

// styleHeader/styleCursor/styleError are the fixed palette entries used
// outside the filter highlighter.
var (
	styleDefault = term.Style{Fg: term.ColorDefault, Bg: term.ColorDefault}
	styleHeader  = term.Style{Fg: term.ColorDefault, Bg: term.ColorDefault, Bold: true}
	styleCursor  = term.Style{Fg: term.ColorDefault, Bg: term.ColorDefault, Reverse: true}
	styleError   = term.Style{Fg: 1, Bg: term.ColorDefault}
	styleDim     = term.Style{Fg: 8, Bg: term.ColorDefault}
)

var highlightStyles = map[filter.Style]term.Style{
	filter.StyleNone:   styleDefault,
	filter.StyleId:     {Fg: 2, Bg: term.ColorDefault},
	filter.StyleNumber: {Fg: 3, Bg: term.ColorDefault},
	filter.StyleString: {Fg: 4, Bg: term.ColorDefault},
	filter.StyleRegex:  {Fg: 5, Bg: term.ColorDefault},
	filter.StyleAction: {Fg: 6, Bg: term.ColorDefault},
	filter.StyleLogi:   {Fg: 1, Bg: term.ColorDefault},
}

// draw renders the full screen: optional banner, headers, data rows (or
// the histogram panel), the mode-specific prompt line, then the status
// line.
func (a *App) draw() {
	w, h := a.canvas.Size()
	a.canvas.Clear()
	if w <= 0 || h <= 0 {
		return
	}

	row := 0
	if banner := a.bannerText(); banner != "" {
		a.drawLine(0, row, banner, w, styleError)
		row++
	}

	statusRow := h - 1
	promptRow := h - 2
	if promptRow <= row {
		promptRow = row
	}
	if statusRow <= promptRow {
		statusRow = promptRow + 1
	}

	headerRow := row
	dataStart := row + 1
	dataEnd := promptRow
	if dataEnd < dataStart {
		dataEnd = dataStart
	}
	viewportRows := dataEnd - dataStart

	if a.mode == ModeHistogram && a.hg != nil {
		a.drawHistogram(0, dataStart, w, viewportRows)
	} else {
		a.drawGrid(headerRow, dataStart, viewportRows, w)
	}

	a.drawPrompt(0, promptRow, w)
	a.drawLine(0, statusRow, a.statusText(), w, styleDefault)
	a.canvas.Show()
}

func (a *App) bannerText() string {
	if a.errBanner != "" {
		return a.errBanner
	}
	if a.dirtyShown {
		return "file changed on disk — press 'r' to refresh"
	}
	return ""
}

// drawGrid lays out the visible columns (packed via nav.ColIter) and the
// data rows currently in the viewport.
func (a *App) drawGrid(headerRow, dataStart, viewportRows, width int) {
	origin := a.nav.RowOffset(a.idx.RowCount(), viewportRows)
	entries := a.idx.Offsets(origin, origin+viewportRows)

	recs := make([]*record.Record, len(entries))
	for i, e := range entries {
		rec := record.New()
		if err := a.fgReader.ReadAt(rec, int64(e.Offset)); err == nil {
			recs[i] = rec
		}
	}

	maxCol := len(a.cols.Order) - 1
	if maxCol < 0 {
		a.drawLine(0, headerRow, "(no columns)", width, styleDim)
		return
	}

	stats := make(map[int]format.ColStat, len(a.cols.Order))
	for v, source := range a.cols.Order {
		label := a.columnLabel(v, source)
		stat := format.NewColStat(len(label))
		for _, rec := range recs {
			if rec == nil {
				continue
			}
			stat.Observe(format.TypeOf(fieldOf(rec, source)))
		}
		a.cols.Observe(v, stat.Budget())
		stats[v] = stat
	}

	budget := width
	var visible []int
	a.nav.ColIter(maxCol, func(v int) bool {
		need := a.cols.EffectiveSize(v) + 1
		if len(visible) > 0 && budget-need < 0 {
			return false
		}
		budget -= need
		visible = append(visible, v)
		return true
	})
	sortInts(visible)

	x := 0
	for _, v := range visible {
		source := a.cols.Order[v]
		cw := a.cols.EffectiveSize(v)
		label := a.columnLabel(v, source)
		style := styleHeader
		if v == a.nav.CCol {
			style = styleCursor
		}
		a.drawField(x, headerRow, format.Render(format.Guess{Kind: format.KindString}, []byte(label), format.ColStat{}, cw), style)
		x += cw + 1
	}

	for r, rec := range recs {
		y := dataStart + r
		x := 0
		for _, v := range visible {
			source := a.cols.Order[v]
			cw := a.cols.EffectiveSize(v)
			var field []byte
			if rec != nil {
				field = fieldOf(rec, source)
			}
			guess := format.TypeOf(field)
			text := format.Render(guess, field, stats[v], cw)
			style := styleDefault
			if v == a.nav.CCol && origin+r == a.nav.CRow {
				style = styleCursor
			}
			a.drawField(x, y, text, style)
			x += cw + 1
		}
	}
}

func fieldOf(rec *record.Record, col int) []byte {
	if col < 0 || col >= rec.NumFields() {
		return nil
	}
	return rec.Field(col)
}

func (a *App) columnLabel(v, source int) string {
	if a.showColOffsets || source >= len(a.cols.Headers) {
		return fmt.Sprintf("%d", source)
	}
	return a.cols.Headers[source]
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// drawHistogram renders the value/count/bar panel for the column under
// histogram mode.
func (a *App) drawHistogram(x, y, width, rows int) {
	maxCount := a.hg.MaxCount()
	if maxCount == 0 {
		maxCount = 1
	}
	barWidth := width - 40
	if barWidth < 4 {
		barWidth = 4
	}
	n := a.hg.Len()
	start := a.histCursor - rows/2
	if start < 0 {
		start = 0
	}
	for i := 0; i < rows && start+i < n; i++ {
		value, count := a.hg.At(start + i)
		bar := count * barWidth / maxCount
		line := fmt.Sprintf("%-24s %8d %s", truncate(value, 24), count, repeatRune('#', bar))
		style := styleDefault
		if start+i == a.histCursor {
			style = styleCursor
		}
		a.drawLine(x, y+i, line, width, style)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func repeatRune(r rune, n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]rune, n)
	for i := range out {
		out[i] = r
	}
	return string(out)
}

// drawPrompt renders the mode-specific input/hint line.
func (a *App) drawPrompt(x, y, width int) {
	switch a.mode {
	case ModeFilter:
		a.drawFilterPrompt(x, y, width)
	case ModeGoto:
		text := "goto: " + a.gotoText
		if a.gotoErr != "" {
			text += "  (" + a.gotoErr + ")"
		}
		a.drawLine(x, y, text, width, styleDefault)
	case ModeSize:
		a.drawLine(x, y, "[size] h/l width  j constrain  k full  r reset  f fit", width, styleDim)
	case ModeHistogram:
		a.drawLine(x, y, fmt.Sprintf("[histogram] column %d  j/k move  Esc close", a.histCol), width, styleDim)
	}
}

func (a *App) drawFilterPrompt(x, y, width int) {
	prefix := "filter: "
	a.drawLine(x, y, prefix, width, styleDefault)
	cx := x + len(prefix)

	h := filter.NewHighlighter(a.filterText)
	i := 0
	for pos, r := range a.filterText {
		style := highlightStyles[h.Style(pos)]
		a.canvas.SetCell(cx+i, y, r, style)
		i++
	}

	if a.filterErr != nil {
		msg := "  " + a.filterErr.Msg
		a.drawLine(cx+len([]rune(a.filterText)), y, msg, width, styleError)
	}
}

func (a *App) statusText() string {
	modeTag := map[Mode]string{
		ModeNormal:    "NORMAL",
		ModeFilter:    "FILTER",
		ModeSize:      "SIZE",
		ModeGoto:      "GOTO",
		ModeHistogram: "HIST",
	}[a.mode]

	progress := "100%"
	if a.idx.IsLoading() {
		progress = fmt.Sprintf("%d%%", a.idx.Progress())
	}

	trailer := a.src.DisplayPath()
	if a.filterText != "" {
		trailer = a.filterText
	}

	return fmt.Sprintf("[%s] %s  (%d,%d)  %s", modeTag, progress, a.nav.CRow, a.nav.CCol, trailer)
}

func (a *App) drawField(x, y int, text string, style term.Style) {
	for i, r := range []rune(text) {
		a.canvas.SetCell(x+i, y, r, style)
	}
}

func (a *App) drawLine(x, y int, text string, width int, style term.Style) {
	runes := []rune(text)
	if len(runes) > width && width > 0 {
		runes = runes[:width]
	}
	for i, r := range runes {
		a.canvas.SetCell(x+i, y, r, style)
	}
}
