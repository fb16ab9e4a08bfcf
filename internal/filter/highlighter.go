package filter

// Style classifies one run of source bytes for syntax highlighting.
type Style int

const (
	StyleNone Style = iota
	StyleId
	StyleNumber
	StyleString
	StyleRegex
	StyleAction
	StyleLogi
)

// Break is one (byte_pos, style) entry in a Highlight result: style applies
// from Pos up to (but not including) the next Break's Pos, or the end of
// the source for the last entry.
type Break struct {
	Pos   int
	Style Style
}

// Highlight runs the same recursive-descent grammar as Compile, but instead
// of building an evaluation arena it records a style for every token it
// recognizes. It never returns an error: a malformed expression simply
// stops colouring at the first unexpected token, and everything from there
// to the end of source is left StyleNone. The returned breaks are sorted,
// strictly increasing, and cover [0, len(source)).
func Highlight(source string) []Break {
	var spans []span
	lastEnd := 0
	tag := func(tok Tok, style Style) {
		if tok.Start > lastEnd {
			spans = append(spans, span{lastEnd, tok.Start, StyleNone})
		}
		spans = append(spans, span{tok.Start, tok.End, style})
		lastEnd = tok.End
	}

	p := &Parser{lex: NewLexer(source), src: source, numCols: -1, tag: tag}
	if err := p.advance(); err == nil {
		_, _ = p.parseExpr()
		// A trailing-input error ("5 extra tokens after a complete
		// expression") is not re-parsed for colour; whatever was tagged up
		// to that point stands, same as any other parse failure.
	}

	if lastEnd < len(source) {
		spans = append(spans, span{lastEnd, len(source), StyleNone})
	}
	return collapse(spans, len(source))
}

type span struct {
	start, end int
	style      Style
}

// collapse merges adjacent equal-style spans into a minimal breakpoint
// list, always starting with a Pos==0 entry.
func collapse(spans []span, length int) []Break {
	if length == 0 {
		return []Break{{Pos: 0, Style: StyleNone}}
	}
	breaks := make([]Break, 0, len(spans)+1)
	for _, s := range spans {
		if s.start == s.end {
			continue
		}
		if len(breaks) > 0 && breaks[len(breaks)-1].Style == s.style {
			continue
		}
		breaks = append(breaks, Break{Pos: s.start, Style: s.style})
	}
	if len(breaks) == 0 || breaks[0].Pos != 0 {
		breaks = append([]Break{{Pos: 0, Style: StyleNone}}, breaks...)
	}
	return breaks
}

// Highlighter wraps a Highlight result with a cursor, so a caller that
// queries Style left-to-right across a redraw (the common case) pays O(1)
// amortised per call instead of a binary search every time.
type Highlighter struct {
	breaks []Break
	cursor int
}

// NewHighlighter compiles source into a cursor-backed style lookup.
func NewHighlighter(source string) *Highlighter {
	return &Highlighter{breaks: Highlight(source)}
}

// Style returns the style in effect at byte position pos. Sequential calls
// with non-decreasing pos are O(1) amortised; a call with a smaller pos
// than the last one re-scans from the start.
func (h *Highlighter) Style(pos int) Style {
	if pos < h.breaks[h.cursor].Pos {
		h.cursor = 0
	}
	for h.cursor+1 < len(h.breaks) && h.breaks[h.cursor+1].Pos <= pos {
		h.cursor++
	}
	return h.breaks[h.cursor].Style
}
