// Package app wires source, indexer, filter, histogram, nav, cols and
// format into the interactive grid viewer: a single foreground event loop
// over a term.Canvas: one foreground event-loop goroutine driving up to
// two background workers. Nothing here depends on
// a real terminal — only on the term.Canvas contract — so the state
// machine is driven in tests against term.FakeCanvas.
package app

import (
	"context"
	"math"

	"github.com/csvquery/csvex/internal/cols"
	"github.com/csvquery/csvex/internal/filter"
	"github.com/csvquery/csvex/internal/histogram"
	"github.com/csvquery/csvex/internal/indexer"
	"github.com/csvquery/csvex/internal/logx"
	"github.com/csvquery/csvex/internal/nav"
	"github.com/csvquery/csvex/internal/source"
	"github.com/csvquery/csvex/internal/term"
)

// Mode is the current interaction mode.
type Mode int

const (
	ModeNormal Mode = iota
	ModeFilter
	ModeSize
	ModeGoto
	ModeHistogram
)

// App is the foreground state machine for one viewing session.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc
	canvas term.Canvas

	src      *source.Source
	fgReader *source.RecordReader

	idx  *indexer.Indexer
	cols cols.Cols
	nav  nav.Nav

	mode Mode

	filterText     string
	filterCursor   int
	priorFilter    string
	activeFilter   *filter.Filter
	filterErr      *filter.CompileError
	showColOffsets bool

	gotoText   string
	gotoErr    string
	navOnEnter nav.Nav

	histCol    int
	hg         *histogram.Histographer
	histCursor int

	errBanner   string
	dirtyShown  bool
	quit        bool
}

// New opens src and starts the first (identity-filter) indexer run.
func New(ctx context.Context, canvas term.Canvas, src *source.Source) (*App, error) {
	ctx, cancel := context.WithCancel(ctx)

	fgReader, err := src.Reader()
	if err != nil {
		cancel()
		return nil, err
	}

	idx, err := indexer.Start(ctx, src, filter.Identity())
	if err != nil {
		cancel()
		fgReader.Close()
		return nil, err
	}

	a := &App{
		ctx: ctx, cancel: cancel, canvas: canvas,
		src: src, fgReader: fgReader,
		idx: idx, activeFilter: filter.Identity(),
	}
	if h := idx.Headers(); h != nil {
		a.cols.Headers = h
		a.cols.SetNbCols(len(h))
	}
	return a, nil
}

// Close tears down the running background workers and the canvas.
func (a *App) Close() {
	if a.idx != nil {
		a.idx.Close()
	}
	if a.hg != nil {
		a.hg.Close()
	}
	a.cancel()
	a.fgReader.Close()
	a.src.Close()
	a.canvas.Close()
}

// Run drives the event loop until 'q' or a terminal context cancellation.
// It never returns an error of its own; start-up failures are the caller's
// responsibility: only start-up I/O is fatal.
func (a *App) Run() {
	for !a.quit {
		select {
		case <-a.ctx.Done():
			return
		default:
		}
		a.tick()
		a.draw()
		ev := a.canvas.PollEvent()
		if ev.Kind == term.EventNone {
			continue
		}
		a.errBanner = ""
		a.handleEvent(ev)
	}
}

// tick folds in background-worker progress and dirty-file detection ahead
// of every redraw.
func (a *App) tick() {
	a.cols.SetNbCols(a.idx.ColumnCount())
	if err := a.idx.Err(); err != nil {
		a.errBanner = "index error: " + err.Error()
	}
	if a.hg != nil {
		if err := a.hg.Err(); err != nil {
			a.errBanner = "histogram error: " + err.Error()
		}
	}
	if a.src.CheckDirty() {
		a.dirtyShown = true
	}
}

func (a *App) handleEvent(ev term.Event) {
	if ev.Kind == term.EventResize {
		return
	}
	switch a.mode {
	case ModeNormal:
		a.handleNormal(ev)
	case ModeFilter:
		a.handleFilter(ev)
	case ModeSize:
		a.handleSize(ev)
	case ModeGoto:
		a.handleGoto(ev)
	case ModeHistogram:
		a.handleHistogram(ev)
	}
}

// numCols returns the current known column count, or an effectively
// unbounded sentinel before the indexer has observed any data (identity
// filter compiles never consult it; only a non-empty filter submitted this
// early would).
func (a *App) numCols() int {
	if n := a.idx.ColumnCount(); n > 0 {
		return n
	}
	return math.MaxInt32
}

// restartIndexer compiles text and, on success, replaces the running
// indexer with a fresh one over the new filter. On a compile error the
// previous indexer keeps running and the error is recorded for the filter
// prompt to display.
func (a *App) restartIndexer(text string) error {
	flt, err := filter.Compile(text, a.numCols())
	if err != nil {
		if ce, ok := err.(*filter.CompileError); ok {
			a.filterErr = ce
		}
		return err
	}
	newIdx, err := indexer.Start(a.ctx, a.src, flt)
	if err != nil {
		return err
	}
	a.idx.Close()
	a.idx = newIdx
	a.activeFilter = flt
	a.filterErr = nil
	if h := newIdx.Headers(); h != nil {
		a.cols.Headers = h
	}
	a.nav.CRow = 0
	a.nav.ORow = 0
	return nil
}

// rediscover re-sniffs the source (picking up an external edit) and
// restarts the indexer against the current filter text, per the 'r' key.
func (a *App) rediscover() {
	if err := a.src.Resniff(); err != nil {
		logx.Warnf("rediscover: resniff failed: %v", err)
		a.errBanner = "refresh failed: " + err.Error()
		return
	}
	a.fgReader.Close()
	fr, err := a.src.Reader()
	if err != nil {
		a.errBanner = "refresh failed: " + err.Error()
		return
	}
	a.fgReader = fr
	a.dirtyShown = false
	if err := a.restartIndexer(a.filterText); err != nil {
		a.errBanner = "refresh: " + err.Error()
	}
}
