// Package indexer runs the background producer that streams a Source's
// records, evaluates the current filter, and publishes a growing list of
// (ordinal, byte_offset) entries for rows that pass. A single worker
// goroutine owns the scan; a mutex and a handful of atomics publish its
// progress to the foreground. The result lives entirely in memory as a
// single entry vector — there is no persistent on-disk index to spill to.
package indexer

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/csvquery/csvex/internal/filter"
	"github.com/csvquery/csvex/internal/logx"
	"github.com/csvquery/csvex/internal/record"
	"github.com/csvquery/csvex/internal/source"
)

// Entry is one published index row: the record's 0-based ordinal in the
// source (counted after the header, if any) and the byte offset at which
// it starts.
type Entry struct {
	Ordinal uint32
	Offset  uint64
}

// defaultThrottle is how many records the worker decodes between checks of
// the shared-state refcount and flushes of its local batch. Start copies it
// into sharedState.throttle; nothing overrides it, so every run uses 1000.
const defaultThrottle = 1000

// sharedState is the Arc(mutex(vector) + atomics) the worker and the
// foreground handle both point to. Immutable fields (headers, filter,
// fileLength) are published once at construction and never mutated
// afterward.
type sharedState struct {
	headers   []string
	filterTxt string
	flt       *filter.Filter
	fileLen   int64
	startedAt time.Time
	throttle  int

	mu      sync.Mutex
	entries []Entry

	bytesRead      int64 // atomic
	maxColumnCount int32 // atomic
	refs           int32 // atomic; 1 while only the worker remains

	lastErr atomic.Value // error
}

// Indexer is the foreground's handle to a background indexing run.
type Indexer struct {
	st     *sharedState
	cancel context.CancelFunc
}

// Start opens a fresh reader over source, reads the header record if the
// source has one, compiles nothing itself (filter is already compiled by
// the caller against the previous column count), and spawns the worker.
// The returned Indexer is the foreground's only strong reference; dropping
// it (calling Close) lets the worker observe refs==1 and exit.
func Start(ctx context.Context, src *source.Source, flt *filter.Filter) (*Indexer, error) {
	rr, err := src.Reader()
	if err != nil {
		return nil, err
	}

	var headers []string
	if src.HasHeader() {
		h := record.New()
		if _, err := rr.ReadNext(h); err != nil && err != io.EOF {
			rr.Close()
			return nil, err
		}
		headers = make([]string, h.NumFields())
		for i := range headers {
			headers[i] = string(h.Field(i))
		}
	}

	fileLen, err := rr.Length()
	if err != nil {
		rr.Close()
		return nil, err
	}

	shared := &sharedState{
		headers:   headers,
		filterTxt: flt.Source,
		flt:       flt,
		fileLen:   fileLen,
		startedAt: time.Now(),
		throttle:  defaultThrottle,
		refs:      2, // foreground + worker
	}
	atomic.StoreInt64(&shared.bytesRead, rr.Position())
	atomic.StoreInt32(&shared.maxColumnCount, int32(len(headers)))

	ctx, cancel := context.WithCancel(ctx)
	idx := &Indexer{st: shared, cancel: cancel}

	go worker(ctx, rr, shared)

	return idx, nil
}

// worker streams records until EOF, a read error, or cancellation
// (context or refcount), publishing batches of matching entries under the
// mutex every throttle iterations.
func worker(ctx context.Context, rr *source.RecordReader, st *sharedState) {
	defer rr.Close()
	defer atomic.AddInt32(&st.refs, -1)

	rec := record.New()
	var ordinal uint32
	var offset int64
	var maxCol int32
	var batch []Entry

	flush := func() {
		if len(batch) == 0 {
			return
		}
		st.mu.Lock()
		st.entries = append(st.entries, batch...)
		st.mu.Unlock()
		batch = batch[:0]
	}

	for i := 0; ; i++ {
		n, err := rr.ReadNext(rec)
		if err != nil {
			st.lastErr.Store(err)
			logx.Errorf("indexer: read error: %v", err)
			break
		}
		if n == 0 {
			break
		}

		if st.flt.Evaluate(rec) {
			batch = append(batch, Entry{Ordinal: ordinal, Offset: uint64(offset)})
		}
		offset += int64(n)
		ordinal++
		if nf := int32(rec.NumFields()); nf > maxCol {
			maxCol = nf
		}

		if i%st.throttle == 0 {
			select {
			case <-ctx.Done():
				flush()
				return
			default:
			}
			if atomic.LoadInt32(&st.refs) <= 1 {
				// Foreground dropped its handle: exit silently, per
				// cancellation is silent: the worker never observes an
				// explicit stop signal, only the dropped refcount.
				return
			}
			flush()
			atomic.StoreInt64(&st.bytesRead, offset)
			atomic.StoreInt32(&st.maxColumnCount, maxCol)
		}
	}

	flush()
	atomic.StoreInt64(&st.bytesRead, offset)
	atomic.StoreInt32(&st.maxColumnCount, maxCol)
}

// Close drops the foreground's reference to the shared state, cancels the
// worker's context, and lets the worker exit at its next throttling check.
// Exit is asynchronous: Close does not wait for the worker to stop.
func (idx *Indexer) Close() {
	atomic.AddInt32(&idx.st.refs, -1)
	idx.cancel()
}

// IsLoading reports whether a worker still holds a reference to the shared
// state (i.e. the refcount is above 1, or Close hasn't dropped it yet).
func (idx *Indexer) IsLoading() bool {
	return atomic.LoadInt32(&idx.st.refs) > 1
}

// RowCount returns the number of published entries.
func (idx *Indexer) RowCount() int {
	idx.st.mu.Lock()
	defer idx.st.mu.Unlock()
	return len(idx.st.entries)
}

// Offsets clones entries [start, min(end, len)) into a caller-owned slice.
func (idx *Indexer) Offsets(start, end int) []Entry {
	idx.st.mu.Lock()
	defer idx.st.mu.Unlock()
	if start < 0 {
		start = 0
	}
	if end > len(idx.st.entries) {
		end = len(idx.st.entries)
	}
	if start >= end {
		return nil
	}
	out := make([]Entry, end-start)
	copy(out, idx.st.entries[start:end])
	return out
}

// Progress returns bytes-read expressed as a percentage of the file's
// total length, clamped to [0, 100].
func (idx *Indexer) Progress() int {
	total := idx.st.fileLen
	if total <= 0 {
		total = 1
	}
	read := atomic.LoadInt64(&idx.st.bytesRead)
	p := read * 100 / total
	if p > 100 {
		p = 100
	}
	return int(p)
}

// ColumnCount returns the largest field count observed so far.
func (idx *Indexer) ColumnCount() int { return int(atomic.LoadInt32(&idx.st.maxColumnCount)) }

// Headers returns the header row captured at Start, or nil if the source
// has none.
func (idx *Indexer) Headers() []string { return idx.st.headers }

// FilterText returns the filter expression text this run was compiled
// against.
func (idx *Indexer) FilterText() string { return idx.st.filterTxt }

// Err returns the worker's terminal read error, if any (nil on a clean EOF
// or while still running). Resolves the open question about
// worker errors being silently swallowed.
func (idx *Indexer) Err() error {
	if v := idx.st.lastErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}
