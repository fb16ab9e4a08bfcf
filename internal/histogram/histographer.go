package histogram

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/csvquery/csvex/internal/filter"
	"github.com/csvquery/csvex/internal/logx"
	"github.com/csvquery/csvex/internal/record"
	"github.com/csvquery/csvex/internal/source"
)

const defaultThrottle = 1000

// sharedState mirrors the indexer's Arc(mutex(vector) + atomics) shape
// (deliberately analogous to Indexer): one mutex-protected Histogram
// (which also holds the total item count), atomics for bytes_read and
// nb_rows, and a foreground/worker refcount for cancellation.
type sharedState struct {
	col      int
	throttle int

	mu   sync.Mutex
	hist *Histogram

	bytesRead int64 // atomic
	nbRows    int64 // atomic
	refs      int32 // atomic

	lastErr atomic.Value
}

// Histographer is the foreground's handle to a background histogram run
// over one column.
type Histographer struct {
	st     *sharedState
	cancel context.CancelFunc
}

// Start spawns a worker that streams src through a fresh reader, keeps
// only records flt accepts, and registers column col's bytes into a
// Histogram. expectedDistinct sizes the bloom pre-filter; 0 is a
// reasonable default for an unknown column.
func Start(ctx context.Context, src *source.Source, flt *filter.Filter, col int, expectedDistinct int) (*Histographer, error) {
	rr, err := src.Reader()
	if err != nil {
		return nil, err
	}
	if src.HasHeader() {
		h := record.New()
		if _, err := rr.ReadNext(h); err != nil {
			rr.Close()
			return nil, err
		}
	}

	if expectedDistinct <= 0 {
		expectedDistinct = 1024
	}
	shared := &sharedState{
		col:      col,
		throttle: defaultThrottle,
		hist:     New(expectedDistinct),
		refs:     2,
	}

	ctx, cancel := context.WithCancel(ctx)
	hg := &Histographer{st: shared, cancel: cancel}

	go worker(ctx, rr, flt, shared)

	return hg, nil
}

func worker(ctx context.Context, rr *source.RecordReader, flt *filter.Filter, st *sharedState) {
	defer rr.Close()
	defer atomic.AddInt32(&st.refs, -1)

	rec := record.New()
	var offset int64
	var rows int64

	for i := 0; ; i++ {
		n, err := rr.ReadNext(rec)
		if err != nil {
			st.lastErr.Store(err)
			logx.Errorf("histographer: read error: %v", err)
			break
		}
		if n == 0 {
			break
		}
		offset += int64(n)

		if flt.Evaluate(rec) {
			var field []byte
			if st.col < rec.NumFields() {
				field = rec.Field(st.col)
			}
			st.mu.Lock()
			st.hist.Register(field)
			st.mu.Unlock()
			rows++
		}

		if i%st.throttle == 0 {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if atomic.LoadInt32(&st.refs) <= 1 {
				return
			}
			atomic.StoreInt64(&st.bytesRead, offset)
			atomic.StoreInt64(&st.nbRows, rows)
		}
	}

	atomic.StoreInt64(&st.bytesRead, offset)
	atomic.StoreInt64(&st.nbRows, rows)
}

// Close drops the foreground's reference, same cancellation contract as
// indexer.Indexer.Close.
func (hg *Histographer) Close() {
	atomic.AddInt32(&hg.st.refs, -1)
	hg.cancel()
}

// IsLoading reports whether a worker still holds a reference.
func (hg *Histographer) IsLoading() bool { return atomic.LoadInt32(&hg.st.refs) > 1 }

// BytesRead returns the running byte offset the worker has reached.
func (hg *Histographer) BytesRead() int64 { return atomic.LoadInt64(&hg.st.bytesRead) }

// NbRows returns how many filter-matching rows have been registered.
func (hg *Histographer) NbRows() int64 { return atomic.LoadInt64(&hg.st.nbRows) }

// TotalItems returns the total number of values registered so far
// (locks briefly; cheap compared to the registration work itself).
func (hg *Histographer) TotalItems() int {
	hg.st.mu.Lock()
	defer hg.st.mu.Unlock()
	return hg.st.hist.TotalItems()
}

// Len returns the number of distinct values seen so far.
func (hg *Histographer) Len() int {
	hg.st.mu.Lock()
	defer hg.st.mu.Unlock()
	return hg.st.hist.Len()
}

// At returns the value and count at sort rank i, safe to call while the
// worker is still running.
func (hg *Histographer) At(i int) (value string, count int) {
	hg.st.mu.Lock()
	defer hg.st.mu.Unlock()
	return hg.st.hist.At(i)
}

// MaxCount returns the current leading count, for bar-chart scaling.
func (hg *Histographer) MaxCount() int {
	hg.st.mu.Lock()
	defer hg.st.mu.Unlock()
	return hg.st.hist.MaxCount()
}

// Err returns the worker's terminal read error, if any.
func (hg *Histographer) Err() error {
	if v := hg.st.lastErr.Load(); v != nil {
		return v.(error)
	}
	return nil
}
