// Package histogram implements the per-column frequency counter: an
// insertion-ordered value-to-rank map kept sorted by descending count via
// a single-swap reshuffle on every increment, plus the background worker
// that drives it from a filtered record stream.
package histogram

// countEntry is one slot in Histogram.counts: which value (by its
// insertion-order index) currently holds this rank, and its count.
type countEntry struct {
	valueIndex int
	count      int
}

// Histogram is the insertion-ordered value→count_index mapping plus the
// parallel counts vector. order[v] is the raw
// value bytes assigned insertion index v; index maps those same bytes to
// their current slot in counts; counts is kept sorted by descending count.
type Histogram struct {
	order  []string
	index  map[string]int // value bytes -> current count_index
	counts []countEntry

	bloom      *bloomFilter
	totalItems int
}

// New returns an empty Histogram sized for an expected n distinct values
// (used only to size the bloom pre-filter; the map and slices grow
// unbounded regardless).
func New(expectedDistinct int) *Histogram {
	return &Histogram{
		index: make(map[string]int),
		bloom: newBloomFilter(expectedDistinct, 0.01),
	}
}

// Register records one occurrence of v, keeping counts sorted descending:
// a brand new value is appended to the tail of counts; an existing value
// is incremented and, if that bumps it past its tied neighbours, swapped
// to the front of its count-tier.
func (h *Histogram) Register(v []byte) {
	h.totalItems++

	// The bloom filter only ever shortcuts the "definitely new" case: a
	// negative here is exact, so the map probe and append below is safe to
	// do unconditionally once we already know it's new.
	definitelyNew := !h.bloom.mightContain(v)
	h.bloom.add(v)

	key := string(v)
	if definitelyNew {
		h.appendNew(key)
		return
	}

	countIdx, ok := h.index[key]
	if !ok {
		h.appendNew(key)
		return
	}
	h.bump(countIdx)
}

func (h *Histogram) appendNew(key string) {
	valueIdx := len(h.order)
	h.order = append(h.order, key)
	countIdx := len(h.counts)
	h.counts = append(h.counts, countEntry{valueIndex: valueIdx, count: 1})
	h.index[key] = countIdx
}

// bump increments counts[i].count and, if that now exceeds the count of
// one or more tied predecessors, swaps it to the front of its tier so
// counts stays sorted by descending count with no full shift.
func (h *Histogram) bump(i int) {
	h.counts[i].count++
	c := h.counts[i].count

	k := i
	for k > 0 && h.counts[k-1].count < c {
		k--
	}
	if k == i {
		return
	}
	h.counts[i], h.counts[k] = h.counts[k], h.counts[i]
	h.index[h.order[h.counts[i].valueIndex]] = i
	h.index[h.order[h.counts[k].valueIndex]] = k
}

// Len returns the number of distinct values seen.
func (h *Histogram) Len() int { return len(h.counts) }

// TotalItems returns the total number of values registered, including
// repeats.
func (h *Histogram) TotalItems() int { return h.totalItems }

// At returns the value and count at sort rank i (0 = most frequent).
func (h *Histogram) At(i int) (value string, count int) {
	e := h.counts[i]
	return h.order[e.valueIndex], e.count
}

// MaxCount returns the highest count seen, or 0 if empty.
func (h *Histogram) MaxCount() int {
	if len(h.counts) == 0 {
		return 0
	}
	return h.counts[0].count
}
