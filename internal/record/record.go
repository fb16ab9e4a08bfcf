// Package record implements the zero-copy record buffer used throughout
// csvex: one flat byte buffer plus an offset array so that a field is a
// slice into the buffer rather than its own allocation.
package record

// Record holds one decoded row as a flat, reusable byte buffer plus an
// offset array of length nfields+1. Field i is buf[offsets[i]:offsets[i+1]].
//
// The buffer and offset array are grown (doubled), never shrunk. Growth
// copies forward everything already written so far; the newly extended tail
// is never explicitly zeroed, since it's about to be overwritten by the
// decoder and there's no observable benefit to clearing it first.
type Record struct {
	buf     []byte
	offsets []int
	n       int // number of fields currently valid
}

// New returns an empty Record with a small initial backing buffer.
func New() *Record {
	return &Record{
		buf:     make([]byte, 256),
		offsets: make([]int, 16),
	}
}

// NumFields returns the number of fields in the record.
func (r *Record) NumFields() int { return r.n }

// Field returns the bytes of field i. Panics if i is out of range.
func (r *Record) Field(i int) []byte {
	return r.buf[r.offsets[i]:r.offsets[i+1]]
}

// Reset begins a fresh decode into this record, discarding previous
// contents but keeping the backing arrays for reuse.
func (r *Record) Reset() {
	r.n = 0
	r.offsets[0] = 0
}

// growBuf ensures the backing byte buffer has at least n bytes of capacity,
// doubling (at minimum) rather than allocating exactly n.
func (r *Record) growBuf(n int) {
	if cap(r.buf) >= n {
		r.buf = r.buf[:cap(r.buf)]
		return
	}
	size := cap(r.buf) * 2
	if size < n {
		size = n
	}
	grown := make([]byte, size)
	copy(grown, r.buf)
	r.buf = grown
}

// growOffsets ensures the offsets array can hold at least n+1 entries.
func (r *Record) growOffsets(n int) {
	if cap(r.offsets) >= n+1 {
		r.offsets = r.offsets[:cap(r.offsets)]
		return
	}
	size := cap(r.offsets) * 2
	if size < n+1 {
		size = n + 1
	}
	grown := make([]int, size)
	copy(grown, r.offsets)
	r.offsets = grown
}

// appendField copies data to the tail of the buffer and closes out a new
// field boundary. Used by the decoder in package source while building a
// record field by field.
func (r *Record) appendField(data []byte) {
	start := r.offsets[r.n]
	need := start + len(data)
	r.growBuf(need)
	copy(r.buf[start:need], data)
	r.n++
	r.growOffsets(r.n)
	r.offsets[r.n] = need
}

// Buf exposes the raw backing buffer, for internal/source's decoder only.
func (r *Record) Buf() []byte { return r.buf }

// Offsets exposes the raw offsets array, for internal/source's decoder only.
func (r *Record) Offsets() []int { return r.offsets }

// AppendField is the decoder-facing entry point to append one field's raw
// bytes (post quote-stripping) to the record.
func (r *Record) AppendField(data []byte) { r.appendField(data) }

// Len reports the total byte length of all fields combined (== buf prefix
// in use).
func (r *Record) Len() int {
	if r.n == 0 {
		return 0
	}
	return r.offsets[r.n]
}
