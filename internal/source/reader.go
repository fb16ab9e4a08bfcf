package source

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/csvquery/csvex/internal/record"
)

// windowSize is the chunk size used for the reader's internal buffer.
// Tens of KB per syscall keeps both small and huge files fast.
const windowSize = 64 * 1024

// RecordReader decodes delimited records from a file, reusing a small
// internal buffer window so that small relative seeks (the common case when
// re-fetching a currently visible row) never need to touch the OS.
//
// A RecordReader owns exactly one *os.File handle and one decoder; two
// independent readers (one for the foreground's visible rows, one for the
// background indexer) are expected to be opened over the same path so their
// positions never interfere, per the concurrency model.
type RecordReader struct {
	f         *os.File
	delimiter byte

	buf   []byte // window contents, buf[:end] valid
	start int64  // absolute file offset of buf[0]
	pos   int    // read cursor within buf
	end   int    // valid bytes in buf

	inQuote bool // decoder state: currently inside a quoted field
	eof     bool // true once the file has been exhausted
}

// NewRecordReader opens path and returns a RecordReader positioned at byte 0.
func NewRecordReader(path string, delimiter byte) (*RecordReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open for record reading")
	}
	return &RecordReader{
		f:         f,
		delimiter: delimiter,
		buf:       make([]byte, windowSize),
	}, nil
}

// Close releases the underlying file handle.
func (rr *RecordReader) Close() error {
	return rr.f.Close()
}

// Position returns the absolute byte offset of the next unread byte.
func (rr *RecordReader) Position() int64 {
	return rr.start + int64(rr.pos)
}

// Length returns the total size of the underlying file.
func (rr *RecordReader) Length() (int64, error) {
	st, err := rr.f.Stat()
	if err != nil {
		return 0, err
	}
	return st.Size(), nil
}

// fill tops up the window, sliding any unread tail to the front first.
func (rr *RecordReader) fill() error {
	if rr.pos > 0 {
		n := copy(rr.buf, rr.buf[rr.pos:rr.end])
		rr.start += int64(rr.pos)
		rr.end = n
		rr.pos = 0
	}
	if rr.end == len(rr.buf) {
		// Window full of unread data (a record spans more than windowSize):
		// grow it rather than lose data.
		grown := make([]byte, len(rr.buf)*2)
		copy(grown, rr.buf[:rr.end])
		rr.buf = grown
	}
	n, err := rr.f.Read(rr.buf[rr.end:])
	rr.end += n
	if n == 0 {
		if err == io.EOF || err == nil {
			rr.eof = true
			return nil
		}
		return err
	}
	return nil
}

// nextByte returns the next undecoded byte, refilling the window as needed.
// ok is false only at true EOF.
func (rr *RecordReader) nextByte() (b byte, ok bool, err error) {
	for rr.pos >= rr.end {
		if rr.eof {
			return 0, false, nil
		}
		if err := rr.fill(); err != nil {
			return 0, false, err
		}
		if rr.eof && rr.pos >= rr.end {
			return 0, false, nil
		}
	}
	b = rr.buf[rr.pos]
	rr.pos++
	return b, true, nil
}

// ReadNext decodes the next record into rec, reusing its buffers. Returns
// the number of raw bytes consumed from the source (including the line
// terminator), or 0 at clean EOF.
func (rr *RecordReader) ReadNext(rec *record.Record) (int, error) {
	rec.Reset()
	rr.inQuote = false

	startPos := rr.Position()
	var field []byte
	consumedAny := false
	justFlushedByDelim := false // true right after a delimiter-triggered flush

	flushField := func() {
		field = stripQuotes(field)
		rec.AppendField(field)
		field = field[:0]
	}

	for {
		b, ok, err := rr.nextByte()
		if err != nil {
			return 0, err
		}
		if !ok {
			if !consumedAny && rec.NumFields() == 0 {
				return 0, nil // clean EOF, nothing decoded
			}
			// Dangling delimiter immediately followed by EOF: collapse the
			// final empty field rather than counting it.
			if !(justFlushedByDelim && len(field) == 0) {
				flushField()
			}
			return int(rr.Position() - startPos), nil
		}
		consumedAny = true

		if b == '"' {
			rr.inQuote = !rr.inQuote
			field = append(field, b)
			justFlushedByDelim = false
			continue
		}
		if !rr.inQuote && b == rr.delimiter {
			flushField()
			justFlushedByDelim = true
			continue
		}
		if !rr.inQuote && b == '\n' {
			// Strip a trailing \r (CRLF line endings).
			if n := len(field); n > 0 && field[n-1] == '\r' {
				field = field[:n-1]
			}
			// Dangling delimiter immediately before the terminator:
			// collapse the final empty field it would otherwise produce.
			if !(justFlushedByDelim && len(field) == 0) {
				flushField()
			}
			return int(rr.Position() - startPos), nil
		}
		field = append(field, b)
		justFlushedByDelim = false
	}
}

// stripQuotes removes one layer of surrounding double quotes from a
// decoded field. Internal doubled quotes ("") are left as-is: this decoder
// applies no dialect beyond delimiter and single-layer quoting.
func stripQuotes(b []byte) []byte {
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		return b[1 : len(b)-1]
	}
	return b
}

// ReadAt resets decoder state, positions the stream at byteOffset
// (preferring a relative seek within the buffered window), then reads one
// record starting there.
func (rr *RecordReader) ReadAt(rec *record.Record, byteOffset int64) error {
	if byteOffset >= rr.start && byteOffset <= rr.start+int64(rr.end) {
		rr.pos = int(byteOffset - rr.start)
		rr.eof = false
	} else {
		if _, err := rr.f.Seek(byteOffset, io.SeekStart); err != nil {
			return errors.Wrap(err, "seek record reader")
		}
		rr.start = byteOffset
		rr.pos = 0
		rr.end = 0
		rr.eof = false
	}
	rr.inQuote = false
	_, err := rr.ReadNext(rec)
	return err
}
