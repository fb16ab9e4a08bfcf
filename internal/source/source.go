package source

import (
	"bytes"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"

	"github.com/csvquery/csvex/internal/format"
	"github.com/csvquery/csvex/internal/logx"
	"github.com/csvquery/csvex/internal/record"
)

// candidateDelimiters lists the delimiter candidates in tie-break order:
// ties resolve toward the earlier entry, so comma wins.
var candidateDelimiters = []byte{',', ';', ':', '|', '_'}

// Source is an opened, sniffed input: either a real file path or stdin
// drained into a temporary file so the rest of the system never has to
// distinguish the two.
type Source struct {
	displayPath string
	realPath    string // always a real, seekable file on disk
	delimiter   byte
	hasHeader   bool
	tempFile    string // non-empty if realPath is a temp file to clean up

	lastModTime time.Time
	lastCheck   time.Time
}

// Open opens path for viewing. If path is empty, stdin is drained into a
// named temporary file first (deleted by Close). A ".lz4" suffix is
// transparently decompressed into a temporary file before sniffing; such a
// source is ephemeral, so CheckDirty never reports it as modified.
func Open(path string) (*Source, error) {
	if path == "" {
		return openStdin()
	}
	if strings.HasSuffix(path, ".lz4") {
		return openLZ4(path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open source")
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat source")
	}

	s := &Source{displayPath: path, realPath: path, lastModTime: st.ModTime()}
	if err := s.sniff(); err != nil {
		return nil, err
	}
	logx.Debugf("opened %s: delimiter=%q header=%v", path, s.delimiter, s.hasHeader)
	return s, nil
}

// openLZ4 decompresses an lz4-compressed CSV into a temp file and opens
// that as the real, seekable backing path. displayPath keeps the original
// (compressed) name so the status line refers to the file the user
// actually pointed csvex at; the dirty check is not run for this source.
func openLZ4(path string) (*Source, error) {
	cf, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open lz4 source")
	}
	defer cf.Close()

	st, err := cf.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat lz4 source")
	}

	tmp, err := os.CreateTemp("", "csvex-lz4-*")
	if err != nil {
		return nil, errors.Wrap(err, "create temp file for lz4 decompress")
	}
	if _, err := io.Copy(tmp, lz4.NewReader(cf)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, errors.Wrap(err, "decompress lz4 source")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, errors.Wrap(err, "close decompressed temp file")
	}

	s := &Source{
		displayPath: path,
		realPath:    tmp.Name(),
		tempFile:    tmp.Name(),
		lastModTime: st.ModTime(),
	}
	if err := s.sniff(); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	logx.Debugf("decompressed %s: delimiter=%q header=%v", path, s.delimiter, s.hasHeader)
	return s, nil
}

func openStdin() (*Source, error) {
	tmp, err := os.CreateTemp("", "csvex-stdin-*")
	if err != nil {
		return nil, errors.Wrap(err, "create temp file for stdin")
	}
	logx.Debugf("draining stdin into %s", tmp.Name())
	if _, err := io.Copy(tmp, os.Stdin); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, errors.Wrap(err, "drain stdin")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, errors.Wrap(err, "close temp file")
	}
	s := &Source{displayPath: "<stdin>", realPath: tmp.Name(), tempFile: tmp.Name()}
	if err := s.sniff(); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	logx.Debugf("stdin capture ready: delimiter=%q header=%v", s.delimiter, s.hasHeader)
	return s, nil
}

// Close removes the backing temp file, if any.
func (s *Source) Close() error {
	if s.tempFile != "" {
		return os.Remove(s.tempFile)
	}
	return nil
}

// DisplayPath is the path shown in the status line: the real path, or
// "<stdin>" when the input was captured from standard input.
func (s *Source) DisplayPath() string { return s.displayPath }

// Path is the real, seekable path backing this source (the original file,
// the stdin capture temp file, or the lz4 decompression temp file).
func (s *Source) Path() string { return s.realPath }

// Delimiter returns the sniffed (or forced) field delimiter.
func (s *Source) Delimiter() byte { return s.delimiter }

// HasHeader reports whether the first record is a header row.
func (s *Source) HasHeader() bool { return s.hasHeader }

// SetDelimiter forces the delimiter, bypassing sniffing (used by the CLI
// -sep override). A later Resniff replaces it with a sniffed delimiter.
func (s *Source) SetDelimiter(d byte) { s.delimiter = d }

// SetHasHeader forces the header decision.
func (s *Source) SetHasHeader(v bool) { s.hasHeader = v }

// Reader opens a fresh RecordReader over this source at byte 0.
func (s *Source) Reader() (*RecordReader, error) {
	return NewRecordReader(s.realPath, s.delimiter)
}

// IsStdin reports whether this source was captured from standard input.
func (s *Source) IsStdin() bool { return s.tempFile != "" && s.displayPath == "<stdin>" }

// isEphemeral reports whether realPath is a throwaway local copy (stdin
// capture or lz4 decompression) rather than the file the user pointed
// csvex at, and so can never be checked for external modification.
func (s *Source) isEphemeral() bool { return s.tempFile != "" }

// Resniff re-runs delimiter/header detection against the current file
// contents, used by the 'r' key to pick up an edit made outside csvex.
func (s *Source) Resniff() error { return s.sniff() }

// CheckDirty polls, at most once per second, whether the file has been
// modified since it was opened (or since the last report). Ephemeral
// sources (stdin captures, lz4 decompressions) never report dirty.
func (s *Source) CheckDirty() bool {
	if s.isEphemeral() {
		return false
	}
	now := time.Now()
	if now.Sub(s.lastCheck) < time.Second {
		return false
	}
	s.lastCheck = now

	st, err := os.Stat(s.realPath)
	if err != nil {
		return false
	}
	if !st.ModTime().Equal(s.lastModTime) {
		s.lastModTime = st.ModTime()
		return true
	}
	return false
}

// sniff reads the first (and if needed second) record to pick a delimiter
// and decide whether the first record is a header.
func (s *Source) sniff() error {
	firstLine, err := readFirstLine(s.realPath)
	if err != nil {
		return err
	}
	s.delimiter = sniffDelimiter(firstLine)

	rr, err := NewRecordReader(s.realPath, s.delimiter)
	if err != nil {
		return err
	}
	defer rr.Close()

	h := record.New()
	if _, err := rr.ReadNext(h); err != nil {
		return errors.Wrap(err, "read header candidate")
	}
	r1 := record.New()
	if _, err := rr.ReadNext(r1); err != nil {
		return errors.Wrap(err, "read second record candidate")
	}

	s.hasHeader = sniffHeader(h, r1)
	return nil
}

// readFirstLine reads bytes up to the first line terminator or EOF.
func readFirstLine(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open for sniffing")
	}
	defer f.Close()

	var buf []byte
	chunk := make([]byte, 4096)
	for {
		n, err := f.Read(chunk)
		if n > 0 {
			buf = append(buf, chunk[:n]...)
			if idx := bytes.IndexByte(buf, '\n'); idx >= 0 {
				return buf[:idx], nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return buf, nil
			}
			return nil, err
		}
	}
}

// sniffDelimiter counts occurrences of each candidate in line and picks the
// maximum, ties resolved by candidate order (comma first); default ','
// when all counts are zero.
func sniffDelimiter(line []byte) byte {
	best := candidateDelimiters[0]
	bestCount := -1
	for _, c := range candidateDelimiters {
		n := bytes.Count(line, []byte{c})
		if n > bestCount {
			bestCount = n
			best = c
		}
	}
	if bestCount <= 0 {
		return ','
	}
	return best
}

// sniffHeader implements the header/no-header detection policy.
func sniffHeader(h, r1 *record.Record) bool {
	hTypes := make([]format.Guess, h.NumFields())
	seenEmpty := false
	for i := 0; i < h.NumFields(); i++ {
		hTypes[i] = format.TypeOf(h.Field(i))
		if len(bytes.TrimSpace(h.Field(i))) == 0 {
			if seenEmpty {
				// Rule 1: a second empty header field ⇒ not a header.
				return false
			}
			seenEmpty = true
		}
	}

	allHString := true
	for _, g := range hTypes {
		if g.Kind != format.KindString {
			allHString = false
			break
		}
	}

	n := h.NumFields()
	if r1.NumFields() < n {
		n = r1.NumFields()
	}
	r1Types := make([]format.Guess, n)
	for i := 0; i < n; i++ {
		r1Types[i] = format.TypeOf(r1.Field(i))
	}

	if allHString {
		for _, g := range r1Types {
			if g.Kind != format.KindString {
				// Rule 2: all-String header, any non-String in R1 ⇒ header.
				return true
			}
		}
	}

	// Rule 3: identical column-by-column type vectors, not all String ⇒
	// not a header.
	if !allHString && len(hTypes) == len(r1Types) {
		identical := true
		for i := range hTypes {
			if hTypes[i].Kind != r1Types[i].Kind {
				identical = false
				break
			}
		}
		if identical {
			return false
		}
	}

	// Rule 4: otherwise, it is a header.
	return true
}
