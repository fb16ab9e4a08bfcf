package source

import (
	"os"
	"testing"

	"github.com/csvquery/csvex/internal/record"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "csvex-reader-*.csv")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })
	return f.Name()
}

func readAllRecords(t *testing.T, rr *RecordReader) [][]string {
	t.Helper()
	var rows [][]string
	for {
		rec := record.New()
		n, err := rr.ReadNext(rec)
		if err != nil {
			t.Fatalf("ReadNext: %v", err)
		}
		if n == 0 && rec.NumFields() == 0 {
			break
		}
		row := make([]string, rec.NumFields())
		for i := range row {
			row[i] = string(rec.Field(i))
		}
		rows = append(rows, row)
	}
	return rows
}

func TestReadNextBasicRows(t *testing.T) {
	path := writeTemp(t, "a,b,c\n1,2,3\n")
	rr, err := NewRecordReader(path, ',')
	if err != nil {
		t.Fatalf("NewRecordReader: %v", err)
	}
	defer rr.Close()

	rows := readAllRecords(t, rr)
	want := [][]string{{"a", "b", "c"}, {"1", "2", "3"}}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d: %v", len(rows), len(want), rows)
	}
	for i := range want {
		for j := range want[i] {
			if rows[i][j] != want[i][j] {
				t.Errorf("row %d field %d = %q, want %q", i, j, rows[i][j], want[i][j])
			}
		}
	}
}

func TestReadNextNoTrailingNewline(t *testing.T) {
	path := writeTemp(t, "x,y\n1,2")
	rr, err := NewRecordReader(path, ',')
	if err != nil {
		t.Fatalf("NewRecordReader: %v", err)
	}
	defer rr.Close()

	rows := readAllRecords(t, rr)
	if len(rows) != 2 || rows[1][0] != "1" || rows[1][1] != "2" {
		t.Fatalf("got %v, want [[x y] [1 2]]", rows)
	}
}

func TestReadNextQuotedFieldWithDelimiter(t *testing.T) {
	path := writeTemp(t, `"hello, world","plain"` + "\n")
	rr, err := NewRecordReader(path, ',')
	if err != nil {
		t.Fatalf("NewRecordReader: %v", err)
	}
	defer rr.Close()

	rows := readAllRecords(t, rr)
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0][0] != "hello, world" || rows[0][1] != "plain" {
		t.Fatalf("got %v, want [hello, world plain]", rows[0])
	}
}

func TestReadNextDanglingDelimiterAtEOF(t *testing.T) {
	// A trailing delimiter immediately followed by EOF is collapsed rather
	// than counted as one more (empty) field.
	path := writeTemp(t, "a,b,")
	rr, err := NewRecordReader(path, ',')
	if err != nil {
		t.Fatalf("NewRecordReader: %v", err)
	}
	defer rr.Close()

	rows := readAllRecords(t, rr)
	if len(rows) != 1 || len(rows[0]) != 2 || rows[0][0] != "a" || rows[0][1] != "b" {
		t.Fatalf("got %v, want one row [a b]", rows)
	}
}

func TestReadAtSeeksToOffset(t *testing.T) {
	path := writeTemp(t, "a,b\nc,d\ne,f\n")
	rr, err := NewRecordReader(path, ',')
	if err != nil {
		t.Fatalf("NewRecordReader: %v", err)
	}
	defer rr.Close()

	first := record.New()
	n, err := rr.ReadNext(first)
	if err != nil {
		t.Fatalf("ReadNext: %v", err)
	}

	second := record.New()
	if err := rr.ReadAt(second, int64(n)); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(second.Field(0)) != "c" || string(second.Field(1)) != "d" {
		t.Fatalf("ReadAt result = [%q %q], want [c d]", second.Field(0), second.Field(1))
	}

	// Re-seek backward to offset 0 and confirm it re-decodes the first row.
	back := record.New()
	if err := rr.ReadAt(back, 0); err != nil {
		t.Fatalf("ReadAt(0): %v", err)
	}
	if string(back.Field(0)) != "a" || string(back.Field(1)) != "b" {
		t.Fatalf("ReadAt(0) result = [%q %q], want [a b]", back.Field(0), back.Field(1))
	}
}

func TestStripQuotes(t *testing.T) {
	cases := []struct{ in, want string }{
		{`"hello"`, "hello"},
		{"hello", "hello"},
		{`""`, ""},
		{`"`, `"`},
	}
	for _, c := range cases {
		if got := string(stripQuotes([]byte(c.in))); got != c.want {
			t.Errorf("stripQuotes(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
