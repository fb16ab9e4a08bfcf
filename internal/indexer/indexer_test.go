package indexer

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/csvquery/csvex/internal/filter"
	"github.com/csvquery/csvex/internal/source"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.csv")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func waitUntilDone(t *testing.T, idx *Indexer) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for idx.IsLoading() {
		if time.Now().After(deadline) {
			t.Fatal("indexer never finished")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestIndexerIdentityFilterIndexesEveryRow(t *testing.T) {
	path := writeCSV(t, "id,name\n1,a\n2,b\n3,c\n")

	src, err := source.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	idx, err := Start(context.Background(), src, filter.Identity())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	waitUntilDone(t, idx)

	if got := idx.RowCount(); got != 3 {
		t.Fatalf("RowCount() = %d, want 3", got)
	}
	entries := idx.Offsets(0, idx.RowCount())
	for i, e := range entries {
		if int(e.Ordinal) != i {
			t.Fatalf("entries[%d].Ordinal = %d, want %d", i, e.Ordinal, i)
		}
	}
	if idx.Err() != nil {
		t.Fatalf("Err() = %v, want nil", idx.Err())
	}
}

func TestIndexerAppliesFilter(t *testing.T) {
	path := writeCSV(t, "id,name\n1,a\n2,b\n3,c\n")

	src, err := source.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	flt, err := filter.Compile("0==2", 2)
	if err != nil {
		t.Fatal(err)
	}

	idx, err := Start(context.Background(), src, flt)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	waitUntilDone(t, idx)

	if got := idx.RowCount(); got != 1 {
		t.Fatalf("RowCount() = %d, want 1", got)
	}
	entries := idx.Offsets(0, 1)
	if entries[0].Ordinal != 1 {
		t.Fatalf("matching entry ordinal = %d, want 1", entries[0].Ordinal)
	}
}

func TestIndexerCancelViaClose(t *testing.T) {
	var rows string
	for i := 0; i < 5000; i++ {
		rows += "x,y\n"
	}
	path := writeCSV(t, "a,b\n"+rows)

	src, err := source.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	idx, err := Start(context.Background(), src, filter.Identity())
	if err != nil {
		t.Fatal(err)
	}
	idx.Close() // drop the foreground reference immediately

	deadline := time.Now().Add(2 * time.Second)
	for workerHoldsRef(idx) {
		if time.Now().After(deadline) {
			t.Fatal("worker never observed cancellation")
		}
		time.Sleep(time.Millisecond)
	}
}

// workerHoldsRef reports whether the worker has not yet dropped its own
// reference, i.e. has not exited.
func workerHoldsRef(idx *Indexer) bool {
	return atomic.LoadInt32(&idx.st.refs) > 0
}

func TestIndexerHeadersAndColumnCount(t *testing.T) {
	path := writeCSV(t, "id,name,extra\n1,a,x,y\n2,b,z\n")

	src, err := source.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	idx, err := Start(context.Background(), src, filter.Identity())
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	waitUntilDone(t, idx)

	headers := idx.Headers()
	want := []string{"id", "name", "extra"}
	if len(headers) != len(want) {
		t.Fatalf("Headers() = %v, want %v", headers, want)
	}
	for i := range want {
		if headers[i] != want[i] {
			t.Fatalf("Headers()[%d] = %q, want %q", i, headers[i], want[i])
		}
	}
	if got := idx.ColumnCount(); got != 4 {
		t.Fatalf("ColumnCount() = %d, want 4 (widest data row)", got)
	}
}
