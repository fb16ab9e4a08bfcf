package histogram

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/csvquery/csvex/internal/filter"
	"github.com/csvquery/csvex/internal/source"
)

func TestHistographerCountsFilteredColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.csv")
	body := "id,color\n1,red\n2,blue\n3,red\n4,red\n5,blue\n6,green\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	src, err := source.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	hg, err := Start(context.Background(), src, filter.Identity(), 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer hg.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hg.IsLoading() {
		if time.Now().After(deadline) {
			t.Fatal("histographer never finished")
		}
		time.Sleep(time.Millisecond)
	}

	if got := hg.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3 distinct colors", got)
	}
	v, c := hg.At(0)
	if v != "red" || c != 3 {
		t.Fatalf("At(0) = (%q, %d), want (\"red\", 3)", v, c)
	}
	if hg.Err() != nil {
		t.Fatalf("Err() = %v, want nil", hg.Err())
	}
}
