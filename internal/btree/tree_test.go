package btree

import (
	"path/filepath"
	"testing"
)

func TestOpenRejectsZeroCacheSlots(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.tree")
	if err := Build(path, 64, &sliceSource{entries: workedExampleEntries()}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := Open(path, 0); err == nil {
		t.Fatal("expected error opening with cacheSlots=0")
	}
}

func TestOpenRejectsMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.tree"), 4); err == nil {
		t.Fatal("expected error opening nonexistent file")
	}
}

func TestPageSizeAndPageCountReflectBuild(t *testing.T) {
	tr := buildWorkedExample(t)
	if tr.PageSize() != 64 {
		t.Fatalf("PageSize() = %d, want 64", tr.PageSize())
	}
	if tr.PageCount() != 9 {
		t.Fatalf("PageCount() = %d, want 9", tr.PageCount())
	}
}

func TestCacheStatsReflectFullScan(t *testing.T) {
	tr := buildWorkedExample(t)

	it, err := tr.Query(Query{AssetID: 0, StartDate: 20200101, EndDate: 20200118, Timestamp: 10})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	count := 0
	for {
		_, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		count++
	}
	if count != 18 {
		t.Fatalf("got %d results scanning the whole tree, want 18", count)
	}

	hits, misses, _ := tr.CacheStats()
	if hits+misses == 0 {
		t.Fatal("expected cache stats to reflect the full scan")
	}
}
