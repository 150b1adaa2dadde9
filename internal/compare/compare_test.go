package compare

import (
	"path/filepath"
	"testing"

	"github.com/nrummel/pricehist/internal/btree"
	"github.com/nrummel/pricehist/internal/page"
)

func sampleEntries() []page.Entry {
	var entries []page.Entry
	date := uint32(20200101)
	for asset := uint32(0); asset < 2; asset++ {
		d := date
		for i := 0; i < 12; i++ {
			entries = append(entries, page.Entry{
				Key:   page.Key{AssetID: asset, Date: d, Timestamp: 10},
				Value: float32(asset)*1000 + float32(i),
			})
			d++
		}
	}
	return entries
}

func TestVerifyBuildAgreesWithOracle(t *testing.T) {
	dir := t.TempDir()
	queries := []btree.Query{
		{AssetID: 0, StartDate: 20200101, EndDate: 20200112, Timestamp: 10},
		{AssetID: 1, StartDate: 20200103, EndDate: 20200108, Timestamp: 10},
		{AssetID: 0, StartDate: 20200101, EndDate: 20200101, Timestamp: 0},
	}

	mismatches, err := VerifyBuild(
		filepath.Join(dir, "t.tree"), 64,
		filepath.Join(dir, "oracle"),
		sampleEntries(), queries,
	)
	if err != nil {
		t.Fatalf("VerifyBuild: %v", err)
	}
	if len(mismatches) != 0 {
		t.Fatalf("unexpected mismatches: %+v", mismatches)
	}
}

func TestVerifyBuildIsPageSizeIndependent(t *testing.T) {
	queries := []btree.Query{
		{AssetID: 1, StartDate: 20200101, EndDate: 20200112, Timestamp: 10},
	}

	for _, pageSize := range []uint32{48, 64, 128, 4096} {
		dir := t.TempDir()
		mismatches, err := VerifyBuild(
			filepath.Join(dir, "t.tree"), pageSize,
			filepath.Join(dir, "oracle"),
			sampleEntries(), queries,
		)
		if err != nil {
			t.Fatalf("VerifyBuild(pageSize=%d): %v", pageSize, err)
		}
		if len(mismatches) != 0 {
			t.Fatalf("pageSize=%d: unexpected mismatches: %+v", pageSize, mismatches)
		}
	}
}
