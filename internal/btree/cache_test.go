package btree

import (
	"bytes"
	"testing"
)

// fakeReaderAt serves pageSize-byte pages where page n's first byte is n,
// so a test can tell which page a slot is currently holding.
type fakeReaderAt struct {
	pageSize int64
	reads    int
}

func (f *fakeReaderAt) ReadAt(p []byte, off int64) (int, error) {
	f.reads++
	pn := byte(off / f.pageSize)
	for i := range p {
		p[i] = pn
	}
	return len(p), nil
}

func TestCacheMissThenHit(t *testing.T) {
	r := &fakeReaderAt{pageSize: 16}
	c := newCache(r, 16, 0, 2)

	buf, err := c.Load(5)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(buf, bytes.Repeat([]byte{5}, 16)) {
		t.Fatalf("Load(5) returned wrong bytes: %v", buf)
	}
	hits, misses, _ := c.Stats()
	if hits != 0 || misses != 1 {
		t.Fatalf("after first load: hits=%d misses=%d, want 0,1", hits, misses)
	}

	if _, err := c.Load(5); err != nil {
		t.Fatalf("Load: %v", err)
	}
	hits, misses, _ = c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("after second load: hits=%d misses=%d, want 1,1", hits, misses)
	}
}

func TestCacheFillsEmptySlotsBeforeEvicting(t *testing.T) {
	r := &fakeReaderAt{pageSize: 16}
	c := newCache(r, 16, 0, 2)

	c.Load(0)
	c.Load(1)
	_, _, evictions := c.Stats()
	if evictions != 0 {
		t.Fatalf("evictions = %d after filling empty slots, want 0", evictions)
	}

	c.Load(2)
	_, _, evictions = c.Stats()
	if evictions != 1 {
		t.Fatalf("evictions = %d after third distinct page on 2-slot cache, want 1", evictions)
	}
}

func TestCacheClockGivesReferencedSlotSecondChance(t *testing.T) {
	r := &fakeReaderAt{pageSize: 16}
	c := newCache(r, 16, 0, 3)

	c.Load(0)
	c.Load(1)
	c.Load(2)
	c.Load(3) // forces the first sweep; fills page 0's slot, leaves 1 and 2 unreferenced

	c.Load(1) // re-reference the slot holding page 1

	c.Load(4) // second sweep: page 1 should be spared, page 2 should go
	if _, ok := c.pageToSlot[1]; !ok {
		t.Fatal("page 1 was evicted despite being referenced; CLOCK should have spared it")
	}
	if _, ok := c.pageToSlot[2]; ok {
		t.Fatal("page 2 should have been evicted")
	}
}
