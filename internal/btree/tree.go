// Package btree implements the on-disk, bulk-loaded, read-only B+ tree
// described by the price-history spec: fixed 12-byte file header, fixed
// 16-byte page header, 16-byte entries, CLOCK page cache, and a
// reverse-chronological as-of-timestamp query iterator.
package btree

import (
	"fmt"
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/nrummel/pricehist/internal/page"
)

// Tree is a handle onto an open, immutable price-history file. A Tree owns
// its file descriptor and cache exclusively; it is not safe for concurrent
// use by multiple goroutines (spec §5: single-threaded, cooperative with
// the caller).
type Tree struct {
	f      *os.File
	header fileHeader
	cache  *cache
}

// Open opens an existing tree file, validating its header, and constructs
// a page cache with the given number of slots.
func Open(path string, cacheSlots int) (*Tree, error) {
	if cacheSlots < 1 {
		return nil, errors.New("btree: cache_slots must be >= 1")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "btree: open")
	}
	h, err := readHeader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Tree{
		f:      f,
		header: h,
		cache:  newCache(f, h.pageSize, headerSize, cacheSlots),
	}, nil
}

// Close releases the underlying file handle. The cache is discarded with
// the Tree.
func (t *Tree) Close() error {
	return t.f.Close()
}

// PageSize returns the file's fixed page size.
func (t *Tree) PageSize() uint32 { return t.header.pageSize }

// PageCount returns the total number of pages in the file.
func (t *Tree) PageCount() uint32 { return t.header.pageCount }

func (t *Tree) loadPage(pn uint32) (*page.Page, error) {
	if pn == page.Sentinel {
		return nil, errors.Mark(errors.Newf("btree: page number %d is reserved", pn), ErrReservedPage)
	}
	buf, err := t.cache.Load(pn)
	if err != nil {
		return nil, err
	}
	pg := page.New(buf, t.header.pageSize)
	if pg.Type() != page.Leaf && pg.Type() != page.Inner {
		return nil, errors.Mark(errors.Newf("btree: page %d has invalid type %d", pn, pg.Type()), ErrMalformedPage)
	}
	return pg, nil
}

// descend walks from the root to the leaf that would hold probe, per spec
// §4.5, returning the leaf's page number and the clamped lower-bound index
// within it.
func (t *Tree) descend(probe page.Key) (leafPN uint32, index uint32, err error) {
	pn := t.header.rootPageNum
	for {
		pg, err := t.loadPage(pn)
		if err != nil {
			return 0, 0, err
		}
		if pg.Type() == page.Leaf {
			n := pg.NumKeys()
			j := pg.LowerBound(probe)
			if n > 0 && j >= n {
				j = n - 1
			}
			return pn, j, nil
		}
		i := pg.LowerBound(probe)
		if i < pg.NumKeys() {
			pn = pg.ChildAt(i)
		} else {
			pn = pg.Extra()
		}
	}
}

// CacheStats returns cumulative cache hit/miss/eviction counters.
func (t *Tree) CacheStats() (hits, misses, evictions uint64) {
	return t.cache.Stats()
}

// DebugPrint dumps every page's header and entries to w in page number
// order: a diagnostic tree walk, not part of the read path. Inner pages
// print each separator alongside its child page number; leaves print each
// key alongside its value.
func (t *Tree) DebugPrint(w io.Writer) error {
	fmt.Fprintf(w, "page_size=%d page_count=%d root_page_num=%d\n", t.header.pageSize, t.header.pageCount, t.header.rootPageNum)
	for pn := uint32(0); pn < t.header.pageCount; pn++ {
		pg, err := t.loadPage(pn)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "--- page %d ---\n", pn)
		fmt.Fprintf(w, "type=%d num_keys=%d extra=%d\n", pg.Type(), pg.NumKeys(), pg.Extra())
		for i := uint32(0); i < pg.NumKeys(); i++ {
			if pg.Type() == page.Leaf {
				fmt.Fprintf(w, "  [%d] %v = %g\n", i, pg.KeyAt(i), pg.ValueAt(i))
			} else {
				fmt.Fprintf(w, "  [%d] %v -> page %d\n", i, pg.KeyAt(i), pg.ChildAt(i))
			}
		}
	}
	return nil
}
