package btree

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/nrummel/pricehist/internal/page"
)

// MinPageSize is the smallest page size that fits a 16-byte header plus one
// 16-byte entry, per spec §6.
const MinPageSize = 32

// Source is a forward iterator over (key, value) pairs in strictly
// ascending key order, the input to Build. The loader does not validate
// ordering; a source that violates it produces an undefined tree (spec
// §4.3 failure modes). internal/ingest provides a validating CSV-backed
// Source.
type Source interface {
	// Next returns the next entry. ok is false once the source is
	// exhausted, with err nil. A non-nil err aborts the build.
	Next() (entry page.Entry, ok bool, err error)
}

// Build bulk-loads a complete tree file at path from src in a single pass.
// src must yield entries in strictly ascending (asset_id, date, timestamp)
// order. pageSize must be at least MinPageSize.
func Build(path string, pageSize uint32, src Source) error {
	if pageSize < MinPageSize {
		return errors.Newf("btree: page size %d below minimum %d", pageSize, MinPageSize)
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "btree: build: create file")
	}
	defer f.Close()

	if err := writeHeader(f, fileHeader{pageSize: pageSize}); err != nil {
		return err
	}

	ld := &loaderState{f: f, pageSize: pageSize, k: page.KeyCapacity(pageSize), lastLeafPN: page.Sentinel}

	root, wroteAny, err := ld.run(src)
	if err != nil {
		return err
	}
	if !wroteAny {
		return errors.Mark(errors.New("btree: build: source produced no entries"), ErrEmptySource)
	}

	return writeHeader(f, fileHeader{pageSize: pageSize, pageCount: ld.pageCount, rootPageNum: root})
}

type innerBuilder struct {
	numKeys  uint32
	keys     []page.Key
	children []uint32
	extra    uint32
	lastKey  page.Key
}

func newInnerBuilder(k uint32, extra uint32, lastKey page.Key) *innerBuilder {
	return &innerBuilder{
		keys:     make([]page.Key, k),
		children: make([]uint32, k),
		extra:    extra,
		lastKey:  lastKey,
	}
}

type loaderState struct {
	f          *os.File
	pageSize   uint32
	k          uint32
	pageCount  uint32
	lastLeafPN uint32
	lineage    []*innerBuilder
}

func (ld *loaderState) run(src Source) (root uint32, wroteAny bool, err error) {
	buf := make([]page.Entry, 0, ld.k)
	for {
		buf = buf[:0]
		for uint32(len(buf)) < ld.k {
			e, ok, err := src.Next()
			if err != nil {
				return 0, false, errors.Wrap(err, "btree: build: read source")
			}
			if !ok {
				break
			}
			buf = append(buf, e)
		}

		if len(buf) > 0 {
			wroteAny = true
			leafPN, err := ld.writeLeaf(buf)
			if err != nil {
				return 0, false, err
			}
			if err := ld.propagate(0, buf[len(buf)-1].Key, leafPN); err != nil {
				return 0, false, err
			}
		}

		if uint32(len(buf)) < ld.k {
			break // source exhausted
		}
	}

	if !wroteAny {
		return 0, false, nil
	}

	root, err = ld.finalize()
	return root, true, err
}

func (ld *loaderState) writeLeaf(entries []page.Entry) (uint32, error) {
	buf := make([]byte, ld.pageSize)
	pg := page.New(buf, ld.pageSize)
	pg.SetType(page.Leaf)
	pg.SetNumKeys(uint32(len(entries)))
	pg.SetExtra(ld.lastLeafPN)
	for i, e := range entries {
		pg.SetEntry(uint32(i), e)
	}
	pn := ld.pageCount
	if err := ld.writePage(pn, buf); err != nil {
		return 0, err
	}
	ld.lastLeafPN = pn
	ld.pageCount++
	return pn, nil
}

func (ld *loaderState) writeInner(b *innerBuilder) (uint32, error) {
	buf := make([]byte, ld.pageSize)
	pg := page.New(buf, ld.pageSize)
	pg.SetType(page.Inner)
	pg.SetNumKeys(b.numKeys)
	pg.SetExtra(b.extra)
	for i := uint32(0); i < b.numKeys; i++ {
		pg.SetSeparator(i, b.keys[i], b.children[i])
	}
	pn := ld.pageCount
	if err := ld.writePage(pn, buf); err != nil {
		return 0, err
	}
	ld.pageCount++
	return pn, nil
}

func (ld *loaderState) writePage(pn uint32, buf []byte) error {
	off := int64(headerSize) + int64(pn)*int64(ld.pageSize)
	if _, err := ld.f.WriteAt(buf, off); err != nil {
		return errors.Wrapf(err, "btree: build: write page %d", pn)
	}
	return nil
}

// propagate inserts (key, ptr) — ptr being the page number of the subtree
// just finished at the level below, key its largest key — into lineage[L].
// See spec §4.3 for the two cases; in the full case the node is written
// as-is and lineage[L] is reseeded to hold (key, ptr) exactly as the "does
// not exist" case would have, since the freshly-finalised node no longer
// has room for it.
func (ld *loaderState) propagate(level int, key page.Key, ptr uint32) error {
	if level == len(ld.lineage) {
		ld.lineage = append(ld.lineage, newInnerBuilder(ld.k, ptr, key))
		return nil
	}
	node := ld.lineage[level]
	if node.numKeys < ld.k {
		// the separator paired with the child now being pushed out of
		// extra is that child's own largest key — the lastKey tracked
		// from when it became extra — not the incoming key, which
		// belongs to ptr's subtree instead.
		node.children[node.numKeys] = node.extra
		node.keys[node.numKeys] = node.lastKey
		node.extra = ptr
		node.lastKey = key
		node.numKeys++
		return nil
	}

	pn, err := ld.writeInner(node)
	if err != nil {
		return err
	}
	if err := ld.propagate(level+1, node.lastKey, pn); err != nil {
		return err
	}
	ld.lineage[level] = newInnerBuilder(ld.k, ptr, key)
	return nil
}

// finalize writes out every in-flight lineage builder, chaining each one
// as the rightmost child of the level above, and returns the page number
// of the top-level page: the root.
func (ld *loaderState) finalize() (uint32, error) {
	for level := 0; level < len(ld.lineage); level++ {
		node := ld.lineage[level]
		pn, err := ld.writeInner(node)
		if err != nil {
			return 0, err
		}
		if level+1 == len(ld.lineage) {
			return pn, nil
		}
		// attach pn as the new rightmost child of the level above; a full
		// builder there is written out and reseeded the same way as during
		// the leaf pass, which can add a level to the lineage.
		if err := ld.propagate(level+1, node.lastKey, pn); err != nil {
			return 0, err
		}
	}
	// unreachable: run() only calls finalize after at least one leaf write,
	// which always seeds lineage[0] via propagate.
	panic("btree: finalize called with empty lineage")
}
