// Package page interprets a fixed-size byte buffer as either a leaf or an
// inner node of the price tree, without copying the underlying bytes. It is
// the layer the bulk loader writes through and the cache/navigator read
// through.
//
// Layout is fixed by spec: a 16-byte header (page_type, num_keys, extra,
// reserved — each a big-endian uint32) followed by up to key_capacity()
// 16-byte entries (asset_id, date, timestamp, value_or_child — each a
// big-endian uint32, the last reinterpreted as an f32 on leaves).
package page

import (
	"github.com/nrummel/pricehist/internal/codec"
)

// Kind discriminates leaf pages from inner pages.
type Kind uint32

const (
	Leaf  Kind = 0
	Inner Kind = 1
)

const (
	headerSize = 16
	entrySize  = 16

	offType    = 0
	offNumKeys = 4
	offExtra   = 8
	// offReserved = 12

	entryOffAssetID   = 0
	entryOffDate      = 4
	entryOffTimestamp = 8
	entryOffPayload   = 12
)

// Sentinel is the "no predecessor leaf" / "no such page" marker.
const Sentinel uint32 = 0xFFFF_FFFF

// Key is the ordered triple (asset_id, date, timestamp). Comparison is
// lexicographic on the three fields in that order.
type Key struct {
	AssetID   uint32
	Date      uint32
	Timestamp uint32
}

// Compare returns -1, 0, or 1 as k is less than, equal to, or greater than
// other.
func (k Key) Compare(other Key) int {
	if k.AssetID != other.AssetID {
		if k.AssetID < other.AssetID {
			return -1
		}
		return 1
	}
	if k.Date != other.Date {
		if k.Date < other.Date {
			return -1
		}
		return 1
	}
	if k.Timestamp != other.Timestamp {
		if k.Timestamp < other.Timestamp {
			return -1
		}
		return 1
	}
	return 0
}

func (k Key) Less(other Key) bool { return k.Compare(other) < 0 }

// Entry is a single (key, value) pair stored in a leaf.
type Entry struct {
	Key   Key
	Value float32
}

// Page is a typed view over a page-sized byte buffer. The buffer is owned
// by the caller (typically a cache slot); Page never copies it.
type Page struct {
	buf      []byte
	pageSize uint32
}

// New wraps buf, which must be exactly pageSize bytes, as a page view.
func New(buf []byte, pageSize uint32) *Page {
	return &Page{buf: buf, pageSize: pageSize}
}

// KeyCapacity returns K, the maximum number of entries a leaf can hold or
// separators an inner node can hold, for a page of this size.
func KeyCapacity(pageSize uint32) uint32 {
	return (pageSize - headerSize) / entrySize
}

func (p *Page) KeyCapacity() uint32 { return KeyCapacity(p.pageSize) }

func (p *Page) Type() Kind   { return Kind(codec.GetU32(p.buf, offType)) }
func (p *Page) SetType(k Kind) { codec.PutU32(p.buf, offType, uint32(k)) }

func (p *Page) NumKeys() uint32        { return codec.GetU32(p.buf, offNumKeys) }
func (p *Page) SetNumKeys(n uint32)    { codec.PutU32(p.buf, offNumKeys, n) }

// Extra is the leaf back-pointer (previous leaf, or Sentinel) or the inner
// node's rightmost child page number.
func (p *Page) Extra() uint32     { return codec.GetU32(p.buf, offExtra) }
func (p *Page) SetExtra(v uint32) { codec.PutU32(p.buf, offExtra, v) }

func entryOffset(i uint32) int { return headerSize + int(i)*entrySize }

// KeyAt returns the key stored at entry index i.
func (p *Page) KeyAt(i uint32) Key {
	off := entryOffset(i)
	return Key{
		AssetID:   codec.GetU32(p.buf, off+entryOffAssetID),
		Date:      codec.GetU32(p.buf, off+entryOffDate),
		Timestamp: codec.GetU32(p.buf, off+entryOffTimestamp),
	}
}

// SetKeyAt writes the key fields of entry index i, leaving the payload word
// untouched.
func (p *Page) SetKeyAt(i uint32, k Key) {
	off := entryOffset(i)
	codec.PutU32(p.buf, off+entryOffAssetID, k.AssetID)
	codec.PutU32(p.buf, off+entryOffDate, k.Date)
	codec.PutU32(p.buf, off+entryOffTimestamp, k.Timestamp)
}

// ValueAt returns the leaf value stored at entry index i.
func (p *Page) ValueAt(i uint32) float32 {
	return codec.GetF32(p.buf, entryOffset(i)+entryOffPayload)
}

// SetValueAt writes the leaf value at entry index i.
func (p *Page) SetValueAt(i uint32, v float32) {
	codec.PutF32(p.buf, entryOffset(i)+entryOffPayload, v)
}

// ChildAt returns the embedded child page number stored alongside separator
// i of an inner node.
func (p *Page) ChildAt(i uint32) uint32 {
	return codec.GetU32(p.buf, entryOffset(i)+entryOffPayload)
}

// SetChildAt writes the embedded child page number for separator i of an
// inner node.
func (p *Page) SetChildAt(i uint32, child uint32) {
	codec.PutU32(p.buf, entryOffset(i)+entryOffPayload, child)
}

// SetEntry writes both key and value fields of leaf entry index i in one
// call.
func (p *Page) SetEntry(i uint32, e Entry) {
	p.SetKeyAt(i, e.Key)
	p.SetValueAt(i, e.Value)
}

// SetSeparator writes both the separator key and embedded child of inner
// entry index i in one call.
func (p *Page) SetSeparator(i uint32, k Key, child uint32) {
	p.SetKeyAt(i, k)
	p.SetChildAt(i, child)
}

// LowerBound locates the leftmost index i such that k <= key(i), by binary
// search over [0, num_keys). On an inner node, an exact match on separator
// i is reported as i+1 so the descent follows the strictly-greater child
// (equal keys live in the left subtree). On a leaf, the raw index is
// returned unchanged. If k exceeds every key, the result equals num_keys.
func (p *Page) LowerBound(k Key) uint32 {
	n := p.NumKeys()
	lo, hi := uint32(0), n
	for lo < hi {
		mid := lo + (hi-lo)/2
		if p.KeyAt(mid).Less(k) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if p.Type() == Inner && lo < n && p.KeyAt(lo).Compare(k) == 0 {
		return lo + 1
	}
	return lo
}

// Zero clears the entire page buffer.
func (p *Page) Zero() {
	for i := range p.buf {
		p.buf[i] = 0
	}
}

// Bytes exposes the raw backing buffer, e.g. for the pager to read/write.
func (p *Page) Bytes() []byte { return p.buf }
