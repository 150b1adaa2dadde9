// Package codec reads and writes the fixed-width big-endian integers and
// floats that make up every on-disk structure in pricehist: file headers,
// page headers, and page bodies. Nothing here is endian-configurable; the
// file format is always big-endian, per spec.
package codec

import (
	"encoding/binary"
	"math"
)

// U32Size is the width in bytes of a big-endian uint32 field.
const U32Size = 4

// GetU32 reads a big-endian uint32 from b at off.
func GetU32(b []byte, off int) uint32 {
	return binary.BigEndian.Uint32(b[off : off+U32Size])
}

// PutU32 writes v as a big-endian uint32 into b at off.
func PutU32(b []byte, off int, v uint32) {
	binary.BigEndian.PutUint32(b[off:off+U32Size], v)
}

// GetF32 reads a big-endian IEEE-754 single-precision float from b at off.
func GetF32(b []byte, off int) float32 {
	return math.Float32frombits(GetU32(b, off))
}

// PutF32 writes v as a big-endian IEEE-754 single-precision float into b at
// off.
func PutF32(b []byte, off int, v float32) {
	PutU32(b, off, math.Float32bits(v))
}
