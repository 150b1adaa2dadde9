package btree

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/nrummel/pricehist/internal/codec"
)

// headerSize is the fixed 12-byte file header: page_size, page_count,
// root_page_num, each a big-endian uint32.
const headerSize = 12

const (
	hdrOffPageSize     = 0
	hdrOffPageCount    = 4
	hdrOffRootPageNum  = 8
)

type fileHeader struct {
	pageSize    uint32
	pageCount   uint32
	rootPageNum uint32
}

func (h fileHeader) encode() []byte {
	buf := make([]byte, headerSize)
	codec.PutU32(buf, hdrOffPageSize, h.pageSize)
	codec.PutU32(buf, hdrOffPageCount, h.pageCount)
	codec.PutU32(buf, hdrOffRootPageNum, h.rootPageNum)
	return buf
}

func decodeHeader(buf []byte) (fileHeader, error) {
	if len(buf) < headerSize {
		return fileHeader{}, errors.Mark(errors.Newf("btree: short header: %d bytes", len(buf)), ErrMalformedHeader)
	}
	h := fileHeader{
		pageSize:    codec.GetU32(buf, hdrOffPageSize),
		pageCount:   codec.GetU32(buf, hdrOffPageCount),
		rootPageNum: codec.GetU32(buf, hdrOffRootPageNum),
	}
	if h.pageSize == 0 {
		return fileHeader{}, errors.Mark(errors.New("btree: page_size is zero"), ErrMalformedHeader)
	}
	if h.pageCount > 0 && h.rootPageNum >= h.pageCount {
		return fileHeader{}, errors.Mark(
			errors.Newf("btree: root_page_num %d out of range for page_count %d", h.rootPageNum, h.pageCount),
			ErrMalformedHeader,
		)
	}
	return h, nil
}

func readHeader(r io.ReaderAt) (fileHeader, error) {
	buf := make([]byte, headerSize)
	if n, err := r.ReadAt(buf, 0); err != nil {
		if errors.Is(err, io.EOF) {
			return decodeHeader(buf[:n])
		}
		return fileHeader{}, errors.Wrap(err, "btree: read file header")
	}
	return decodeHeader(buf)
}

func writeHeader(w io.WriterAt, h fileHeader) error {
	if _, err := w.WriteAt(h.encode(), 0); err != nil {
		return errors.Wrap(err, "btree: write file header")
	}
	return nil
}
