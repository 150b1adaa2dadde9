package btree

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	h := fileHeader{pageSize: 4096, pageCount: 9, rootPageNum: 8}
	got, err := decodeHeader(h.encode())
	if err != nil {
		t.Fatalf("decodeHeader: %v", err)
	}
	if got != h {
		t.Fatalf("decodeHeader = %+v, want %+v", got, h)
	}
}

func TestDecodeHeaderRejectsZeroPageSize(t *testing.T) {
	h := fileHeader{pageSize: 0, pageCount: 1, rootPageNum: 0}
	if _, err := decodeHeader(h.encode()); err == nil {
		t.Fatal("expected error for zero page size")
	}
}

func TestDecodeHeaderRejectsOutOfRangeRoot(t *testing.T) {
	h := fileHeader{pageSize: 64, pageCount: 3, rootPageNum: 3}
	if _, err := decodeHeader(h.encode()); err == nil {
		t.Fatal("expected error for root_page_num >= page_count")
	}
}

func TestDecodeHeaderRejectsShortBuffer(t *testing.T) {
	if _, err := decodeHeader([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for short header")
	}
}
