package ingest

import (
	"strings"
	"testing"

	"github.com/nrummel/pricehist/internal/page"
)

func TestCSVSourceParsesRows(t *testing.T) {
	data := "asset_id,date,timestamp,value\n" +
		"1,20200101,10,3.5\n" +
		"1,20200102,20,4.25\n"
	src := NewCSVSource(strings.NewReader(data), true)

	e1, ok, err := src.Next()
	if err != nil || !ok {
		t.Fatalf("Next: e=%v ok=%v err=%v", e1, ok, err)
	}
	want1 := page.Entry{Key: page.Key{AssetID: 1, Date: 20200101, Timestamp: 10}, Value: 3.5}
	if e1 != want1 {
		t.Fatalf("e1 = %+v, want %+v", e1, want1)
	}

	e2, ok, err := src.Next()
	if err != nil || !ok {
		t.Fatalf("Next: e=%v ok=%v err=%v", e2, ok, err)
	}
	if e2.Key.Date != 20200102 {
		t.Fatalf("e2.Key.Date = %d, want 20200102", e2.Key.Date)
	}

	_, ok, err = src.Next()
	if err != nil || ok {
		t.Fatalf("expected EOF, got ok=%v err=%v", ok, err)
	}
}

func TestCSVSourceRejectsOutOfOrderRows(t *testing.T) {
	data := "1,20200102,10,1.0\n1,20200101,10,2.0\n"
	src := NewCSVSource(strings.NewReader(data), false)

	if _, _, err := src.Next(); err != nil {
		t.Fatalf("first row: unexpected error %v", err)
	}
	if _, _, err := src.Next(); err == nil {
		t.Fatal("expected error for an out-of-order row")
	}
}

func TestCSVSourceRejectsDuplicateKey(t *testing.T) {
	data := "1,20200101,10,1.0\n1,20200101,10,2.0\n"
	src := NewCSVSource(strings.NewReader(data), false)

	if _, _, err := src.Next(); err != nil {
		t.Fatalf("first row: unexpected error %v", err)
	}
	if _, _, err := src.Next(); err == nil {
		t.Fatal("expected error for a duplicate key (not strictly greater)")
	}
}
