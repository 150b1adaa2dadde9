// Package compare cross-checks a built price-history tree file against an
// independent oracle. It continues the teacher's dbms/index/lsm.LSM, which
// wrapped Pebble behind the shared Index interface purely to benchmark it
// alongside a custom B-tree; here Pebble plays the oracle in a
// differential test instead of a benchmark competitor, directly exercising
// spec.md's testable properties 6 and 7 (round-trip and page-size
// independence) as executable checks.
package compare

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"
	"github.com/nrummel/pricehist/internal/btree"
	"github.com/nrummel/pricehist/internal/page"
)

// Oracle is a scratch Pebble instance loaded with the same entries given to
// the tree under test, keyed so that a lexicographic byte-order scan of
// Pebble matches the tree's own (asset_id, date, timestamp) ordering.
type Oracle struct {
	db *pebble.DB
}

// OpenOracle opens (or creates) a Pebble database at dir. The oracle is
// scratch space for a single differential-test run, so its memtable is kept
// small rather than tuned for throughput.
func OpenOracle(dir string) (*Oracle, error) {
	opts := &pebble.Options{
		MemTableSize:                4 << 20,
		MemTableStopWritesThreshold: 2,
	}
	db, err := pebble.Open(dir, opts)
	if err != nil {
		return nil, errors.Wrap(err, "compare: open oracle")
	}
	return &Oracle{db: db}, nil
}

// Close shuts down the oracle.
func (o *Oracle) Close() error {
	return errors.Wrap(o.db.Close(), "compare: close oracle")
}

func encodeOracleKey(k page.Key) []byte {
	b := make([]byte, 12)
	binary.BigEndian.PutUint32(b[0:4], k.AssetID)
	binary.BigEndian.PutUint32(b[4:8], k.Date)
	binary.BigEndian.PutUint32(b[8:12], k.Timestamp)
	return b
}

// Load inserts every entry a Source yields into the oracle, mirroring
// whatever was fed to btree.Build so the two stores hold identical data.
func (o *Oracle) Load(src btree.Source) error {
	for {
		e, ok, err := src.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, math.Float32bits(e.Value))
		if err := o.db.Set(encodeOracleKey(e.Key), buf, pebble.Sync); err != nil {
			return errors.Wrap(err, "compare: oracle set")
		}
	}
}

// AsOf answers the same as-of-timestamp query the tree would, by scanning
// the oracle in reverse over [start_date, end_date] for asset_id. Used only
// by tests/bench to verify btree.Iterator output; never on the tree's own
// read path.
func (o *Oracle) AsOf(q btree.Query) ([]btree.Result, error) {
	lower := encodeOracleKey(page.Key{AssetID: q.AssetID, Date: q.StartDate, Timestamp: 0})
	upper := encodeOracleKey(page.Key{AssetID: q.AssetID, Date: q.EndDate, Timestamp: 0xFFFF_FFFF})
	// upper bound in pebble's iterator is exclusive; push it one past the
	// largest possible key in range.
	upper = incrementKey(upper)

	it, err := o.db.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, errors.Wrap(err, "compare: oracle range")
	}
	defer it.Close()

	var results []btree.Result
	lastDate := ^uint32(0)
	hasLast := false
	for valid := it.Last(); valid; valid = it.Prev() {
		k := it.Key()
		assetID := binary.BigEndian.Uint32(k[0:4])
		date := binary.BigEndian.Uint32(k[4:8])
		timestamp := binary.BigEndian.Uint32(k[8:12])
		if assetID != q.AssetID || date < q.StartDate || date > q.EndDate {
			continue
		}
		if timestamp > q.Timestamp {
			continue
		}
		if hasLast && lastDate == date {
			continue
		}
		value := math.Float32frombits(binary.BigEndian.Uint32(it.Value()))
		results = append(results, btree.Result{ID: q.ID, AssetID: assetID, Date: date, Timestamp: timestamp, Value: value})
		lastDate = date
		hasLast = true
	}
	return results, nil
}

// Mismatch describes one query whose tree and oracle results disagree.
type Mismatch struct {
	Query      btree.Query
	FromTree   []btree.Result
	FromOracle []btree.Result
}

// VerifyBuild bulk-loads entries into a tree file at treePath with the
// given page size, loads the same entries into a fresh oracle under
// oracleDir, then runs every query in queries against both and reports any
// disagreement. It exercises spec.md's round-trip property (every inserted
// observation is retrievable) and its page-size independence property
// (the same entries at a different page size must answer identically) when
// called twice with different pageSize values over the same queries.
func VerifyBuild(treePath string, pageSize uint32, oracleDir string, entries []page.Entry, queries []btree.Query) ([]Mismatch, error) {
	loaded := make([]page.Entry, len(entries))
	copy(loaded, entries)

	if err := btree.Build(treePath, pageSize, &entrySource{entries: loaded}); err != nil {
		return nil, errors.Wrap(err, "compare: build tree")
	}
	tr, err := btree.Open(treePath, 64)
	if err != nil {
		return nil, errors.Wrap(err, "compare: open tree")
	}
	defer tr.Close()

	oracle, err := OpenOracle(oracleDir)
	if err != nil {
		return nil, err
	}
	defer oracle.Close()
	if err := oracle.Load(&entrySource{entries: loaded}); err != nil {
		return nil, err
	}

	var mismatches []Mismatch
	for _, q := range queries {
		treeResults, err := drain(tr, q)
		if err != nil {
			return nil, errors.Wrap(err, "compare: tree query")
		}
		oracleResults, err := oracle.AsOf(q)
		if err != nil {
			return nil, err
		}
		if !sameResults(treeResults, oracleResults) {
			mismatches = append(mismatches, Mismatch{Query: q, FromTree: treeResults, FromOracle: oracleResults})
		}
	}
	return mismatches, nil
}

type entrySource struct {
	entries []page.Entry
	i       int
}

func (s *entrySource) Next() (page.Entry, bool, error) {
	if s.i >= len(s.entries) {
		return page.Entry{}, false, nil
	}
	e := s.entries[s.i]
	s.i++
	return e, true, nil
}

func drain(tr *btree.Tree, q btree.Query) ([]btree.Result, error) {
	it, err := tr.Query(q)
	if err != nil {
		return nil, err
	}
	var out []btree.Result
	for {
		res, ok, err := it.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, res)
	}
}

func sameResults(a, b []btree.Result) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].AssetID != b[i].AssetID || a[i].Date != b[i].Date ||
			a[i].Timestamp != b[i].Timestamp || a[i].Value != b[i].Value {
			return false
		}
	}
	return true
}

func incrementKey(k []byte) []byte {
	out := make([]byte, len(k))
	copy(out, k)
	for i := len(out) - 1; i >= 0; i-- {
		out[i]++
		if out[i] != 0 {
			return out
		}
	}
	return append(out, 0)
}
