package btree

import "github.com/nrummel/pricehist/internal/page"

// Query describes a point-in-time range scan: for every distinct date in
// [StartDate, EndDate] on which AssetID has an observation timestamped at
// or before Timestamp, the iterator yields that date's latest-as-of
// observation. ID is opaque to the tree; it is echoed back on every Result
// so a caller driving many concurrent logical queries (e.g. one per row of
// a batch request) can tell results apart.
type Query struct {
	ID        uint64
	AssetID   uint32
	StartDate uint32
	EndDate   uint32
	Timestamp uint32
}

// Result is one as-of-timestamp winner for a single date.
type Result struct {
	ID        uint64
	AssetID   uint32
	Date      uint32
	Timestamp uint32
	Value     float32
}

// Iterator walks leaves in reverse chronological order applying the
// as-of-timestamp rule. It borrows the Tree's cache exclusively: do not
// interleave calls to other Tree methods with calls to Next until the
// Iterator is exhausted.
type Iterator struct {
	tree *Tree
	q    Query

	leafPN  uint32
	index   int32 // -1 means "before first" within the current leaf
	started bool

	hasLastYielded  bool
	lastYieldedDate uint32

	pagesRead uint32

	done bool
	err  error
}

// Query returns a borrowing iterator over q's results, positioned by
// descending to the leaf that would hold (AssetID, EndDate, Timestamp).
func (t *Tree) Query(q Query) (*Iterator, error) {
	probe := page.Key{AssetID: q.AssetID, Date: q.EndDate, Timestamp: q.Timestamp}
	leafPN, index, err := t.descend(probe)
	if err != nil {
		return nil, err
	}
	return &Iterator{tree: t, q: q, leafPN: leafPN, index: int32(index), pagesRead: 1}, nil
}

// PagesRead returns the number of distinct leaf pages this iterator has
// walked onto so far, counting the starting leaf descend positioned it on.
// It is a per-query counter, unlike Tree.CacheStats' cumulative hit/miss
// totals across every Tree.Query call; a caller comparing the two can tell
// whether a given query's leaf walk was mostly cache hits or mostly misses.
func (it *Iterator) PagesRead() uint32 { return it.pagesRead }

type stepOutcome int

const (
	stepContinue stepOutcome = iota
	stepYield
	stepEnd
)

// Next advances the iterator, returning the next result in descending key
// order, or ok=false once the window is exhausted. A non-nil error aborts
// the scan; the iterator must not be reused afterward.
func (it *Iterator) Next() (Result, bool, error) {
	if it.done {
		return Result{}, false, it.err
	}
	for {
		res, outcome, err := it.step()
		if err != nil {
			it.done = true
			it.err = err
			return Result{}, false, err
		}
		switch outcome {
		case stepYield:
			return res, true, nil
		case stepEnd:
			it.done = true
			return Result{}, false, nil
		default:
			// stepContinue: loop again
		}
	}
}

func (it *Iterator) step() (Result, stepOutcome, error) {
	pg, err := it.tree.loadPage(it.leafPN)
	if err != nil {
		return Result{}, stepEnd, err
	}

	if it.index < 0 {
		extra := pg.Extra()
		if extra == page.Sentinel {
			return Result{}, stepEnd, nil
		}
		predPN := extra
		predPg, err := it.tree.loadPage(predPN)
		if err != nil {
			return Result{}, stepEnd, err
		}
		it.leafPN = predPN
		it.index = int32(predPg.NumKeys()) - 1
		it.pagesRead++
		return Result{}, stepContinue, nil
	}

	i := uint32(it.index)
	key := pg.KeyAt(i)
	value := pg.ValueAt(i)
	it.index--

	q := it.q
	if key.AssetID < q.AssetID || key.Date < q.StartDate {
		return Result{}, stepEnd, nil
	}

	aboveWindow := key.AssetID > q.AssetID || key.Date > q.EndDate || key.Timestamp > q.Timestamp
	if !it.hasLastYielded && aboveWindow {
		return Result{}, stepContinue, nil
	}
	if (it.hasLastYielded && it.lastYieldedDate == key.Date) || key.Timestamp > q.Timestamp {
		return Result{}, stepContinue, nil
	}

	it.hasLastYielded = true
	it.lastYieldedDate = key.Date
	return Result{
		ID:        q.ID,
		AssetID:   key.AssetID,
		Date:      key.Date,
		Timestamp: key.Timestamp,
		Value:     value,
	}, stepYield, nil
}
