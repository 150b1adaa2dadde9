package btree

import "github.com/cockroachdb/errors"

// Sentinel errors surfaced to callers. They are built with
// github.com/cockroachdb/errors so errors.Is keeps working across the
// cache -> tree -> query call chain, where a plain fmt.Errorf %w wrap at
// each hop would otherwise bury the original sentinel a few layers down.
var (
	// ErrMalformedHeader is returned by Open when the file header is absent,
	// has a zero page size, or names an implausible root page.
	ErrMalformedHeader = errors.New("btree: malformed file header")

	// ErrMalformedPage is returned when a page's type byte is neither Leaf
	// nor Inner.
	ErrMalformedPage = errors.New("btree: malformed page")

	// ErrEmptySource is returned by Build when the sorted source yields no
	// entries. Per spec open question: build on an empty source is treated
	// as an error rather than silently producing an empty-leaf root.
	ErrEmptySource = errors.New("btree: source produced no entries")

	// ErrReservedPage is returned when a page number equal to Sentinel is
	// used where a real page is required.
	ErrReservedPage = errors.New("btree: reserved page number")
)
