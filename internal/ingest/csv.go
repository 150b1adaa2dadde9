// Package ingest adapts external row sources — currently CSV — into the
// btree.Source the bulk loader consumes. It is explicitly the "CSV
// ingestion" collaborator spec.md places out of the core's scope (§1), but
// unlike the loader itself it is expected to validate ascending order,
// since the loader's own contract leaves an unsorted source as undefined
// behaviour.
package ingest

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/nrummel/pricehist/internal/page"
)

// CSVSource reads rows of the form "asset_id,date,timestamp,value" from r
// and yields them as page.Entry values, rejecting any row that is not
// strictly greater than the previous one in (asset_id, date, timestamp)
// order.
type CSVSource struct {
	r       *csv.Reader
	prev    page.Key
	hasPrev bool
	header  bool
}

// NewCSVSource wraps r. If skipHeader is true the first row is read and
// discarded without validation.
func NewCSVSource(r io.Reader, skipHeader bool) *CSVSource {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 4
	return &CSVSource{r: cr, header: skipHeader}
}

// Next implements btree.Source.
func (s *CSVSource) Next() (page.Entry, bool, error) {
	if s.header {
		s.header = false
		if _, err := s.r.Read(); err != nil {
			if err == io.EOF {
				return page.Entry{}, false, nil
			}
			return page.Entry{}, false, errors.Wrap(err, "ingest: read csv header")
		}
	}

	record, err := s.r.Read()
	if err == io.EOF {
		return page.Entry{}, false, nil
	}
	if err != nil {
		return page.Entry{}, false, errors.Wrap(err, "ingest: read csv row")
	}

	assetID, err := parseU32(record[0])
	if err != nil {
		return page.Entry{}, false, errors.Wrapf(err, "ingest: asset_id column %q", record[0])
	}
	date, err := parseU32(record[1])
	if err != nil {
		return page.Entry{}, false, errors.Wrapf(err, "ingest: date column %q", record[1])
	}
	timestamp, err := parseU32(record[2])
	if err != nil {
		return page.Entry{}, false, errors.Wrapf(err, "ingest: timestamp column %q", record[2])
	}
	value, err := strconv.ParseFloat(record[3], 32)
	if err != nil {
		return page.Entry{}, false, errors.Wrapf(err, "ingest: value column %q", record[3])
	}

	key := page.Key{AssetID: assetID, Date: date, Timestamp: timestamp}
	if s.hasPrev && key.Compare(s.prev) <= 0 {
		return page.Entry{}, false, errors.Newf(
			"ingest: row %v is not strictly greater than previous row %v", key, s.prev,
		)
	}
	s.prev = key
	s.hasPrev = true

	return page.Entry{Key: key, Value: float32(value)}, true, nil
}

func parseU32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}
