package main

import (
	"flag"
	"fmt"

	"github.com/nrummel/pricehist/internal/btree"
)

func runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	treePath := fs.String("tree", "", "tree file path")
	cacheSlots := fs.Int("cache-slots", 64, "page cache size")
	assetID := fs.Uint("asset-id", 0, "asset id")
	startDate := fs.Uint("start-date", 0, "start date (inclusive)")
	endDate := fs.Uint("end-date", 0, "end date (inclusive)")
	timestamp := fs.Uint("timestamp", 0, "as-of timestamp")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *treePath == "" {
		return fmt.Errorf("query: -tree is required")
	}

	t, err := btree.Open(*treePath, *cacheSlots)
	if err != nil {
		return fmt.Errorf("query: open: %w", err)
	}
	defer t.Close()

	it, err := t.Query(btree.Query{
		AssetID:   uint32(*assetID),
		StartDate: uint32(*startDate),
		EndDate:   uint32(*endDate),
		Timestamp: uint32(*timestamp),
	})
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	for {
		res, ok, err := it.Next()
		if err != nil {
			return fmt.Errorf("query: %w", err)
		}
		if !ok {
			break
		}
		fmt.Printf("%d\t%d\t%d\t%g\n", res.AssetID, res.Date, res.Timestamp, res.Value)
	}

	hits, misses, evictions := t.CacheStats()
	fmt.Printf("cache: hits=%d misses=%d evictions=%d pages_read=%d\n", hits, misses, evictions, it.PagesRead())
	return nil
}
