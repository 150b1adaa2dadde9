package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nrummel/pricehist/internal/btree"
)

func runDump(args []string) error {
	fs := flag.NewFlagSet("dump", flag.ExitOnError)
	treePath := fs.String("tree", "", "tree file path")
	cacheSlots := fs.Int("cache-slots", 64, "page cache size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *treePath == "" {
		return fmt.Errorf("dump: -tree is required")
	}

	t, err := btree.Open(*treePath, *cacheSlots)
	if err != nil {
		return fmt.Errorf("dump: open: %w", err)
	}
	defer t.Close()

	return t.DebugPrint(os.Stdout)
}
