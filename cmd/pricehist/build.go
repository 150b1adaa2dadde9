package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nrummel/pricehist/internal/btree"
	"github.com/nrummel/pricehist/internal/ingest"
)

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	csvPath := fs.String("csv", "", "input CSV path: asset_id,date,timestamp,value")
	outPath := fs.String("out", "", "output tree file path")
	pageSize := fs.Uint("page-size", 4096, "page size in bytes")
	skipHeader := fs.Bool("skip-header", true, "skip the first CSV row")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *csvPath == "" || *outPath == "" {
		return fmt.Errorf("build: -csv and -out are required")
	}

	f, err := os.Open(*csvPath)
	if err != nil {
		return fmt.Errorf("build: open csv: %w", err)
	}
	defer f.Close()

	src := ingest.NewCSVSource(f, *skipHeader)
	if err := btree.Build(*outPath, uint32(*pageSize), src); err != nil {
		return fmt.Errorf("build: %w", err)
	}

	fmt.Printf("built %s (page size %d)\n", *outPath, *pageSize)
	return nil
}
