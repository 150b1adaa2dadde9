package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/nrummel/pricehist/internal/btree"
	"github.com/nrummel/pricehist/internal/compare"
)

var (
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricehist_cache_hits_total",
		Help: "Page cache hits across all queries run by this process.",
	})
	cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricehist_cache_misses_total",
		Help: "Page cache misses across all queries run by this process.",
	})
	cacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pricehist_cache_evictions_total",
		Help: "Page cache evictions across all queries run by this process.",
	})
	queryDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricehist_query_duration_seconds",
		Help:    "Wall-clock duration of a single as-of query.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMisses, cacheEvictions, queryDuration)
}

// runBench repeatedly queries a tree across a sweep of cache sizes, feeding
// per-query latency into Prometheus metrics (dumped as text at the end) and
// into a gonum/plot scatter report, following the teacher's bench-and-record
// shape but against this module's own tree and query types.
func runBench(args []string) error {
	fs := flag.NewFlagSet("bench", flag.ExitOnError)
	treePath := fs.String("tree", "", "tree file path")
	assetID := fs.Uint("asset-id", 0, "asset id to query repeatedly")
	startDate := fs.Uint("start-date", 0, "start date (inclusive)")
	endDate := fs.Uint("end-date", 0, "end date (inclusive)")
	timestamp := fs.Uint("timestamp", 0, "as-of timestamp")
	iterations := fs.Int("iterations", 100, "queries per cache size")
	reportPath := fs.String("report", "", "optional PNG report path")
	metricsPath := fs.String("metrics-out", "", "optional Prometheus text dump path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *treePath == "" {
		return fmt.Errorf("bench: -tree is required")
	}

	sizes := []int{1, 4, 16, 64, 256}
	var samples []compare.LatencySample

	q := btree.Query{
		AssetID:   uint32(*assetID),
		StartDate: uint32(*startDate),
		EndDate:   uint32(*endDate),
		Timestamp: uint32(*timestamp),
	}

	for _, slots := range sizes {
		t, err := btree.Open(*treePath, slots)
		if err != nil {
			return fmt.Errorf("bench: open: %w", err)
		}

		var total time.Duration
		for i := 0; i < *iterations; i++ {
			start := time.Now()
			it, err := t.Query(q)
			if err != nil {
				t.Close()
				return fmt.Errorf("bench: query: %w", err)
			}
			for {
				_, ok, err := it.Next()
				if err != nil {
					t.Close()
					return fmt.Errorf("bench: iterate: %w", err)
				}
				if !ok {
					break
				}
			}
			elapsed := time.Since(start)
			total += elapsed
			queryDuration.Observe(elapsed.Seconds())
		}

		hits, misses, evictions := t.CacheStats()
		cacheHits.Add(float64(hits))
		cacheMisses.Add(float64(misses))
		cacheEvictions.Add(float64(evictions))
		t.Close()

		avgMicros := float64(total.Microseconds()) / float64(*iterations)
		samples = append(samples, compare.LatencySample{CacheSlots: slots, Micros: avgMicros})
		fmt.Printf("cache_slots=%d avg_latency_us=%.2f hits=%d misses=%d evictions=%d\n",
			slots, avgMicros, hits, misses, evictions)
	}

	if *reportPath != "" {
		if err := compare.WriteLatencyReport(*reportPath, "query latency vs cache size", samples); err != nil {
			return fmt.Errorf("bench: report: %w", err)
		}
	}

	if *metricsPath != "" {
		mf, err := prometheus.DefaultGatherer.Gather()
		if err != nil {
			return fmt.Errorf("bench: gather metrics: %w", err)
		}
		out, err := os.Create(*metricsPath)
		if err != nil {
			return fmt.Errorf("bench: create metrics file: %w", err)
		}
		defer out.Close()
		enc := expfmt.NewEncoder(out, expfmt.FmtText)
		for _, m := range mf {
			if err := enc.Encode(m); err != nil {
				return fmt.Errorf("bench: encode metrics: %w", err)
			}
		}
	}

	return nil
}
