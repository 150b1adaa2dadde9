package compare

import (
	"github.com/cockroachdb/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// LatencySample is one (cache_slots, query latency) observation, gathered by
// running the same query window against trees opened with different cache
// sizes.
type LatencySample struct {
	CacheSlots int
	Micros     float64
}

// WriteLatencyReport renders samples as a scatter of cache size against
// query latency and saves it as a PNG at path. This is diagnostic tooling
// for choosing a cache_slots value, not part of the read path.
func WriteLatencyReport(path string, title string, samples []LatencySample) error {
	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i].X = float64(s.CacheSlots)
		pts[i].Y = s.Micros
	}

	p, err := plot.New()
	if err != nil {
		return errors.Wrap(err, "compare: new plot")
	}
	p.Title.Text = title
	p.X.Label.Text = "cache slots"
	p.Y.Label.Text = "query latency (us)"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return errors.Wrap(err, "compare: build scatter")
	}
	p.Add(scatter)
	p.Add(plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 5*vg.Inch, path); err != nil {
		return errors.Wrap(err, "compare: save report")
	}
	return nil
}
