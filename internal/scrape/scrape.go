// Package scrape coordinates a run: fetch every configured source, extract
// and normalize its rows, then filter, order and dedupe the combined set.
package scrape

import (
	"time"

	"github.com/rs/zerolog"

	"internscan-engine/internal/config"
	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/extract"
	"internscan-engine/internal/scrape/normalize"
	"internscan-engine/internal/scrape/types"
)

type Runner struct {
	Fetcher    types.Fetcher
	Extractors []extract.Extractor
	Normalizer *normalize.Normalizer
	Filters    config.Filters

	// Now is read once per run. Nil means the wall clock.
	Now func() time.Time

	Concurrency int           // parallel fetches; <= 0 means 1
	Timeout     time.Duration // per fetch; 0 means none

	Log zerolog.Logger
}

// NewRunner wires a Runner from cfg with the default extractor set.
func NewRunner(cfg config.Config, f types.Fetcher, n *normalize.Normalizer, now func() time.Time, log zerolog.Logger) *Runner {
	return &Runner{
		Fetcher:     f,
		Extractors:  extract.Default(now),
		Normalizer:  n,
		Filters:     cfg.Filters,
		Now:         now,
		Concurrency: cfg.Fetch.Concurrency,
		Timeout:     cfg.Fetch.Timeout(),
		Log:         log,
	}
}

// Result is the outcome of one run. Positions are in output order.
type Result struct {
	Positions []domain.Position
	Stats     types.Stats
}

// Failed lists the sources that were skipped because their fetch failed.
func (r Result) Failed() []types.SourceStats {
	var out []types.SourceStats
	for _, s := range r.Stats.Sources {
		if s.Failed() {
			out = append(out, s)
		}
	}
	return out
}
