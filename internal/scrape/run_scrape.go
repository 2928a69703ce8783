package scrape

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/normalize"
	"internscan-engine/internal/scrape/types"
)

// Run processes sources in the given order. Fetch failures skip the source
// and are reported in the stats; Run itself does not fail.
func (r *Runner) Run(ctx context.Context, sources []domain.Source) Result {
	nowFn := r.Now
	if nowFn == nil {
		nowFn = time.Now
	}
	now := nowFn()

	n := r.Normalizer
	if n == nil {
		n = normalize.New()
	}

	docs, errs := r.prefetch(ctx, sources)

	var res Result
	res.Stats.Rejected = map[string]int{}

	var pool []ranked
	for i, src := range sources {
		st := types.SourceStats{Source: src.Name(), Kind: src.Kind}
		if errs[i] != nil {
			st.Err = errs[i].Error()
			r.Log.Warn().Err(errs[i]).Str("source", src.Name()).Str("kind", src.Kind).Msg("source skipped")
			res.Stats.Sources = append(res.Stats.Sources, st)
			continue
		}

		positions := processDocument(r.Log, r.Extractors, n, src, docs[i], &st)
		for _, p := range positions {
			keep, why := ShouldKeep(r.Filters, p)
			if !keep {
				res.Stats.Rejected[why]++
				r.Log.Trace().Str("source", src.Name()).Str("reason", why).
					Str("company", p.Company).Str("location", p.Location).Str("status", p.Status).
					Msg("skipped")
				continue
			}
			pool = append(pool, rank(p, i, now))
		}

		r.Log.Info().Str("source", src.Name()).Int("rows", st.Merged).Msg("source processed")
		res.Stats.Sources = append(res.Stats.Sources, st)
	}

	sortByRecency(pool)
	pool, res.Stats.Dupes = dedupeByApplication(pool)

	kept := make(map[int]int, len(sources))
	res.Positions = make([]domain.Position, 0, len(pool))
	for _, rp := range pool {
		res.Positions = append(res.Positions, rp.pos)
		kept[rp.source]++
	}
	// One stats entry per source, in source order.
	for i := range res.Stats.Sources {
		res.Stats.Sources[i].Kept = kept[i]
	}
	res.Stats.Kept = len(res.Positions)

	return res
}

// prefetch fetches every source concurrently. Results are indexed like
// sources so processing order does not depend on completion order.
func (r *Runner) prefetch(ctx context.Context, sources []domain.Source) ([]types.Document, []error) {
	docs := make([]types.Document, len(sources))
	errs := make([]error, len(sources))

	limit := r.Concurrency
	if limit <= 0 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i, src := range sources {
		g.Go(func() error {
			fctx := ctx
			if r.Timeout > 0 {
				var cancel context.CancelFunc
				fctx, cancel = context.WithTimeout(ctx, r.Timeout)
				defer cancel()
			}

			r.Log.Debug().Str("source", src.Name()).Str("kind", src.Kind).Str("target", src.Target).Msg("fetching")
			doc, err := r.Fetcher.Fetch(fctx, src)
			docs[i], errs[i] = doc, err
			return nil // best-effort: don't cancel siblings
		})
	}

	_ = g.Wait()
	return docs, errs
}
