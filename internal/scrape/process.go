package scrape

import (
	"github.com/rs/zerolog"

	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/extract"
	"internscan-engine/internal/scrape/normalize"
	"internscan-engine/internal/scrape/types"
)

// processDocument runs every extractor over doc, merges their rows and
// normalizes the result. It never fails: a document nothing understands
// yields no positions.
func processDocument(
	log zerolog.Logger,
	extractors []extract.Extractor,
	n *normalize.Normalizer,
	src domain.Source,
	doc types.Document,
	st *types.SourceStats,
) []domain.Position {
	var sets [][]domain.FieldMap
	for _, ex := range extractors {
		rows := ex.Extract(doc.Body, src.Name())
		if len(rows) == 0 {
			continue
		}
		if st.Strategies == nil {
			st.Strategies = make(map[string]int)
		}
		st.Strategies[ex.Name()] = len(rows)
		log.Debug().Str("source", src.Name()).Str("strategy", ex.Name()).Int("rows", len(rows)).Msg("extracted")
		sets = append(sets, rows)
	}

	merged := mergeRows(sets, n.ApplicationOf)
	st.Merged = len(merged)

	out := make([]domain.Position, 0, len(merged))
	for _, raw := range merged {
		out = append(out, n.Normalize(raw, src.Name()))
	}
	return out
}

// mergeRows concatenates extractor outputs in order and drops rows whose
// non-empty application link was already seen. Rows without a link are
// all kept.
func mergeRows(sets [][]domain.FieldMap, linkOf func(domain.FieldMap) string) []domain.FieldMap {
	seen := map[string]bool{}
	var out []domain.FieldMap
	for _, rows := range sets {
		for _, row := range rows {
			if link := linkOf(row); link != "" {
				if seen[link] {
					continue
				}
				seen[link] = true
			}
			out = append(out, row)
		}
	}
	return out
}
