package scrape

import (
	"sort"
	"time"

	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/util"
)

// ranked carries a position with the values ordering needs.
type ranked struct {
	pos    domain.Position
	source int
	date   time.Time // zero when the date token has no value
}

func rank(p domain.Position, source int, now time.Time) ranked {
	d, _ := util.ParseRecency(p.DateToken, now)
	return ranked{pos: p, source: source, date: d}
}

// sortByRecency orders newest first. Equal dates keep their input order.
func sortByRecency(rs []ranked) {
	sort.SliceStable(rs, func(i, j int) bool {
		return rs[i].date.After(rs[j].date)
	})
}

// dedupeByApplication keeps the first record per non-empty application
// link. Records without a link are all kept.
func dedupeByApplication(rs []ranked) (out []ranked, dropped int) {
	seen := make(map[string]bool, len(rs))
	out = rs[:0:0]
	for _, r := range rs {
		if link := r.pos.Application; link != "" {
			if seen[link] {
				dropped++
				continue
			}
			seen[link] = true
		}
		out = append(out, r)
	}
	return out, dropped
}
