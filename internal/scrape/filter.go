package scrape

import (
	"strings"

	"internscan-engine/internal/config"
	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/util"
)

const (
	RejectBlocked  = "location_blocked"
	RejectLocation = "location"
	RejectStatus   = "status"
)

// ShouldKeep reports whether p belongs in the final set: a US or Canada
// location that is not blocklisted, and an open status.
func ShouldKeep(f config.Filters, p domain.Position) (keep bool, reason string) {
	// Blocklist wins
	loc := strings.ToLower(p.Location)
	for _, b := range f.LocationsBlock {
		b = strings.ToLower(strings.TrimSpace(b))
		if b != "" && strings.Contains(loc, b) {
			return false, RejectBlocked
		}
	}

	if !util.IsUSOrCanadaLocation(p.Location) {
		return false, RejectLocation
	}
	if !util.IsOpenStatus(p.Status) {
		return false, RejectStatus
	}
	return true, ""
}
