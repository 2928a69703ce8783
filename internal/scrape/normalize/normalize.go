// Package normalize reconciles source-specific column labels with the
// canonical position schema.
//
// Matching is an ordered rule list, evaluated per canonical field in
// schema order:
//
//  1. exact alias match, then substring match in either direction
//  2. exact match on short labels that are unsafe as substrings
//  3. abbreviation match on whole label segments
//  4. the field default
//
// Raw keys are visited in sorted order and a key claimed by one field is not
// offered to the next, so the same row always normalizes the same way.
package normalize

import (
	"sort"
	"strings"

	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/util"
)

const (
	UnknownCompany  = "Unknown Company"
	UnknownRole     = "Unknown Role"
	UnknownLocation = "Unknown Location"
	DefaultStatus   = "open"
	ClosedStatus    = "closed"
)

type rule struct {
	field   string
	aliases []string // exact and substring
	exact   []string // exact only; too short or too common for substring
	abbrevs []string
	def     string
}

var rules = []rule{
	{
		field:   domain.FieldCompany,
		aliases: []string{"company", "organization", "employer", "firm"},
		exact:   []string{"name"},
		abbrevs: []string{"co", "corp", "inc", "ltd", "llc", "org"},
		def:     UnknownCompany,
	},
	{
		field:   domain.FieldRole,
		aliases: []string{"role", "position", "title", "opening"},
		exact:   []string{"job"},
		abbrevs: []string{"pos", "jt"},
		def:     UnknownRole,
	},
	{
		field:   domain.FieldLocation,
		aliases: []string{"location", "city", "office", "region"},
		exact:   []string{"where", "place"},
		abbrevs: []string{"loc", "hq", "geo"},
		def:     UnknownLocation,
	},
	{
		field:   domain.FieldApplication,
		aliases: []string{"application", "apply", "link", "url", "posting"},
		abbrevs: []string{"app", "lnk", "href"},
	},
	{
		field:   domain.FieldStatus,
		aliases: []string{"status", "availability", "active"},
		exact:   []string{"open", "state_of_posting"},
		abbrevs: []string{"stat", "avail"},
		def:     DefaultStatus,
	},
	{
		field:   domain.FieldDateToken,
		aliases: []string{"date_token", "date", "posted", "added", "updated"},
		exact:   []string{"age", "when"},
		abbrevs: []string{"dt", "ago"},
	},
	{
		field:   domain.FieldSourceRepo,
		aliases: []string{"source_repo", "source", "repo", "origin"},
		abbrevs: []string{"src"},
	},
}

// LinkResolver maps an application URL to the URL it should be recorded
// as, e.g. the target behind a redirector.
type LinkResolver func(link string) string

type Normalizer struct {
	resolve LinkResolver
}

type Option func(*Normalizer)

func WithResolver(r LinkResolver) Option {
	return func(n *Normalizer) { n.resolve = r }
}

func New(opts ...Option) *Normalizer {
	n := &Normalizer{}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Normalize builds the canonical record for one raw row. sourceID fills
// source_repo when the row carries none.
func (n *Normalizer) Normalize(raw domain.FieldMap, sourceID string) domain.Position {
	vals, extra := match(raw)

	p := domain.Position{
		Company:     textOr(vals[domain.FieldCompany], UnknownCompany),
		Role:        textOr(vals[domain.FieldRole], UnknownRole),
		Location:    textOr(vals[domain.FieldLocation], UnknownLocation),
		Application: util.ExtractLink(vals[domain.FieldApplication]),
		Status:      textOr(vals[domain.FieldStatus], DefaultStatus),
		DateToken:   textOr(vals[domain.FieldDateToken], ""),
		SourceRepo:  textOr(vals[domain.FieldSourceRepo], sourceID),
	}
	// Lists mark closed postings by putting a lock where the link was.
	if vals[domain.FieldStatus] == "" && p.Application == "" && util.IsClosedStatus(vals[domain.FieldApplication]) {
		p.Status = ClosedStatus
	}
	if p.Application != "" && n.resolve != nil {
		if r := strings.TrimSpace(n.resolve(p.Application)); r != "" {
			p.Application = r
		}
	}

	for k, v := range extra {
		if v = util.StripMarkup(v); v != "" {
			if p.Extra == nil {
				p.Extra = make(map[string]string)
			}
			p.Extra[k] = v
		}
	}
	return p
}

// ApplicationOf returns the unresolved application link Normalize would
// record for raw. The merge step dedupes on it.
func (n *Normalizer) ApplicationOf(raw domain.FieldMap) string {
	vals, _ := match(raw)
	return util.ExtractLink(vals[domain.FieldApplication])
}

func textOr(v, def string) string {
	if v = util.StripMarkup(v); v != "" {
		return v
	}
	return def
}

// match assigns raw keys to canonical fields. Unclaimed keys come back as
// extra.
func match(raw domain.FieldMap) (vals map[string]string, extra map[string]string) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	claimed := make(map[string]bool, len(keys))
	vals = make(map[string]string, len(rules))

	for _, r := range rules {
		key, ok := findKey(r, keys, claimed)
		if !ok {
			continue
		}
		claimed[key] = true
		vals[r.field] = raw[key]
	}

	for _, k := range keys {
		if !claimed[k] {
			if extra == nil {
				extra = make(map[string]string)
			}
			extra[k] = raw[k]
		}
	}
	return vals, extra
}

func findKey(r rule, keys []string, claimed map[string]bool) (string, bool) {
	passes := []struct {
		aliases []string
		pred    func(key, alias string) bool
	}{
		{r.aliases, exactMatch},
		{r.aliases, substringMatch},
		{r.exact, exactMatch},
		{r.abbrevs, abbrevMatch},
	}
	for _, pass := range passes {
		for _, a := range pass.aliases {
			for _, k := range keys {
				if claimed[k] {
					continue
				}
				if pass.pred(strings.ToLower(strings.TrimSpace(k)), a) {
					return k, true
				}
			}
		}
	}
	return "", false
}

func exactMatch(key, alias string) bool { return key == alias }

func substringMatch(key, alias string) bool {
	if strings.Contains(key, alias) {
		return true
	}
	return len(key) >= 3 && strings.Contains(alias, key)
}

// abbrevMatch compares whole label segments so "co" does not hit "color".
func abbrevMatch(key, alias string) bool {
	for _, part := range strings.FieldsFunc(key, isLabelSep) {
		if part == alias {
			return true
		}
	}
	return false
}

func isLabelSep(r rune) bool {
	return r == '_' || r == '.' || r == '/' || r == '-' || r == ' '
}
