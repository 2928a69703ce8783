package util

import (
	"strings"
)

// unambiguous substrings; matched case-insensitively
var countryMarkers = []string{
	"usa",
	"united states",
	"u.s.",
	"canada",
	"ontario",
	"toronto",
	"vancouver",
	"montreal",
	"quebec",
	"british columbia",
	"alberta",
	"calgary",
	"ottawa",
	"waterloo",
	"edmonton",
	"winnipeg",
	"halifax",
}

var usStates = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true, "CT": true, "DE": true,
	"FL": true, "GA": true, "HI": true, "ID": true, "IL": true, "IN": true, "IA": true, "KS": true,
	"KY": true, "LA": true, "ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true, "NM": true, "NY": true,
	"NC": true, "ND": true, "OH": true, "OK": true, "OR": true, "PA": true, "RI": true, "SC": true,
	"SD": true, "TN": true, "TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true,
}

// IsUSOrCanadaLocation reports whether free-form location text points at the
// US or Canada. State codes are matched as bare tokens, so words like "OR" or
// "IN" in non-geographic text are false positives.
func IsUSOrCanadaLocation(text string) bool {
	text = CleanText(text)
	if text == "" {
		return false
	}

	low := strings.ToLower(text)
	for _, m := range countryMarkers {
		if strings.Contains(low, m) {
			return true
		}
	}

	for _, tok := range locationTokens(text) {
		if usStates[strings.ToUpper(tok)] {
			return true
		}
	}
	return false
}

func locationTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ' ', '\t', '\n', ',', '/', ';', '(', ')':
			return true
		}
		return false
	})
}
