package util

import (
	"html"
	"regexp"
	"strings"
)

const (
	// ContinuationGlyph marks a row that belongs to the company above it.
	ContinuationGlyph = "↳"
	// LockGlyph marks a closed posting in community lists.
	LockGlyph = "🔒"
)

var checkmarks = []string{"✅", "✔", "✓", "☑"}

var (
	reMDImage  = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	reMDLink   = regexp.MustCompile(`\[([^\]]*)\]\(\s*([^)\s]+)[^)]*\)`)
	reHrefAttr = regexp.MustCompile(`(?i)href\s*=\s*["']([^"']+)["']`)
	reTags     = regexp.MustCompile(`(?s)<[^>]+>`)
	reBareURL  = regexp.MustCompile(`https?://[^\s<>"'|)\]]+`)
)

func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// FoldLabel lowercases a column label and folds inner whitespace to "_".
func FoldLabel(s string) string {
	s = strings.ToLower(StripMarkup(s))
	return strings.Join(strings.Fields(s), "_")
}

// StripMarkup turns a decorated cell (markdown emphasis, links, inline HTML)
// into its display text.
func StripMarkup(s string) string {
	s = reMDImage.ReplaceAllString(s, "")
	s = reMDLink.ReplaceAllString(s, "$1")
	s = reTags.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = strings.NewReplacer("**", "", "__", "", "`", "").Replace(s)
	return CleanText(s)
}

// ExtractLink returns the URL embedded in a cell: the target of a markdown
// link, an href attribute, or a bare URL. Cells without a URL return "".
func ExtractLink(s string) string {
	s = reMDImage.ReplaceAllString(s, "")
	if m := reMDLink.FindStringSubmatch(s); m != nil && strings.Contains(m[2], "http") {
		return strings.TrimSpace(m[2])
	}
	if m := reHrefAttr.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(html.UnescapeString(m[1]))
	}
	if u := reBareURL.FindString(s); u != "" {
		return strings.TrimRight(u, ".,;:")
	}
	return ""
}

func HasMarkdownLink(s string) bool {
	return reMDLink.MatchString(s)
}

func HasCheckmark(s string) bool {
	for _, c := range checkmarks {
		if strings.Contains(s, c) {
			return true
		}
	}
	return false
}

// IsOpenStatus is the status half of the keep filter.
func IsOpenStatus(s string) bool {
	return strings.Contains(strings.ToLower(s), "open") || HasCheckmark(s)
}

// IsClosedStatus matches the lock glyph and "closed" wording lists use for
// postings that no longer accept applications.
func IsClosedStatus(s string) bool {
	return strings.Contains(s, LockGlyph) || strings.Contains(strings.ToLower(s), "closed")
}

// StripContinuation removes the continuation glyph and reports whether it
// was present.
func StripContinuation(s string) (string, bool) {
	if !strings.Contains(s, ContinuationGlyph) {
		return s, false
	}
	return CleanText(strings.ReplaceAll(s, ContinuationGlyph, "")), true
}
