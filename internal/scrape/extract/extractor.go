package extract

import (
	"strings"
	"time"

	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/util"
)

// UnknownCompany is stamped on rows whose company cell came out empty.
const UnknownCompany = "Unknown Company"

// Extractor turns one raw document into loosely-typed rows. Implementations
// never fail: a document they cannot read yields no rows.
type Extractor interface {
	Name() string
	Extract(doc, sourceID string) []domain.FieldMap
}

// Default returns every strategy in merge priority order.
func Default(now func() time.Time) []Extractor {
	return []Extractor{
		NewPipe(now),
		NewHTMLTable(),
		NewMarkdown(),
		NewCards(),
	}
}

var headerPlaceholders = map[string]bool{
	"company":      true,
	"company_name": true,
	"name":         true,
	"employer":     true,
	"organization": true,
}

func isHeaderPlaceholder(cell string) bool {
	return headerPlaceholders[util.FoldLabel(cell)]
}

func splitLines(doc string) []string {
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	return strings.Split(doc, "\n")
}

// isSeparatorRow matches markdown table rules like |---|:--:|.
func isSeparatorRow(line string) bool {
	if !strings.Contains(line, "-") {
		return false
	}
	for _, r := range line {
		switch r {
		case '|', '-', ':', '+', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

// rowCells splits a pipe row keeping empty cells so positions line up.
func rowCells(line string) []string {
	line = strings.TrimSpace(line)
	line = strings.TrimPrefix(line, "|")
	line = strings.TrimSuffix(line, "|")
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// companyTracker carries the last real company forward for rows that only
// hold the continuation glyph.
type companyTracker struct {
	prev string
}

// resolve returns the company for a row. ok is false when the row should be
// skipped: a continuation with nothing to continue from.
func (c *companyTracker) resolve(cell string) (company string, ok bool) {
	stripped, cont := util.StripContinuation(cell)
	if cont && util.StripMarkup(stripped) == "" {
		if c.prev == "" {
			return "", false
		}
		return c.prev, true
	}
	if util.StripMarkup(stripped) == "" {
		return UnknownCompany, true
	}
	c.prev = stripped
	return stripped, true
}
