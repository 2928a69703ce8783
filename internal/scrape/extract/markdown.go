package extract

import (
	"strings"

	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/util"
)

// Markdown maps the rows of the first table whose header mentions
// "company" or "role" onto that header's own column names. Labels are left
// for the normalizer to reconcile.
type Markdown struct{}

func NewMarkdown() *Markdown { return &Markdown{} }

func (m *Markdown) Name() string { return "markdown" }

// companyLabels are the header words that name the company column.
var companyLabels = []string{"company", "organization", "employer", "firm"}

func isCompanyLabel(label string) bool {
	for _, l := range companyLabels {
		if strings.Contains(label, l) {
			return true
		}
	}
	return false
}

func (m *Markdown) Extract(doc, sourceID string) []domain.FieldMap {
	lines := splitLines(doc)

	start := -1
	for i, l := range lines {
		low := strings.ToLower(l)
		if strings.Contains(l, "|") && (strings.Contains(low, "company") || strings.Contains(low, "role")) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	headers := rowCells(lines[start])
	companyCol := -1
	for i, h := range headers {
		headers[i] = util.FoldLabel(h)
		if companyCol < 0 && isCompanyLabel(headers[i]) {
			companyCol = i
		}
	}

	i := start + 1
	if i < len(lines) && isSeparatorRow(strings.TrimSpace(lines[i])) {
		i++
	}

	var (
		out       []domain.FieldMap
		companies companyTracker
	)
	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.Contains(line, "|") {
			break
		}
		if isSeparatorRow(line) {
			continue
		}

		cells := rowCells(line)
		row := domain.FieldMap{}
		filled := false
		for j, h := range headers {
			if h == "" || j >= len(cells) {
				continue
			}
			row[h] = cells[j]
			if cells[j] != "" {
				filled = true
			}
		}
		if !filled {
			continue
		}

		if companyCol >= 0 {
			company, ok := companies.resolve(row[headers[companyCol]])
			if !ok {
				continue
			}
			row[headers[companyCol]] = company
		}
		row[domain.FieldSourceRepo] = sourceID
		out = append(out, row)
	}
	return out
}
