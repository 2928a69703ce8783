package extract

import (
	"strings"
	"time"

	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/util"
)

// Pipe reads any line split by "|" as a row and classifies its cells by
// content: company and role by position, the rest by sniffing.
type Pipe struct {
	now func() time.Time
}

func NewPipe(now func() time.Time) *Pipe {
	if now == nil {
		now = time.Now
	}
	return &Pipe{now: now}
}

func (p *Pipe) Name() string { return "pipe" }

func (p *Pipe) Extract(doc, sourceID string) []domain.FieldMap {
	now := p.now()
	var (
		out       []domain.FieldMap
		companies companyTracker
	)

	for _, line := range splitLines(doc) {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" ||
			strings.HasPrefix(trimmed, "#") ||
			strings.HasPrefix(trimmed, "---") ||
			isSeparatorRow(trimmed) {
			continue
		}

		var cells []string
		for _, c := range strings.Split(trimmed, "|") {
			if c = strings.TrimSpace(c); c != "" {
				cells = append(cells, c)
			}
		}
		if len(cells) < 3 || isHeaderPlaceholder(cells[0]) {
			continue
		}

		company, ok := companies.resolve(cells[0])
		if !ok {
			continue
		}
		row := domain.FieldMap{
			domain.FieldCompany:    company,
			domain.FieldRole:       cells[1],
			domain.FieldSourceRepo: sourceID,
		}

		for _, cell := range cells[2:] {
			switch {
			case strings.Contains(cell, "http") || util.HasMarkdownLink(cell):
				link := util.ExtractLink(cell)
				if link == "" {
					link = cell
				}
				row[domain.FieldApplication] = link
			case util.IsOpenStatus(cell) || util.IsClosedStatus(cell):
				row[domain.FieldStatus] = cell
			case util.LooksLikeDate(cell, now):
				row[domain.FieldDateToken] = cell
			case util.IsUSOrCanadaLocation(cell):
				row[domain.FieldLocation] = cell
			}
		}
		if row[domain.FieldLocation] == "" {
			row[domain.FieldLocation] = cells[2]
		}

		out = append(out, row)
	}
	return out
}
