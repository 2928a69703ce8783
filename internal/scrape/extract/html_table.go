package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/util"

	"github.com/PuerkitoBio/goquery"
)

// positional labels for tables without <th> cells
var defaultHTMLColumns = []string{
	domain.FieldCompany,
	domain.FieldRole,
	domain.FieldLocation,
	domain.FieldApplication,
	"date_posted",
}

// HTMLTable walks <tr> elements of every <table> in the document.
type HTMLTable struct{}

func NewHTMLTable() *HTMLTable { return &HTMLTable{} }

func (h *HTMLTable) Name() string { return "html" }

func (h *HTMLTable) Extract(doc, sourceID string) []domain.FieldMap {
	if !strings.Contains(strings.ToLower(doc), "<tr") {
		return nil
	}
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil
	}

	var out []domain.FieldMap
	d.Find("table").Each(func(_ int, table *goquery.Selection) {
		own := func(s *goquery.Selection) bool {
			return s.Closest("table").Get(0) == table.Get(0)
		}

		labels := tableLabels(table, own)
		var companies companyTracker

		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			if !own(tr) {
				return
			}
			tds := tr.ChildrenFiltered("td")
			if tds.Length() == 0 {
				return
			}

			cells := make([]string, 0, tds.Length())
			tds.Each(func(_ int, td *goquery.Selection) {
				cells = append(cells, util.CleanText(strings.ReplaceAll(td.Text(), util.LockGlyph, "")))
			})

			if isHeaderPlaceholder(cells[0]) {
				return
			}
			company, ok := companies.resolve(cells[0])
			if !ok || company == UnknownCompany || utf8.RuneCountInString(company) < 2 {
				return
			}

			row := domain.FieldMap{domain.FieldSourceRepo: sourceID}
			for i, cell := range cells {
				key := columnKey(labels, i)
				if i == 0 {
					row[key] = company
					continue
				}
				row[key] = util.CleanText(strings.ReplaceAll(cell, util.ContinuationGlyph, ""))
			}

			if href := rowLink(tds); href != "" {
				row[domain.FieldApplication] = href
			}
			if strings.Contains(tr.Text(), util.LockGlyph) {
				if _, has := row[domain.FieldStatus]; !has {
					row[domain.FieldStatus] = "closed"
				}
			}
			out = append(out, row)
		})
	})
	return out
}

func tableLabels(table *goquery.Selection, own func(*goquery.Selection) bool) []string {
	var labels []string
	table.Find("th").Each(func(_ int, th *goquery.Selection) {
		if own(th) {
			labels = append(labels, util.FoldLabel(th.Text()))
		}
	})
	if len(labels) == 0 {
		return defaultHTMLColumns
	}
	return labels
}

func columnKey(labels []string, i int) string {
	if i < len(labels) && labels[i] != "" {
		return labels[i]
	}
	return fmt.Sprintf("column_%d", i+1)
}

// rowLink returns the first href of the row, skipping the company cell's
// own link when a later cell carries one.
func rowLink(tds *goquery.Selection) string {
	var first, later string
	tds.Each(func(i int, td *goquery.Selection) {
		href, ok := td.Find("a[href]").First().Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		if i == 0 {
			if first == "" {
				first = href
			}
			return
		}
		if later == "" {
			later = href
		}
	})
	if later != "" {
		return later
	}
	return first
}
