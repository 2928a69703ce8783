package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/util"
)

// Listing pages outside of tables usually render one card per posting.
var (
	cardSelector = strings.Join([]string{
		".job-listing",
		".internship-item",
		".position-card",
		`[class*="job"]`,
		`[class*="intern"]`,
		`[class*="position"]`,
	}, ", ")

	cardFields = []struct {
		key       string
		selectors []string
	}{
		{domain.FieldCompany, []string{".company", ".company-name", `[class*="company"]`, "h3", "h4"}},
		{domain.FieldRole, []string{".job-title", ".role", ".position", `[class*="title"]`, "h2", "h3"}},
		{domain.FieldLocation, []string{".location", ".city", `[class*="location"]`, `[class*="city"]`}},
		{domain.FieldDateToken, []string{".date", ".posted", `[class*="date"]`, `[class*="posted"]`}},
	}

	applySelectors = []string{
		`a[href*="apply"]`,
		`a[href*="jobright"]`,
		".apply-button[href]",
		".apply-link[href]",
		".apply-button a[href]",
		".apply-link a[href]",
	}
)

// Cards reads HTML listing cards: elements whose class marks them as a job,
// internship or position, with fields picked by class name or heading
// level. Only the innermost card of a nested group counts.
type Cards struct{}

func NewCards() *Cards { return &Cards{} }

func (c *Cards) Name() string { return "cards" }

func (c *Cards) Extract(doc, sourceID string) []domain.FieldMap {
	if !strings.Contains(doc, "class=") {
		return nil
	}
	d, err := goquery.NewDocumentFromReader(strings.NewReader(doc))
	if err != nil {
		return nil
	}

	matches := d.Find(cardSelector)
	rows := make([]domain.FieldMap, matches.Length())
	matches.Each(func(i int, s *goquery.Selection) {
		rows[i] = cardRow(s)
	})
	cards := matches.FilterFunction(func(i int, _ *goquery.Selection) bool { return rows[i] != nil })

	var out []domain.FieldMap
	matches.Each(func(i int, s *goquery.Selection) {
		if rows[i] == nil || s.HasSelection(cards).Length() > 0 {
			return
		}
		rows[i][domain.FieldSourceRepo] = sourceID
		out = append(out, rows[i])
	})
	return out
}

// cardRow returns nil when s has neither a company nor a role.
func cardRow(s *goquery.Selection) domain.FieldMap {
	row := domain.FieldMap{}
	for _, f := range cardFields {
		for _, sel := range f.selectors {
			if v := util.CleanText(s.Find(sel).First().Text()); v != "" {
				row[f.key] = v
				break
			}
		}
	}
	if row[domain.FieldCompany] == "" && row[domain.FieldRole] == "" {
		return nil
	}
	if href := applyLink(s); href != "" {
		row[domain.FieldApplication] = href
	}
	return row
}

func applyLink(s *goquery.Selection) string {
	for _, sel := range applySelectors {
		if href, ok := s.Find(sel).First().Attr("href"); ok && strings.TrimSpace(href) != "" {
			return strings.TrimSpace(href)
		}
	}
	var href string
	s.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(a.Text()), "apply") {
			href = strings.TrimSpace(a.AttrOr("href", ""))
		}
		return href == ""
	})
	return href
}
