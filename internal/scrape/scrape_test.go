package scrape

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"internscan-engine/internal/config"
	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/extract"
	"internscan-engine/internal/scrape/normalize"
	"internscan-engine/internal/scrape/types"
	"internscan-engine/internal/scrape/util"
)

var refNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

type fakeFetcher struct {
	docs  map[string]string
	errs  map[string]error
	calls atomic.Int32
}

func (f *fakeFetcher) Name() string { return "fake" }

func (f *fakeFetcher) Fetch(_ context.Context, src domain.Source) (types.Document, error) {
	f.calls.Add(1)
	if err, ok := f.errs[src.ID]; ok {
		return types.Document{}, err
	}
	return types.Document{SourceID: src.ID, Body: f.docs[src.ID]}, nil
}

func newTestRunner(f types.Fetcher, filters config.Filters) *Runner {
	now := func() time.Time { return refNow }
	return &Runner{
		Fetcher:     f,
		Extractors:  extract.Default(now),
		Normalizer:  normalize.New(),
		Filters:     filters,
		Now:         now,
		Concurrency: 3,
		Log:         zerolog.Nop(),
	}
}

func src(id string) domain.Source {
	return domain.Source{ID: id, Kind: domain.SourceFile, Target: id + ".md"}
}

func TestRun_PipeDocumentKeepsUSRowOnly(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{
		"readme": "| CompanyA | Intern | San Francisco, CA | 2d |\n" +
			"| CompanyB | Intern | Berlin | 1d |\n",
	}}

	res := newTestRunner(f, config.Filters{}).Run(context.Background(), []domain.Source{src("readme")})

	require.Len(t, res.Positions, 1)
	p := res.Positions[0]
	assert.Equal(t, "CompanyA", p.Company)
	assert.Equal(t, "Intern", p.Role)
	assert.Equal(t, "San Francisco, CA", p.Location)
	assert.Equal(t, "open", p.Status)
	assert.Equal(t, "readme", p.SourceRepo)

	d, ok := util.ParseRecency(p.DateToken, refNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC), d)

	assert.Equal(t, 1, res.Stats.Kept)
	assert.Positive(t, res.Stats.Rejected[RejectLocation])
	assert.Empty(t, res.Failed())
}

func TestRun_PipeRowsWithLinkAndStatusCells(t *testing.T) {
	// The first data row also mentions "company", so the markdown strategy
	// reads it as a header and maps CompanyB onto those labels.
	f := &fakeFetcher{docs: map[string]string{
		"readme": "CompanyA | Role A | San Francisco, CA | https://x/a | open | 2d\n" +
			"CompanyB | Role B | Berlin | https://x/b | open | 1d\n",
	}}

	res := newTestRunner(f, config.Filters{}).Run(context.Background(), []domain.Source{src("readme")})

	require.Len(t, res.Positions, 1)
	p := res.Positions[0]
	assert.Equal(t, "CompanyA", p.Company)
	assert.Equal(t, "Role A", p.Role)
	assert.Equal(t, "San Francisco, CA", p.Location)
	assert.Equal(t, "https://x/a", p.Application)
	assert.Equal(t, "open", p.Status)

	d, ok := util.ParseRecency(p.DateToken, refNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC), d)
	assert.Equal(t, 1, res.Stats.Sources[0].Strategies["markdown"])
}

func TestRun_EmployerHeaderNormalizesToCompany(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{
		"list": "| Employer | Role | Location | Link |\n|---|---|---|---|\n| Acme | SWE Intern | Austin, TX | no link yet |\n",
	}}

	res := newTestRunner(f, config.Filters{}).Run(context.Background(), []domain.Source{src("list")})

	// pipe and markdown both read the row; rows without a link are not merged
	require.Len(t, res.Positions, 2)
	for _, p := range res.Positions {
		assert.Equal(t, "Acme", p.Company)
		assert.Equal(t, "SWE Intern", p.Role)
		assert.NotContains(t, p.Extra, "employer")
	}
}

func TestRun_SameLinkAcrossStrategiesIsOneRecord(t *testing.T) {
	doc := `
| Company | Role | Location | Link |
|---|---|---|---|
| Acme | SWE Intern | Austin, TX | [Apply](https://acme.example/jobs/1) |

<table>
<tr><th>Company</th><th>Role</th><th>Location</th><th>Application</th></tr>
<tr><td>Acme</td><td>SWE Intern</td><td>Austin, TX</td><td><a href="https://acme.example/jobs/1">Apply</a></td></tr>
</table>
`
	f := &fakeFetcher{docs: map[string]string{"mixed": doc}}
	res := newTestRunner(f, config.Filters{}).Run(context.Background(), []domain.Source{src("mixed")})

	require.Len(t, res.Positions, 1)
	assert.Equal(t, "Acme", res.Positions[0].Company)
	assert.Equal(t, "https://acme.example/jobs/1", res.Positions[0].Application)

	require.Len(t, res.Stats.Sources, 1)
	st := res.Stats.Sources[0]
	assert.Equal(t, 1, st.Merged)
	assert.Equal(t, 1, st.Strategies["pipe"])
	assert.Equal(t, 1, st.Strategies["html"])
	assert.Equal(t, 1, st.Strategies["markdown"])
}

func TestRun_ClosedRowsAreExcluded(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{
		"list": "| Beta | Intern | Seattle, WA | 🔒 |\n" +
			"| Gamma | Intern | Denver, CO | Closed |\n" +
			"| Delta | Intern | Boston, MA | ✅ |\n",
	}}
	res := newTestRunner(f, config.Filters{}).Run(context.Background(), []domain.Source{src("list")})

	require.Len(t, res.Positions, 1)
	assert.Equal(t, "Delta", res.Positions[0].Company)
	assert.Equal(t, 2, res.Stats.Rejected[RejectStatus])
}

func TestRun_FailedSourceIsSkipped(t *testing.T) {
	f := &fakeFetcher{
		docs: map[string]string{"ok": "| Acme | Intern | Toronto, ON | 1d |\n"},
		errs: map[string]error{"down": fmt.Errorf("github readme: %w", types.ErrUnavailable)},
	}
	res := newTestRunner(f, config.Filters{}).Run(context.Background(), []domain.Source{src("down"), src("ok")})

	require.Len(t, res.Positions, 1)
	assert.Equal(t, "Acme", res.Positions[0].Company)

	failed := res.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "down", failed[0].Source)
	assert.Contains(t, failed[0].Err, "source unavailable")

	require.Len(t, res.Stats.Sources, 2)
	assert.Equal(t, 0, res.Stats.Sources[0].Kept)
	assert.Equal(t, 1, res.Stats.Sources[1].Kept)
	assert.EqualValues(t, 2, f.calls.Load())
}

func TestRun_OrderAndCrossSourceDedupe(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{
		"first": "| Old | Intern | Austin, TX | [a](https://x.example/old) | 10d |\n" +
			"| Undated | Intern | Austin, TX | [a](https://x.example/undated) | soon |\n" +
			"| Tie1 | Intern | Austin, TX | [a](https://x.example/tie1) | 3d |\n",
		"second": "| Tie2 | Intern | Ottawa, ON | [a](https://x.example/tie2) | 3d |\n" +
			"| Fresh | Intern | Ottawa, ON | [a](https://x.example/fresh) | 1d |\n" +
			"| OldCopy | Intern | Ottawa, ON | [a](https://x.example/old) | 10d |\n",
	}}
	res := newTestRunner(f, config.Filters{}).Run(context.Background(), []domain.Source{src("first"), src("second")})

	var got []string
	for _, p := range res.Positions {
		got = append(got, p.Company)
	}
	assert.Equal(t, []string{"Fresh", "Tie1", "Tie2", "Old", "Undated"}, got)
	assert.Equal(t, 1, res.Stats.Dupes)

	var prev time.Time
	for i, p := range res.Positions {
		d, _ := util.ParseRecency(p.DateToken, refNow)
		if i > 0 {
			assert.False(t, d.After(prev), "recency must not increase at %d", i)
		}
		prev = d
	}
}

func TestRun_Blocklist(t *testing.T) {
	f := &fakeFetcher{docs: map[string]string{
		"list": "| Acme | Intern | Toronto, ON | 1d |\n| Beta | Intern | Austin, TX | 1d |\n",
	}}
	res := newTestRunner(f, config.Filters{LocationsBlock: []string{"toronto"}}).
		Run(context.Background(), []domain.Source{src("list")})

	require.Len(t, res.Positions, 1)
	assert.Equal(t, "Beta", res.Positions[0].Company)
	assert.Equal(t, 1, res.Stats.Rejected[RejectBlocked])
}

func TestRun_NoSources(t *testing.T) {
	res := newTestRunner(&fakeFetcher{}, config.Filters{}).Run(context.Background(), nil)
	assert.Empty(t, res.Positions)
	assert.Empty(t, res.Stats.Sources)
}

func TestMergeRows_DedupesByLink(t *testing.T) {
	n := normalize.New()
	sets := [][]domain.FieldMap{
		{
			{"company": "A", "application": "https://x.example/1"},
			{"company": "NoLink"},
		},
		{
			{"company": "A again", "link": "[go](https://x.example/1)"},
			{"company": "NoLink"},
			{"company": "B", "application": "https://x.example/2"},
		},
	}

	got := mergeRows(sets, n.ApplicationOf)
	require.Len(t, got, 4)
	assert.Equal(t, "A", got[0]["company"])
	assert.Equal(t, "NoLink", got[1]["company"])
	assert.Equal(t, "NoLink", got[2]["company"])
	assert.Equal(t, "B", got[3]["company"])
}

func TestSortByRecencyThenDedupe(t *testing.T) {
	in := []domain.Position{
		{Company: "undated", Application: "https://x/1"},
		{Company: "old", DateToken: "2025-01-01", Application: "https://x/2"},
		{Company: "new", DateToken: "1d", Application: "https://x/3"},
		{Company: "new dup", DateToken: "1d", Application: "https://x/3"},
		{Company: "nolink", DateToken: "1d"},
	}
	rs := make([]ranked, len(in))
	for i, p := range in {
		rs[i] = rank(p, 0, refNow)
	}
	sortByRecency(rs)
	rs, dropped := dedupeByApplication(rs)

	var names []string
	for _, r := range rs {
		names = append(names, r.pos.Company)
	}
	assert.Equal(t, []string{"new", "nolink", "old", "undated"}, names)
	assert.Equal(t, 1, dropped)
}
