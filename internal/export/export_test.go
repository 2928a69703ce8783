package export

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"internscan-engine/internal/config"
	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/util"
	"internscan-engine/internal/store"
)

var refNow = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func fixture() []domain.Position {
	return []domain.Position{
		{Company: "Old Co", Role: "Intern", Location: "Austin, TX", Application: "https://old.example/a", Status: "open", DateToken: "30d", SourceRepo: "a"},
		{Company: "Fresh Co", Role: "SWE Intern", Location: "Toronto, ON", Application: "https://fresh.example/b", Status: "open", DateToken: "0d", SourceRepo: "a", Extra: map[string]string{"salary": "$45/hr"}},
		{Company: "Undated", Role: "QA Intern", Location: "Remote in USA", Status: "open", SourceRepo: "b", Extra: map[string]string{"notes": "sponsors, \"maybe\""}},
		{Company: "Mid Co", Role: "Data Intern", Location: "NYC", Application: "https://mid.example/c", Status: "open", DateToken: "Jun 1", SourceRepo: "b"},
	}
}

// newestFirst is fixture() in the order a run emits it.
func newestFirst() []domain.Position {
	f := fixture()
	return []domain.Position{f[1], f[3], f[0], f[2]}
}

func TestColumns(t *testing.T) {
	cols := Columns(fixture())
	assert.Equal(t, append(append([]string{}, domain.CanonicalFields...), "notes", "salary"), cols)
	assert.Equal(t, domain.CanonicalFields, Columns(nil))
}

func TestCSV_RoundTripKeepsRecencyOrder(t *testing.T) {
	ordered := newestFirst()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, ordered, nil))

	header := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Equal(t, "company,role,location,application,status,date_token,source_repo,notes,salary", header)

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, ordered, back)

	// dated rows never get newer further down; undated rows sit at the end
	var prev time.Time
	undated := false
	for i, p := range back {
		d, ok := util.ParseRecency(p.DateToken, refNow)
		if !ok {
			undated = true
			continue
		}
		require.False(t, undated, "dated row %d after an undated one", i)
		if i > 0 {
			assert.False(t, d.After(prev), "row %d is newer than row %d", i, i-1)
		}
		prev = d
	}
	assert.Equal(t, "Fresh Co", back[0].Company)
	assert.Equal(t, "Undated", back[len(back)-1].Company)
}

func TestReadCSV_Empty(t *testing.T) {
	ps, err := ReadCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, ps)

	ps, err = ReadCSV(strings.NewReader("company,role\n"))
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestPage_Render(t *testing.T) {
	ps := fixture()
	ps[0].Role = `<script>alert(1)</script>`

	var buf bytes.Buffer
	require.NoError(t, Page{Title: "Board", Generated: refNow, RunID: "r-1", Positions: ps}.Render(&buf))
	out := buf.String()

	assert.Contains(t, out, "<title>Board</title>")
	assert.Contains(t, out, "4 positions")
	assert.Contains(t, out, "run r-1")
	assert.Contains(t, out, `<th data-col="8">salary</th>`)
	assert.Contains(t, out, `href="https://fresh.example/b"`)
	assert.Contains(t, out, `id="search"`)
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt;")
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.xlsx")
	fh, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, WriteXLSX(fh, fixture(), nil))
	require.NoError(t, fh.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "company", rows[0][0])
	assert.Equal(t, "salary", rows[0][8])
	assert.Equal(t, "Old Co", rows[1][0])

	panes, err := f.GetPanes(SheetName)
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)
}

func TestLock_Exclusive(t *testing.T) {
	dir := t.TempDir()
	unlock, err := Lock(dir)
	require.NoError(t, err)

	_, err = Lock(dir)
	assert.ErrorIs(t, err, ErrLocked)

	unlock()
	unlock2, err := Lock(dir)
	require.NoError(t, err)
	unlock2()
}

func TestSink_Write(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	out := config.Output{CSV: "p.csv", HTML: "p.html", XLSX: "p.xlsx", SQLite: "p.db", Title: "T"}
	s := NewSink(dir, out, zerolog.Nop())

	ps := newestFirst()
	run, err := s.Write(context.Background(), ps, store.Run{Failed: []string{"x"}}, refNow)
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, len(ps), run.Count)

	for _, name := range []string{"p.csv", "p.html", "p.xlsx", "p.db"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	tmps, _ := filepath.Glob(filepath.Join(dir, "*.tmp"))
	assert.Empty(t, tmps)

	fh, err := os.Open(filepath.Join(dir, "p.csv"))
	require.NoError(t, err)
	defer fh.Close()
	back, err := ReadCSV(fh)
	require.NoError(t, err)
	assert.Equal(t, ps, back)

	db, err := store.Open(context.Background(), filepath.Join(dir, "p.db"))
	require.NoError(t, err)
	defer db.Close()
	last, err := store.LastRun(context.Background(), db.Pool)
	require.NoError(t, err)
	assert.Equal(t, run.ID, last.ID)
	assert.Equal(t, []string{"x"}, last.Failed)
}

func TestSink_WriteLocked(t *testing.T) {
	dir := t.TempDir()
	unlock, err := Lock(dir)
	require.NoError(t, err)
	defer unlock()

	s := NewSink(dir, config.Output{CSV: "p.csv", HTML: "p.html"}, zerolog.Nop())
	_, err = s.Write(context.Background(), fixture(), store.Run{}, refNow)
	assert.ErrorIs(t, err, ErrLocked)
	assert.NoFileExists(t, filepath.Join(dir, "p.csv"))
}
