package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"internscan-engine/internal/domain"
	"internscan-engine/internal/export"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		in      string
		want    domain.Source
		wantErr bool
	}{
		{in: "github:SimplifyJobs/Summer2026-Internships", want: domain.Source{Kind: "github", Target: "SimplifyJobs/Summer2026-Internships"}},
		{in: "url:https://www.intern-list.com/", want: domain.Source{Kind: "url", Target: "https://www.intern-list.com/"}},
		{in: " FILE : fixtures/readme.md ", want: domain.Source{Kind: "file", Target: "fixtures/readme.md"}},
		{in: "imap:INBOX#Weekly Interns", want: domain.Source{Kind: "imap", Target: "INBOX", Subject: "Weekly Interns"}},
		{in: "imap:INBOX", want: domain.Source{Kind: "imap", Target: "INBOX"}},
		{in: "ftp:host", wantErr: true},
		{in: "github", wantErr: true},
		{in: "url:", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSource(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSourceListFlag(t *testing.T) {
	var s sourceList
	require.NoError(t, s.Set("file:a.md"))
	require.NoError(t, s.Set("url:https://x.example/"))
	assert.Len(t, s, 2)
	assert.Equal(t, "file:a.md,url:https://x.example/", s.String())
	assert.Error(t, s.Set("nope"))
}

const readme = `# Summer Internships

| Company | Role | Location | Application | Date Posted |
|---|---|---|---|---|
| Acme | SWE Intern | Austin, TX | [Apply](https://acme.example/jobs/1) | 3d |
| Maple | Data Intern | Toronto, ON | [Apply](https://maple.example/jobs/2) | 1d |
| Euro | Intern | Berlin, Germany | [Apply](https://euro.example/jobs/3) | 1d |
| Closed Co | Intern | Boston, MA | 🔒 | 1d |
`

func TestRun_FileSourceEndToEnd(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte(readme), 0o644))

	var stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-data-dir", dir,
		"-now", "2025-06-15",
		"-log-level", "warn",
		"-source", "file:readme.md",
		"-source", "file:missing.md",
	}, io.Discard, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.FileExists(t, filepath.Join(dir, "config.yml"), "config bootstrapped on first run")

	fh, err := os.Open(filepath.Join(dir, "out", "positions.csv"))
	require.NoError(t, err)
	defer fh.Close()
	ps, err := export.ReadCSV(fh)
	require.NoError(t, err)

	require.Len(t, ps, 2)
	assert.Equal(t, "Maple", ps[0].Company)
	assert.Equal(t, "Acme", ps[1].Company)
	assert.Equal(t, "https://acme.example/jobs/1", ps[1].Application)
	assert.Equal(t, "readme.md", ps[1].SourceRepo)

	assert.FileExists(t, filepath.Join(dir, "out", "positions.html"))
	assert.Contains(t, stderr.String(), "missing.md", "failed source is reported")
}

func TestRun_BadConfigExitsOne(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("fetch:\n  concurrency: -3\n"), 0o644))

	var stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfgPath, "-data-dir", dir}, io.Discard, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "config")
}

func TestRun_BadFlagExitsTwo(t *testing.T) {
	var stderr bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), []string{"-bogus"}, io.Discard, &stderr))
}

func TestRun_ListReadsSnapshotBack(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte(readme), 0o644))
	cfgPath := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output:\n  sqlite: positions.db\n"), 0o644))

	var stderr bytes.Buffer
	code := run(context.Background(), []string{
		"-config", cfgPath, "-data-dir", dir, "-now", "2025-06-15", "-source", "file:readme.md",
	}, io.Discard, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var stdout bytes.Buffer
	code = run(context.Background(), []string{
		"-config", cfgPath, "-data-dir", dir, "-list", "-sort", "company",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	ps, err := export.ReadCSV(&stdout)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, "Acme", ps[0].Company)
	assert.Equal(t, "Maple", ps[1].Company)

	stdout.Reset()
	code = run(context.Background(), []string{
		"-config", cfgPath, "-data-dir", dir, "-list", "-company", "map",
	}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	ps, err = export.ReadCSV(&stdout)
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, "Maple", ps[0].Company)
}

func TestRun_ListWithoutSnapshotExitsOne(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()

	var stderr bytes.Buffer
	code := run(context.Background(), []string{"-data-dir", dir, "-list"}, io.Discard, &stderr)
	assert.Equal(t, 1, code)
}
