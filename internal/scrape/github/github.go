package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/types"
	"internscan-engine/internal/scrape/web"
)

type Config struct {
	APIBase string // https://api.github.com
	RawBase string // https://raw.githubusercontent.com
	Token   string // optional; raises the API rate limit
}

// Fetcher pulls a repository's listing document: the README, or the
// first file whose name mentions "intern" when there is no README.
type Fetcher struct {
	cfg Config
	c   *web.Client
	now func() time.Time
}

func New(cfg Config, c *web.Client) *Fetcher {
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.github.com"
	}
	if cfg.RawBase == "" {
		cfg.RawBase = "https://raw.githubusercontent.com"
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	cfg.RawBase = strings.TrimRight(cfg.RawBase, "/")
	return &Fetcher{cfg: cfg, c: c, now: time.Now}
}

func (f *Fetcher) Name() string { return domain.SourceGitHub }

var errNotFound = errors.New("not found")

type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // blob | tree
}

type treeResponse struct {
	Tree      []treeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

func (f *Fetcher) Fetch(ctx context.Context, src domain.Source) (types.Document, error) {
	repo := strings.Trim(strings.TrimSpace(src.Target), "/")

	docURL := fmt.Sprintf("%s/repos/%s/readme", f.cfg.APIBase, repo)
	body, err := f.get(ctx, docURL, "application/vnd.github.raw")
	if errors.Is(err, errNotFound) {
		docURL, body, err = f.internFile(ctx, repo)
	}
	if err != nil {
		return types.Document{}, fmt.Errorf("github %s: %v: %w", repo, err, types.ErrUnavailable)
	}

	return types.Document{
		SourceID:    src.Name(),
		URL:         docURL,
		ContentType: "text/markdown",
		Body:        body,
		FetchedAt:   f.now(),
	}, nil
}

// internFile lists the default branch and fetches the first blob whose
// base name contains "intern".
func (f *Fetcher) internFile(ctx context.Context, repo string) (string, string, error) {
	treeURL := fmt.Sprintf("%s/repos/%s/git/trees/HEAD?recursive=1", f.cfg.APIBase, repo)
	raw, err := f.get(ctx, treeURL, "application/vnd.github+json")
	if err != nil {
		return "", "", fmt.Errorf("list tree: %w", err)
	}

	var tr treeResponse
	if err := json.Unmarshal([]byte(raw), &tr); err != nil {
		return "", "", fmt.Errorf("decode tree: %w", err)
	}

	var paths []string
	for _, e := range tr.Tree {
		if e.Type == "blob" && strings.Contains(strings.ToLower(path.Base(e.Path)), "intern") {
			paths = append(paths, e.Path)
		}
	}
	if len(paths) == 0 {
		return "", "", fmt.Errorf("no readme and no intern file: %w", errNotFound)
	}
	sort.Strings(paths)

	rawURL := fmt.Sprintf("%s/%s/HEAD/%s", f.cfg.RawBase, repo, paths[0])
	body, err := f.get(ctx, rawURL, "")
	if err != nil {
		return "", "", fmt.Errorf("raw %s: %w", paths[0], err)
	}
	return rawURL, body, nil
}

func (f *Fetcher) get(ctx context.Context, u, accept string) (string, error) {
	h := http.Header{}
	if accept != "" {
		h.Set("Accept", accept)
	}
	h.Set("X-GitHub-Api-Version", "2022-11-28")
	if f.cfg.Token != "" {
		h.Set("Authorization", "Bearer "+f.cfg.Token)
	}

	res, err := f.c.Get(ctx, u, h)
	if err != nil {
		return "", err
	}
	switch {
	case res.Status == http.StatusNotFound:
		return "", errNotFound
	case res.Status < 200 || res.Status > 299:
		return "", fmt.Errorf("status %d", res.Status)
	}
	return string(res.Body), nil
}
