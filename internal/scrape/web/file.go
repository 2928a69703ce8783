package web

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/types"
)

// FileFetcher reads a local document. Relative targets resolve against
// Root.
type FileFetcher struct {
	Root string
	now  func() time.Time
}

func NewFileFetcher(root string) *FileFetcher {
	return &FileFetcher{Root: root, now: time.Now}
}

func (f *FileFetcher) Name() string { return domain.SourceFile }

func (f *FileFetcher) Fetch(ctx context.Context, src domain.Source) (types.Document, error) {
	if err := ctx.Err(); err != nil {
		return types.Document{}, err
	}

	path := src.Target
	if !filepath.IsAbs(path) && f.Root != "" {
		path = filepath.Join(f.Root, path)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return types.Document{}, fmt.Errorf("%s: %v: %w", src.Name(), err, types.ErrUnavailable)
	}

	ct := "text/plain"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		ct = "text/html"
	case ".md", ".markdown":
		ct = "text/markdown"
	}

	return types.Document{
		SourceID:    src.Name(),
		URL:         "file://" + filepath.ToSlash(path),
		ContentType: ct,
		Body:        string(b),
		FetchedAt:   f.now(),
	}, nil
}
