package types

import (
	"context"
	"errors"
	"time"

	"internscan-engine/internal/domain"
)

// ErrUnavailable marks a source that could not be fetched this run. The
// coordinator skips such sources; it never retries them.
var ErrUnavailable = errors.New("source unavailable")

// Document is one fetched listing document: README markdown, an HTML page
// or a newsletter body.
type Document struct {
	SourceID    string
	URL         string
	ContentType string
	Body        string
	FetchedAt   time.Time
}

type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, src domain.Source) (Document, error)
}

// SourceStats describes how one source fared in a run.
type SourceStats struct {
	Source     string         `json:"source"`
	Kind       string         `json:"kind"`
	Err        string         `json:"error,omitempty"`
	Strategies map[string]int `json:"strategies,omitempty"` // rows per extractor
	Merged     int            `json:"merged"`               // rows after in-source dedupe
	Kept       int            `json:"kept"`                 // rows in the final set
}

func (s SourceStats) Failed() bool { return s.Err != "" }

// Stats summarizes a run.
type Stats struct {
	Sources  []SourceStats  `json:"sources"`
	Rejected map[string]int `json:"rejected"` // filter reason -> count
	Dupes    int            `json:"dupes"`    // dropped by the final dedupe
	Kept     int            `json:"kept"`
}
