package web

import (
	"context"
	"fmt"

	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/types"
)

// Router dispatches each source to the fetcher registered for its kind.
type Router struct {
	byKind map[string]types.Fetcher
}

func NewRouter() *Router {
	return &Router{byKind: make(map[string]types.Fetcher)}
}

// Register binds kind to f, replacing any earlier binding.
func (r *Router) Register(kind string, f types.Fetcher) *Router {
	r.byKind[kind] = f
	return r
}

func (r *Router) Name() string { return "router" }

func (r *Router) Fetch(ctx context.Context, src domain.Source) (types.Document, error) {
	f, ok := r.byKind[src.Kind]
	if !ok {
		return types.Document{}, fmt.Errorf("%s: no fetcher for kind %q: %w", src.Name(), src.Kind, types.ErrUnavailable)
	}
	return f.Fetch(ctx, src)
}
