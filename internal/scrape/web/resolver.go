package web

import (
	"context"
	"net/http"
	"sync"

	"github.com/rs/zerolog"

	"internscan-engine/internal/scrape/util"
)

// Resolver turns links on redirector hosts into the posting they point at.
// Results, failures included, are cached for the lifetime of the Resolver,
// which is one run.
type Resolver struct {
	c     *Client
	hosts []string
	log   zerolog.Logger

	mu    sync.Mutex
	cache map[string]string
}

func NewResolver(c *Client, hosts []string, log zerolog.Logger) *Resolver {
	return &Resolver{
		c:     c,
		hosts: hosts,
		log:   log,
		cache: make(map[string]string),
	}
}

// Resolve returns the final URL for link, or link itself when it is not on
// a redirector or cannot be resolved.
func (r *Resolver) Resolve(ctx context.Context, link string) string {
	if !util.OnHost(link, r.hosts) {
		return link
	}

	r.mu.Lock()
	if v, ok := r.cache[link]; ok {
		r.mu.Unlock()
		return v
	}
	r.mu.Unlock()

	out := r.resolve(ctx, link)

	r.mu.Lock()
	r.cache[link] = out
	r.mu.Unlock()
	return out
}

func (r *Resolver) resolve(ctx context.Context, link string) string {
	// A target carried in the link itself needs no request.
	if t := util.EmbeddedTarget(link); t != "" {
		return t
	}

	res, err := r.c.Get(ctx, link, http.Header{"Accept": {"text/html,*/*;q=0.8"}})
	if err != nil {
		r.log.Debug().Err(err).Str("link", link).Msg("redirect resolve failed")
		return link
	}
	if res.Status >= 400 {
		r.log.Debug().Int("status", res.Status).Str("link", link).Msg("redirect resolve failed")
		return link
	}
	final := res.URL
	if final == "" {
		return link
	}
	if util.OnHost(final, r.hosts) {
		if t := util.EmbeddedTarget(final); t != "" {
			return t
		}
	}
	return final
}

// Func adapts Resolve for the normalizer, which has no context of its own.
func (r *Resolver) Func(ctx context.Context) func(string) string {
	return func(link string) string { return r.Resolve(ctx, link) }
}
