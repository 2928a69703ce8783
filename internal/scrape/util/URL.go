package util

import (
	"net/url"
	"strings"
)

// query parameters redirectors use to carry the original posting URL
var targetParams = []string{"url", "redirect", "target", "link", "job_url"}

func HostOf(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// OnHost reports whether raw points at one of hosts or a subdomain of it.
func OnHost(raw string, hosts []string) bool {
	h := HostOf(raw)
	if h == "" {
		return false
	}
	for _, want := range hosts {
		want = strings.ToLower(strings.TrimSpace(want))
		if want == "" {
			continue
		}
		if h == want || strings.HasSuffix(h, "."+want) {
			return true
		}
	}
	return false
}

// EmbeddedTarget pulls an absolute http(s) URL out of a redirector's query
// string, or returns "".
func EmbeddedTarget(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	q := u.Query()
	for _, p := range targetParams {
		v := strings.TrimSpace(q.Get(p))
		if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
			return v
		}
	}
	return ""
}

// ResolveRef makes href absolute against base; unparseable input is
// returned unchanged.
func ResolveRef(base, href string) string {
	href = strings.TrimSpace(href)
	b, err := url.Parse(base)
	if err != nil || b.Host == "" {
		return href
	}
	r, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(r).String()
}
