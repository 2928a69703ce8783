// Package web holds the plain HTTP and filesystem fetchers, the kind
// router and the redirect resolver.
package web

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"internscan-engine/internal/scrape/util"
)

// maxBody caps how much of a response is read.
const maxBody = 20 << 20

type Client struct {
	hc        *http.Client
	limiter   *util.HostLimiter
	userAgent string
}

// NewClient wraps hc. A nil hc gets a client with a 30s timeout; a nil
// limiter never waits.
func NewClient(hc *http.Client, limiter *util.HostLimiter, userAgent string) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	if userAgent == "" {
		userAgent = "internscan/1.0 (+local)"
	}
	return &Client{hc: hc, limiter: limiter, userAgent: userAgent}
}

type Response struct {
	URL         string // after redirects
	Status      int
	ContentType string
	Body        []byte
}

// Get performs a rate-limited GET. Non-2xx statuses are returned, not
// turned into errors; callers decide what they mean.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) (Response, error) {
	if err := c.limiter.WaitURL(ctx, rawURL); err != nil {
		return Response{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	for k, vs := range header {
		req.Header[k] = vs
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return Response{}, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := decodeBody(resp)
	if err != nil {
		return Response{}, fmt.Errorf("read body: %w", err)
	}

	return Response{
		URL:         resp.Request.URL.String(),
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

// decodeBody undoes Content-Encoding. Setting Accept-Encoding by hand turns
// off net/http's transparent gzip, so every encoding is handled here.
func decodeBody(resp *http.Response) ([]byte, error) {
	var r io.Reader = io.LimitReader(resp.Body, maxBody)

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer zr.Close()
		r = zr
	case "br":
		r = brotli.NewReader(r)
	case "deflate":
		dr, err := deflateReader(r)
		if err != nil {
			return nil, fmt.Errorf("deflate: %w", err)
		}
		defer dr.Close()
		r = dr
	default:
		return nil, fmt.Errorf("unsupported content-encoding %q", resp.Header.Get("Content-Encoding"))
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(r, maxBody)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// deflateReader reads HTTP "deflate", which is a zlib stream. Some servers
// send raw deflate instead, so a missing zlib header falls back to flate.
func deflateReader(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(2)
	if err != nil {
		return io.NopCloser(br), nil
	}
	if head[0]&0x0f == 8 && (uint16(head[0])<<8|uint16(head[1]))%31 == 0 {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

func isHTML(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	head := strings.ToLower(string(body[:min(len(body), 512)]))
	return strings.Contains(head, "<html") || strings.Contains(head, "<!doctype html")
}
