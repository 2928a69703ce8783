package email_scrape

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
)

const maxPart = 20 << 20

// messageBody picks the listing text out of a raw message: the largest
// text/html part when there is one, else the largest text/plain part.
// Transfer encodings and charsets are decoded.
func messageBody(raw []byte) (body, contentType string, err error) {
	e, err := message.Read(bytes.NewReader(raw))
	if e == nil {
		return "", "", err
	}
	// Unknown charsets still yield a usable, undecoded entity.
	if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
		return "", "", err
	}

	var plain, html string
	walkErr := e.Walk(func(_ []int, part *message.Entity, err error) error {
		if err != nil && !message.IsUnknownCharset(err) {
			return nil
		}
		t, _, _ := part.Header.ContentType()
		t = strings.ToLower(t)
		if t != "" && !strings.HasPrefix(t, "text/") {
			return nil
		}
		if disp, _, _ := part.Header.ContentDisposition(); disp == "attachment" {
			return nil
		}

		b, rerr := io.ReadAll(io.LimitReader(part.Body, maxPart))
		if rerr != nil {
			return nil
		}
		switch {
		case t == "text/html":
			if len(b) > len(html) {
				html = string(b)
			}
		default:
			if len(b) > len(plain) {
				plain = string(b)
			}
		}
		return nil
	})
	if walkErr != nil {
		return "", "", fmt.Errorf("walk parts: %w", walkErr)
	}

	switch {
	case strings.TrimSpace(html) != "":
		return html, "text/html", nil
	case strings.TrimSpace(plain) != "":
		return plain, "text/plain", nil
	}
	return "", "", errNoMessage
}
