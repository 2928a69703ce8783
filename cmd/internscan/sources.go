package main

import (
	"fmt"
	"strings"

	"internscan-engine/internal/domain"
)

// sourceList collects repeated -source kind:target flags. For imap the
// target may carry a subject filter after '#': imap:INBOX#Weekly Interns.
type sourceList []domain.Source

func (s *sourceList) String() string {
	if s == nil {
		return ""
	}
	parts := make([]string, len(*s))
	for i, src := range *s {
		parts[i] = src.Kind + ":" + src.Target
	}
	return strings.Join(parts, ",")
}

func (s *sourceList) Set(v string) error {
	src, err := parseSource(v)
	if err != nil {
		return err
	}
	*s = append(*s, src)
	return nil
}

func parseSource(v string) (domain.Source, error) {
	kind, target, ok := strings.Cut(strings.TrimSpace(v), ":")
	kind = strings.ToLower(strings.TrimSpace(kind))
	target = strings.TrimSpace(target)
	if !ok || kind == "" || target == "" {
		return domain.Source{}, fmt.Errorf("source %q: want kind:target", v)
	}
	switch kind {
	case domain.SourceGitHub, domain.SourceURL, domain.SourceFile:
	case domain.SourceIMAP:
		if mbox, subject, ok := strings.Cut(target, "#"); ok {
			return domain.Source{Kind: kind, Target: strings.TrimSpace(mbox), Subject: strings.TrimSpace(subject)}, nil
		}
	default:
		return domain.Source{}, fmt.Errorf("source %q: unknown kind %q", v, kind)
	}
	return domain.Source{Kind: kind, Target: target}, nil
}
