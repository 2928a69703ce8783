package config

import (
	"fmt"
	"strings"

	"internscan-engine/internal/domain"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the errors into one error value, nil when there are none.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return fmt.Errorf("config validation failed:\n- %s", strings.Join(v.Errors, "\n- "))
}

// NormalizeAndValidate returns a normalized copy of cfg and the problems
// found in it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Filters.LocationsBlock = trimList(out.Filters.LocationsBlock)
	out.Redirects.Hosts = trimList(out.Redirects.Hosts)
	for i, h := range out.Redirects.Hosts {
		out.Redirects.Hosts[i] = strings.ToLower(h)
	}

	// ---- Sources ----

	out.Sources = make([]domain.Source, 0, len(cfg.Sources))
	ids := map[string]bool{}
	for i, s := range cfg.Sources {
		s.ID = strings.TrimSpace(s.ID)
		s.Kind = strings.ToLower(strings.TrimSpace(s.Kind))
		s.Target = strings.TrimSpace(s.Target)
		s.Subject = strings.TrimSpace(s.Subject)

		if s.Target == "" {
			res.addErr("sources[%d].target is required", i)
			continue
		}
		if s.ID == "" {
			s.ID = s.Target
		}
		if ids[s.ID] {
			res.addErr("sources[%d].id %q is used more than once", i, s.ID)
			continue
		}
		ids[s.ID] = true

		switch s.Kind {
		case domain.SourceGitHub:
			if strings.Count(s.Target, "/") != 1 {
				res.addErr("sources[%d] (%s): github target must be owner/repo, got %q", i, s.ID, s.Target)
			}
		case domain.SourceURL:
			if !strings.HasPrefix(s.Target, "http://") && !strings.HasPrefix(s.Target, "https://") {
				res.addErr("sources[%d] (%s): url target must start with http:// or https://", i, s.ID)
			}
		case domain.SourceFile:
		case domain.SourceIMAP:
			if s.Subject == "" {
				res.addWarn("sources[%d] (%s): imap source without subject matches the newest message in %s", i, s.ID, s.Target)
			}
		default:
			res.addErr("sources[%d] (%s): unknown kind %q", i, s.ID, s.Kind)
		}
		out.Sources = append(out.Sources, s)
	}
	if len(out.Sources) == 0 {
		res.addWarn("no sources configured; the run will produce empty outputs.")
	}

	// ---- Fetch ----

	if out.Fetch.Concurrency <= 0 {
		res.addErr("fetch.concurrency must be > 0")
	} else if out.Fetch.Concurrency > 32 {
		res.addWarn("fetch.concurrency is high (%d) and may trip rate limits.", out.Fetch.Concurrency)
	}
	if out.Fetch.TimeoutSeconds <= 0 {
		res.addErr("fetch.timeout_seconds must be > 0")
	}
	if out.Fetch.RequestsPerSecond < 0 {
		res.addErr("fetch.requests_per_second must be >= 0 (0 disables limiting)")
	}

	// ---- Output ----

	if strings.TrimSpace(out.Output.CSV) == "" {
		res.addErr("output.csv is required")
	}
	if strings.TrimSpace(out.Output.HTML) == "" {
		res.addErr("output.html is required")
	}
	if strings.TrimSpace(out.App.OutputDir) == "" {
		res.addErr("app.output_dir is required")
	}

	switch strings.ToLower(out.App.LogFormat) {
	case "", "console", "json":
	default:
		res.addErr("app.log_format must be console or json, got %q", out.App.LogFormat)
	}

	// ---- Email (password not required here; it's in keychain/env) ----

	hasIMAP := false
	for _, s := range out.Sources {
		if s.Kind == domain.SourceIMAP {
			hasIMAP = true
		}
	}
	if hasIMAP {
		if strings.TrimSpace(out.Email.IMAPHost) == "" {
			res.addErr("email.imap_host is required when an imap source is configured")
		}
		if out.Email.IMAPPort == 0 {
			res.addErr("email.imap_port is required when an imap source is configured")
		}
		if strings.TrimSpace(out.Email.Username) == "" {
			res.addErr("email.username is required when an imap source is configured")
		}
	}
	if out.Email.LookbackDays <= 0 {
		out.Email.LookbackDays = 90
	}

	if out.Redirects.Resolve && len(out.Redirects.Hosts) == 0 {
		res.addWarn("redirects.resolve is on but redirects.hosts is empty; nothing will be resolved.")
	}

	if strings.TrimSpace(out.Clock.Fixed) != "" {
		if _, err := ParseClock(out.Clock.Fixed); err != nil {
			res.addErr("clock.fixed: %v", err)
		}
	}

	return out, res
}
