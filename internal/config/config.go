// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"internscan-engine/internal/domain"
)

type Output struct {
	// File names inside the output directory. Empty XLSX/SQLite disables
	// that sink; CSV and HTML are always written.
	CSV    string `yaml:"csv"`
	HTML   string `yaml:"html"`
	XLSX   string `yaml:"xlsx"`
	SQLite string `yaml:"sqlite"`
	Title  string `yaml:"title"`
}

type Fetch struct {
	Concurrency       int     `yaml:"concurrency"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	UserAgent         string  `yaml:"user_agent"`
}

func (f Fetch) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

type GitHub struct {
	APIBase string `yaml:"api_base"`
	RawBase string `yaml:"raw_base"`
}

type Email struct {
	IMAPHost     string `yaml:"imap_host"`
	IMAPPort     int    `yaml:"imap_port"`
	Username     string `yaml:"username"`
	LookbackDays int    `yaml:"lookback_days"`
}

type Redirects struct {
	Resolve bool     `yaml:"resolve"`
	Hosts   []string `yaml:"hosts"`
}

type Filters struct {
	LocationsBlock []string `yaml:"locations_block"`
}

type Clock struct {
	// Fixed pins "now" for recency parsing (RFC3339 or YYYY-MM-DD).
	Fixed string `yaml:"fixed"`
}

type Config struct {
	App struct {
		DataDir   string `yaml:"data_dir"`
		OutputDir string `yaml:"output_dir"`
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`
	} `yaml:"app"`

	Output    Output    `yaml:"output"`
	Fetch     Fetch     `yaml:"fetch"`
	GitHub    GitHub    `yaml:"github"`
	Email     Email     `yaml:"email"`
	Redirects Redirects `yaml:"redirects"`
	Filters   Filters   `yaml:"filters"`
	Clock     Clock     `yaml:"clock"`

	Sources []domain.Source `yaml:"sources"`
}

// Default is the configuration written on first run when no config file
// ships next to the binary.
func Default() Config {
	var cfg Config
	cfg.App.DataDir = "."
	cfg.App.OutputDir = "out"
	cfg.App.LogLevel = "info"
	cfg.App.LogFormat = "console"

	cfg.Output = Output{
		CSV:   "positions.csv",
		HTML:  "positions.html",
		Title: "US & Canada Internships",
	}
	cfg.Fetch = Fetch{
		Concurrency:       4,
		TimeoutSeconds:    30,
		RequestsPerSecond: 2,
		Burst:             2,
		UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	}
	cfg.GitHub = GitHub{
		APIBase: "https://api.github.com",
		RawBase: "https://raw.githubusercontent.com",
	}
	cfg.Email = Email{IMAPPort: 993, LookbackDays: 90}
	cfg.Redirects = Redirects{Resolve: true, Hosts: []string{"jobright.ai"}}
	cfg.Sources = []domain.Source{
		{ID: "simplify-summer", Kind: domain.SourceGitHub, Target: "SimplifyJobs/Summer2026-Internships"},
		{ID: "vanshb03-summer", Kind: domain.SourceGitHub, Target: "vanshb03/Summer2026-Internships"},
		{ID: "intern-list", Kind: domain.SourceURL, Target: "https://www.intern-list.com/"},
	}
	return cfg
}

// Load reads path on top of Default, so a partial file keeps defaults for
// everything it leaves out.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// ParseClock parses a pinned clock value. Date-only values are midnight
// UTC.
func ParseClock(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("clock %q: want RFC3339 or YYYY-MM-DD", s)
}

// NowFunc returns the clock the run should use: the pinned one when
// clock.fixed is set, otherwise the wall clock.
func (c Config) NowFunc() (func() time.Time, error) {
	if strings.TrimSpace(c.Clock.Fixed) == "" {
		return time.Now, nil
	}
	t, err := ParseClock(c.Clock.Fixed)
	if err != nil {
		return nil, err
	}
	return func() time.Time { return t }, nil
}
