// Command internscan fetches the configured internship listing sources,
// normalizes them into one US/Canada position list and writes it out as
// CSV, a static HTML page and, optionally, XLSX and SQLite.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"internscan-engine/internal/config"
	"internscan-engine/internal/domain"
	"internscan-engine/internal/export"
	"internscan-engine/internal/logger"
	"internscan-engine/internal/scrape"
	email_scrape "internscan-engine/internal/scrape/email"
	"internscan-engine/internal/scrape/github"
	"internscan-engine/internal/scrape/normalize"
	"internscan-engine/internal/scrape/util"
	"internscan-engine/internal/scrape/web"
	"internscan-engine/internal/secrets"
	"internscan-engine/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	dataDir    string
	outDir     string
	now        string
	logLevel   string
	sources    sourceList

	list    bool
	sort    string
	company string
	limit   int
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("internscan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "config", "", "config file (default: <data-dir>/config.yml, bootstrapped on first run)")
	fs.StringVar(&o.dataDir, "data-dir", "", "data directory (env "+config.EnvDataDir+")")
	fs.StringVar(&o.outDir, "out", "", "output directory (default: app.output_dir)")
	fs.StringVar(&o.now, "now", "", "pin the clock, RFC3339 or YYYY-MM-DD (env "+config.EnvNow+")")
	fs.StringVar(&o.logLevel, "log-level", "", "trace|debug|info|warn|error (env "+config.EnvLogLevel+")")
	fs.Var(&o.sources, "source", "ad-hoc source kind:target, repeatable; replaces configured sources")
	fs.BoolVar(&o.list, "list", false, "print the last SQLite snapshot as CSV instead of running")
	fs.StringVar(&o.sort, "sort", "rank", "with -list: rank|posted|company")
	fs.StringVar(&o.company, "company", "", "with -list: company substring filter")
	fs.IntVar(&o.limit, "limit", 0, "with -list: max rows (0 = all)")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	return o, nil
}

// run returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}

	cfg, err := loadConfig(opts, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "config: %v\n", err)
		return 1
	}

	logger.Log = logger.New(stderr, cfg.App.LogLevel, cfg.App.LogFormat)
	log := logger.Log

	if opts.list {
		if err := listSnapshot(ctx, cfg, opts, stdout, log); err != nil {
			log.Error().Err(err).Msg("list snapshot")
			return 1
		}
		return 0
	}

	now, err := cfg.NowFunc()
	if err != nil {
		log.Error().Err(err).Msg("clock")
		return 1
	}
	started := time.Now()
	runID := store.NewRunID()
	log = log.With().Str("run_id", runID).Logger()

	fetcher := buildFetcher(cfg, log)

	var opt []normalize.Option
	if cfg.Redirects.Resolve && len(cfg.Redirects.Hosts) > 0 {
		resolver := web.NewResolver(newClient(cfg), cfg.Redirects.Hosts, log)
		opt = append(opt, normalize.WithResolver(resolver.Func(ctx)))
	}

	runner := scrape.NewRunner(cfg, fetcher, normalize.New(opt...), now, log)
	res := runner.Run(ctx, cfg.Sources)

	var failed []string
	for _, s := range res.Failed() {
		failed = append(failed, s.Source)
	}

	sink := export.NewSink(outputDir(cfg), cfg.Output, log)
	written, err := sink.Write(ctx, res.Positions, store.Run{ID: runID, Failed: failed}, now())
	if err != nil {
		log.Error().Err(err).Str("out", sink.Dir).Msg("write failed")
		return 1
	}

	log.Info().
		Int("positions", written.Count).
		Int("sources", len(res.Stats.Sources)).
		Strs("failed_sources", failed).
		Int("dupes", res.Stats.Dupes).
		Interface("rejected", res.Stats.Rejected).
		Dur("elapsed", time.Since(started)).
		Str("out", sink.Dir).
		Msg("run complete")
	return 0
}

// listSnapshot reads the positions stored by the last run back out of the
// SQLite snapshot.
func listSnapshot(ctx context.Context, cfg config.Config, opts options, stdout io.Writer, log zerolog.Logger) error {
	if cfg.Output.SQLite == "" {
		return errors.New("output.sqlite is not configured")
	}
	path := filepath.Join(outputDir(cfg), cfg.Output.SQLite)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("snapshot %s: %w", path, err)
	}

	db, err := store.Open(ctx, path)
	if err != nil {
		return err
	}
	defer db.Close()

	last, err := store.LastRun(ctx, db.Pool)
	if err != nil {
		return fmt.Errorf("last run: %w", err)
	}
	rows, err := store.ListPositions(ctx, db.Pool, store.ListOpts{
		Sort:    opts.sort,
		Company: opts.company,
		Limit:   opts.limit,
	})
	if err != nil {
		return err
	}

	ps := make([]domain.Position, len(rows))
	for i, r := range rows {
		ps[i] = r.Pos
	}
	log.Info().Str("run_id", last.ID).Time("finished_at", last.FinishedAt).Int("rows", len(ps)).Msg("snapshot")
	return export.WriteCSV(stdout, ps, nil)
}

// loadConfig layers .env, config.yml, sources.yml, INTERNSCAN_* and flags,
// in that order, then validates the result.
func loadConfig(opts options, stderr io.Writer) (config.Config, error) {
	dataDir := opts.dataDir
	config.LoadDotEnv(".", dataDir)
	if dataDir == "" {
		dataDir = os.Getenv(config.EnvDataDir)
	}
	if dataDir == "" {
		dataDir = "."
	}

	cfgPath := opts.configPath
	if cfgPath == "" {
		p, err := config.EnsureUserConfig(dataDir, filepath.Join("config", "config.yml"))
		if err != nil {
			return config.Config{}, fmt.Errorf("bootstrap: %w", err)
		}
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return cfg, fmt.Errorf("load %s: %w", cfgPath, err)
	}
	if err := config.OverlaySources(&cfg, filepath.Join(filepath.Dir(cfgPath), "sources.yml")); err != nil {
		return cfg, err
	}
	config.ApplyEnv(&cfg)

	cfg.App.DataDir = dataDir
	if opts.outDir != "" {
		cfg.App.OutputDir = opts.outDir
	}
	if opts.now != "" {
		cfg.Clock.Fixed = opts.now
	}
	if opts.logLevel != "" {
		cfg.App.LogLevel = opts.logLevel
	}
	if len(opts.sources) > 0 {
		cfg.Sources = opts.sources
	}

	cfg, res := config.NormalizeAndValidate(cfg)
	for _, w := range res.Warnings {
		fmt.Fprintf(stderr, "config warning: %s\n", w)
	}
	if !res.OK() {
		return cfg, res.Err()
	}
	return cfg, nil
}

func outputDir(cfg config.Config) string {
	if filepath.IsAbs(cfg.App.OutputDir) {
		return cfg.App.OutputDir
	}
	return filepath.Join(cfg.App.DataDir, cfg.App.OutputDir)
}

func newClient(cfg config.Config) *web.Client {
	hc := &http.Client{Timeout: cfg.Fetch.Timeout()}
	return web.NewClient(hc, util.NewHostLimiter(cfg.Fetch.RequestsPerSecond, cfg.Fetch.Burst), cfg.Fetch.UserAgent)
}

// buildFetcher registers one fetcher per source kind. IMAP is only wired
// when a configured source needs it, so runs without one never touch the
// keychain for a mail password.
func buildFetcher(cfg config.Config, log zerolog.Logger) *web.Router {
	client := newClient(cfg)

	token, err := secrets.GetGitHubToken()
	if err != nil && !errors.Is(err, secrets.ErrNotFound) {
		log.Warn().Err(err).Msg("github token lookup")
	}

	r := web.NewRouter().
		Register(domain.SourceGitHub, github.New(github.Config{
			APIBase: cfg.GitHub.APIBase,
			RawBase: cfg.GitHub.RawBase,
			Token:   token,
		}, client)).
		Register(domain.SourceURL, web.NewURLFetcher(client)).
		Register(domain.SourceFile, web.NewFileFetcher(cfg.App.DataDir))

	if !hasKind(cfg.Sources, domain.SourceIMAP) {
		return r
	}
	password, err := secrets.GetIMAPPassword(secrets.IMAPKeyringAccount(cfg))
	if err != nil {
		// the imap sources will fail and be skipped like any other
		log.Warn().Err(err).Msg("imap password")
	}
	return r.Register(domain.SourceIMAP, email_scrape.New(email_scrape.Config{
		Addr:         net.JoinHostPort(cfg.Email.IMAPHost, strconv.Itoa(cfg.Email.IMAPPort)),
		Username:     cfg.Email.Username,
		Password:     password,
		LookbackDays: cfg.Email.LookbackDays,
		TLS:          &tls.Config{ServerName: cfg.Email.IMAPHost},
	}, log))
}

func hasKind(sources []domain.Source, kind string) bool {
	for _, s := range sources {
		if s.Kind == kind {
			return true
		}
	}
	return false
}
