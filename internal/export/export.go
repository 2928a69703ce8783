// Package export writes the final position set to the output directory:
// CSV, a static HTML viewer, and optionally an XLSX workbook and a SQLite
// snapshot. Every file lands via temp + rename under a directory lock.
package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"

	"internscan-engine/internal/config"
	"internscan-engine/internal/domain"
	"internscan-engine/internal/store"
)

// ErrLocked is returned when another run holds the output directory.
var ErrLocked = errors.New("output directory is locked by another run")

const lockName = ".internscan.lock"

// Lock takes the output directory lock without waiting.
func Lock(dir string) (unlock func(), err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	fl := flock.New(filepath.Join(dir, lockName))
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", dir, err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() { _ = fl.Unlock() }, nil
}

// Columns returns the canonical columns followed by every extra column
// present in ps, sorted.
func Columns(ps []domain.Position) []string {
	seen := map[string]bool{}
	for _, f := range domain.CanonicalFields {
		seen[f] = true
	}
	var extra []string
	for _, p := range ps {
		for k := range p.Extra {
			if !seen[k] {
				seen[k] = true
				extra = append(extra, k)
			}
		}
	}
	sort.Strings(extra)
	return append(append([]string{}, domain.CanonicalFields...), extra...)
}

func writeAtomic(path string, write func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }() // no-op after rename

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Sink writes one run's output.
type Sink struct {
	Dir string
	Out config.Output
	Log zerolog.Logger
}

func NewSink(dir string, out config.Output, log zerolog.Logger) *Sink {
	return &Sink{Dir: dir, Out: out, Log: log}
}

// Write persists ps in order. now anchors the dates shown in the page and
// stored in the snapshot. The returned run carries the id and count.
func (s *Sink) Write(ctx context.Context, ps []domain.Position, run store.Run, now time.Time) (store.Run, error) {
	unlock, err := Lock(s.Dir)
	if err != nil {
		return run, err
	}
	defer unlock()

	if run.ID == "" {
		run.ID = store.NewRunID()
	}
	run.Count = len(ps)

	cols := Columns(ps)

	csvPath := filepath.Join(s.Dir, s.Out.CSV)
	if err := writeAtomic(csvPath, func(w io.Writer) error { return WriteCSV(w, ps, cols) }); err != nil {
		return run, fmt.Errorf("write csv: %w", err)
	}
	s.Log.Info().Str("path", csvPath).Int("rows", len(ps)).Msg("wrote csv")

	htmlPath := filepath.Join(s.Dir, s.Out.HTML)
	page := Page{Title: s.Out.Title, Generated: now, RunID: run.ID, Columns: cols, Positions: ps}
	if err := writeAtomic(htmlPath, page.Render); err != nil {
		return run, fmt.Errorf("write html: %w", err)
	}
	s.Log.Info().Str("path", htmlPath).Msg("wrote html")

	if s.Out.XLSX != "" {
		xlsxPath := filepath.Join(s.Dir, s.Out.XLSX)
		if err := writeAtomic(xlsxPath, func(w io.Writer) error { return WriteXLSX(w, ps, cols) }); err != nil {
			return run, fmt.Errorf("write xlsx: %w", err)
		}
		s.Log.Info().Str("path", xlsxPath).Msg("wrote xlsx")
	}

	if s.Out.SQLite != "" {
		dbPath := filepath.Join(s.Dir, s.Out.SQLite)
		db, err := store.Open(ctx, dbPath)
		if err != nil {
			return run, fmt.Errorf("open snapshot: %w", err)
		}
		defer db.Close()
		if run, err = store.ReplaceSnapshot(ctx, db.Pool, run, ps, now); err != nil {
			return run, fmt.Errorf("write snapshot: %w", err)
		}
		s.Log.Info().Str("path", dbPath).Str("run_id", run.ID).Msg("wrote snapshot")
	}

	return run, nil
}
