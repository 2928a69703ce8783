package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"internscan-engine/internal/domain"
	"internscan-engine/internal/scrape/util"
)

type Run struct {
	ID         string    `json:"run_id"`
	FinishedAt time.Time `json:"finished_at"`
	Count      int       `json:"position_count"`
	Failed     []string  `json:"failed_sources"`
}

func NewRunID() string { return uuid.NewString() }

// ReplaceSnapshot swaps the stored position set for ps in one transaction
// and records run. Readers see either the old set or the new one. now
// anchors the posted dates derived from date tokens.
func ReplaceSnapshot(ctx context.Context, db *sql.DB, run Run, ps []domain.Position, now time.Time) (Run, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	run.Count = len(ps)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return run, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM positions;`); err != nil {
		return run, fmt.Errorf("clear positions: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO positions (rank, company, role, location, application, status, date_token, posted, source_repo, extra)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return run, err
	}
	defer stmt.Close()

	for i, p := range ps {
		posted := ""
		if d, ok := util.ParseRecency(p.DateToken, now); ok {
			posted = d.Format("2006-01-02")
		}
		extra := []byte("{}")
		if len(p.Extra) > 0 {
			if extra, err = json.Marshal(p.Extra); err != nil {
				return run, err
			}
		}
		if _, err := stmt.ExecContext(ctx,
			i+1, p.Company, p.Role, p.Location, p.Application, p.Status, p.DateToken, posted, p.SourceRepo, string(extra),
		); err != nil {
			return run, fmt.Errorf("insert position %d: %w", i+1, err)
		}
	}

	failed, _ := json.Marshal(nonNil(run.Failed))
	if _, err := tx.ExecContext(ctx, `
INSERT INTO last_run (id, run_id, finished_at, position_count, failed_sources)
VALUES (1, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  run_id = excluded.run_id,
  finished_at = excluded.finished_at,
  position_count = excluded.position_count,
  failed_sources = excluded.failed_sources;
`, run.ID, run.FinishedAt.UTC().Format(time.RFC3339), run.Count, string(failed)); err != nil {
		return run, fmt.Errorf("record run: %w", err)
	}

	return run, tx.Commit()
}

// LastRun returns the most recent run, or sql.ErrNoRows before the first.
func LastRun(ctx context.Context, db *sql.DB) (Run, error) {
	var (
		r         Run
		finished  string
		failedRaw string
	)
	err := db.QueryRowContext(ctx,
		`SELECT run_id, finished_at, position_count, failed_sources FROM last_run WHERE id = 1;`,
	).Scan(&r.ID, &finished, &r.Count, &failedRaw)
	if err != nil {
		return Run{}, err
	}
	if r.FinishedAt, err = time.Parse(time.RFC3339, finished); err != nil {
		return Run{}, fmt.Errorf("last run time: %w", err)
	}
	if err := json.Unmarshal([]byte(failedRaw), &r.Failed); err != nil {
		return Run{}, fmt.Errorf("last run failed sources: %w", err)
	}
	return r, nil
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
