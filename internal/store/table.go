package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"internscan-engine/internal/domain"
)

func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if v >= 1 {
		return tx.Commit()
	}

	// ---- Schema v1: tables ----

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS positions (
  rank INTEGER PRIMARY KEY,
  company TEXT NOT NULL,
  role TEXT NOT NULL,
  location TEXT NOT NULL,
  application TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  date_token TEXT NOT NULL DEFAULT '',
  posted TEXT NOT NULL DEFAULT '',
  source_repo TEXT NOT NULL DEFAULT '',
  extra TEXT NOT NULL DEFAULT '{}'
);
`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS last_run (
  id INTEGER PRIMARY KEY CHECK (id = 1),
  run_id TEXT NOT NULL,
  finished_at TEXT NOT NULL,
  position_count INTEGER NOT NULL,
  failed_sources TEXT NOT NULL DEFAULT '[]'
);
`); err != nil {
		return err
	}

	// ---- Schema v1: indexes ----

	if _, err := tx.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_positions_posted
ON positions(posted);
`); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `
CREATE INDEX IF NOT EXISTS idx_positions_company
ON positions(company);
`); err != nil {
		return err
	}

	// Mark schema v1
	if _, err := tx.ExecContext(ctx, `PRAGMA user_version = 1;`); err != nil {
		return err
	}

	return tx.Commit()
}

type Row struct {
	Rank   int             `json:"rank"`
	Posted string          `json:"posted"` // YYYY-MM-DD, "" when unknown
	Pos    domain.Position `json:"position"`
}

type ListOpts struct {
	Sort    string // rank | posted | company
	Company string // substring filter, case-insensitive
	Limit   int
}

func ListPositions(ctx context.Context, db *sql.DB, opts ListOpts) ([]Row, error) {
	// whitelist sort columns (prevents SQL injection)
	order := map[string]string{
		"rank":    "rank ASC",
		"posted":  "posted DESC, rank ASC",
		"company": "company COLLATE NOCASE ASC, rank ASC",
	}[opts.Sort]
	if order == "" {
		order = "rank ASC"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}

	query := fmt.Sprintf(`
SELECT rank, company, role, location, application, status, date_token, posted, source_repo, extra
FROM positions
WHERE (? = '' OR instr(lower(company), lower(?)) > 0)
ORDER BY %s
LIMIT ?;
`, order)

	rows, err := db.QueryContext(ctx, query, opts.Company, opts.Company, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		var extraJSON string
		if err := rows.Scan(
			&r.Rank,
			&r.Pos.Company,
			&r.Pos.Role,
			&r.Pos.Location,
			&r.Pos.Application,
			&r.Pos.Status,
			&r.Pos.DateToken,
			&r.Posted,
			&r.Pos.SourceRepo,
			&extraJSON,
		); err != nil {
			return nil, err
		}
		var extra map[string]string
		if err := json.Unmarshal([]byte(extraJSON), &extra); err != nil {
			return nil, fmt.Errorf("position %d extra: %w", r.Rank, err)
		}
		if len(extra) > 0 {
			r.Pos.Extra = extra
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
