// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/tablemerge/pkg/types"
)

// Run is one recorded load.
type Run struct {
	ID        int64                   `json:"id" yaml:"id"`
	Table     string                  `json:"table" yaml:"table"`
	CreatedAt time.Time               `json:"created_at" yaml:"created_at"`
	Policy    types.ColumnOrderPolicy `json:"policy" yaml:"policy"`
	Rows      int                     `json:"rows" yaml:"rows"`
	Columns   []string                `json:"columns" yaml:"columns"`
	Sources   []RunSource             `json:"sources" yaml:"sources"`
}

// RunSource is one source of a recorded run.
type RunSource struct {
	Source  string   `json:"source" yaml:"source"`
	Rows    int      `json:"rows" yaml:"rows"`
	Missing []string `json:"missing,omitempty" yaml:"missing,omitempty"`
}

// Runs lists recorded loads, newest first. A non-empty table restricts the
// list to that table.
func (s *Store) Runs(ctx context.Context, table string) ([]Run, error) {
	query := `SELECT id, table_name, created_at, policy, row_count, columns FROM merge_runs`
	var args []any
	if table != "" {
		query += ` WHERE table_name = ?`
		args = append(args, table)
	}
	query += ` ORDER BY id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			createdAt string
			policy    sql.NullString
			columns   string
		)
		if err := rows.Scan(&r.ID, &r.Table, &createdAt, &policy, &r.Rows, &columns); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		r.Policy = types.ColumnOrderPolicy(policy.String)
		if err := json.Unmarshal([]byte(columns), &r.Columns); err != nil {
			return nil, fmt.Errorf("decoding columns of run %d: %w", r.ID, err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		srcs, err := s.runSources(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Sources = srcs
	}
	return runs, nil
}

func (s *Store) runSources(ctx context.Context, runID int64) ([]RunSource, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source, row_count, missing FROM merge_sources WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying sources of run %d: %w", runID, err)
	}
	defer rows.Close()

	var out []RunSource
	for rows.Next() {
		var (
			rs      RunSource
			missing sql.NullString
		)
		if err := rows.Scan(&rs.Source, &rs.Rows, &missing); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		if missing.Valid {
			if err := json.Unmarshal([]byte(missing.String), &rs.Missing); err != nil {
				return nil, fmt.Errorf("decoding missing columns: %w", err)
			}
		}
		out = append(out, rs)
	}
	return out, rows.Err()
}

// ReadTable reads a stored table back as a MergedTable. NULL cells become
// types.Missing. Rows come back in insertion order.
func (s *Store) ReadTable(ctx context.Context, table string) (*types.MergedTable, error) {
	if err := ValidateTableName(table); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT * FROM `+quoteIdent(table)+` ORDER BY rowid`)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, fmt.Errorf("table %s not found in database", table)
		}
		return nil, fmt.Errorf("querying %s: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	merged := types.NewMergedTable(cols)

	for rows.Next() {
		cells := make([]sql.NullString, len(cols))
		ptrs := make([]any, len(cols))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		row := make([]types.Value, len(cols))
		for i, c := range cells {
			if c.Valid {
				row[i] = types.Text(c.String)
			} else {
				row[i] = types.Missing
			}
		}
		merged.Rows = append(merged.Rows, row)
	}
	return merged, rows.Err()
}
