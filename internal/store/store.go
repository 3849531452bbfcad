// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store loads merged tables into a SQLite database so GIS and
// statistics tools can query them, and records the provenance of every
// load: which sources, in which order, with which missing columns.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/tablemerge/internal/logging"
	tmerrors "github.com/pdiddy/tablemerge/pkg/errors"
	"github.com/pdiddy/tablemerge/pkg/types"
)

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store manages the SQLite table database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and creates the provenance
// schema if it does not exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS merge_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			table_name TEXT NOT NULL,
			created_at TEXT NOT NULL,
			policy TEXT,
			row_count INTEGER NOT NULL,
			columns TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS merge_sources (
			run_id INTEGER NOT NULL REFERENCES merge_runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			source TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			missing TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_merge_runs_table ON merge_runs(table_name)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// LoadRequest is one merged table to store.
type LoadRequest struct {
	// Table is the destination table name. It is replaced if it exists.
	Table string

	// Policy records how the columns were ordered.
	Policy types.ColumnOrderPolicy

	Merged  *types.MergedTable
	Report  *types.ConflictReport
	Sources []SourceInfo
}

// SourceInfo names one merged source and its row count.
type SourceInfo struct {
	Name string
	Rows int
}

// Load replaces req.Table with the merged rows and records a run, all in
// one transaction. Missing cells are stored as NULL. It returns the run ID.
func (s *Store) Load(ctx context.Context, req LoadRequest) (int64, error) {
	if err := ValidateTableName(req.Table); err != nil {
		return 0, err
	}
	if err := validateColumns(req.Merged.Schema); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	table := quoteIdent(req.Table)
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+table); err != nil {
		return 0, fmt.Errorf("dropping %s: %w", req.Table, err)
	}

	cols := make([]string, len(req.Merged.Schema))
	marks := make([]string, len(req.Merged.Schema))
	for i, c := range req.Merged.Schema {
		cols[i] = quoteIdent(c) + " TEXT"
		marks[i] = "?"
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE %s (%s)`, table, strings.Join(cols, ", "))); err != nil {
		return 0, fmt.Errorf("creating %s: %w", req.Table, err)
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO %s VALUES (%s)`, table, strings.Join(marks, ", ")))
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	args := make([]any, len(req.Merged.Schema))
	for i, row := range req.Merged.Rows {
		for j, v := range row {
			if v.IsMissing() {
				args[j] = nil
			} else {
				args[j] = v.String()
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("inserting row %d: %w", i+1, err)
		}
	}

	columnsJSON, _ := json.Marshal(req.Merged.Schema)
	res, err := tx.ExecContext(ctx,
		`INSERT INTO merge_runs (table_name, created_at, policy, row_count, columns) VALUES (?, ?, ?, ?, ?)`,
		req.Table, s.now().UTC().Format(time.RFC3339Nano), string(req.Policy), req.Merged.Len(), string(columnsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("recording run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	missing := make(map[string][]string)
	if req.Report != nil {
		for _, c := range req.Report.Sources {
			missing[c.Source] = c.Missing
		}
	}
	for i, src := range req.Sources {
		var missingJSON []byte
		if m := missing[src.Name]; len(m) > 0 {
			missingJSON, _ = json.Marshal(m)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO merge_sources (run_id, position, source, row_count, missing) VALUES (?, ?, ?, ?, ?)`,
			runID, i, src.Name, src.Rows, nullString(missingJSON),
		)
		if err != nil {
			return 0, fmt.Errorf("recording source %s: %w", src.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}

	logging.FromContext(ctx).Info().
		Str("table", req.Table).
		Int64("run", runID).
		Int("rows", req.Merged.Len()).
		Msg("stored merged table")
	return runID, nil
}

// ValidateTableName checks that name is a plain SQL identifier that does
// not collide with the provenance tables.
func ValidateTableName(name string) error {
	if !tableNamePattern.MatchString(name) {
		return tmerrors.NewValidationError("table", fmt.Sprintf("%q is not a valid table name: use letters, digits and underscores", name))
	}
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "merge_") || strings.HasPrefix(lower, "sqlite_") {
		return tmerrors.NewValidationError("table", fmt.Sprintf("%q uses a reserved prefix", name))
	}
	return nil
}

// rowidAliases name SQLite's implicit row key. A user column with one of
// these names shadows it, and ReadTable could no longer return rows in
// insertion order.
var rowidAliases = map[string]bool{"rowid": true, "oid": true, "_rowid_": true}

// validateColumns rejects schemas SQLite cannot hold: empty names, rowid
// aliases, and names that differ only by ASCII case, which SQLite treats as
// the same column.
func validateColumns(schema []string) error {
	if len(schema) == 0 {
		return tmerrors.NewValidationError("columns", "merged table has no columns")
	}
	seen := make(map[string]string, len(schema))
	for _, c := range schema {
		if c == "" {
			return tmerrors.NewValidationError("columns", "SQLite cannot store a column with an empty name")
		}
		k := strings.ToLower(c)
		if rowidAliases[k] {
			return tmerrors.NewValidationError("columns",
				fmt.Sprintf("column %q is reserved by SQLite for the row key: rename it before loading", c))
		}
		if prev, ok := seen[k]; ok {
			return tmerrors.NewValidationError("columns",
				fmt.Sprintf("columns %q and %q differ only by case, which SQLite treats as one column", prev, c))
		}
		seen[k] = c
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func nullString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
