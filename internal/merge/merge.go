// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge combines tables with divergent columns into one table over
// the union of their schemas.
//
// Sources are loaded one at a time in the order given and the first load
// failure aborts the merge. Every row of every source appears in the output
// in source order, re-positioned against the union schema; columns a source
// did not declare hold types.Missing and are listed in the ConflictReport.
package merge

import (
	"context"
	"fmt"

	"github.com/pdiddy/tablemerge/internal/logging"
	tmerrors "github.com/pdiddy/tablemerge/pkg/errors"
	"github.com/pdiddy/tablemerge/pkg/types"
)

// Source yields one table. Load is called once per merge.
type Source interface {
	// Name identifies the source in errors and reports.
	Name() string

	// Load reads the full table.
	Load(ctx context.Context) (*types.SourceTable, error)
}

// Static is a Source over a table already held in memory.
type Static struct {
	Table *types.SourceTable
}

// Name returns the table name.
func (s Static) Name() string {
	return s.Table.Name
}

// Load returns the wrapped table.
func (s Static) Load(ctx context.Context) (*types.SourceTable, error) {
	return s.Table, nil
}

// Options controls the output schema order.
type Options struct {
	// Policy selects the column order; empty means first-seen.
	Policy types.ColumnOrderPolicy

	// Columns is the leading column list for types.OrderExplicit.
	Columns []string
}

// Validate checks the policy and, for the explicit policy, the column list.
func (o Options) Validate() error {
	policy := o.policy()
	if !policy.Valid() {
		return tmerrors.NewValidationError("policy",
			fmt.Sprintf("unknown column order policy %q: use first-seen, alphabetical, or explicit", o.Policy))
	}
	if policy != types.OrderExplicit {
		return nil
	}
	if len(o.Columns) == 0 {
		return tmerrors.NewValidationError("columns", "explicit policy requires a column list")
	}
	seen := make(map[string]bool, len(o.Columns))
	for _, c := range o.Columns {
		if seen[c] {
			return tmerrors.NewValidationError("columns", fmt.Sprintf("column %q listed twice", c))
		}
		seen[c] = true
	}
	return nil
}

func (o Options) policy() types.ColumnOrderPolicy {
	if o.Policy == "" {
		return types.OrderFirstSeen
	}
	return o.Policy
}

// SourceSummary describes one merged source.
type SourceSummary struct {
	Name    string
	Rows    int
	Columns int
}

// Result is the outcome of a merge.
type Result struct {
	Table   *types.MergedTable
	Report  *types.ConflictReport
	Sources []SourceSummary
}

// Merge loads every source in order and merges them. An empty source list
// returns *errors.EmptySourceListError. A source that fails to load aborts
// the merge with an error naming it; a source whose schema repeats a column
// returns *errors.SchemaError.
func Merge(ctx context.Context, sources []Source, opts Options) (*Result, error) {
	if len(sources) == 0 {
		return nil, &tmerrors.EmptySourceListError{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	log := logging.FromContext(ctx)

	tables := make([]*types.SourceTable, 0, len(sources))
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		table, err := src.Load(ctx)
		if err != nil {
			return nil, wrapLoadError(src.Name(), err)
		}
		if err := checkSchema(table); err != nil {
			return nil, err
		}

		log.Debug().
			Str("source", src.Name()).
			Int("rows", table.Len()).
			Int("columns", len(table.Schema)).
			Msg("loaded source")
		tables = append(tables, table)
	}

	return MergeTables(ctx, tables, opts)
}

// MergeTables merges tables that are already loaded. It applies the same
// validation as Merge.
func MergeTables(ctx context.Context, tables []*types.SourceTable, opts Options) (*Result, error) {
	if len(tables) == 0 {
		return nil, &tmerrors.EmptySourceListError{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	for _, t := range tables {
		if err := checkSchema(t); err != nil {
			return nil, err
		}
	}

	log := logging.FromContext(ctx)

	union := unionSchema(tables, opts)
	merged := types.NewMergedTable(union)

	total := 0
	for _, t := range tables {
		total += t.Len()
	}
	merged.Rows = make([][]types.Value, 0, total)

	report := &types.ConflictReport{}
	summaries := make([]SourceSummary, len(tables))

	for i, t := range tables {
		// positions[k] is the source column index for union column k, or -1.
		positions := make([]int, len(union))
		var missing []string
		for k, col := range union {
			positions[k] = t.Index(col)
			if positions[k] < 0 {
				missing = append(missing, col)
			}
		}

		for _, row := range t.Rows {
			out := make([]types.Value, len(union))
			for k, j := range positions {
				if j >= 0 {
					out[k] = row[j]
				} else {
					out[k] = types.Missing
				}
			}
			merged.Rows = append(merged.Rows, out)
		}

		if len(missing) > 0 {
			report.Sources = append(report.Sources, types.SourceConflict{
				Source:  t.Name,
				Rows:    t.Len(),
				Missing: missing,
			})
		}
		summaries[i] = SourceSummary{Name: t.Name, Rows: t.Len(), Columns: len(t.Schema)}
	}

	report.CaseVariants = caseVariants(union)
	for _, group := range report.CaseVariants {
		log.Warn().Strs("columns", group).Msg("columns differ only by case; kept separate")
	}
	for _, col := range explicitOnly(tables, opts) {
		log.Warn().Str("column", col).Msg("listed column not found in any source")
	}

	log.Info().
		Int("sources", len(tables)).
		Int("rows", merged.Len()).
		Int("columns", merged.Width()).
		Int("missing_pairs", report.Pairs()).
		Msg("merged tables")

	return &Result{Table: merged, Report: report, Sources: summaries}, nil
}

// checkSchema rejects a schema that names a column twice.
func checkSchema(t *types.SourceTable) error {
	seen := make(map[string]bool, len(t.Schema))
	for _, c := range t.Schema {
		if seen[c] {
			return tmerrors.NewSchemaError(t.Name, c)
		}
		seen[c] = true
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Schema) {
			return tmerrors.NewSourceReadError(t.Name,
				fmt.Errorf("row %d has %d fields, header has %d", i+1, len(row), len(t.Schema)))
		}
	}
	return nil
}

// wrapLoadError keeps typed read and schema errors as they are and wraps
// anything else as a SourceReadError for name.
func wrapLoadError(name string, err error) error {
	if tmerrors.Is(err, tmerrors.ErrSourceRead) || tmerrors.Is(err, tmerrors.ErrSchema) {
		return err
	}
	if tmerrors.Is(err, context.Canceled) || tmerrors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return tmerrors.NewSourceReadError(name, err)
}
