// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tabular reads delimited text files into SourceTables and writes
// MergedTables back out as delimited text.
package tabular

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tmerrors "github.com/pdiddy/tablemerge/pkg/errors"
	"github.com/pdiddy/tablemerge/pkg/types"
)

const defaultDelimiter = ','

// Read parses a header row followed by data rows from r. Fields matching a
// null token become types.Missing; every other field is kept verbatim.
// An input with no header at all yields a table with an empty schema.
//
// Parse failures are returned as *errors.SourceReadError and a header that
// repeats a column name as *errors.SchemaError, both naming name.
func Read(name string, r io.Reader, f types.TableFormat) (*types.SourceTable, error) {
	dec, err := decoder(r, f.Encoding)
	if err != nil {
		return nil, tmerrors.NewSourceReadError(name, err)
	}

	cr := csv.NewReader(dec)
	cr.Comma = delimiter(f)
	cr.FieldsPerRecord = 0

	table := &types.SourceTable{Name: name}

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return table, nil
	}
	if err != nil {
		return nil, tmerrors.NewSourceReadError(name, fmt.Errorf("parsing header: %w", err))
	}

	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if seen[h] {
			return nil, tmerrors.NewSchemaError(name, h)
		}
		seen[h] = true
		header[i] = h
	}
	table.Schema = header

	nulls := nullSet(f)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, tmerrors.NewSourceReadError(name, err)
		}

		row := make([]types.Value, len(record))
		for i, field := range record {
			if f.TrimSpace {
				field = strings.TrimSpace(field)
			}
			if nulls[field] {
				row[i] = types.Missing
				continue
			}
			row[i] = types.Text(field)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

// ReadFile opens path, reads it with Read, and closes it.
func ReadFile(path string, f types.TableFormat) (*types.SourceTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, tmerrors.NewSourceReadError(path, err)
	}
	defer file.Close()

	return Read(path, file, f)
}

// FileSource is a merge source backed by a delimited text file.
type FileSource struct {
	Path   string
	Format types.TableFormat
}

// NewFileSources returns one FileSource per path, sharing format.
func NewFileSources(paths []string, f types.TableFormat) []*FileSource {
	out := make([]*FileSource, len(paths))
	for i, p := range paths {
		out[i] = &FileSource{Path: p, Format: f}
	}
	return out
}

// Name returns the file path.
func (s *FileSource) Name() string {
	return s.Path
}

// Load reads the file. It returns ctx.Err() if ctx is already done.
func (s *FileSource) Load(ctx context.Context) (*types.SourceTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ReadFile(s.Path, s.Format)
}

func delimiter(f types.TableFormat) rune {
	if f.Delimiter == 0 {
		return defaultDelimiter
	}
	return f.Delimiter
}

func nullSet(f types.TableFormat) map[string]bool {
	tokens := f.NullTokens
	if tokens == nil {
		tokens = types.DefaultNullTokens
	}
	set := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		set[t] = true
	}
	return set
}
