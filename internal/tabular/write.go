// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/tablemerge/pkg/types"
)

// Write serializes t as delimited text: one header row with the schema,
// then every row. Missing cells are written as empty fields.
func Write(w io.Writer, t *types.MergedTable, f types.TableFormat) error {
	cw := csv.NewWriter(w)
	cw.Comma = delimiter(f)

	if err := cw.Write(t.Schema); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	record := make([]string, t.Width())
	for i, row := range t.Rows {
		for j, v := range row {
			record[j] = v.String()
		}
		if len(record) == 1 && record[0] == "" {
			// A bare empty line is skipped by readers; quote it to keep the row.
			cw.Flush()
			if err := cw.Error(); err != nil {
				return fmt.Errorf("writing row %d: %w", i+1, err)
			}
			if _, err := io.WriteString(w, "\"\"\n"); err != nil {
				return fmt.Errorf("writing row %d: %w", i+1, err)
			}
			continue
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteFile writes t to path through a temporary file in the same
// directory and renames it into place, so path is either fully written or
// left untouched.
func WriteFile(path string, t *types.MergedTable, f types.TableFormat) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, ".tablemerge-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	writeErr := Write(tmpFile, t, f)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
