// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a merge's ConflictReport for people (a text table)
// and for pipelines (YAML or JSON files).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tablemerge/pkg/types"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatYAML  Format = "yaml"
	FormatJSON  Format = "json"
)

// FormatForPath picks YAML or JSON from a file extension; anything else
// is YAML.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Render writes r to w in the given format.
func Render(w io.Writer, r *types.ConflictReport, f Format) error {
	switch f {
	case FormatTable, "":
		renderTable(w, r)
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	default:
		return fmt.Errorf("unsupported report format %q: use table, yaml, or json", f)
	}
}

// WriteFile writes r to path, choosing the format from the extension.
func WriteFile(path string, r *types.ConflictReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report %s: %w", path, err)
	}
	if err := Render(f, r, FormatForPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func renderTable(w io.Writer, r *types.ConflictReport) {
	if r.Empty() {
		fmt.Fprintln(w, "All sources share the same columns.")
		return
	}

	if len(r.Sources) > 0 {
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Source", "Rows", "Missing columns"})
		for _, s := range r.Sources {
			t.AppendRow(table.Row{s.Source, s.Rows, strings.Join(s.Missing, ", ")})
		}
		t.Render()
		fmt.Fprintf(w, "%d missing (source, column) pairs\n", r.Pairs())
	}

	for _, group := range r.CaseVariants {
		fmt.Fprintf(w, "case variants kept separate: %s\n", strings.Join(group, ", "))
	}
}
