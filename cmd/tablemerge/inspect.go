// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pdiddy/tablemerge/internal/merge"
	"github.com/pdiddy/tablemerge/internal/report"
	"github.com/pdiddy/tablemerge/internal/tabular"
	"github.com/pdiddy/tablemerge/pkg/types"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [files...]",
	Short: "Show each file's columns and row count, and the union they would merge into",
	Long: `Inspect reads each file without writing anything. It prints the row
and column count and the header of every file, then previews the union
schema and the conflict report a merge of the same files would produce.`,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().String("policy", string(types.OrderFirstSeen), "column order for the union preview")
	inspectCmd.Flags().StringSlice("columns", nil, "column list for --policy explicit")
	addFormatFlags(inspectCmd)

	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more files to inspect")
	}
	format, err := formatFromFlags(cmd)
	if err != nil {
		return err
	}
	columns, _ := cmd.Flags().GetStringSlice("columns")
	opts := merge.Options{
		Policy:  types.ColumnOrderPolicy(setting(cmd, "policy", "merge.policy")),
		Columns: columns,
	}
	return inspectFiles(cmd.Context(), args, format, opts, cmd.OutOrStdout())
}

func inspectFiles(ctx context.Context, paths []string, format types.TableFormat, opts merge.Options, w io.Writer) error {
	tables := make([]*types.SourceTable, 0, len(paths))
	for _, p := range paths {
		t, err := tabular.ReadFile(p, format)
		if err != nil {
			return err
		}
		tables = append(tables, t)
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"File", "Rows", "Columns", "Header"})
	for _, t := range tables {
		tw.AppendRow(table.Row{t.Name, t.Len(), len(t.Schema), strings.Join(t.Schema, ", ")})
	}
	tw.Render()

	res, err := merge.MergeTables(ctx, tables, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "\nUnion schema (%d columns, %d rows):\n  %s\n\n",
		res.Table.Width(), res.Table.Len(), strings.Join(res.Table.Schema, ", "))
	return report.Render(w, res.Report, report.FormatTable)
}
