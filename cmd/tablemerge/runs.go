// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/pdiddy/tablemerge/internal/store"
)

const defaultDBPath = "data/index/tables.db"

var runsCmd = &cobra.Command{
	Use:   "runs [table]",
	Short: "List merged tables loaded into SQLite, newest first",
	Long: `Runs lists every load recorded in the SQLite database: the table,
when it was loaded, the column order policy, row and column counts, and
the sources merged. Give a table name to show only its loads.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().String("db", defaultDBPath, "SQLite database path")
	runsCmd.Flags().Bool("json", false, "output runs as JSON")
	runsCmd.Flags().Bool("sources", false, "list the sources of each run")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	var tableName string
	if len(args) == 1 {
		tableName = args[0]
	}

	s, err := openExistingStore(setting(cmd, "db", "store.path"))
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.Runs(cmd.Context(), tableName)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	withSources, _ := cmd.Flags().GetBool("sources")
	return formatRuns(cmd.OutOrStdout(), runs, jsonOutput, withSources)
}

func formatRuns(w io.Writer, runs []store.Run, jsonOutput, withSources bool) error {
	if jsonOutput {
		if runs == nil {
			runs = []store.Run{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Run", "Table", "Loaded", "Policy", "Rows", "Columns", "Sources"})
	for _, r := range runs {
		t.AppendRow(table.Row{
			r.ID, r.Table, r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Policy, r.Rows, len(r.Columns), len(r.Sources),
		})
		if !withSources {
			continue
		}
		for _, src := range r.Sources {
			missing := ""
			if len(src.Missing) > 0 {
				missing = "missing: " + strings.Join(src.Missing, ", ")
			}
			t.AppendRow(table.Row{"", "  " + src.Source, "", "", src.Rows, "", missing})
		}
	}
	t.Render()

	fmt.Fprintf(w, "%d runs\n", len(runs))
	return nil
}
