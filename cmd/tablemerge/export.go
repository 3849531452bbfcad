// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tablemerge/internal/tabular"
	"github.com/pdiddy/tablemerge/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export <table>",
	Short: "Write a table stored in SQLite back out as delimited text",
	Long: `Export reads a table loaded by merge --sqlite and writes it as
delimited text. NULL cells are written as empty fields, so an exported
table reads back with the same missing cells.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().String("db", defaultDBPath, "SQLite database path")
	exportCmd.Flags().StringP("output", "o", "", "output path (default: stdout)")
	exportCmd.Flags().String("delimiter", ",", `field delimiter (a single character, or "tab")`)

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	delim, err := parseDelimiter(setting(cmd, "delimiter", "format.delimiter"))
	if err != nil {
		return err
	}

	s, err := openExistingStore(setting(cmd, "db", "store.path"))
	if err != nil {
		return err
	}
	defer s.Close()

	merged, err := s.ReadTable(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	format := types.TableFormat{Delimiter: delim}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		return tabular.Write(cmd.OutOrStdout(), merged, format)
	}
	if err := tabular.WriteFile(output, merged, format); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "exported: %s (%d rows, %d columns) -> %s\n",
		args[0], merged.Len(), merged.Width(), output)
	return nil
}
