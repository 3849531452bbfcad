// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/tablemerge/internal/fetch"
	"github.com/pdiddy/tablemerge/internal/logging"
	"github.com/pdiddy/tablemerge/internal/manifest"
	"github.com/pdiddy/tablemerge/internal/merge"
	"github.com/pdiddy/tablemerge/internal/report"
	"github.com/pdiddy/tablemerge/internal/secrets"
	"github.com/pdiddy/tablemerge/internal/store"
	"github.com/pdiddy/tablemerge/internal/tabular"
	tmerrors "github.com/pdiddy/tablemerge/pkg/errors"
	"github.com/pdiddy/tablemerge/pkg/types"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [files...]",
	Short: "Merge delimited files into one table over the union of their columns",
	Long: `Merge reads each source in order, builds the union of their columns,
and writes every row against that union. Cells a source does not have are
written empty. A per-source status line shows row counts and missing
columns; --report writes the full conflict report as YAML or JSON.

Sources come from the argument list or from a --manifest file. Any source
that cannot be read, or whose header repeats a column, aborts the merge
and no output is written.`,
	RunE: runMerge,
}

func init() {
	addMergeFlags(mergeCmd)
	rootCmd.AddCommand(mergeCmd)
}

func addMergeFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "merged table path (default: stdout)")
	cmd.Flags().String("manifest", "", "YAML manifest naming sources and options")
	cmd.Flags().String("policy", string(types.OrderFirstSeen), "column order: first-seen, alphabetical, explicit")
	cmd.Flags().StringSlice("columns", nil, "column list for --policy explicit")
	cmd.Flags().String("report", "", "write the conflict report to this .yaml or .json file")
	cmd.Flags().String("sqlite", "", "also load the merged table into this SQLite database")
	cmd.Flags().String("table", "", "table name for --sqlite")
	cmd.Flags().String("data-dir", "data", "base directory for fetched sources (contains raw/)")
	addFormatFlags(cmd)
}

// plannedSource is one merge input. When URL is set the file is fetched
// before merging and Path is filled in from the download destination.
type plannedSource struct {
	Path string
	URL  string
	Name string
}

// mergePlan is everything one merge invocation needs.
type mergePlan struct {
	Config  types.MergeConfig
	Sources []plannedSource
	Fetch   types.FetchConfig
	Store   types.StoreConfig
}

func runMerge(cmd *cobra.Command, args []string) error {
	plan, err := planFromFlags(cmd, args)
	if err != nil {
		return err
	}

	status := cmd.OutOrStdout()
	if plan.Config.Output == "" {
		status = cmd.ErrOrStderr()
	}

	client := &http.Client{Timeout: plan.Fetch.Timeout}
	return executeMerge(cmd.Context(), client, plan, cmd.OutOrStdout(), status)
}

// planFromFlags builds a mergePlan from a manifest or from the argument
// list. Flags set on the command line override the manifest.
func planFromFlags(cmd *cobra.Command, args []string) (mergePlan, error) {
	manifestPath, _ := cmd.Flags().GetString("manifest")
	if manifestPath != "" && len(args) > 0 {
		return mergePlan{}, fmt.Errorf("give either source files or --manifest, not both")
	}

	plan := mergePlan{
		Fetch: types.FetchConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   defaultTimeout,
				UserAgent: defaultUserAgent,
			},
			Token: secrets.Lookup(loadedSecrets, secrets.KeyPortalToken, ""),
		},
	}

	if manifestPath != "" {
		m, err := manifest.Load(manifestPath)
		if err != nil {
			return mergePlan{}, err
		}
		plan.Config = types.MergeConfig{
			Output:     m.Output,
			Policy:     m.Policy,
			Columns:    m.Columns,
			Format:     m.Format(),
			ReportPath: m.Report,
		}
		for _, e := range m.Sources {
			plan.Sources = append(plan.Sources, plannedSource{Path: m.LocalPath(e), URL: e.URL, Name: e.Name})
		}
		plan.Fetch.DataDir = m.DataDir
		if m.SQLite != nil {
			plan.Store = types.StoreConfig{Path: m.SQLite.Path, Table: m.SQLite.Table}
		}
	} else {
		format, err := formatFromFlags(cmd)
		if err != nil {
			return mergePlan{}, err
		}
		columns, _ := cmd.Flags().GetStringSlice("columns")
		plan.Config = types.MergeConfig{
			Policy:  types.ColumnOrderPolicy(setting(cmd, "policy", "merge.policy")),
			Columns: columns,
			Format:  format,
		}
		for _, a := range args {
			if strings.HasPrefix(a, "http://") || strings.HasPrefix(a, "https://") {
				plan.Sources = append(plan.Sources, plannedSource{URL: a})
			} else {
				plan.Sources = append(plan.Sources, plannedSource{Path: a})
			}
		}
		plan.Fetch.DataDir = setting(cmd, "data-dir", "data_dir")
	}

	if cmd.Flags().Changed("output") {
		plan.Config.Output, _ = cmd.Flags().GetString("output")
	}
	if cmd.Flags().Changed("report") {
		plan.Config.ReportPath, _ = cmd.Flags().GetString("report")
	}
	if cmd.Flags().Changed("policy") {
		plan.Config.Policy = types.ColumnOrderPolicy(setting(cmd, "policy", "merge.policy"))
	}
	if cmd.Flags().Changed("columns") {
		plan.Config.Columns, _ = cmd.Flags().GetStringSlice("columns")
	}
	if cmd.Flags().Changed("sqlite") {
		plan.Store.Path, _ = cmd.Flags().GetString("sqlite")
	}
	if cmd.Flags().Changed("table") {
		plan.Store.Table, _ = cmd.Flags().GetString("table")
	}

	if (plan.Store.Path == "") != (plan.Store.Table == "") {
		return mergePlan{}, fmt.Errorf("--sqlite and --table must be given together")
	}
	if plan.Store.Table != "" {
		if err := store.ValidateTableName(plan.Store.Table); err != nil {
			return mergePlan{}, err
		}
	}
	return plan, nil
}

// executeMerge fetches remote sources, merges, writes the output and the
// report, and loads the result into SQLite when configured. Merged rows go
// to out when no output path is set; status lines go to status.
func executeMerge(ctx context.Context, client *http.Client, plan mergePlan, out, status io.Writer) error {
	if len(plan.Sources) == 0 {
		return fmt.Errorf("%w: give one or more files or a --manifest", &tmerrors.EmptySourceListError{})
	}

	var remote []fetch.Target
	for _, s := range plan.Sources {
		if s.URL != "" {
			remote = append(remote, fetch.Target{URL: s.URL, Name: s.Name})
		}
	}
	if err := fetch.CheckDistinct(remote); err != nil {
		return err
	}

	log := logging.FromContext(ctx)
	start := time.Now()

	paths := make([]string, len(plan.Sources))
	for i, s := range plan.Sources {
		if s.URL == "" {
			paths[i] = s.Path
			continue
		}
		dest, _, err := fetch.Source(ctx, client, s.URL, s.Name, plan.Fetch, status)
		if err != nil {
			return fmt.Errorf("fetching source %s: %w", s.URL, err)
		}
		paths[i] = dest
	}

	files := tabular.NewFileSources(paths, plan.Config.Format)
	sources := make([]merge.Source, len(files))
	for i, f := range files {
		sources[i] = f
	}

	res, err := merge.Merge(ctx, sources, merge.Options{
		Policy:  plan.Config.Policy,
		Columns: plan.Config.Columns,
	})
	if err != nil {
		return err
	}

	missing := make(map[string][]string, len(res.Report.Sources))
	for _, c := range res.Report.Sources {
		missing[c.Source] = c.Missing
	}
	for _, s := range res.Sources {
		fmt.Fprintf(status, "merged:  %s (%d rows, %d columns)\n", s.Name, s.Rows, s.Columns)
		if m := missing[s.Name]; len(m) > 0 {
			fmt.Fprintf(status, "         missing: %s\n", strings.Join(m, ", "))
		}
	}

	if plan.Config.Output == "" {
		if err := tabular.Write(out, res.Table, plan.Config.Format); err != nil {
			return err
		}
	} else if err := tabular.WriteFile(plan.Config.Output, res.Table, plan.Config.Format); err != nil {
		return err
	}

	if plan.Config.ReportPath != "" {
		if err := report.WriteFile(plan.Config.ReportPath, res.Report); err != nil {
			return err
		}
		fmt.Fprintf(status, "report:  %s\n", plan.Config.ReportPath)
	}

	if plan.Store.Path != "" {
		if err := loadIntoStore(ctx, plan, res); err != nil {
			return err
		}
		fmt.Fprintf(status, "stored:  %s (table %s)\n", plan.Store.Path, plan.Store.Table)
	}

	dest := plan.Config.Output
	if dest == "" {
		dest = "stdout"
	}
	fmt.Fprintf(status, "\nMerge summary: %d sources, %d rows, %d columns, %d missing (source, column) pairs -> %s\n",
		len(res.Sources), res.Table.Len(), res.Table.Width(), res.Report.Pairs(), dest)

	log.Debug().Dur("elapsed", time.Since(start)).Msg("merge finished")
	return nil
}

func loadIntoStore(ctx context.Context, plan mergePlan, res *merge.Result) error {
	s, err := store.Open(plan.Store.Path)
	if err != nil {
		return err
	}
	defer s.Close()

	infos := make([]store.SourceInfo, len(res.Sources))
	for i, src := range res.Sources {
		infos[i] = store.SourceInfo{Name: src.Name, Rows: src.Rows}
	}
	policy := plan.Config.Policy
	if policy == "" {
		policy = types.OrderFirstSeen
	}
	_, err = s.Load(ctx, store.LoadRequest{
		Table:   plan.Store.Table,
		Policy:  policy,
		Merged:  res.Table,
		Report:  res.Report,
		Sources: infos,
	})
	return err
}

// openExistingStore opens a database that must already exist.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("database %s not found: run merge with --sqlite first", path)
	}
	return store.Open(path)
}
