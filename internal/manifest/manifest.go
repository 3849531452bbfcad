// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest loads YAML merge manifests. A manifest names the ordered
// sources of one merge, where to write the result, and how to order columns,
// so a recurring merge can be re-run without retyping paths.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tablemerge/internal/fetch"
	tmerrors "github.com/pdiddy/tablemerge/pkg/errors"
	"github.com/pdiddy/tablemerge/pkg/types"
)

// Entry is one source in a manifest. Exactly one of Path and URL is set.
type Entry struct {
	// Path is a local file, relative to the manifest directory unless absolute.
	Path string `yaml:"path,omitempty"`

	// URL is a remote file fetched into DataDir/raw before merging.
	URL string `yaml:"url,omitempty"`

	// Name overrides the local file name used for a fetched URL.
	Name string `yaml:"name,omitempty"`
}

// Remote reports whether the entry must be fetched.
func (e Entry) Remote() bool {
	return e.URL != ""
}

// SQLite names an optional SQLite destination for the merged table.
type SQLite struct {
	Path  string `yaml:"path"`
	Table string `yaml:"table"`
}

// Manifest describes one merge.
type Manifest struct {
	Output     string                  `yaml:"output"`
	Report     string                  `yaml:"report,omitempty"`
	Policy     types.ColumnOrderPolicy `yaml:"policy"`
	Columns    []string                `yaml:"columns,omitempty"`
	Delimiter  string                  `yaml:"delimiter,omitempty"`
	NullTokens []string                `yaml:"null_tokens,omitempty"`
	TrimSpace  bool                    `yaml:"trim_space,omitempty"`
	Encoding   string                  `yaml:"encoding,omitempty"`
	DataDir    string                  `yaml:"data_dir,omitempty"`
	Sources    []Entry                 `yaml:"sources"`
	SQLite     *SQLite                 `yaml:"sqlite,omitempty"`

	// dir is the directory relative paths resolve against.
	dir string
}

// Load reads and validates the manifest at path. Relative paths inside it
// are resolved against the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	m.dir = filepath.Dir(path)
	m.resolve()
	return m, nil
}

// Parse decodes and validates manifest YAML. Paths are left as written.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if m.Policy == "" {
		m.Policy = types.OrderFirstSeen
	}
	if m.DataDir == "" {
		m.DataDir = "data"
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks sources, policy and delimiter.
func (m *Manifest) Validate() error {
	if len(m.Sources) == 0 {
		return &tmerrors.EmptySourceListError{}
	}
	var remote []fetch.Target
	for i, e := range m.Sources {
		if (e.Path == "") == (e.URL == "") {
			return tmerrors.NewValidationError(fmt.Sprintf("sources[%d]", i), "set exactly one of path or url")
		}
		if e.Remote() {
			remote = append(remote, fetch.Target{URL: e.URL, Name: e.Name})
		}
	}
	if err := fetch.CheckDistinct(remote); err != nil {
		return err
	}
	if !m.Policy.Valid() {
		return tmerrors.NewValidationError("policy", fmt.Sprintf("unknown column order policy %q", m.Policy))
	}
	if m.Policy == types.OrderExplicit && len(m.Columns) == 0 {
		return tmerrors.NewValidationError("columns", "explicit policy requires a column list")
	}
	if m.Delimiter != "" && utf8.RuneCountInString(m.Delimiter) != 1 {
		return tmerrors.NewValidationError("delimiter", "must be a single character")
	}
	if m.SQLite != nil && (m.SQLite.Path == "" || m.SQLite.Table == "") {
		return tmerrors.NewValidationError("sqlite", "path and table are both required")
	}
	return nil
}

// Format returns the table format the manifest describes.
func (m *Manifest) Format() types.TableFormat {
	f := types.TableFormat{
		NullTokens: m.NullTokens,
		TrimSpace:  m.TrimSpace,
		Encoding:   m.Encoding,
	}
	if m.Delimiter != "" {
		r, _ := utf8.DecodeRuneInString(m.Delimiter)
		f.Delimiter = r
	}
	return f
}

// LocalPath returns where e is read from: its Path, or the fetch
// destination under DataDir/raw for a URL.
func (m *Manifest) LocalPath(e Entry) string {
	if !e.Remote() {
		return e.Path
	}
	return fetch.Destination(m.DataDir, fetch.Target{URL: e.URL, Name: e.Name}.LocalName())
}

func (m *Manifest) resolve() {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(m.dir, p)
	}
	m.Output = abs(m.Output)
	m.Report = abs(m.Report)
	m.DataDir = abs(m.DataDir)
	for i := range m.Sources {
		m.Sources[i].Path = abs(m.Sources[i].Path)
	}
	if m.SQLite != nil {
		m.SQLite.Path = abs(m.SQLite.Path)
	}
}

