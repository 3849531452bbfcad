// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ColumnOrderPolicy selects the column order of a merged table's schema.
type ColumnOrderPolicy string

const (
	// OrderFirstSeen keeps columns in the order they are first encountered
	// across sources.
	OrderFirstSeen ColumnOrderPolicy = "first-seen"

	// OrderAlphabetical sorts columns by case-folded name.
	OrderAlphabetical ColumnOrderPolicy = "alphabetical"

	// OrderExplicit places a caller-supplied column list first, followed by
	// any remaining columns in first-seen order.
	OrderExplicit ColumnOrderPolicy = "explicit"
)

// Valid reports whether p is a known policy.
func (p ColumnOrderPolicy) Valid() bool {
	switch p {
	case OrderFirstSeen, OrderAlphabetical, OrderExplicit:
		return true
	}
	return false
}

// DefaultNullTokens are the field values read as Missing when no other set
// is configured.
var DefaultNullTokens = []string{"", "NA", "NaN"}

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "tablemerge/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// FetchConfig holds settings for downloading remote source tables.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// DownloadDelay is the delay between consecutive downloads (default 1s).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// DataDir is the base directory for data (contains raw/, merged/).
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Token is an optional bearer token for the data portal.
	Token string `json:"-" yaml:"-"`

	// MaxRetries bounds retries on HTTP 429 (0 = default).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// TableFormat describes how delimited text is read and written.
type TableFormat struct {
	// Delimiter separates fields (default ',').
	Delimiter rune `json:"delimiter" yaml:"delimiter"`

	// NullTokens are field values read as Missing. Nil means DefaultNullTokens.
	NullTokens []string `json:"null_tokens" yaml:"null_tokens"`

	// TrimSpace trims surrounding whitespace from every field before null
	// token matching.
	TrimSpace bool `json:"trim_space" yaml:"trim_space"`

	// Encoding names the input character set: "utf-8" (default), "utf-16",
	// "latin1" or "windows-1252".
	Encoding string `json:"encoding" yaml:"encoding"`
}

// MergeConfig carries everything one merge invocation needs. It is built
// per call and passed explicitly.
type MergeConfig struct {
	// Sources lists input file paths in merge order.
	Sources []string `json:"sources" yaml:"sources"`

	// Output is the merged table path. Empty writes to stdout.
	Output string `json:"output" yaml:"output"`

	// Policy selects the output column order.
	Policy ColumnOrderPolicy `json:"policy" yaml:"policy"`

	// Columns is the explicit column list for OrderExplicit.
	Columns []string `json:"columns,omitempty" yaml:"columns,omitempty"`

	// Format controls parsing and serialization of delimited text.
	Format TableFormat `json:"format" yaml:"format"`

	// ReportPath optionally receives the conflict report (.yaml or .json).
	ReportPath string `json:"report,omitempty" yaml:"report,omitempty"`
}

// StoreConfig holds settings for the SQLite table store.
type StoreConfig struct {
	// Path is the SQLite database file (e.g. "data/index/tables.db").
	Path string `json:"path" yaml:"path"`

	// Table is the destination table name for a merged table.
	Table string `json:"table" yaml:"table"`
}
