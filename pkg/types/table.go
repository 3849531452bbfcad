// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Value is a single table cell. A Value is either present text or the
// missing-value marker; the zero Value is Missing.
type Value struct {
	text    string
	present bool
}

// Missing marks a cell with no data: either the source had no such column
// or the field held a configured null token.
var Missing = Value{}

// Text returns a present Value holding s. Text("") is a present empty
// string and is not equal to Missing.
func Text(s string) Value {
	return Value{text: s, present: true}
}

// IsMissing reports whether v is the missing-value marker.
func (v Value) IsMissing() bool {
	return !v.present
}

// String returns the cell text, or "" for Missing.
func (v Value) String() string {
	return v.text
}

// SourceTable is one input table as read from a single source. Rows are
// aligned with Schema. A SourceTable is not modified after it is read.
type SourceTable struct {
	// Name identifies the source in errors and reports, usually its file path.
	Name string

	// Schema lists column names in header order.
	Schema []string

	// Rows holds the data rows; Rows[i][j] is the value of Schema[j].
	Rows [][]Value
}

// Len returns the number of data rows.
func (t *SourceTable) Len() int {
	return len(t.Rows)
}

// Index returns the position of col in the schema, or -1.
func (t *SourceTable) Index(col string) int {
	for i, c := range t.Schema {
		if c == col {
			return i
		}
	}
	return -1
}

// Has reports whether col is part of the schema.
func (t *SourceTable) Has(col string) bool {
	return t.Index(col) >= 0
}

// Get returns the value of col in row i, or Missing when col is not part of
// the schema.
func (t *SourceTable) Get(i int, col string) Value {
	j := t.Index(col)
	if j < 0 {
		return Missing
	}
	return t.Rows[i][j]
}

// MergedTable is the result of merging several SourceTables against their
// union schema.
type MergedTable struct {
	Schema []string
	Rows   [][]Value

	index map[string]int
}

// NewMergedTable returns an empty MergedTable over schema.
func NewMergedTable(schema []string) *MergedTable {
	return &MergedTable{Schema: schema, index: indexOf(schema)}
}

func indexOf(schema []string) map[string]int {
	idx := make(map[string]int, len(schema))
	for i, c := range schema {
		idx[c] = i
	}
	return idx
}

// Len returns the number of rows.
func (t *MergedTable) Len() int {
	return len(t.Rows)
}

// Width returns the number of columns.
func (t *MergedTable) Width() int {
	return len(t.Schema)
}

// Get returns the value of col in row i, or Missing when col is not part of
// the schema.
func (t *MergedTable) Get(i int, col string) Value {
	if t.index == nil {
		t.index = indexOf(t.Schema)
	}
	j, ok := t.index[col]
	if !ok {
		return Missing
	}
	return t.Rows[i][j]
}

// SourceConflict lists the union columns a source did not declare. Every
// row contributed by Source holds Missing in those columns.
type SourceConflict struct {
	Source  string   `json:"source" yaml:"source"`
	Rows    int      `json:"rows" yaml:"rows"`
	Missing []string `json:"missing" yaml:"missing"`
}

// ConflictReport describes how source schemas diverged from the union.
// It is informational; a report with entries is not an error.
type ConflictReport struct {
	// Sources holds one entry per source that lacks at least one union column,
	// in source order.
	Sources []SourceConflict `json:"sources" yaml:"sources"`

	// CaseVariants groups union columns that differ only by letter case
	// (e.g. "Sample_ID" and "sample_id"). They are kept as distinct columns.
	CaseVariants [][]string `json:"case_variants,omitempty" yaml:"case_variants,omitempty"`
}

// Empty reports whether the report records no divergence at all.
func (r *ConflictReport) Empty() bool {
	return len(r.Sources) == 0 && len(r.CaseVariants) == 0
}

// Pairs returns the number of (source, missing column) pairs recorded.
func (r *ConflictReport) Pairs() int {
	n := 0
	for _, s := range r.Sources {
		n += len(s.Missing)
	}
	return n
}
