// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tabular

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tmerrors "github.com/pdiddy/tablemerge/pkg/errors"
	"github.com/pdiddy/tablemerge/pkg/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func texts(t *testing.T, row []types.Value) []string {
	t.Helper()
	out := make([]string, len(row))
	for i, v := range row {
		if v.IsMissing() {
			out[i] = "<missing>"
			continue
		}
		out[i] = v.String()
	}
	return out
}

func TestRead(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		format     types.TableFormat
		wantSchema []string
		wantRows   [][]string
	}{
		{
			name:       "header and rows",
			input:      "id,name\n1,x\n2,y\n",
			wantSchema: []string{"id", "name"},
			wantRows:   [][]string{{"1", "x"}, {"2", "y"}},
		},
		{
			name:       "default null tokens map to missing",
			input:      "id,cu_ppm,au_ppb\n1,NA,\n2,NaN,0.4\n",
			wantSchema: []string{"id", "cu_ppm", "au_ppb"},
			wantRows: [][]string{
				{"1", "<missing>", "<missing>"},
				{"2", "<missing>", "0.4"},
			},
		},
		{
			name:       "custom null tokens keep empty string present",
			input:      "id,note\n1,\n2,-\n",
			format:     types.TableFormat{NullTokens: []string{"-"}},
			wantSchema: []string{"id", "note"},
			wantRows:   [][]string{{"1", ""}, {"2", "<missing>"}},
		},
		{
			name:       "header only",
			input:      "id,name\n",
			wantSchema: []string{"id", "name"},
		},
		{
			name:  "empty input",
			input: "",
		},
		{
			name:       "header cells trimmed",
			input:      " id , name\n1,x\n",
			wantSchema: []string{"id", "name"},
			wantRows:   [][]string{{"1", "x"}},
		},
		{
			name:       "trim space before null matching",
			input:      "id,lith\n1,  NA \n2, granite\n",
			format:     types.TableFormat{TrimSpace: true},
			wantSchema: []string{"id", "lith"},
			wantRows:   [][]string{{"1", "<missing>"}, {"2", "granite"}},
		},
		{
			name:       "tab delimiter",
			input:      "id\tname\n1\tx\n",
			format:     types.TableFormat{Delimiter: '\t'},
			wantSchema: []string{"id", "name"},
			wantRows:   [][]string{{"1", "x"}},
		},
		{
			name:       "quoted fields preserved",
			input:      "id,desc\n1,\"sandstone, fine\"\n",
			wantSchema: []string{"id", "desc"},
			wantRows:   [][]string{{"1", "sandstone, fine"}},
		},
		{
			name:       "utf-8 byte order mark stripped",
			input:      "\ufeffid,name\n1,x\n",
			wantSchema: []string{"id", "name"},
			wantRows:   [][]string{{"1", "x"}},
		},
		{
			name:       "case variants are distinct columns",
			input:      "ID,id\n1,2\n",
			wantSchema: []string{"ID", "id"},
			wantRows:   [][]string{{"1", "2"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := Read("in.csv", strings.NewReader(tt.input), tt.format)
			require.NoError(t, err)

			assert.Equal(t, "in.csv", table.Name)
			assert.Equal(t, tt.wantSchema, table.Schema)
			require.Equal(t, len(tt.wantRows), table.Len())
			for i, want := range tt.wantRows {
				assert.Equal(t, want, texts(t, table.Rows[i]), "row %d", i)
			}
		})
	}
}

func TestRead_Latin1(t *testing.T) {
	input := []byte("id,locality\n1,Mont\xe9\n")
	table, err := Read("latin.csv", bytes.NewReader(input), types.TableFormat{Encoding: "latin1"})
	require.NoError(t, err)
	assert.Equal(t, "Monté", table.Get(0, "locality").String())
}

func TestRead_UnknownEncoding(t *testing.T) {
	_, err := Read("x.csv", strings.NewReader("id\n"), types.TableFormat{Encoding: "ebcdic"})
	require.Error(t, err)
	assert.ErrorIs(t, err, tmerrors.ErrSourceRead)
}

func TestRead_DuplicateHeader(t *testing.T) {
	_, err := Read("dup.csv", strings.NewReader("id,id\n1,2\n"), types.TableFormat{})
	require.Error(t, err)
	assert.ErrorIs(t, err, tmerrors.ErrSchema)

	var se *tmerrors.SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "dup.csv", se.Source)
	assert.Equal(t, "id", se.Column)
}

func TestRead_DuplicateAfterTrim(t *testing.T) {
	_, err := Read("dup.csv", strings.NewReader("id, id\n"), types.TableFormat{})
	assert.ErrorIs(t, err, tmerrors.ErrSchema)
}

func TestRead_RaggedRow(t *testing.T) {
	_, err := Read("ragged.csv", strings.NewReader("id,name\n1,x\n2\n"), types.TableFormat{})
	require.Error(t, err)
	assert.ErrorIs(t, err, tmerrors.ErrSourceRead)
	assert.Contains(t, err.Error(), "ragged.csv")
}

func TestRead_QuotedLineBreaks(t *testing.T) {
	in := "id,note\r\n1,\"a\r\nb\"\r\n2,\"c\nd\"\r\n"
	st, err := Read("notes.csv", strings.NewReader(in), types.TableFormat{})
	require.NoError(t, err)
	require.Equal(t, 2, st.Len())

	// A CRLF inside a quoted field is read as a bare LF, the same as any
	// other record terminator.
	assert.Equal(t, "a\nb", st.Get(0, "note").String())
	assert.Equal(t, "c\nd", st.Get(1, "note").String())
}

func TestReadFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.csv")
	_, err := ReadFile(path, types.TableFormat{})
	require.Error(t, err)
	assert.ErrorIs(t, err, tmerrors.ErrSourceRead)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), path)
}

func TestFileSource_Load(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.csv", "id,name\n1,x\n")

	srcs := NewFileSources([]string{path}, types.TableFormat{})
	require.Len(t, srcs, 1)
	assert.Equal(t, path, srcs[0].Name())

	table, err := srcs[0].Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = srcs[0].Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func sampleMerged() *types.MergedTable {
	m := types.NewMergedTable([]string{"id", "name", "type"})
	m.Rows = [][]types.Value{
		{types.Text("1"), types.Text("x"), types.Missing},
		{types.Text("2"), types.Missing, types.Text("rock, igneous")},
	}
	return m
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleMerged(), types.TableFormat{}))
	assert.Equal(t, "id,name,type\n1,x,\n2,,\"rock, igneous\"\n", buf.String())
}

func TestWrite_Delimiter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleMerged(), types.TableFormat{Delimiter: ';'}))
	assert.Equal(t, "id;name;type\n1;x;\n2;;rock, igneous\n", buf.String())
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merged", "out.csv")

	require.NoError(t, WriteFile(path, sampleMerged(), types.TableFormat{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "id,name,type\n"))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file left behind")
	assert.Equal(t, "out.csv", entries[0].Name())
}

func TestWriteThenRead(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")
	require.NoError(t, WriteFile(path, sampleMerged(), types.TableFormat{}))

	table, err := ReadFile(path, types.TableFormat{})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "type"}, table.Schema)
	assert.Equal(t, []string{"1", "x", "<missing>"}, texts(t, table.Rows[0]))
	assert.Equal(t, []string{"2", "<missing>", "rock, igneous"}, texts(t, table.Rows[1]))
}

func TestWrite_SingleColumnMissingKeepsRow(t *testing.T) {
	m := types.NewMergedTable([]string{"lith"})
	m.Rows = [][]types.Value{{types.Text("basalt")}, {types.Missing}, {types.Text("chert")}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, m, types.TableFormat{}))
	assert.Equal(t, "lith\nbasalt\n\"\"\nchert\n", buf.String())

	table, err := Read("lith.csv", &buf, types.TableFormat{})
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
	assert.True(t, table.Rows[1][0].IsMissing())
}
