// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/tablemerge/pkg/types"
)

func sampleReport() *types.ConflictReport {
	return &types.ConflictReport{
		Sources: []types.SourceConflict{
			{Source: "rock_chips.csv", Rows: 12, Missing: []string{"depth_m"}},
			{Source: "soils.csv", Rows: 40, Missing: []string{"lith", "Sample_ID"}},
		},
		CaseVariants: [][]string{{"sample_id", "Sample_ID"}},
	}
}

func TestRender_Table(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatTable))

	out := buf.String()
	assert.Contains(t, out, "SOURCE")
	assert.Contains(t, out, "rock_chips.csv")
	assert.Contains(t, out, "lith, Sample_ID")
	assert.Contains(t, out, "3 missing (source, column) pairs")
	assert.Contains(t, out, "case variants kept separate: sample_id, Sample_ID")
}

func TestRender_TableEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, &types.ConflictReport{}, FormatTable))
	assert.Equal(t, "All sources share the same columns.\n", buf.String())
}

func TestRender_YAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatYAML))

	var got types.ConflictReport
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, *sampleReport(), got)
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleReport(), FormatJSON))

	var got types.ConflictReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, *sampleReport(), got)
}

func TestRender_UnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, sampleReport(), "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported report format")
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "reports", "conflicts.yaml")
	require.NoError(t, WriteFile(yamlPath, sampleReport()))
	data, err := os.ReadFile(yamlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "source: rock_chips.csv")

	jsonPath := filepath.Join(dir, "conflicts.JSON")
	require.NoError(t, WriteFile(jsonPath, sampleReport()))
	data, err = os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"source": "rock_chips.csv"`)
}

func TestFormatForPath(t *testing.T) {
	assert.Equal(t, FormatJSON, FormatForPath("r.json"))
	assert.Equal(t, FormatYAML, FormatForPath("r.yaml"))
	assert.Equal(t, FormatYAML, FormatForPath("r.yml"))
	assert.Equal(t, FormatYAML, FormatForPath("report"))
}
