package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "assign.yaml", `
name: assign
description: "Single target assignment"
source: "x = 1\n"
assertions:
  - type: ir_equals
    ir: '["module", ["assign", "x", 1]]'
  - type: head_count
    head: assign
    count: 1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "assign", scenario.Name)
	assert.Equal(t, "x = 1\n", scenario.Source)
	assert.Empty(t, scenario.Tree)
	assert.False(t, scenario.ExtendedOperators)
	require.Len(t, scenario.Assertions, 2)
	assert.Equal(t, AssertIREquals, scenario.Assertions[0].Type)
	assert.Equal(t, 1, scenario.Assertions[1].Count)
}

func TestLoadScenario_ResolvesTreePath(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "bitwise_base.yaml"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("testdata", "trees", "bitwise.json"), scenario.Tree)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_UnknownField(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "typo.yaml", `
name: typo
description: "Misspelled key"
source: "x = 1\n"
assertion:
  - type: dialect
    dialect: base
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoadScenario_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing name",
			content: "description: d\nsource: x\nassertions: [{type: dialect, dialect: base}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			content: "name: n\nsource: x\nassertions: [{type: dialect, dialect: base}]\n",
			wantErr: "description is required",
		},
		{
			name:    "no input",
			content: "name: n\ndescription: d\nassertions: [{type: dialect, dialect: base}]\n",
			wantErr: "one of source or tree is required",
		},
		{
			name:    "both inputs",
			content: "name: n\ndescription: d\nsource: x\ntree: t.json\nassertions: [{type: dialect, dialect: base}]\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "missing tree file",
			content: "name: n\ndescription: d\ntree: missing.json\nassertions: [{type: dialect, dialect: base}]\n",
			wantErr: "tree file not found",
		},
		{
			name:    "no assertions",
			content: "name: n\ndescription: d\nsource: x\n",
			wantErr: "assertions list is required",
		},
		{
			name:    "missing type",
			content: "name: n\ndescription: d\nsource: x\nassertions: [{head: cond}]\n",
			wantErr: "type is required",
		},
		{
			name:    "unknown type",
			content: "name: n\ndescription: d\nsource: x\nassertions: [{type: trace_order}]\n",
			wantErr: `unknown assertion type "trace_order"`,
		},
		{
			name:    "bad ir json",
			content: "name: n\ndescription: d\nsource: x\nassertions: [{type: ir_equals, ir: '[1,'}]\n",
			wantErr: "assertions[0]: ir",
		},
		{
			name:    "empty form",
			content: "name: n\ndescription: d\nsource: x\nassertions: [{type: contains}]\n",
			wantErr: "assertions[0]: form",
		},
		{
			name:    "head_count without head",
			content: "name: n\ndescription: d\nsource: x\nassertions: [{type: head_count, count: 1}]\n",
			wantErr: "head is required",
		},
		{
			name:    "negative count",
			content: "name: n\ndescription: d\nsource: x\nassertions: [{type: head_count, head: cond, count: -1}]\n",
			wantErr: "count must be non-negative",
		},
		{
			name:    "error without code",
			content: "name: n\ndescription: d\nsource: x\nassertions: [{type: error}]\n",
			wantErr: "code is required",
		},
		{
			name:    "ir_hash without hash",
			content: "name: n\ndescription: d\nsource: x\nassertions: [{type: ir_hash}]\n",
			wantErr: "hash is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), "s.yaml", tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenarios_Directory(t *testing.T) {
	scenarios, err := LoadScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	names := make([]string, len(scenarios))
	for i, s := range scenarios {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"bitwise_base", "bitwise_extended", "decorated", "process_input", "window_init"}, names)
}

func TestLoadScenarios_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	content := "name: same\ndescription: d\nsource: x\nassertions: [{type: dialect, dialect: base}]\n"
	writeScenario(t, dir, "a.yaml", content)
	writeScenario(t, dir, "b.yml", content)

	_, err := LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate scenario name "same"`)
}
