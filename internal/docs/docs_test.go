package docs_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codacy/codacy-govet/internal/docs"
	"github.com/codacy/codacy-govet/internal/rules"
	"github.com/codacy/codacy-govet/internal/types"
)

func sample() []*rules.Rule {
	return []*rules.Rule{
		{
			ID:       "printf",
			Title:    "check consistency of Printf format strings and arguments",
			Doc:      "check consistency of Printf format strings and arguments",
			Level:    types.LevelWarning,
			Category: types.CategoryErrorProne,
			Parameters: []rules.Parameter{
				{Name: "funcs", Default: "", Usage: "comma-separated list of print function names"},
			},
		},
		{
			ID:       "SA5000",
			Title:    "Assignment to nil map",
			Level:    types.LevelError,
			Category: types.CategoryErrorProne,
		},
	}
}

func TestBuild(t *testing.T) {
	patterns, descriptions := docs.Build(sample(), "1.2.3")
	assert.Equal(t, "govet", patterns.Name)
	assert.Equal(t, "1.2.3", patterns.Version)
	require.Len(t, patterns.Patterns, 2)
	assert.Equal(t, docs.Pattern{
		PatternID:  "printf",
		Level:      "Warning",
		Category:   "ErrorProne",
		Parameters: []docs.PatternDefault{{Name: "funcs", Default: ""}},
	}, patterns.Patterns[0])
	assert.Nil(t, patterns.Patterns[1].Parameters)

	require.Len(t, descriptions, 2)
	assert.Equal(t, "Assignment to nil map", descriptions[1].Title)
	assert.Equal(t, 5, descriptions[1].TimeToFix)
	assert.Equal(t, "comma-separated list of print function names", descriptions[0].Parameters[0].Description)
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, docs.Generate(dir, sample(), docs.Options{Version: "dev", HTML: true}))

	data, err := os.ReadFile(filepath.Join(dir, docs.PatternsFile))
	require.NoError(t, err)
	var patterns docs.Patterns
	require.NoError(t, json.Unmarshal(data, &patterns))
	assert.Len(t, patterns.Patterns, 2)
	assert.True(t, strings.HasSuffix(string(data), "}\n"))

	data, err = os.ReadFile(filepath.Join(dir, docs.DescriptionDir, docs.DescriptionFile))
	require.NoError(t, err)
	var descriptions []docs.Description
	require.NoError(t, json.Unmarshal(data, &descriptions))
	assert.Len(t, descriptions, 2)

	page, err := os.ReadFile(filepath.Join(dir, docs.DescriptionDir, "SA5000.md"))
	require.NoError(t, err)
	assert.Equal(t, "# SA5000\n\nAssignment to nil map\n", string(page))

	html, err := os.ReadFile(filepath.Join(dir, docs.DescriptionDir, "printf.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "<h1>printf</h1>")
	assert.Contains(t, string(html), "<table>")
}

func TestGenerateWithoutHTML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, docs.Generate(dir, sample(), docs.Options{}))
	_, err := os.Stat(filepath.Join(dir, docs.DescriptionDir, "printf.html"))
	assert.True(t, os.IsNotExist(err))
}
