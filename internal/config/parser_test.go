package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig_YAMLByExtension(t *testing.T) {
	result := ParseConfig("testdata/valid-run.yaml")

	require.True(t, result.IsValid(), "expected valid result, got errors: %v", result.AllErrors())
	assert.Equal(t, FormatYAML, result.Format)
	assert.Equal(t, "testdata/valid-run.yaml", result.FilePath)

	datasets, ok := result.Data["datasets"].([]interface{})
	require.True(t, ok, "datasets = %v", result.Data["datasets"])
	assert.Len(t, datasets, 2)
}

func TestParseConfig_JSONByExtension(t *testing.T) {
	result := ParseConfig("testdata/valid-run.json")

	require.True(t, result.IsValid(), "expected valid result, got errors: %v", result.AllErrors())
	assert.Equal(t, FormatJSON, result.Format)
	assert.Equal(t, "nyc-taxi-fare", result.Data["name"])
}

func TestParseConfig_InvalidJSON(t *testing.T) {
	result := ParseConfig("testdata/invalid-json.json")

	require.False(t, result.IsValid())
	require.Len(t, result.ParseErrors, 1)

	parseErr := result.ParseErrors[0]
	assert.Equal(t, ErrorTypeSyntax, parseErr.Type)
	assert.Equal(t, 5, parseErr.Line)
	assert.Equal(t, "testdata/invalid-json.json", parseErr.Path)
	assert.Nil(t, result.ValidationErrors, "validation must not run when parsing failed")
}

func TestParseConfig_InvalidYAML(t *testing.T) {
	result := ParseConfig("testdata/invalid-yaml.yaml")

	require.False(t, result.IsValid())
	require.NotEmpty(t, result.ParseErrors)
	assert.Equal(t, ErrorTypeSyntax, result.ParseErrors[0].Type)
	assert.NotZero(t, result.ParseErrors[0].Line, "expected a line number, got %+v", result.ParseErrors[0])
}

func TestParseConfig_EmptyFile(t *testing.T) {
	result := ParseConfig("testdata/empty.json")

	require.False(t, result.IsValid())
	require.NotEmpty(t, result.ParseErrors)
	assert.Contains(t, result.ParseErrors[0].Message, "empty content")
}

func TestParseConfig_NonExistentFile(t *testing.T) {
	result := ParseConfig("testdata/does-not-exist.yaml")

	require.False(t, result.IsValid())
	require.NotEmpty(t, result.ParseErrors)
	assert.Equal(t, ErrorTypeIO, result.ParseErrors[0].Type)
}

func TestParseConfig_ValidationErrors(t *testing.T) {
	result := ParseConfig("testdata/invalid-schema.yaml")

	require.Empty(t, result.ParseErrors)
	assert.NotEmpty(t, result.ValidationErrors)
	assert.NotNil(t, result.Data, "parsed data should be kept alongside validation errors")
}

func TestParseConfig_UnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.conf")
	content := "schemaVersion: \"1.0.0\"\nname: x\ndatasets:\n  - name: train\n    source: a.csv\n    pipeline: training\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	result := ParseConfig(path)
	require.True(t, result.IsValid(), "expected valid result, got errors: %v", result.AllErrors())
	assert.Equal(t, FormatYAML, result.Format)
}

func TestParseConfigString_AutoDetect(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantFormat string
		wantParse  bool
	}{
		{"json object", `{"name": "x"}`, FormatJSON, true},
		{"yaml mapping", "name: x\n", FormatYAML, true},
		{"comments only", "# nothing here\n", "", false},
		{"blank", "   ", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseConfigString(tt.content, "")
			assert.Equal(t, tt.wantFormat, result.Format)
			assert.Equal(t, tt.wantParse, len(result.ParseErrors) == 0, "parse errors: %v", result.ParseErrors)
		})
	}
}

func TestParseConfigString_NonObject(t *testing.T) {
	for _, content := range []string{`[1, 2]`, `null`, `"text"`} {
		result := ParseConfigString(content, FormatJSON)
		if assert.NotEmpty(t, result.ParseErrors, "expected a parse error for %s", content) {
			assert.Equal(t, ErrorTypeFormat, result.ParseErrors[0].Type, content)
		}
	}
}

func TestParseConfigString_UnsupportedFormat(t *testing.T) {
	result := ParseConfigString("name: x", "toml")
	require.NotEmpty(t, result.ParseErrors)
	assert.Equal(t, ErrorTypeFormat, result.ParseErrors[0].Type)
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]string{
		"run.json":       FormatJSON,
		"run.JSON":       FormatJSON,
		"run.yaml":       FormatYAML,
		"dir/run.yml":    FormatYAML,
		"run.conf":       "",
		"no-extension":   "",
		"archive.json.x": "",
	}
	for path, want := range tests {
		assert.Equal(t, want, DetectFormat(path), "DetectFormat(%q)", path)
	}
}

func TestIsJSON(t *testing.T) {
	assert.True(t, IsJSON("  {\"a\": 1}"))
	assert.True(t, IsJSON("[1]"))
	assert.False(t, IsJSON("a: 1"), "YAML mapping must not be detected as JSON")
}

func TestIsYAML(t *testing.T) {
	assert.True(t, IsYAML("a: 1"))
	assert.False(t, IsYAML(""), "empty content is not YAML")
	assert.False(t, IsYAML("# only a comment"), "comment-only content has no document")
}

func TestOffsetToLineColumn(t *testing.T) {
	content := "ab\ncd\nef"
	tests := []struct {
		offset    int64
		line, col int
	}{
		{0, 1, 1},
		{2, 1, 3},
		{3, 2, 1},
		{7, 3, 2},
		{100, 3, 3},
	}
	for _, tt := range tests {
		line, col := offsetToLineColumn(content, tt.offset)
		assert.Equal(t, tt.line, line, "offset %d line", tt.offset)
		assert.Equal(t, tt.col, col, "offset %d column", tt.offset)
	}
}

func TestResult_AllErrors(t *testing.T) {
	result := &Result{
		ParseErrors:      []ParseError{{Message: "bad"}},
		ValidationErrors: []ValidationError{{Path: "/name", Message: "missing"}},
	}
	errs := result.AllErrors()
	require.Len(t, errs, 2)
	assert.Equal(t, "bad", errs[0].Error(), "parse errors come first")
	assert.False(t, result.IsValid())

	assert.Empty(t, (&Result{}).AllErrors())
}

func TestParseError_Error(t *testing.T) {
	tests := []struct {
		err  ParseError
		want string
	}{
		{ParseError{Message: "oops"}, "oops"},
		{ParseError{Path: "run.yaml", Message: "oops"}, "run.yaml: oops"},
		{ParseError{Path: "run.yaml", Line: 3, Message: "oops"}, "run.yaml: line 3: oops"},
		{ParseError{Path: "run.json", Line: 3, Column: 7, Message: "oops"}, "run.json: line 3, column 7: oops"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}
}

func TestValidationError_Error(t *testing.T) {
	assert.Equal(t, "/mode: bad", (ValidationError{Path: "/mode", Message: "bad"}).Error())
	assert.Equal(t, "bad", (ValidationError{Message: "bad"}).Error())
}
