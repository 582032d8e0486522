package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orihuela-iom/fare-taxi-prediction/internal/partition"
)

const rawTrain = `key,fare_amount,pickup_datetime,pickup_longitude,pickup_latitude,dropoff_longitude,dropoff_latitude,passenger_count
2009-06-15 17:26:21.0000001,4.5,2009-06-15 17:26:21 UTC,-73.844311,40.721319,-73.84161,40.712278,1
2010-01-05 16:52:16.0000002,16.9,2010-01-05 16:52:16 UTC,-74.016048,40.711303,-73.979268,40.782004,1
2011-08-18 00:35:00.00000049,5.7,2011-08-18 00:35:00 UTC,-73.982738,40.76127,,,2
2012-04-21 04:30:42.0000001,7.7,2012-04-21 04:30:42 UTC,0,0,-73.9,40.7,1
2010-03-09 07:51:00.000000135,0,2010-03-09 07:51:00 UTC,-73.968095,40.768008,-73.956655,40.783762,1
2012-01-04 17:22:00.00000081,10,2012-01-04 17:22:00 UTC,-73.98,40.76,-73.95,40.78,0
`

const rawTest = `key,pickup_datetime,pickup_longitude,pickup_latitude,dropoff_longitude,dropoff_latitude,passenger_count
2015-01-27 13:08:24.0000002,2015-01-27 13:08:24 UTC,-73.97332,40.763805,-73.98143,40.743835,1
2015-01-27 13:08:24.0000003,2015-01-27 13:08:24 UTC,-73.986862,40.719383,,,1
`

const runConfig = `schemaVersion: "1.0.0"
name: cli-test
mode: preserve
cleanDir: clean
datasets:
  - name: train
    source: raw/train.csv
    pipeline: training
  - name: test
    source: raw/test.csv
    pipeline: inference
split:
  dataset: train
  outputDir: to_train
logging:
  level: warn
`

// testWorkspace writes raw inputs and a run configuration into a temp dir.
func testWorkspace(t *testing.T, cfg string) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "raw"), 0o755))
	files := map[string]string{
		filepath.Join("raw", "train.csv"): rawTrain,
		filepath.Join("raw", "test.csv"):  rawTest,
		"run.yaml":                        cfg,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir, filepath.Join(dir, "run.yaml")
}

// runCLI runs the CLI in-process and returns stdout, stderr, and exit code
func runCLI(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	var stdoutBuf, stderrBuf bytes.Buffer
	exitCode = execute(context.Background(), args, &stdoutBuf, &stderrBuf)
	return stdoutBuf.String(), stderrBuf.String(), exitCode
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCLI_Help(t *testing.T) {
	stdout, _, exitCode := runCLI(t, "--help")

	assert.Equal(t, ExitSuccess, exitCode)
	for _, want := range []string{"fareprep", "validate", "clean", "split", "run"} {
		assert.Contains(t, stdout, want)
	}
}

func TestCLI_ValidateValid(t *testing.T) {
	_, configPath := testWorkspace(t, runConfig)
	stdout, stderr, exitCode := runCLI(t, "validate", "--verbose", configPath)

	require.Equal(t, ExitSuccess, exitCode, "stderr: %s", stderr)
	assert.Contains(t, stdout, "valid (format: yaml)")
	assert.Contains(t, stdout, "Run: cli-test", "verbose mode prints the summary")
}

func TestCLI_ValidateQuiet(t *testing.T) {
	_, configPath := testWorkspace(t, runConfig)
	stdout, _, exitCode := runCLI(t, "validate", "--quiet", configPath)

	assert.Equal(t, ExitSuccess, exitCode)
	assert.Empty(t, stdout, "quiet mode suppresses output")
}

func TestCLI_ValidateInvalidJSON(t *testing.T) {
	path := writeConfig(t, "run.json", `{"name": "x",`)
	_, stderr, exitCode := runCLI(t, "validate", path)

	assert.Equal(t, ExitParseError, exitCode)
	assert.Contains(t, stderr, "Parse errors")
}

func TestCLI_ValidateValidationErrors(t *testing.T) {
	path := writeConfig(t, "run.yaml", "schemaVersion: \"1.0.0\"\nname: x\n")
	_, stderr, exitCode := runCLI(t, "validate", path)

	assert.Equal(t, ExitValidationError, exitCode)
	assert.Contains(t, stderr, "Validation errors")
}

func TestCLI_ValidateSemanticError(t *testing.T) {
	content := strings.Replace(runConfig, "dataset: train", "dataset: test", 1)
	_, configPath := testWorkspace(t, content)
	_, stderr, exitCode := runCLI(t, "validate", configPath)

	assert.Equal(t, ExitValidationError, exitCode)
	assert.Contains(t, stderr, "training pipeline")
}

func TestCLI_ValidateNonExistent(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "validate", filepath.Join(t.TempDir(), "nonexistent.json"))

	assert.Equal(t, ExitParseError, exitCode)
	assert.Contains(t, stderr, "Parse errors")
}

func TestCLI_ValidateMissingArg(t *testing.T) {
	_, stderr, exitCode := runCLI(t, "validate")

	assert.NotEqual(t, ExitSuccess, exitCode)
	assert.Contains(t, stderr, "accepts 1 arg")
}

func TestCLI_Run(t *testing.T) {
	dir, configPath := testWorkspace(t, runConfig)
	stdout, stderr, exitCode := runCLI(t, "run", configPath)

	require.Equal(t, ExitSuccess, exitCode, "stderr: %s", stderr)
	for _, want := range []string{"train cleaned", "test cleaned", "Dataset partitioned", "Train rows: 2", "Test rows: 1"} {
		assert.Contains(t, stdout, want)
	}

	for _, name := range []string{"train.parquet", "test.parquet", "train.manifest.json", "test.manifest.json"} {
		assert.FileExists(t, filepath.Join(dir, "clean", name))
	}
	for _, name := range []string{partition.FileXTrain, partition.FileYTrain, partition.FileXTest, partition.FileYTest} {
		assert.FileExists(t, filepath.Join(dir, "to_train", name))
	}

	// preserve mode keeps existing artifacts
	stdout, _, exitCode = runCLI(t, "clean", configPath)
	require.Equal(t, ExitSuccess, exitCode)
	assert.Contains(t, stdout, "train skipped")
	assert.Contains(t, stdout, "test skipped")

	stdout, _, exitCode = runCLI(t, "clean", "--mode", "overwrite", configPath)
	require.Equal(t, ExitSuccess, exitCode)
	assert.NotContains(t, stdout, "skipped", "overwrite mode must recompute")
}

func TestCLI_SplitOverrides(t *testing.T) {
	dir, configPath := testWorkspace(t, runConfig)
	_, stderr, exitCode := runCLI(t, "clean", configPath)
	require.Equal(t, ExitSuccess, exitCode, "clean failed: %s", stderr)

	stdout, stderr, exitCode := runCLI(t, "split", "--limit", "2", "--train-fraction", "0.5", "--seed", "1", configPath)
	require.Equal(t, ExitSuccess, exitCode, "stderr: %s", stderr)
	assert.Contains(t, stdout, "Train rows: 1")
	assert.Contains(t, stdout, "Test rows: 1")
	assert.FileExists(t, filepath.Join(dir, "to_train", partition.FileYTest))

	_, _, exitCode = runCLI(t, "split", "--train-fraction", "1.5", configPath)
	assert.Equal(t, ExitValidationError, exitCode, "invalid fraction")
}

func TestCLI_SplitWithoutArtifact(t *testing.T) {
	_, configPath := testWorkspace(t, runConfig)
	_, stderr, exitCode := runCLI(t, "split", configPath)

	assert.Equal(t, ExitRuntimeError, exitCode)
	assert.Contains(t, stderr, "Split failed")
}

func TestCLI_CleanMissingSource(t *testing.T) {
	content := strings.Replace(runConfig, "raw/test.csv", "raw/missing.csv", 1)
	_, configPath := testWorkspace(t, content)
	stdout, stderr, exitCode := runCLI(t, "clean", configPath)

	assert.Equal(t, ExitRuntimeError, exitCode)
	assert.Contains(t, stdout, "train cleaned", "datasets before the failure are still cleaned")
	assert.Contains(t, stderr, "Cleaning test failed")
}

func TestCLI_InvalidModeFlag(t *testing.T) {
	_, configPath := testWorkspace(t, runConfig)
	_, _, exitCode := runCLI(t, "clean", "--mode", "sometimes", configPath)

	assert.Equal(t, ExitValidationError, exitCode)
}

func TestCLI_Version(t *testing.T) {
	stdout, stderr, exitCode := runCLI(t, "version")

	assert.Equal(t, ExitSuccess, exitCode, "stderr: %s", stderr)
	for _, want := range []string{"Version: dev", "Commit:", "Build Date:"} {
		assert.Contains(t, stdout, want)
	}
}
