package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// casesDir holds the harness cases and their golden dumps.
var casesDir = filepath.Join("..", "harness", "testdata", "cases")

const helloCase = `name: hello
description: "Text around a printed variable merges into a single Output"
cst:
  - "Hello "
  - type: variable
    name: { variable: name, accessors: [], filters: [], parseinfo: { line: 0 } }
    parseinfo: { line: 0 }
  - "!"
expect:
  body: [Output]
`

const wrongBodyCase = `name: wrong_body
description: "Expects a For where the template only prints"
cst:
  - type: variable
    name: { variable: name }
expect:
  body: [For]
`

func writeCase(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentDir(t *testing.T) {
	_, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), "/nonexistent/cases")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "cases directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No cases found.")
}

func TestTestCommandEmptyDirJSON(t *testing.T) {
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "json"}), t.TempDir())
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Total)
}

func TestTestCommandHarnessCases(t *testing.T) {
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), casesDir)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ hello\n")
	assert.Contains(t, out, "✓ bad_loop_header\n")
	assert.Contains(t, out, "Test Summary: 12 passed, 0 failed, 12 total")
	assert.Contains(t, out, "✓ All cases passed")
}

func TestTestCommandFilterJSON(t *testing.T) {
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "json"}), casesDir, "--filter", "for_*")
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, TestResult{
		Cases:  []CaseResult{{Name: "for_loop", Pass: true}},
		Passed: 1,
		Total:  1,
	}, resp.Data)
}

func TestTestCommandFailingCase(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "hello.yaml", helloCase)
	writeCase(t, dir, "wrong_body.yaml", wrongBodyCase)

	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✓ hello\n")
	assert.Contains(t, out, "✗ wrong_body\n")
	assert.Contains(t, out, "  body: expected [For], got [Output]")
	assert.Contains(t, out, "Test Summary: 1 passed, 1 failed, 2 total")
}

func TestTestCommandFailingCaseJSON(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "wrong_body.yaml", wrongBodyCase)

	out, _, err := execute(NewTestCommand(&RootOptions{Format: "json"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_TEST_FAILED", resp.Error.Code)
	assert.Equal(t, "1 case(s) failed", resp.Error.Message)
}

func TestTestCommandUnloadableCase(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "broken.yaml", "name: broken\n")

	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Contains(t, out, "✗ broken.yaml\n")
	assert.Contains(t, out, "failed to load case")
}

func TestTestCommandGolden(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "hello.yaml", helloCase)
	goldenPath := filepath.Join(dir, "golden", "hello.golden")

	// --update creates the golden directory and file.
	out, _, err := execute(NewTestCommand(&RootOptions{Format: "text"}), dir, "--update")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ hello (golden updated)")

	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Equal(t, helloDump+"\n", string(golden))

	// A matching golden passes.
	_, _, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.NoError(t, err)

	// A stale golden fails.
	require.NoError(t, os.WriteFile(goldenPath, []byte("Template(body=[])\n"), 0644))
	out, _, err = execute(NewTestCommand(&RootOptions{Format: "text"}), dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "IR does not match golden file (run with --update to regenerate)")
}

func TestTestCommandVerbose(t *testing.T) {
	dir := t.TempDir()
	writeCase(t, dir, "hello.yaml", helloCase)

	_, errOut, err := execute(NewTestCommand(&RootOptions{Format: "text", Verbose: true}), dir)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Running "+filepath.Join(dir, "hello.yaml"))
}
