package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const casesDir = "testdata/cases"

// TestCases runs every case file against its golden dump.
//
// Regenerate the golden files with:
//
//	go test ./internal/harness -run TestCases -update
func TestCases(t *testing.T) {
	files, err := FindCases(casesDir, "")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		c, err := LoadCase(file)
		require.NoError(t, err, file)

		t.Run(c.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, c, filepath.Join(casesDir, GoldenDir))
			require.NoError(t, err)
			assert.True(t, result.Pass, "case failed: %v", result.Errors)
		})
	}
}

func TestCaseGoldenPath(t *testing.T) {
	c, err := LoadCase(filepath.Join(casesDir, "for_loop.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "for_loop", c.GoldenName())
	assert.Equal(t, filepath.Join(casesDir, "golden", "for_loop.golden"), c.GoldenPath())

	inline := &Case{Name: "inline"}
	assert.Equal(t, "inline", inline.GoldenName())
}

func TestSnapshot(t *testing.T) {
	ok := &Result{Dump: "Template(body=[])"}
	assert.Equal(t, "Template(body=[])\n", string(ok.Snapshot()))

	c := &Case{
		Name:        "bad",
		Description: "bad",
		CST:         map[string]any{"type": "variable", "name": map[string]any{"mystery": true}},
	}
	failed, err := Run(c)
	require.NoError(t, err)
	assert.Equal(t, "error: unsupported-expression: expression: no recognized shape in keys [mystery]\n", string(failed.Snapshot()))
}
