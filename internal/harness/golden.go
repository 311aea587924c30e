package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Golden file layout relative to a cases directory.
const (
	GoldenDir    = "golden"
	GoldenSuffix = ".golden"
)

// RunWithGolden runs a case and compares its snapshot against the golden
// file in <case dir>/golden/<name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the case cannot be run. Test failure (via goldie)
// occurs if the snapshot doesn't match the golden file.
func RunWithGolden(t *testing.T, c *Case, fixtureDir string) (*Result, error) {
	t.Helper()

	result, err := Run(c)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, fixtureDir, c.GoldenName(), result)
	return result, nil
}

// AssertGolden compares a result's snapshot against a golden file without
// re-running the case.
func AssertGolden(t *testing.T, fixtureDir, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir(fixtureDir),
		goldie.WithNameSuffix(GoldenSuffix),
	)
	g.Assert(t, name, result.Snapshot())
}
