package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/tplir/internal/compiler"
	"github.com/roach88/tplir/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // case filter (glob pattern)
}

// CaseResult holds the result of a single case.
type CaseResult struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Cases  []CaseResult `json:"cases"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Total  int          `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <cases-dir>",
		Short: "Run lowering cases",
		Long: `Run lowering cases with the harness.

Each YAML case is lowered, checked against its expectations and the IR
invariants, and compared with its golden dump in <cases-dir>/golden.

Exit codes:
  0 - All cases passed
  1 - One or more cases failed
  2 - Command error (invalid paths, etc.)

Examples:
  tplir test ./cases
  tplir test ./cases --filter "for_*"
  tplir test ./cases --update
  tplir test ./cases --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter cases by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, casesDir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	if _, err := os.Stat(casesDir); errors.Is(err, fs.ErrNotExist) {
		return NewExitError(ExitCommandError, fmt.Sprintf("cases directory not found: %s", casesDir))
	}

	files, err := harness.FindCases(casesDir, opts.Filter)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to find cases", err)
	}

	result := TestResult{
		Cases: make([]CaseResult, 0, len(files)),
		Total: len(files),
	}

	if len(files) == 0 {
		if opts.Format == "json" {
			return outputTestJSON(formatter, result)
		}
		fmt.Fprintln(formatter.Writer, "No cases found.")
		return nil
	}

	compilerOpts := opts.compilerOptions(formatter.GetErrWriter())
	for _, file := range files {
		formatter.VerboseLog("Running %s", file)
		caseResult := runCase(file, opts, compilerOpts)
		if opts.Format != "json" {
			printCaseResult(formatter, caseResult, opts.Update)
		}

		result.Cases = append(result.Cases, caseResult)
		if caseResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	if opts.Format == "json" {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, result)
}

// runCase loads, runs and golden-compares a single case file.
func runCase(file string, opts *TestOptions, compilerOpts []compiler.Option) CaseResult {
	c, err := harness.LoadCase(file)
	if err != nil {
		return CaseResult{
			Name:   filepath.Base(file),
			Errors: []string{fmt.Sprintf("failed to load case: %v", err)},
		}
	}

	result, err := harness.Run(c, compilerOpts...)
	if err != nil {
		return CaseResult{
			Name:   c.Name,
			Errors: []string{fmt.Sprintf("execution failed: %v", err)},
		}
	}

	if opts.Update {
		if err := writeGolden(c.GoldenPath(), result.Snapshot()); err != nil {
			return CaseResult{
				Name:   c.Name,
				Errors: []string{fmt.Sprintf("failed to update golden file: %v", err)},
			}
		}
		return CaseResult{Name: c.Name, Pass: result.Pass, Errors: result.Errors}
	}

	golden, err := os.ReadFile(c.GoldenPath())
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// No golden file: expectations alone decide.
	case err != nil:
		result.AddError(fmt.Sprintf("golden comparison failed: %v", err))
	case !bytes.Equal(golden, result.Snapshot()):
		result.AddError("IR does not match golden file (run with --update to regenerate)")
	}

	return CaseResult{Name: c.Name, Pass: result.Pass, Errors: result.Errors}
}

// writeGolden writes a snapshot, creating the golden directory as needed.
func writeGolden(path string, snapshot []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, snapshot, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

func printCaseResult(formatter *OutputFormatter, r CaseResult, updated bool) {
	w := formatter.Writer
	if r.Pass {
		if updated {
			fmt.Fprintf(w, "✓ %s (golden updated)\n", r.Name)
		} else {
			fmt.Fprintf(w, "✓ %s\n", r.Name)
		}
		return
	}
	fmt.Fprintf(w, "✗ %s\n", r.Name)
	for _, e := range r.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	response := CLIResponse{Status: "ok", Data: result}
	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "E_TEST_FAILED",
			Message: fmt.Sprintf("%d case(s) failed", result.Failed),
		}
	}

	if err := formatter.writeJSON(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d case(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test summary as text.
func outputTestText(formatter *OutputFormatter, result TestResult) error {
	w := formatter.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d case(s) failed", result.Failed))
	}

	fmt.Fprintln(w, "✓ All cases passed")
	return nil
}
