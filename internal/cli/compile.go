package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/tplir/internal/compiler"
	"github.com/roach88/tplir/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
	Input  string // input format override
}

// CompilationResult describes one lowered template.
type CompilationResult struct {
	Source          string          `json:"source"`
	TemplateID      string          `json:"template_id"`
	Hash            string          `json:"hash"`
	IRVersion       string          `json:"ir_version"`
	CompilerVersion string          `json:"compiler_version"`
	Nodes           map[string]int  `json:"nodes"`
	IR              json.RawMessage `json:"ir"`

	dump string
}

// CompileErrorDetails is the JSON detail payload of a lowering error.
type CompileErrorDetails struct {
	Kind  string `json:"kind"`
	Field string `json:"field"`
	Line  int    `json:"line,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <cst-file>",
		Short: "Lower a template CST to canonical IR",
		Long: `Lower a template concrete syntax tree to canonical IR.

The CST file is JSON, YAML or CUE; the format follows the file extension
unless --input is given. A CUE file may hold the tree under a top-level
"cst" field.

Examples:
  tplir compile page.json
  tplir compile page.cue -o page.ir.json
  tplir compile page.txt --input yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write canonical IR JSON to this file")
	cmd.Flags().StringVar(&opts.Input, "input", "", "input format (json|yaml|cue)")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	root, err := LoadCST(path, opts.Input)
	if err != nil {
		code, message := parseError(err)
		return outputCompileError(formatter, code, message, nil)
	}
	formatter.VerboseLog("Loaded CST from %s", path)

	tmpl, err := compiler.CompileTemplate(root, opts.compilerOptions(formatter.GetErrWriter())...)
	if err != nil {
		code, message := parseError(err)
		return outputCompileError(formatter, code, message, compileErrorDetails(err))
	}

	result, err := buildResult(path, tmpl)
	if err != nil {
		return outputCompileError(formatter, ErrCodeGeneric, err.Error(), nil)
	}
	formatter.VerboseLog("Lowered %d node(s), hash %s", totalNodes(result.Nodes), result.Hash)

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, result.IR, 0644); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

// buildResult derives the canonical form, hash and ID of a template.
func buildResult(source string, tmpl *ir.Template) (*CompilationResult, error) {
	canonical, err := ir.MarshalCanonical(tmpl)
	if err != nil {
		return nil, fmt.Errorf("marshaling IR: %w", err)
	}
	hash, err := ir.TemplateHash(tmpl)
	if err != nil {
		return nil, err
	}
	id, err := ir.TemplateID(tmpl)
	if err != nil {
		return nil, err
	}

	return &CompilationResult{
		Source:          source,
		TemplateID:      id.String(),
		Hash:            hash,
		IRVersion:       ir.IRVersion,
		CompilerVersion: ir.CompilerVersion,
		Nodes:           ir.Count(tmpl),
		IR:              canonical,
		dump:            ir.Dump(tmpl),
	}, nil
}

// compileErrorDetails returns the details of a lowering error, or nil.
func compileErrorDetails(err error) any {
	var cerr *compiler.CompileError
	if !errors.As(err, &cerr) {
		return nil
	}
	return &CompileErrorDetails{Kind: string(cerr.Kind), Field: cerr.Field, Line: cerr.Line}
}

func totalNodes(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

// outputCompileSuccess outputs a successful lowering.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "✓ Lowered %s: %d node(s)\n\n", result.Source, totalNodes(result.Nodes))
	fmt.Fprintf(w, "  template id: %s\n", result.TemplateID)
	fmt.Fprintf(w, "  hash:        %s\n\n", result.Hash)

	fmt.Fprintln(w, "Nodes:")
	for _, kind := range slices.Sorted(maps.Keys(result.Nodes)) {
		fmt.Fprintf(w, "  %s: %d\n", kind, result.Nodes[kind])
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "IR:")
	fmt.Fprintf(w, "  %s\n", result.dump)

	if outputFile != "" {
		fmt.Fprintf(w, "\nWrote canonical IR to %s\n", outputFile)
	}
	return nil
}

// outputCompileError outputs a load or lowering error. Both are
// command-level errors (exit code 2).
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}
