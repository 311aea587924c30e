package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tplir/internal/compiler"
	"github.com/roach88/tplir/internal/cst"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Input string // input format override
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <cst-file>",
		Short: "Lower a CST and check the IR invariants",
		Long: `Lower a template CST and check the result without writing any output.

A lowering error, a broken IR invariant (adjacent outputs, unwrapped
filters, arity mismatches, ...) or a node shared by two parents is
reported as a validation failure.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Input, "input", "", "input format (json|yaml|cue)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	root, err := LoadCST(path, opts.Input)
	if err != nil {
		code, message := parseError(err)
		return outputValidateError(formatter, code, message, nil)
	}
	formatter.VerboseLog("Loaded CST from %s", path)

	validationErrors, err := validateCST(root, opts.compilerOptions(formatter.GetErrWriter())...)
	if err != nil {
		return outputValidateError(formatter, ErrCodeGeneric, err.Error(), nil)
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}
	return outputValidateSuccess(formatter)
}

// validateCST lowers root and collects every problem as a ValidationError.
// A lowering error is reported as a single entry; otherwise the invariant
// and ownership checks run on the result.
func validateCST(root cst.Node, opts ...compiler.Option) ([]compiler.ValidationError, error) {
	tmpl, err := compiler.CompileTemplate(root, opts...)
	if err != nil {
		var cerr *compiler.CompileError
		if !errors.As(err, &cerr) {
			return nil, err
		}
		return []compiler.ValidationError{{
			Field:   cerr.Field,
			Message: cerr.Message,
			Code:    MapKindToErrorCode(cerr.Kind),
			Line:    cerr.Line,
		}}, nil
	}

	errs := compiler.Validate(tmpl)
	for _, v := range compiler.CheckOwnership(tmpl) {
		errs = append(errs, v.AsValidationError())
	}
	return errs, nil
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintln(formatter.Writer, "✓ Template valid")
	return nil
}

// outputValidateError outputs an error that stopped validation before it
// ran. These are command-level errors (exit code 2).
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs validation findings (exit code 1).
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}
		if err := formatter.writeJSON(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
