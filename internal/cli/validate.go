package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/roach88/semirace/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <presentation>",
		Short: "Validate a presentation without running anything",
		Long: `Validate a YAML or CUE presentation file.

Checks syntax, the schema and the alphabet and relations, reporting every
problem found rather than stopping at the first.

Exit codes:
  0 - Presentation is valid
  1 - Presentation is invalid
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	src, err := compiler.DecodeFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return outputValidateError(formatter, ErrCodeLoad, err.Error(), nil)
	}
	var validationErrors []compiler.ValidationError
	if err != nil {
		validationErrors = append(validationErrors, decodeError(err))
	} else {
		formatter.VerboseLog("Decoded %s: %d relations, %d extra pairs", path, len(src.Relations), len(src.Extra))
		validationErrors = compiler.Validate(src)
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}
	return outputValidateSuccess(formatter)
}

// decodeError turns a syntax or schema error into a ValidationError,
// keeping the line when the decoder knows it.
func decodeError(err error) compiler.ValidationError {
	var cErr *compiler.CompileError
	if errors.As(err, &cErr) {
		line := 0
		if cErr.Pos.IsValid() {
			line = cErr.Pos.Line()
		}
		return compiler.ValidationError{
			Field:   cErr.Field,
			Message: cErr.Message,
			Code:    ErrCodeLoad,
			Line:    line,
		}
	}
	return compiler.ValidationError{
		Field:   "presentation",
		Message: err.Error(),
		Code:    ErrCodeLoad,
	}
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter) error {
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true})
	}

	fmt.Fprintln(formatter.Writer, "✓ Presentation valid")
	return nil
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	_ = formatter.Error(code, message, details)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []compiler.ValidationError) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data: ValidationResult{
				Valid:  false,
				Errors: errs,
			},
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
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

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
