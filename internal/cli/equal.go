package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// EqualOptions holds flags for the equal command.
type EqualOptions struct {
	*RootOptions
	RaceOptions
}

// EqualResult is the answer to a word problem.
type EqualResult struct {
	Left   string `json:"left"`
	Right  string `json:"right"`
	Equal  bool   `json:"equal"`
	Winner string `json:"winner"`
	RunID  string `json:"run_id"`
}

// NewEqualCommand creates the equal command.
func NewEqualCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EqualOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "equal <presentation> <u> <v>",
		Short: "Decide whether two words are equal in the quotient",
		Long: `Decide whether two words represent the same element of the semigroup
defined by a presentation.

Exit codes:
  0 - Decided (equal or not)
  1 - No strategy finished within the budget
  2 - Command error (bad file, bad word, etc.)

Examples:
  semirace equal klein.yaml abaa b
  semirace equal klein.yaml ab ba --format json`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEqual(opts, args[0], args[1], args[2], cmd)
		},
	}

	addRaceFlags(cmd, &opts.RaceOptions)

	return cmd
}

func runEqual(opts *EqualOptions, path, left, right string, cmd *cobra.Command) (err error) {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, formatter.GetErrWriter())
	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	s, err := openSession(ctx, formatter, path, &opts.RaceOptions, logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = WrapExitError(ExitCommandError, "failed to close session", cerr)
		}
	}()

	u, err := s.parseWord(formatter, left)
	if err != nil {
		return err
	}
	v, err := s.parseWord(formatter, right)
	if err != nil {
		return err
	}
	if err := s.run(ctx, formatter); err != nil {
		return err
	}
	eq, err := s.c.Equal(ctx, u, v)
	if err != nil {
		return formatter.Fail("failed to compare words", err)
	}

	result := EqualResult{
		Left:   s.p.Alphabet.Format(u),
		Right:  s.p.Alphabet.Format(v),
		Equal:  eq,
		Winner: s.c.Winner(),
		RunID:  s.c.RunID(),
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	op := "!="
	if eq {
		op = "="
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", result.Left, op, result.Right)
	formatter.VerboseLog("decided by %s", result.Winner)
	return nil
}
