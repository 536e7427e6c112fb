package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/semirace/internal/harness"
)

// SolveOptions holds flags for the solve command.
type SolveOptions struct {
	*RootOptions
	RaceOptions
	Relations bool // also print the complete rewriting system
}

// SolveResult is the outcome of a decided race.
type SolveResult struct {
	Presentation string              `json:"presentation"`
	RunID        string              `json:"run_id"`
	Winner       string              `json:"winner"`
	NrClasses    int                 `json:"nr_classes"`
	Classes      []harness.WordClass `json:"classes"`
	Relations    []string            `json:"relations,omitempty"`
}

// NewSolveCommand creates the solve command.
func NewSolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "solve <presentation> [word...]",
		Short: "Race the strategies and report the quotient",
		Long: `Race Todd-Coxeter against Knuth-Bendix on a presentation and report
the winner, the number of classes and the class index of each word.

Class indices follow the shortlex order of least class representatives,
so they do not depend on which strategy won.

Exit codes:
  0 - A strategy finished
  1 - No strategy finished within the budget
  2 - Command error (bad file, bad word, etc.)

Examples:
  semirace solve klein.yaml
  semirace solve klein.yaml abab bab --relations
  semirace solve braid.yaml --timeout 5s --max-rules 200
  semirace solve klein.cue --db races.db --metrics semirace.prom`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(opts, args[0], args[1:], cmd)
		},
	}

	addRaceFlags(cmd, &opts.RaceOptions)
	cmd.Flags().BoolVar(&opts.Relations, "relations", false, "print the complete rewriting system of the quotient")

	return cmd
}

func runSolve(opts *SolveOptions, path string, words []string, cmd *cobra.Command) (err error) {
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

	if err := s.run(ctx, formatter); err != nil {
		return err
	}

	result := SolveResult{
		Presentation: s.p.Name,
		RunID:        s.c.RunID(),
		Winner:       s.c.Winner(),
		Classes:      []harness.WordClass{},
	}
	if result.NrClasses, err = s.c.NrClasses(ctx); err != nil {
		return formatter.Fail("failed to count classes", err)
	}
	for _, arg := range words {
		w, err := s.parseWord(formatter, arg)
		if err != nil {
			return err
		}
		i, err := s.c.ClassIndex(ctx, w)
		if err != nil {
			return formatter.Fail("failed to index word", err)
		}
		result.Classes = append(result.Classes, harness.WordClass{Word: s.p.Alphabet.Format(w), Index: i})
	}
	if opts.Relations {
		rules, err := s.c.Relations(ctx)
		if err != nil {
			return formatter.Fail("failed to read relations", err)
		}
		result.Relations = harness.FormatRules(s.p.Alphabet, rules)
	}

	if opts.Format == "json" {
		return formatter.Success(result)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Presentation: %s\n", result.Presentation)
	fmt.Fprintf(w, "Winner: %s\n", result.Winner)
	fmt.Fprintf(w, "Classes: %d\n", result.NrClasses)
	for _, c := range result.Classes {
		fmt.Fprintf(w, "  %s -> %d\n", c.Word, c.Index)
	}
	if opts.Relations {
		fmt.Fprintln(w, "Relations:")
		for _, r := range result.Relations {
			fmt.Fprintf(w, "  %s\n", r)
		}
	}
	return nil
}
