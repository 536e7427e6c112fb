package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/semirace/internal/compiler"
	"github.com/roach88/semirace/internal/harness"
	"github.com/roach88/semirace/internal/ir"
	"github.com/roach88/semirace/internal/rws"
)

// CompleteOptions holds flags for the complete command.
type CompleteOptions struct {
	*RootOptions
	RaceOptions
	Output string // write the complete system as a YAML presentation
}

// CompleteResult is a confluent rewriting system.
type CompleteResult struct {
	Presentation string    `json:"presentation"`
	Order        string    `json:"order"`
	Rules        []string  `json:"rules"`
	Stats        rws.Stats `json:"stats"`
}

// NewCompleteCommand creates the complete command.
func NewCompleteCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompleteOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "complete <presentation>",
		Short: "Run Knuth-Bendix completion alone",
		Long: `Complete the relations of a presentation into a confluent rewriting
system with Knuth-Bendix, without racing. Unlike solve this also works
for infinite semigroups that have a finite complete system.

The rules are printed in the order completion found them, oriented by
the chosen reduction order.

Examples:
  semirace complete klein.yaml
  semirace complete free-commutative.yaml --order recursive-path
  semirace complete klein.yaml -o klein-complete.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runComplete(opts, args[0], cmd)
		},
	}

	addCompletionFlags(cmd, &opts.RaceOptions)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the complete system as a YAML presentation")

	return cmd
}

func runComplete(opts *CompleteOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, formatter.GetErrWriter())
	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	p, err := loadPresentation(formatter, path)
	if err != nil {
		return err
	}
	kb, err := complete(ctx, formatter, p, &opts.RaceOptions, logger)
	if err != nil {
		return err
	}
	sys := kb.System()
	rules := sys.Rules()

	if opts.Output != "" {
		out := &ir.Presentation{
			Name:      p.Name + "-complete",
			Alphabet:  p.Alphabet,
			Relations: make([]ir.Relation, len(rules)),
		}
		for i, r := range rules {
			out.Relations[i] = ir.NewRelation(r.LHS, r.RHS)
		}
		data, err := compiler.EncodeYAML(out)
		if err != nil {
			return formatter.Fail("failed to encode system", err)
		}
		if err := os.WriteFile(opts.Output, data, 0644); err != nil {
			return WrapExitError(ExitCommandError, "failed to write output file", err)
		}
		formatter.VerboseLog("Wrote %d rules to %s", len(rules), opts.Output)
	}

	result := CompleteResult{
		Presentation: p.Name,
		Order:        sys.Order().Name(),
		Rules:        harness.FormatRules(p.Alphabet, rules),
		Stats:        kb.Stats(),
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "✓ %s complete (%s, %d rules)\n", result.Presentation, result.Order, len(result.Rules))
	for _, r := range result.Rules {
		fmt.Fprintf(w, "  %s\n", r)
	}
	formatter.VerboseLog("%d critical pairs, %d overlaps, %d rules added",
		result.Stats.PairsProcessed, result.Stats.Overlaps, result.Stats.RulesAdded)
	return nil
}

// complete runs Knuth-Bendix on p's relations and extra pairs until the
// system is confluent. Anything short of that is reported through f.
func complete(ctx context.Context, f *OutputFormatter, p *ir.Presentation, o *RaceOptions, logger *slog.Logger) (*rws.KnuthBendix, error) {
	order, err := o.order()
	if err != nil {
		return nil, f.Fail("invalid --order", err)
	}
	sys := rws.New(p.NrGenerators(), rws.WithOrder(order))
	if err := sys.AddRelations(p.AllRelations()); err != nil {
		return nil, f.Fail("failed to orient relations", err)
	}
	kb := rws.NewKnuthBendix(sys,
		rws.WithMaxRules(o.MaxRules),
		rws.WithMaxOverlapLength(o.MaxOverlap),
		rws.WithCompletionLogger(logger),
	)

	if o.Timeout > 0 {
		err = kb.RunFor(ctx, o.Timeout)
	} else {
		err = kb.Run(ctx)
	}
	if err != nil {
		return nil, f.Fail("completion failed", err)
	}
	if !kb.Finished() {
		return nil, f.Fail("completion failed", ir.NewIncompleteError(
			fmt.Sprintf("knuth-bendix %s with %d rules", kb.Reason(), sys.NrRules()), nil))
	}
	return kb, nil
}
