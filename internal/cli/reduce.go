package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/semirace/internal/ir"
)

// ReduceOptions holds flags for the reduce command.
type ReduceOptions struct {
	*RootOptions
	RaceOptions
}

// NormalForm pairs a word with its normal form.
type NormalForm struct {
	Word       string `json:"word"`
	NormalForm string `json:"normal_form"`
}

// ReduceResult holds the normal forms of the requested words.
type ReduceResult struct {
	Presentation string       `json:"presentation"`
	Order        string       `json:"order"`
	Words        []NormalForm `json:"words"`
}

// NewReduceCommand creates the reduce command.
func NewReduceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReduceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reduce <presentation> <word>...",
		Short: "Rewrite words to normal form",
		Long: `Complete the presentation with Knuth-Bendix and rewrite each word to
its normal form, the least word of its class under the chosen order.

Examples:
  semirace reduce klein.yaml abab bbb
  semirace reduce klein.yaml abab --order recursive-path --format json`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReduce(opts, args[0], args[1:], cmd)
		},
	}

	addCompletionFlags(cmd, &opts.RaceOptions)

	return cmd
}

func runReduce(opts *ReduceOptions, path string, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, formatter.GetErrWriter())
	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	p, err := loadPresentation(formatter, path)
	if err != nil {
		return err
	}
	parsed := make([]ir.Word, len(args))
	for i, arg := range args {
		if parsed[i], err = parseWord(formatter, p.Alphabet, arg); err != nil {
			return err
		}
	}

	kb, err := complete(ctx, formatter, p, &opts.RaceOptions, logger)
	if err != nil {
		return err
	}
	sys := kb.System()
	words := make([]NormalForm, len(parsed))
	for i, w := range parsed {
		nf, err := sys.Rewrite(w)
		if err != nil {
			return formatter.Fail("failed to rewrite word", err)
		}
		words[i] = NormalForm{Word: p.Alphabet.Format(w), NormalForm: p.Alphabet.Format(nf)}
	}

	result := ReduceResult{
		Presentation: p.Name,
		Order:        sys.Order().Name(),
		Words:        words,
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	w := cmd.OutOrStdout()
	for _, nf := range result.Words {
		fmt.Fprintf(w, "%s -> %s\n", nf.Word, nf.NormalForm)
	}
	return nil
}
