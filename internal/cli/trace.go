package cli

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/semirace/internal/race"
	"github.com/roach88/semirace/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Runner   string // optional - filter events to one runner
}

// RaceSummary lists recorded races and how often each runner won.
type RaceSummary struct {
	Races []store.Race `json:"races"`
	Wins  []WinCount   `json:"wins"`
}

// WinCount is one runner's number of wins.
type WinCount struct {
	Runner string `json:"runner"`
	Wins   int    `json:"wins"`
}

// TraceResult holds one race and its event timeline.
type TraceResult struct {
	Race     store.Race   `json:"race"`
	Timeline []race.Event `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for a race.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	Stops       map[string]int `json:"stops"` // runner_stopped events per runner
	IsFinished  bool           `json:"is_finished"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace [run-id]",
		Short: "Inspect recorded races",
		Long: `Inspect races recorded with --db by solve or equal.

Without a run ID, lists every recorded race in order together with how
many races each runner has won. With a run ID, shows the race and its
lifecycle events: start, every runner invocation that returned, the
winner claim and the finish.

Examples:
  semirace trace --db ./races.db
  semirace trace --db ./races.db 0192f1c4-...
  semirace trace --db ./races.db 0192f1c4-... --runner knuth-bendix --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return runTraceList(opts, cmd)
			}
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Runner, "runner", "", "filter events to one runner")

	return cmd
}

func openTraceStore(opts *TraceOptions) (*store.Store, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runTraceList(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openTraceStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	races, err := st.ReadRaces(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read races", err)
	}
	counts, err := st.WinCounts(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read win counts", err)
	}

	summary := RaceSummary{Races: races, Wins: []WinCount{}}
	for name, n := range counts {
		summary.Wins = append(summary.Wins, WinCount{Runner: name, Wins: n})
	}
	slices.SortFunc(summary.Wins, func(a, b WinCount) int {
		if a.Wins != b.Wins {
			return b.Wins - a.Wins
		}
		return cmp.Compare(a.Runner, b.Runner)
	})

	if opts.Format == "json" {
		return outputTraceJSON(cmd, summary)
	}

	w := cmd.OutOrStdout()
	if len(races) == 0 {
		fmt.Fprintln(w, "No races recorded.")
		return nil
	}
	fmt.Fprintln(w, "=== Races ===")
	for _, r := range races {
		winner := r.Winner
		if winner == "" {
			winner = "-"
		}
		fmt.Fprintf(w, "  [%d] %s %s %s %s winner=%s\n",
			r.Seq, r.ID, r.PresentationName, r.Mode, r.Outcome, winner)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Wins ===")
	if len(summary.Wins) == 0 {
		fmt.Fprintln(w, "  (no winners)")
	}
	for _, wc := range summary.Wins {
		fmt.Fprintf(w, "  %-14s %d\n", wc.Runner, wc.Wins)
	}
	return nil
}

func runTrace(opts *TraceOptions, runID string, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := openTraceStore(opts)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.ReadRace(ctx, runID)
	if errors.Is(err, store.ErrNotFound) {
		if opts.Format == "json" {
			return outputTraceJSON(cmd, TraceResult{
				Race:     store.Race{ID: runID},
				Timeline: []race.Event{},
				Stats:    TraceStats{Stops: map[string]int{}},
			})
		}
		fmt.Fprintf(cmd.OutOrStdout(), "No race found: %s\n", runID)
		return nil
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read race", err)
	}

	events, err := st.ReadEvents(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	result := TraceResult{
		Race:     rec,
		Timeline: buildTimeline(events, opts.Runner),
		Stats:    TraceStats{Stops: map[string]int{}},
	}
	for _, e := range events {
		switch e.Kind {
		case race.EventRunnerStopped:
			result.Stats.Stops[e.Runner]++
		case race.EventFinished:
			result.Stats.IsFinished = true
		}
	}
	result.Stats.TotalEvents = len(result.Timeline)

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}
	return outputTraceText(cmd, result, opts.Verbose)
}

// buildTimeline keeps every event when runnerFilter is empty. Otherwise
// it keeps the race-level events and those of the named runner.
func buildTimeline(events []race.Event, runnerFilter string) []race.Event {
	timeline := []race.Event{}
	for _, e := range events {
		raceLevel := e.Kind == race.EventStarted || e.Kind == race.EventFinished
		if runnerFilter != "" && !raceLevel && e.Runner != runnerFilter {
			continue
		}
		timeline = append(timeline, e)
	}
	return timeline
}

// outputTraceJSON outputs a trace payload as JSON.
func outputTraceJSON(cmd *cobra.Command, data any) error {
	response := CLIResponse{
		Status: "ok",
		Data:   data,
	}
	if r, ok := data.(TraceResult); ok {
		response.RunID = r.Race.ID
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace for Race: %s\n", result.Race.ID)
	fmt.Fprintf(w, "Presentation: %s (%s)\n", result.Race.PresentationName, truncateID(result.Race.PresentationHash))
	fmt.Fprintf(w, "Mode: %s\n", result.Race.Mode)
	fmt.Fprintf(w, "Outcome: %s\n", outcomeStatus(result.Race))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, e := range result.Timeline {
		formatTimelineEvent(w, e, verbose)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	runners := make([]string, 0, len(result.Stats.Stops))
	for name := range result.Stats.Stops {
		runners = append(runners, name)
	}
	slices.Sort(runners)
	for _, name := range runners {
		fmt.Fprintf(w, "  Stops (%s): %d\n", name, result.Stats.Stops[name])
	}
	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, e race.Event, verbose bool) {
	switch e.Kind {
	case race.EventStarted:
		fmt.Fprintf(w, "  [%d] START %s\n", e.Seq, e.State)
	case race.EventRunnerStopped:
		fmt.Fprintf(w, "  [%d] STOP %s %s\n", e.Seq, e.Runner, e.Reason)
		if verbose && e.State != "" {
			fmt.Fprintf(w, "       State: %s\n", e.State)
		}
	case race.EventWinner:
		fmt.Fprintf(w, "  [%d] WIN %s\n", e.Seq, e.Runner)
	case race.EventFinished:
		fmt.Fprintf(w, "  [%d] FINISH %s\n", e.Seq, e.Reason)
	default:
		fmt.Fprintf(w, "  [%d] %s %s\n", e.Seq, e.Kind, e.Runner)
	}
}

func outcomeStatus(r store.Race) string {
	switch {
	case r.Outcome == "":
		return "running (no finish recorded)"
	case r.Winner != "":
		return fmt.Sprintf("%s by %s", r.Outcome, r.Winner)
	default:
		return r.Outcome
	}
}

// truncateID shortens an ID for display.
func truncateID(id string) string {
	if len(id) > 12 {
		return id[:12] + "..."
	}
	return id
}
