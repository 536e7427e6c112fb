package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/semirace/internal/compiler"
	"github.com/roach88/semirace/internal/congruence"
	"github.com/roach88/semirace/internal/ir"
	"github.com/roach88/semirace/internal/metrics"
	"github.com/roach88/semirace/internal/race"
	"github.com/roach88/semirace/internal/rws"
	"github.com/roach88/semirace/internal/store"
)

// RaceOptions holds the flags shared by commands that race strategies.
type RaceOptions struct {
	Mode       string
	Strategies []string
	Order      string
	MaxThreads int
	MaxRules   int
	MaxOverlap int
	MaxCosets  int
	MaxClasses int
	Timeout    time.Duration
	Database   string // record race events here (optional)
	Metrics    string // write a Prometheus text file here (optional)
}

func addRaceFlags(cmd *cobra.Command, o *RaceOptions) {
	def := congruence.DefaultBudget()
	f := cmd.Flags()
	f.StringVar(&o.Mode, "mode", race.Parallel.String(), "race mode (parallel|sequential)")
	f.StringSliceVar(&o.Strategies, "strategies", congruence.Strategies, "strategies to race, in order")
	f.IntVar(&o.MaxThreads, "max-threads", 0, "runners executing at once in parallel mode (0 = one per runner)")
	f.IntVar(&o.MaxCosets, "max-cosets", def.MaxCosets, "cap on the coset table (0 = unlimited)")
	f.IntVar(&o.MaxClasses, "max-classes", def.MaxClasses, "cap on enumerated classes (0 = unlimited)")
	f.StringVar(&o.Database, "db", "", "record race events in this SQLite database")
	f.StringVar(&o.Metrics, "metrics", "", "write Prometheus metrics to this file after the run")
	addCompletionFlags(cmd, o)
}

// addCompletionFlags registers the flags that bound Knuth-Bendix. Commands
// that complete outside a race register only these.
func addCompletionFlags(cmd *cobra.Command, o *RaceOptions) {
	f := cmd.Flags()
	f.StringVar(&o.Order, "order", rws.ShortLex{}.Name(), "reduction order for Knuth-Bendix (shortlex|recursive-path)")
	f.IntVar(&o.MaxRules, "max-rules", rws.DefaultMaxRules, "cap on rewriting rules (0 = unlimited)")
	f.IntVar(&o.MaxOverlap, "max-overlap", 0, "skip critical pairs with longer overlaps (0 = unlimited)")
	f.DurationVar(&o.Timeout, "timeout", 0, "give up after this long (0 = no limit)")
}

func (o *RaceOptions) budget() congruence.Budget {
	return congruence.Budget{
		MaxRules:         o.MaxRules,
		MaxOverlapLength: o.MaxOverlap,
		MaxCosets:        o.MaxCosets,
		MaxClasses:       o.MaxClasses,
		Timeout:          o.Timeout,
	}
}

func (o *RaceOptions) order() (rws.Order, error) {
	order, ok := rws.OrderByName(o.Order)
	if !ok {
		return nil, ir.NewConfigurationError("unknown order %q (want shortlex or recursive-path)", o.Order)
	}
	return order, nil
}

// newLogger returns a text logger on w. Only warnings are shown unless
// verbose output was requested.
func newLogger(opts *RootOptions, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// signalContext returns a context cancelled on SIGINT or SIGTERM. Races
// stop at their next suspension point and report what they have.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, stopping race", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan) // Prevent signal handler leak
		cancel()
	}
}

// session is a loaded presentation and the congruence racing on it, with
// the optional event store and metrics registry attached.
type session struct {
	p        *ir.Presentation
	c        *congruence.Congruence
	logger   *slog.Logger
	store    *store.Store
	recorder *store.Recorder
	registry *prometheus.Registry
	metrics  string
}

// loadPresentation compiles the YAML or CUE presentation at path.
func loadPresentation(f *OutputFormatter, path string) (*ir.Presentation, error) {
	p, err := compiler.LoadFile(path)
	if err != nil {
		_ = f.Error(ErrCodeLoad, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to load presentation", err)
	}
	f.VerboseLog("Loaded %s: %d generators, %d relations, %d extra pairs",
		p.Name, p.NrGenerators(), len(p.Relations), len(p.Extra))
	return p, nil
}

// openSession loads the presentation at path and builds its congruence.
// Failures are reported through f and returned as an ExitError.
func openSession(ctx context.Context, f *OutputFormatter, path string, o *RaceOptions, logger *slog.Logger) (*session, error) {
	p, err := loadPresentation(f, path)
	if err != nil {
		return nil, err
	}

	mode, err := race.ParseMode(o.Mode)
	if err != nil {
		return nil, f.Fail("invalid --mode", err)
	}
	order, err := o.order()
	if err != nil {
		return nil, f.Fail("invalid --order", err)
	}

	s := &session{p: p, logger: logger, metrics: o.Metrics}
	raceOpts := []race.Option{race.WithMode(mode), race.WithMaxThreads(o.MaxThreads)}

	if o.Database != "" {
		st, err := store.Open(o.Database)
		if err != nil {
			_ = f.Error(ErrCodeStore, err.Error(), nil)
			return nil, WrapExitError(ExitCommandError, "failed to open database", err)
		}
		hash, err := ir.PresentationHash(*p)
		if err != nil {
			st.Close()
			return nil, f.Fail("failed to hash presentation", err)
		}
		s.store = st
		s.recorder = store.NewRecorder(ctx, st, store.Race{
			PresentationHash: hash,
			PresentationName: p.Name,
			EngineVersion:    ir.EngineVersion,
		}, logger)
		raceOpts = append(raceOpts, race.WithObserver(s.recorder.Observe))
	}

	var m *metrics.Metrics
	if o.Metrics != "" {
		s.registry = prometheus.NewRegistry()
		m = metrics.New(s.registry)
	}

	c, err := congruence.New(*p,
		congruence.WithStrategies(o.Strategies...),
		congruence.WithBudget(o.budget()),
		congruence.WithOrder(order),
		congruence.WithLogger(logger),
		congruence.WithMetrics(m),
		congruence.WithRaceOptions(raceOpts...),
	)
	if err != nil {
		s.Close()
		return nil, f.Fail("invalid race configuration", err)
	}
	s.c = c
	return s, nil
}

// run races the strategies and checks the event store kept up.
func (s *session) run(ctx context.Context, f *OutputFormatter) error {
	start := time.Now()
	err := s.c.Run(ctx)
	if s.recorder != nil {
		if recErr := s.recorder.Err(); recErr != nil {
			_ = f.Error(ErrCodeStore, recErr.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to record race", recErr)
		}
	}
	if err != nil {
		return f.Fail("race undecided", err)
	}
	f.VerboseLog("%s won in %s (run %s)", s.c.Winner(), time.Since(start).Round(time.Microsecond), s.c.RunID())
	return nil
}

func (s *session) parseWord(f *OutputFormatter, arg string) (ir.Word, error) {
	return parseWord(f, s.p.Alphabet, arg)
}

// parseWord parses a command-line word over a.
func parseWord(f *OutputFormatter, a ir.Alphabet, arg string) (ir.Word, error) {
	w, err := a.Parse(arg)
	if err != nil {
		_ = f.Error(ErrCodeBadWord, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid word %q", arg), err)
	}
	if len(w) == 0 {
		_ = f.Error(ErrCodeBadWord, "the empty word is not a semigroup element", nil)
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid word %q", arg))
	}
	return w, nil
}

// Close closes the store and writes the metrics file, if any.
func (s *session) Close() error {
	var firstErr error
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Error("error closing database", "error", err)
			firstErr = err
		}
	}
	if s.registry != nil {
		if err := prometheus.WriteToTextfile(s.metrics, s.registry); err != nil {
			s.logger.Error("error writing metrics", "path", s.metrics, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
