package runner

import (
	"context"
	"time"
)

// State is the lifecycle state of a Runner.
type State int32

const (
	// StateNeverRun is the state of a freshly constructed runner.
	StateNeverRun State = iota
	// StateRunning means Run, RunUntil or RunFor is executing.
	StateRunning
	// StateStopped means the last invocation returned; see Reason.
	StateStopped
	// StateDead means the runner was killed and must not be reused.
	StateDead
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateNeverRun:
		return "never_run"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateDead:
		return "dead"
	default:
		return "unknown"
	}
}

// Reason explains why a runner stopped.
type Reason int32

const (
	// ReasonNone is reported while NeverRun or Running.
	ReasonNone Reason = iota
	// ReasonFinished means the computation completed; its result is
	// authoritative.
	ReasonFinished
	// ReasonTimedOut means the time budget expired. Resumable.
	ReasonTimedOut
	// ReasonCancelled means the caller's context was cancelled. Resumable.
	ReasonCancelled
	// ReasonPredicate means the RunUntil predicate became true. Resumable.
	ReasonPredicate
	// ReasonExhausted means a resource cap was exceeded. See Err.
	ReasonExhausted
	// ReasonKilled accompanies StateDead.
	ReasonKilled
)

// String returns the snake_case reason name.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonFinished:
		return "finished"
	case ReasonTimedOut:
		return "timed_out"
	case ReasonCancelled:
		return "cancelled"
	case ReasonPredicate:
		return "stopped_by_predicate"
	case ReasonExhausted:
		return "exhausted"
	case ReasonKilled:
		return "killed"
	default:
		return "unknown"
	}
}

// Runner is an interruptible, resumable computation with a uniform status
// contract.
//
// Thread-safety model:
//   - Run, RunUntil, RunFor: one caller at a time; a concurrent second call
//     while Running is a no-op
//   - Kill, Finished, Dead, State, Reason, Err: safe from any goroutine
type Runner interface {
	// Name identifies the strategy in logs and traces.
	Name() string

	// Run blocks until the computation finishes, the context ends, or Kill
	// is called.
	Run(ctx context.Context) error

	// RunUntil is Run that also stops once pred returns true. pred is
	// polled at suspension points and must be cheap and thread-safe.
	RunUntil(ctx context.Context, pred func() bool) error

	// RunFor is Run with a time budget; expiry stops with ReasonTimedOut.
	RunFor(ctx context.Context, d time.Duration) error

	// Kill makes the runner Dead. An in-progress run returns at its next
	// suspension point.
	Kill()

	// Finished reports Stopped(Finished).
	Finished() bool

	// Dead reports whether Kill was called.
	Dead() bool

	// State returns the current lifecycle state.
	State() State

	// Reason returns why the runner last stopped.
	Reason() Reason

	// Err returns the failure recorded with ReasonExhausted, if any.
	Err() error
}

// StopFunc reports whether the body must return at this suspension point.
type StopFunc func() bool

// Body performs or resumes a computation. It returns done=true once the
// computation is complete, done=false when it returned because stop
// reported true, and a non-nil error when the algorithm failed.
//
// A Body is only ever invoked by one goroutine at a time.
type Body func(ctx context.Context, stop StopFunc) (done bool, err error)
