package testutil

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/roach88/semirace/internal/runner"
)

// Scripted is a runner whose body takes a fixed number of steps, each one
// a suspension point. Progress survives across invocations.
type Scripted struct {
	*runner.Base

	steps int64
	delay time.Duration
	fail  error
	done  atomic.Int64
}

// ScriptedOption configures a Scripted runner.
type ScriptedOption func(*Scripted)

// WithStepDelay sleeps d after every step.
func WithStepDelay(d time.Duration) ScriptedOption {
	return func(s *Scripted) {
		s.delay = d
	}
}

// WithFailure makes the body return err after its steps instead of
// finishing.
func WithFailure(err error) ScriptedOption {
	return func(s *Scripted) {
		s.fail = err
	}
}

// NewScripted returns a runner that finishes after steps suspension
// points. steps < 0 means it never finishes on its own.
func NewScripted(name string, steps int64, opts ...ScriptedOption) *Scripted {
	s := &Scripted{steps: steps}
	for _, opt := range opts {
		opt(s)
	}
	s.Base = runner.NewBase(name, s.body)
	return s
}

// Steps returns how many steps have completed.
func (s *Scripted) Steps() int64 {
	return s.done.Load()
}

func (s *Scripted) body(ctx context.Context, stop runner.StopFunc) (bool, error) {
	for s.steps < 0 || s.done.Load() < s.steps {
		if stop() {
			return false, nil
		}
		s.done.Add(1)
		if s.delay > 0 {
			time.Sleep(s.delay)
		}
	}
	if s.fail != nil {
		return false, s.fail
	}
	return true, nil
}
