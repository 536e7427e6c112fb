package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/semirace/internal/ir"
)

// stepBody returns a resumable body that needs total steps to finish.
// Progress survives across invocations, like a real algorithm's state.
func stepBody(total int64, progress *atomic.Int64) Body {
	return func(ctx context.Context, stop StopFunc) (bool, error) {
		for progress.Load() < total {
			if stop() {
				return false, nil
			}
			progress.Add(1)
		}
		return true, nil
	}
}

// spinBody never finishes on its own.
func spinBody(started chan<- struct{}) Body {
	var once sync.Once
	return func(ctx context.Context, stop StopFunc) (bool, error) {
		once.Do(func() { close(started) })
		for !stop() {
			time.Sleep(50 * time.Microsecond)
		}
		return false, nil
	}
}

func TestBase_RunToCompletion(t *testing.T) {
	var progress atomic.Int64
	r := NewBase("counter", stepBody(100, &progress))

	assert.Equal(t, StateNeverRun, r.State())
	require.NoError(t, r.Run(context.Background()))

	assert.True(t, r.Finished())
	assert.False(t, r.Dead())
	assert.Equal(t, StateStopped, r.State())
	assert.Equal(t, ReasonFinished, r.Reason())
	assert.Equal(t, int64(100), progress.Load())
	assert.GreaterOrEqual(t, r.Polls(), int64(100))
}

func TestBase_RunAfterFinished_IsNoOp(t *testing.T) {
	calls := 0
	r := NewBase("once", func(ctx context.Context, stop StopFunc) (bool, error) {
		calls++
		return true, nil
	})

	require.NoError(t, r.Run(context.Background()))
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestBase_ReentrantRunWhileRunning_IsNoOp(t *testing.T) {
	started := make(chan struct{})
	r := NewBase("spin", spinBody(started))

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()
	<-started

	// Second call returns immediately without touching the running body
	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, StateRunning, r.State())

	r.Kill()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run did not return after kill")
	}
	assert.True(t, r.Dead())
	assert.Equal(t, ReasonKilled, r.Reason())
}

func TestBase_KillBeforeRun(t *testing.T) {
	var progress atomic.Int64
	r := NewBase("victim", stepBody(10, &progress))
	r.Kill()

	assert.True(t, r.Dead())
	err := r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, ir.IsConfigurationError(err))
	assert.Zero(t, progress.Load(), "dead runner must not execute")
}

func TestBase_KillAfterFinished_MakesDead(t *testing.T) {
	r := NewBase("finisher", func(ctx context.Context, stop StopFunc) (bool, error) {
		return true, nil
	})
	require.NoError(t, r.Run(context.Background()))
	require.True(t, r.Finished())

	r.Kill()
	assert.True(t, r.Dead())
	assert.False(t, r.Finished())
}

func TestBase_RunUntil_PredicateThenResume(t *testing.T) {
	var progress atomic.Int64
	r := NewBase("resumable", stepBody(50, &progress))

	require.NoError(t, r.RunUntil(context.Background(), func() bool {
		return progress.Load() >= 20
	}))
	assert.Equal(t, ReasonPredicate, r.Reason())
	assert.False(t, r.Finished())
	assert.Equal(t, int64(20), progress.Load())

	require.NoError(t, r.Run(context.Background()))
	assert.True(t, r.Finished())
	assert.Equal(t, int64(50), progress.Load())
}

func TestBase_RunFor_TimesOut(t *testing.T) {
	started := make(chan struct{})
	r := NewBase("slow", spinBody(started))

	require.NoError(t, r.RunFor(context.Background(), 20*time.Millisecond))
	assert.Equal(t, StateStopped, r.State())
	assert.Equal(t, ReasonTimedOut, r.Reason())
}

func TestBase_ContextCancel_IsResumable(t *testing.T) {
	started := make(chan struct{})
	r := NewBase("cancellable", spinBody(started))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	<-started
	cancel()

	require.NoError(t, <-done)
	assert.Equal(t, ReasonCancelled, r.Reason())
	assert.False(t, r.Dead())
}

func TestBase_BodyError_IsExhausted(t *testing.T) {
	boom := ir.NewResourceExhaustedError("rules", 3, 2)
	calls := 0
	r := NewBase("capped", func(ctx context.Context, stop StopFunc) (bool, error) {
		calls++
		return false, boom
	})

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, ReasonExhausted, r.Reason())
	assert.Equal(t, boom, r.Err())

	// Rerun reports the same failure without re-executing
	err = r.Run(context.Background())
	assert.True(t, errors.Is(err, boom))
	assert.Equal(t, 1, calls)
}

func TestBase_KillFromManyGoroutines(t *testing.T) {
	started := make(chan struct{})
	r := NewBase("contended", spinBody(started))

	done := make(chan error, 1)
	go func() { done <- r.Run(context.Background()) }()
	<-started

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Kill()
			_ = r.Dead()
			_ = r.Finished()
		}()
	}
	wg.Wait()

	require.NoError(t, <-done)
	assert.True(t, r.Dead())
}

func TestStateAndReasonStrings(t *testing.T) {
	assert.Equal(t, "never_run", StateNeverRun.String())
	assert.Equal(t, "dead", StateDead.String())
	assert.Equal(t, "stopped_by_predicate", ReasonPredicate.String())
	assert.Equal(t, "timed_out", ReasonTimedOut.String())
}
