package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/roach88/semirace/internal/race"
)

// Recorder is a race.Observer that writes every event to a Store.
//
// The race row is created on EventStarted from the template given to
// NewRecorder, and its outcome is filled in on EventFinished. Observers
// cannot fail a race, so write errors are logged and kept for Err.
type Recorder struct {
	ctx      context.Context
	store    *Store
	template Race
	logger   *slog.Logger

	mu   sync.Mutex
	errs []error
}

// NewRecorder creates a recorder. template supplies the presentation
// hash, presentation name and engine version of every race it records.
func NewRecorder(ctx context.Context, s *Store, template Race, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Recorder{ctx: ctx, store: s, template: template, logger: logger}
}

// Observe implements race.Observer.
func (r *Recorder) Observe(e race.Event) {
	if e.Kind == race.EventStarted {
		rec := r.template
		rec.ID = e.RunID
		rec.Mode = e.State
		if _, err := r.store.BeginRace(r.ctx, rec); err != nil {
			r.fail(e, err)
			return
		}
	}

	if err := r.store.WriteEvent(r.ctx, e); err != nil {
		r.fail(e, err)
		return
	}

	if e.Kind == race.EventFinished {
		if err := r.store.FinishRace(r.ctx, e.RunID, e.Reason, e.Runner); err != nil {
			r.fail(e, err)
		}
	}
}

// Err returns every write error so far, joined.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.errs...)
}

func (r *Recorder) fail(e race.Event, err error) {
	r.logger.Warn("failed to record race event",
		"run_id", e.RunID,
		"seq", e.Seq,
		"kind", string(e.Kind),
		"error", err,
	)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}
