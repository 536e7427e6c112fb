package store

import (
	"context"
	"fmt"

	"github.com/roach88/semirace/internal/race"
)

// Race is one recorded race.
type Race struct {
	ID               string `json:"id"`
	PresentationHash string `json:"presentation_hash"`
	PresentationName string `json:"presentation_name"`
	Mode             string `json:"mode"`
	Outcome          string `json:"outcome"`
	Winner           string `json:"winner"`
	Seq              int64  `json:"seq"`
	EngineVersion    string `json:"engine_version"`
}

// BeginRace inserts a race row and assigns it the next store-wide seq,
// which is returned. Re-inserting an existing ID is a no-op that returns
// the recorded seq.
func (s *Store) BeginRace(ctx context.Context, r Race) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin race: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	var seq int64
	err = tx.QueryRowContext(ctx, `SELECT seq FROM races WHERE id = ?`, r.ID).Scan(&seq)
	if err == nil {
		return seq, tx.Commit()
	}

	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM races`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("begin race: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO races
		(id, presentation_hash, presentation_name, mode, outcome, winner, seq, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID,
		r.PresentationHash,
		r.PresentationName,
		r.Mode,
		r.Outcome,
		r.Winner,
		seq,
		r.EngineVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("begin race: insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("begin race: commit: %w", err)
	}
	return seq, nil
}

// FinishRace records a race's outcome and winner.
func (s *Store) FinishRace(ctx context.Context, id, outcome, winner string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE races SET outcome = ?, winner = ? WHERE id = ?
	`, outcome, winner, id)
	if err != nil {
		return fmt.Errorf("finish race: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish race: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish race %s: %w", id, ErrNotFound)
	}
	return nil
}

// WriteEvent appends a race event. Uses ON CONFLICT DO NOTHING for
// idempotency: an event is identified by (run ID, seq).
//
// Note: The race referenced by e.RunID must exist (foreign key constraint).
func (s *Store) WriteEvent(ctx context.Context, e race.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO race_events
		(race_id, seq, kind, runner, state, reason)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(race_id, seq) DO NOTHING
	`,
		e.RunID,
		e.Seq,
		string(e.Kind),
		e.Runner,
		e.State,
		e.Reason,
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
