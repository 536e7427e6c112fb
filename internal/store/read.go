package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/semirace/internal/race"
)

// ReadRace returns one race. Wraps ErrNotFound if it does not exist.
func (s *Store) ReadRace(ctx context.Context, id string) (Race, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, presentation_hash, presentation_name, mode, outcome, winner, seq, engine_version
		FROM races
		WHERE id = ?
	`, id)
	r, err := scanRace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Race{}, fmt.Errorf("read race %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Race{}, fmt.Errorf("read race %s: %w", id, err)
	}
	return r, nil
}

// ReadRaces returns every race in seq order.
//
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadRaces(ctx context.Context) ([]Race, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, presentation_hash, presentation_name, mode, outcome, winner, seq, engine_version
		FROM races
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query races: %w", err)
	}
	defer rows.Close()

	races := []Race{}
	for rows.Next() {
		r, err := scanRace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan race: %w", err)
		}
		races = append(races, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate races: %w", err)
	}
	return races, nil
}

// ReadEvents returns a race's events in seq order.
//
// Returns an empty slice (not nil) if there are none.
func (s *Store) ReadEvents(ctx context.Context, raceID string) ([]race.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT race_id, seq, kind, runner, state, reason
		FROM race_events
		WHERE race_id = ?
		ORDER BY seq ASC
	`, raceID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []race.Event{}
	for rows.Next() {
		var e race.Event
		var kind string
		if err := rows.Scan(&e.RunID, &e.Seq, &kind, &e.Runner, &e.State, &e.Reason); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = race.EventKind(kind)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// WinCounts returns how many races each runner has won.
func (s *Store) WinCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT winner, COUNT(*) FROM races
		WHERE winner != ''
		GROUP BY winner
		ORDER BY winner COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query win counts: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scan win count: %w", err)
		}
		out[name] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate win counts: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRace(row scanner) (Race, error) {
	var r Race
	err := row.Scan(
		&r.ID,
		&r.PresentationHash,
		&r.PresentationName,
		&r.Mode,
		&r.Outcome,
		&r.Winner,
		&r.Seq,
		&r.EngineVersion,
	)
	return r, err
}
