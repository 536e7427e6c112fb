package race

// EventKind names a race lifecycle event.
type EventKind string

const (
	// EventStarted is emitted once, before any runner starts.
	EventStarted EventKind = "race_started"
	// EventRunnerStopped is emitted each time a runner invocation returns,
	// except for sequential bursts that end on their step bound: those are
	// reported once, when the race ends.
	EventRunnerStopped EventKind = "runner_stopped"
	// EventWinner is emitted when a runner claims the winner slot.
	EventWinner EventKind = "winner"
	// EventFinished is emitted once, after every runner has returned.
	EventFinished EventKind = "race_finished"
)

// Outcome values carried by EventFinished in Reason.
const (
	OutcomeWon      = "won"
	OutcomeNoWinner = "no_winner"
)

// Event is one race lifecycle event.
type Event struct {
	RunID  string    `json:"run_id"`
	Seq    int64     `json:"seq"`
	Kind   EventKind `json:"kind"`
	Runner string    `json:"runner,omitempty"`
	State  string    `json:"state,omitempty"`
	Reason string    `json:"reason,omitempty"`
}

// Observer receives race events. Calls are serialised by the race; an
// observer must not call back into the Race.
type Observer func(Event)
