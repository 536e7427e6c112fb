// Package runner defines the lifecycle contract shared by every long-running,
// interruptible computation in semirace.
//
// A Runner moves through the states
//
//	NeverRun -> Running -> Stopped(reason) | Dead
//
// and may be resumed from Stopped unless the reason is Finished or
// Exhausted. Dead is terminal and only reached through Kill.
//
// # Cooperative Cancellation
//
// Runners are never preempted. The algorithm body receives a StopFunc and
// must call it at every suspension point (for Knuth-Bendix, once per rule
// pair and once per overlap; for coset enumeration, once per coset). As soon as the StopFunc reports
// true the body returns, leaving its data valid but not authoritative. The
// bounded interval between suspension points is what lets a Race guarantee
// bounded teardown.
//
// StopFunc reports true when any of the following holds:
//   - Kill was called (state becomes Dead)
//   - the context was cancelled (Stopped(Cancelled), resumable)
//   - the context deadline passed (Stopped(TimedOut), resumable)
//   - the RunUntil predicate is true (Stopped(Predicate), resumable)
//
// # Errors
//
// Ordinary non-completion is never an error. Run returns an error only for
// lifecycle misuse (running a Dead runner) or an algorithm failure such as a
// cap being exceeded, which also leaves the runner Stopped(Exhausted).
package runner
