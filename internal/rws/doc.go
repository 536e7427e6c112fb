// Package rws implements string rewriting systems and Knuth-Bendix
// completion.
//
// A System owns an ordered set of rules LHS -> RHS, each oriented by a
// reduction Order, and reduces words to normal form. KnuthBendix is a
// runner.Runner that drives a System towards confluence by resolving
// critical pairs between rule left-hand sides.
//
// # Mutation Model
//
// Rules are only ever appended or have their RHS reduced further. No rule is
// removed, so a System that was confluent stays a valid (if redundant)
// rewriting system for the same congruence after any later AddRule.
//
// # Termination
//
// Completion does not terminate for every presentation: the word problem
// for finitely presented semigroups is undecidable, and a presentation with
// no finite complete rewriting system keeps KnuthBendix Running until it is
// killed, times out, or exceeds its rule cap. This is a property of the
// problem, not a defect.
//
// # Concurrency
//
// Rewrite, Equal and the read accessors never mutate the System and may run
// concurrently with each other. AddRule and completion mutate it; reading a
// System from another goroutine while its KnuthBendix is Running is
// undefined. Callers that need a stable snapshot wait for the runner to
// stop.
package rws
