// Package race runs several runners that answer the same question and
// keeps the first authoritative answer.
//
// ARCHITECTURE:
//
// A Race owns its runners. In Parallel mode each runner gets one
// goroutine from an errgroup and runs RunUntil(ctx, winnerSet). In
// Sequential mode one goroutine drives the runners round-robin in short
// bursts, which makes races reproducible in tests.
//
// Winner claim:
// The first runner observed Stopped(Finished) takes the race mutex, fills
// the write-once winner slot and kills every other runner before
// releasing the lock. Two runners finishing at the same instant are
// ordered by who acquires the mutex first; insertion order plays no part.
//
// Teardown:
// Run returns only after every runner goroutine has returned, so no
// runner is left executing once the caller sees the race as finished.
//
// Events:
// Lifecycle events (race start, each runner stop, the winner, race end)
// are stamped with a logical Clock and delivered to observers one at a
// time, in seq order.
package race
