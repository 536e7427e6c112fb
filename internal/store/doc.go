// Package store provides SQLite-backed storage for race traces.
//
// The store is an append-only log of race lifecycle events:
//   - Races: one row per run, keyed by run ID, with the presentation
//     hash, mode, outcome and winner
//   - Race events: every event the race emitted, keyed by (race, seq)
//
// Only lifecycle events are stored. Rules, normal forms and class tables
// never reach the database.
//
// # Ordering
//
// All ordering uses seq INTEGER (logical clock), never timestamps. Races
// get a store-wide seq at BeginRace; events keep the race's own clock.
// Every query orders by seq ASC, id ASC COLLATE BINARY.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
