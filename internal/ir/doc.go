// Package ir provides the shared value types for semirace: words over a
// finite alphabet, rewriting rules, defining relations, presentations and
// the error taxonomy used by every other package.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps ir the foundational
// layer with no circular dependencies.
//
// Key design constraints:
//   - Words are value types: every API that stores a Word copies it
//   - Letters are generator indices, never names; names live in Alphabet
//   - Generator names are NFC normalised at the parsing boundary
//   - All JSON tags use snake_case
package ir
