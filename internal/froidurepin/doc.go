// Package froidurepin enumerates a finite semigroup from its generators
// with the Froidure-Pin algorithm.
//
// Elements are discovered breadth-first in shortlex order of their
// minimal words over the generators, so Position(e) is the rank of e's
// shortlex-least factorisation among all elements. Every product that
// hits a known element yields a defining relation, except those implied
// by an earlier relation on the suffix; the resulting relation set
// presents the semigroup.
package froidurepin
