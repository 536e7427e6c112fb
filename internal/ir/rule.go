package ir

import (
	"fmt"
	"strconv"
)

// Relation is an unoriented defining pair of words.
type Relation struct {
	Left  Word `json:"left" yaml:"left"`
	Right Word `json:"right" yaml:"right"`
}

// NewRelation copies both sides into a Relation.
func NewRelation(left, right Word) Relation {
	return Relation{Left: left.Clone(), Right: right.Clone()}
}

// String renders the relation as "left = right".
func (r Relation) String() string {
	return fmt.Sprintf("%s = %s", r.Left, r.Right)
}

// Rule is an oriented rewriting rule LHS -> RHS.
//
// INVARIANT: LHS > RHS under the reduction order of the system that owns
// the rule. A Rule on its own does not know which order that is.
type Rule struct {
	LHS Word `json:"lhs" yaml:"lhs"`
	RHS Word `json:"rhs" yaml:"rhs"`
}

// Clone returns a deep copy of r.
func (r Rule) Clone() Rule {
	return Rule{LHS: r.LHS.Clone(), RHS: r.RHS.Clone()}
}

// Key identifies the rule by both sides. The LHS length prefix keeps the
// boundary between the two encodings unambiguous.
func (r Rule) Key() string {
	return strconv.Itoa(len(r.LHS)) + ":" + r.LHS.Key() + r.RHS.Key()
}

// String renders the rule as "lhs -> rhs".
func (r Rule) String() string {
	return fmt.Sprintf("%s -> %s", r.LHS, r.RHS)
}
