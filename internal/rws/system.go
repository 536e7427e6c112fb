package rws

import (
	"sync/atomic"

	"github.com/roach88/semirace/internal/ir"
)

// System is a string rewriting system over a fixed alphabet.
//
// INVARIANTS:
//   - every rule satisfies order.Compare(LHS, RHS) > 0
//   - no two rules share a LHS (index maps each LHS key to one position)
//   - rules are never removed; positions are stable
//   - confluent is true only while a certifying pass has seen every rule
type System struct {
	nrGenerators int
	order        Order

	rules   []ir.Rule
	index   map[string]int // LHS key -> position in rules
	lhsLens []int          // distinct LHS lengths, descending

	// changed holds positions whose RHS was replaced by AddRule since the
	// last drainChanged. Completion re-checks their critical pairs.
	changed []int

	confluent atomic.Bool
}

// Option configures a System.
type Option func(*System)

// WithOrder sets the reduction order. Default: ShortLex.
func WithOrder(o Order) Option {
	return func(s *System) {
		if o != nil {
			s.order = o
		}
	}
}

// New creates an empty System over nrGenerators letters.
//
// An empty system is trivially confluent, but the flag starts false: only
// a completion pass or CheckConfluent certifies confluence.
func New(nrGenerators int, opts ...Option) *System {
	s := &System{
		nrGenerators: nrGenerators,
		order:        ShortLex{},
		index:        make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NrGenerators returns the alphabet size.
func (s *System) NrGenerators() int {
	return s.nrGenerators
}

// Order returns the reduction order.
func (s *System) Order() Order {
	return s.order
}

// NrRules returns the number of rules.
func (s *System) NrRules() int {
	return len(s.rules)
}

// Rules returns a copy of the rules in insertion order.
func (s *System) Rules() []ir.Rule {
	out := make([]ir.Rule, len(s.rules))
	for i, r := range s.rules {
		out[i] = r.Clone()
	}
	return out
}

// Confluent reports whether confluence has been certified since the last
// change to the rule set. It is conservative: false never means the
// system is known to be non-confluent.
func (s *System) Confluent() bool {
	return s.confluent.Load()
}

// AddRule orients the pair (u, v) and adds it as a rule.
//
// Equal words are a no-op. If a rule with the same LHS exists, the smaller
// of the two right-hand sides wins and the equation between the old and
// new right-hand sides is added in turn, so no consequence is lost. Any
// change resets the confluence flag.
//
// Returns an OutOfRange error for letters outside the alphabet and a
// configuration error if the order reports two different words as equal.
func (s *System) AddRule(u, v ir.Word) error {
	if err := ir.CheckWord(u, s.nrGenerators); err != nil {
		return err
	}
	if err := ir.CheckWord(v, s.nrGenerators); err != nil {
		return err
	}
	return s.addOriented(u, v)
}

// AddRelations adds every relation as a rule.
func (s *System) AddRelations(rels []ir.Relation) error {
	for _, r := range rels {
		if err := s.AddRule(r.Left, r.Right); err != nil {
			return err
		}
	}
	return nil
}

func (s *System) addOriented(u, v ir.Word) error {
	lhs, rhs := u, v
	switch s.order.Compare(u, v) {
	case 0:
		if u.Equal(v) {
			return nil
		}
		return ir.NewConfigurationError("order %s is not total: %v and %v compare equal", s.order.Name(), u, v)
	case -1:
		lhs, rhs = v, u
	}

	key := lhs.Key()
	pos, exists := s.index[key]
	if !exists {
		s.rules = append(s.rules, ir.Rule{LHS: lhs.Clone(), RHS: rhs.Clone()})
		s.index[key] = len(s.rules) - 1
		s.noteLHSLen(len(lhs))
		s.confluent.Store(false)
		return nil
	}

	old := s.rules[pos].RHS
	if s.order.Compare(rhs, old) >= 0 {
		// Existing rule is at least as strong; keep the equation rhs = old.
		return s.addOriented(rhs, old)
	}
	s.rules[pos].RHS = rhs.Clone()
	s.changed = append(s.changed, pos)
	s.confluent.Store(false)
	return s.addOriented(old, rhs)
}

func (s *System) noteLHSLen(n int) {
	for i, l := range s.lhsLens {
		if l == n {
			return
		}
		if l < n {
			s.lhsLens = append(s.lhsLens, 0)
			copy(s.lhsLens[i+1:], s.lhsLens[i:])
			s.lhsLens[i] = n
			return
		}
	}
	s.lhsLens = append(s.lhsLens, n)
}

// drainChanged returns and clears the positions changed by AddRule.
func (s *System) drainChanged() []int {
	out := s.changed
	s.changed = nil
	return out
}

// Rewrite returns the normal form of w.
//
// Letters are moved one at a time from the input onto an irreducible
// prefix. Whenever the prefix gains a reducible suffix, the greatest LHS
// (under the order) ending there is replaced by its RHS, which is pushed
// back onto the input. Each replacement strictly decreases the word in a
// well-founded order, so Rewrite terminates.
func (s *System) Rewrite(w ir.Word) (ir.Word, error) {
	if err := ir.CheckWord(w, s.nrGenerators); err != nil {
		return nil, err
	}
	return s.rewrite(w), nil
}

// MustRewrite is like Rewrite but panics on error.
// Use only in tests or when inputs are known to be valid.
func (s *System) MustRewrite(w ir.Word) ir.Word {
	nf, err := s.Rewrite(w)
	if err != nil {
		panic(err)
	}
	return nf
}

func (s *System) rewrite(w ir.Word) ir.Word {
	if len(s.rules) == 0 {
		return w.Clone()
	}
	// in is a stack: the next letter to read is on top.
	in := make(ir.Word, len(w))
	for i, l := range w {
		in[len(w)-1-i] = l
	}
	out := make(ir.Word, 0, len(w))

	for len(in) > 0 {
		out = append(out, in[len(in)-1])
		in = in[:len(in)-1]

		pos, n := s.matchSuffix(out)
		if pos < 0 {
			continue
		}
		out = out[:len(out)-n]
		rhs := s.rules[pos].RHS
		for i := len(rhs) - 1; i >= 0; i-- {
			in = append(in, rhs[i])
		}
	}
	return out
}

// matchSuffix returns the position and length of the greatest rule LHS that
// is a suffix of w, or (-1, 0).
func (s *System) matchSuffix(w ir.Word) (int, int) {
	best, bestLen := -1, 0
	for _, n := range s.lhsLens {
		if n > len(w) {
			continue
		}
		pos, ok := s.index[w[len(w)-n:].Key()]
		if !ok {
			continue
		}
		if best < 0 {
			best, bestLen = pos, n
			continue
		}
		// Earlier insertion wins a tie, which only a non-total order produces.
		if c := s.order.Compare(s.rules[pos].LHS, s.rules[best].LHS); c > 0 || (c == 0 && pos < best) {
			best, bestLen = pos, n
		}
	}
	return best, bestLen
}

// isReducible reports whether some rule LHS occurs in w.
func (s *System) isReducible(w ir.Word) bool {
	for end := 1; end <= len(w); end++ {
		if pos, _ := s.matchSuffix(w[:end]); pos >= 0 {
			return true
		}
	}
	return false
}

// Equal reports whether u and v have the same normal form. The answer
// decides the congruence only once the system is confluent.
func (s *System) Equal(u, v ir.Word) (bool, error) {
	nu, err := s.Rewrite(u)
	if err != nil {
		return false, err
	}
	nv, err := s.Rewrite(v)
	if err != nil {
		return false, err
	}
	return nu.Equal(nv), nil
}
